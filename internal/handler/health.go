package handler // declare the package name; contains HTTP handlers

import (
    "database/sql" // the pool being probed
    "net/http"     // net/http provides status codes and response helpers
    "sort"         // stable endpoint listing

    "github.com/labstack/echo/v4" // echo is the web framework used for this project

    "github.com/iliyamo/user-auth-service/internal/database" // connectivity probe
)

// Health returns a health-check endpoint used by load balancers and
// monitoring systems.  The process answers 200 while it is running; the
// database field reports whether the store is reachable right now.
func Health(db *sql.DB) echo.HandlerFunc {
    return func(c echo.Context) error {
        state := "disconnected"
        if database.Ping(c.Request().Context(), db) {
            state = "connected"
        }
        return c.JSON(http.StatusOK, echo.Map{
            "success":  true,
            "status":   "healthy",
            "database": state,
        })
    }
}

// Index lists the endpoints mounted on this process.
func Index(endpoints map[string]string) echo.HandlerFunc {
    keys := make([]string, 0, len(endpoints))
    for k := range endpoints {
        keys = append(keys, k)
    }
    sort.Strings(keys)
    return func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{
            "success":   true,
            "message":   "Welcome to User Management API",
            "endpoints": endpoints,
            "routes":    keys,
        })
    }
}
