package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
)

// CORS allows the browser front-ends served from other origins to call the
// API and answers OPTIONS preflights.  An empty origins list allows any.
func CORS(origins []string) echo.MiddlewareFunc {
    if len(origins) == 0 {
        origins = []string{"*"}
    }
    return echomw.CORSWithConfig(echomw.CORSConfig{
        AllowOrigins: origins,
        AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
        AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
    })
}
