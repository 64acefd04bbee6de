package handler

import (
    "net/http" // HTTP status codes

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/user-auth-service/internal/service" // error taxonomy
)

// msgResp is the envelope every auth endpoint answers with.
type msgResp struct {
    Success bool   `json:"success"`
    Message string `json:"message"`
}

func ok(c echo.Context, status int, msg string) error {
    return c.JSON(status, msgResp{Success: true, Message: msg})
}

func fail(c echo.Context, status int, msg string) error {
    return c.JSON(status, msgResp{Success: false, Message: msg})
}

// failErr writes err with the status its kind maps to.
func failErr(c echo.Context, err error) error {
    return fail(c, statusFor(service.KindOf(err)), service.MessageOf(err))
}

// statusFor maps a service error kind to an HTTP status code.
func statusFor(k service.Kind) int {
    switch k {
    case service.KindValidation, service.KindConflict:
        return http.StatusBadRequest
    case service.KindUnauthorized:
        return http.StatusUnauthorized
    case service.KindNotFound:
        return http.StatusNotFound
    }
    return http.StatusInternalServerError
}

// badJSON answers a body that could not be bound.
func badJSON(c echo.Context) error {
    return fail(c, http.StatusBadRequest, "Invalid JSON data")
}
