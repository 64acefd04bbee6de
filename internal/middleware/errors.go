package middleware

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
)

// JSONErrorHandler renders errors that escape handlers (unknown routes,
// wrong methods, recovered panics) in the same envelope the handlers use.
// Internal error details are logged, never returned.
func JSONErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }
        code := http.StatusInternalServerError
        msg := "Server error"
        var he *echo.HTTPError
        if errors.As(err, &he) {
            code = he.Code
            switch code {
            case http.StatusNotFound:
                msg = "Endpoint " + c.Request().URL.Path + " not found"
            case http.StatusMethodNotAllowed:
                msg = "Method " + c.Request().Method + " not allowed"
            default:
                if s, ok := he.Message.(string); ok && code < 500 {
                    msg = s
                }
            }
        }
        if code >= 500 {
            log.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("unhandled error")
        }

        if c.Request().Method == http.MethodHead {
            _ = c.NoContent(code)
            return
        }
        _ = c.JSON(code, echo.Map{
            "success":     false,
            "error":       msg,
            "status_code": code,
        })
    }
}
