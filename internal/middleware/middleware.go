package middleware

import (
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/rs/zerolog"
)

// Apply installs the shared middleware chain and error handler on e.
// Order: request id first so the logger can see it, recover innermost so
// panics are logged as 500s.
func Apply(e *echo.Echo, log zerolog.Logger, corsOrigins []string) {
    e.HideBanner = true
    e.HidePort = true
    e.HTTPErrorHandler = JSONErrorHandler(log)
    e.Use(RequestID())
    e.Use(RequestLogger(log))
    e.Use(CORS(corsOrigins))
    e.Use(Recover(log))
}

// Recover turns a panic into an error for JSONErrorHandler and logs the
// stack through zerolog.
func Recover(log zerolog.Logger) echo.MiddlewareFunc {
    return echomw.RecoverWithConfig(echomw.RecoverConfig{
        LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
            log.Error().Err(err).
                Str("uri", c.Request().RequestURI).
                Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
                Bytes("stack", stack).
                Msg("panic recovered")
            return err
        },
    })
}
