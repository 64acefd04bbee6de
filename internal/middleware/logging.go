package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "github.com/google/uuid"                      // request id generator
    "github.com/labstack/echo/v4"                 // Echo framework used for defining middleware and handlers
    echomw "github.com/labstack/echo/v4/middleware" // Echo's bundled middleware
    "github.com/rs/zerolog"                       // structured logger
)

// RequestID tags every request with a UUID in the X-Request-Id header,
// keeping an id supplied by the caller.
func RequestID() echo.MiddlewareFunc {
    return echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString})
}

// RequestLogger writes one zerolog line per request.  Server errors are
// logged at error level with the handler's error attached; request bodies
// are never logged because they carry passwords and tokens.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRemoteIP:  true,
        LogRequestID: true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            ev := log.Info()
            if v.Error != nil || v.Status >= 500 {
                ev = log.Error().Err(v.Error)
            }
            ev.Str("method", v.Method).
                Str("uri", v.URI).
                Int("status", v.Status).
                Dur("latency", v.Latency).
                Str("remote_ip", v.RemoteIP).
                Str("request_id", v.RequestID).
                Msg("request")
            return nil
        },
    })
}
