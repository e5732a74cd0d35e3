package gallery

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// DefineServer builds the echo instance with the shared middleware chain.
// The /probe endpoint is skipped by the request logger to keep health checks
// out of the logs.
func DefineServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/probe"
		},
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogError:     true,
		LogRemoteIP:  true,
		LogRoutePath: true,
		HandleError:  false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				slog.Error("http request",
					"method", v.Method,
					"uri", v.URI,
					"route", v.RoutePath,
					"status", v.Status,
					"latency", v.Latency,
					"remote_ip", v.RemoteIP,
					"error", v.Error)
			} else {
				slog.Info("http request",
					"method", v.Method,
					"uri", v.URI,
					"route", v.RoutePath,
					"status", v.Status,
					"latency", v.Latency,
					"remote_ip", v.RemoteIP)
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())
	e.Pre(middleware.RemoveTrailingSlash())

	e.Validator = &GenericEchoValidator{}

	return e
}
