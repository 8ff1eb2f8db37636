package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/services/metrics"
)

// permissionMiddleware only lets through users allowed to perform action on resource.
func permissionMiddleware(resource, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			gate, err := getContextGate(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context gate")
			}
			if !gate.Allowed(resource, action) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// metricsMiddleware records every request, by route. Errors are handled here so that the
// recorded status is the one sent.
func metricsMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			done := m.TrackHTTPRequest(ctx.Request().Method, ctx.Path())
			if err := next(ctx); err != nil {
				ctx.Error(err)
			}
			done(ctx.Response().Status)
			return nil
		}
	}
}
