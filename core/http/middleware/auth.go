package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/voxscribe/voxscribe/core/config"
)

// APIKey enforces bearer-token authentication when API keys are configured.
// The key set is read per request so dynamic reloads take effect without a
// restart. Health probes stay open.
func APIKey(appConfig *config.ApplicationConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(appConfig.ApiKeys) == 0 {
				return next(c)
			}
			if c.Path() == "/healthz" || c.Path() == "/readyz" {
				return next(c)
			}

			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok {
				return echo.ErrUnauthorized
			}
			for _, key := range appConfig.ApiKeys {
				if token == key {
					return next(c)
				}
			}
			return echo.ErrUnauthorized
		}
	}
}
