package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// AdminAuth gates the admin API behind a shared bearer token. An empty
// configured token disables the admin surface entirely.
func AdminAuth(apiToken string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if apiToken == "" {
				return echo.NewHTTPError(http.StatusForbidden, "admin API disabled")
			}

			auth := c.Request().Header.Get("Authorization")
			token, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(apiToken)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid admin token")
			}

			return next(c)
		}
	}
}
