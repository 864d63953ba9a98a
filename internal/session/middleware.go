package session

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const contextKey = "session"

// RequireToken validates the bearer token on every request and puts the
// carried session on the echo context under "session".
func RequireToken(issuer *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}
			sess, err := issuer.Verify(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			c.Set(contextKey, sess)
			return next(c)
		}
	}
}

// FromContext returns the session placed on the context by RequireToken.
func FromContext(c echo.Context) (Session, bool) {
	sess, ok := c.Get(contextKey).(Session)
	return sess, ok
}
