package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const userContextKey = "auth.userID"

// Middleware validates the Bearer token and stores the session user id in
// the request context.
func Middleware(manager *Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims, err := manager.Validate(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			c.Set(userContextKey, claims.UserID)
			return next(c)
		}
	}
}

// CurrentUserID returns the authenticated user id for the request, if any.
func CurrentUserID(c echo.Context) (string, bool) {
	userID, ok := c.Get(userContextKey).(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}
