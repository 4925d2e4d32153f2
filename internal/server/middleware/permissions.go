package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

// Can reports whether the user holds permission. Admins hold every
// permission.
func (u *AppUser) Can(permission string) bool {
	if u == nil {
		return false
	}
	return u.Role == "admin" || slices.Contains(u.Permissions, permission)
}

func RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := c.(*AppContext).User
			if user == nil {
				return unauthorized(c)
			}

			if !user.Can(permission) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden: missing permission " + permission})
			}

			return next(c)
		}
	}
}
