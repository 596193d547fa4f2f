package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

var validRoles = map[string]bool{
	RoleAdmin: true, RoleDoctor: true, RolePatient: true,
}

// IsValidRole reports whether role is one of admin, doctor or patient.
func IsValidRole(role string) bool {
	return validRoles[role]
}

// RequireRole returns middleware that lets the request through only when
// the caller's role is in roles. Roles are matched exactly; admin does not
// implicitly pass doctor or patient routes, which need a profile behind the
// account.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if allowed[id.Role] {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
