package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// Responses carry patient data: JSON or a visit summary PDF. Nothing is
// cacheable and nothing may be framed or load sub-resources, except the API
// docs page, which pulls Swagger UI from unpkg.
const (
	apiCSP      = "default-src 'none'; frame-ancestors 'none'"
	downloadCSP = "default-src 'none'; frame-ancestors 'none'; sandbox"
	docsCSP     = "default-src 'none'; script-src 'unsafe-inline' https://unpkg.com; " +
		"style-src 'unsafe-inline' https://unpkg.com; img-src data: https://unpkg.com; " +
		"connect-src 'self'; frame-ancestors 'none'"
)

// SecurityHeaders sets hardening headers on every response. PDF downloads are
// additionally sandboxed and never opened in the site's context.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-XSS-Protection", "0")
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			h.Set("Cache-Control", "no-store")

			switch path := c.Request().URL.Path; {
			case strings.HasSuffix(path, ".pdf"):
				h.Set("Content-Security-Policy", downloadCSP)
				h.Set("X-Download-Options", "noopen")
			case strings.HasSuffix(path, "/docs"):
				h.Set("Content-Security-Policy", docsCSP)
			default:
				h.Set("Content-Security-Policy", apiCSP)
			}
			return next(c)
		}
	}
}
