package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/healflow/healflow/internal/platform/auth"
)

// AuditEntry records who touched which record, when and with what outcome.
type AuditEntry struct {
	UserID     string
	Role       string
	Area       string // admin, doctor, patient, appointments, auth
	Resource   string // doctors, appointments, cart, ...
	ResourceID string
	Action     string // read, create, update, delete
	IPAddress  string
	UserAgent  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditRecorder persists audit entries somewhere other than the log.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every /api/v1 request after the handler ran, tagged with the
// caller's identity and the record it addressed. Patient records and
// appointments are personal health data, so reads are audited too.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path

			if !isAuditablePath(path) {
				return next(c)
			}

			err := next(c)

			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				Path:       path,
				Method:     req.Method,
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				StatusCode: c.Response().Status,
				Action:     httpMethodToAction(req.Method),
			}
			if he, ok := err.(*echo.HTTPError); ok && !c.Response().Committed {
				entry.StatusCode = he.Code
			}

			if id, ok := auth.IdentityFromContext(req.Context()); ok {
				entry.UserID = id.UserID.String()
				entry.Role = id.Role
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}
			entry.Area, entry.Resource, entry.ResourceID = splitAuditPath(path)

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Str("role", entry.Role).
				Str("area", entry.Area).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("record_access")

			return err
		}
	}
}

func isAuditablePath(path string) bool {
	return strings.HasPrefix(path, "/api/v1/")
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// splitAuditPath breaks an API path into area, resource and record id.
//
//	/api/v1/admin/doctors/<id>            -> admin, doctors, <id>
//	/api/v1/patient/appointments/<id>/cancel -> patient, appointments, <id>
//	/api/v1/appointments/<id>/treatment   -> appointments, treatment, <id>
//	/api/v1/auth/login                    -> auth, login, ""
func splitAuditPath(path string) (area, resource, id string) {
	segments := strings.Split(strings.Trim(strings.TrimPrefix(path, "/api/v1/"), "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "unknown", "", ""
	}
	area = segments[0]
	rest := segments[1:]

	for i, seg := range rest {
		if isUUIDLike(seg) {
			id = seg
			if resource == "" {
				if i > 0 {
					resource = rest[i-1]
				} else if i+1 < len(rest) {
					resource = rest[i+1]
				}
			}
			break
		}
	}
	if resource == "" && len(rest) > 0 {
		resource = rest[0]
	}
	return area, resource, id
}

func isUUIDLike(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
