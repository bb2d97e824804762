package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// AuditEntry records one access to registration data.
type AuditEntry struct {
	Timestamp  time.Time
	RequestID  string
	Action     string // read, create, update, delete
	Resource   string // registrations, patients, notifications
	ResourceID string
	Method     string
	Path       string
	IPAddress  string
	UserAgent  string
	StatusCode int
}

// AuditRecorder persists audit entries in addition to the structured log.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

const auditPrefix = "/api/v1/"

// Audit logs every request under /api/v1/ as a "phi_access" event after the
// handler has run, so the entry carries the final status code.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isAuditablePath(req.URL.Path) {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			resource, id := splitResourcePath(req.URL.Path)
			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				Action:     httpMethodToAction(req.Method),
				Resource:   resource,
				ResourceID: id,
				Method:     req.Method,
				Path:       req.URL.Path,
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				StatusCode: status,
			}
			entry.RequestID, _ = c.Get("request_id").(string)

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
				Str("type", "hipaa_audit").
				Str("request_id", entry.RequestID).
				Str("action", entry.Action).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("phi_access")

			return err
		}
	}
}

func isAuditablePath(path string) bool {
	return strings.HasPrefix(path, auditPrefix)
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

// splitResourcePath returns the first segment after /api/v1/ and, when the
// second segment is a UUID, that id:
//
//	/api/v1/patients           -> patients, ""
//	/api/v1/registrations/<id> -> registrations, <id>
func splitResourcePath(path string) (string, string) {
	segments := strings.Split(strings.TrimPrefix(path, auditPrefix), "/")
	resource := "unknown"
	if segments[0] != "" {
		resource = segments[0]
	}
	if len(segments) > 1 {
		if _, err := uuid.Parse(segments[1]); err == nil {
			return resource, segments[1]
		}
	}
	return resource, ""
}
