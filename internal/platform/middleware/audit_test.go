package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type mockRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
	err     error
}

func (m *mockRecorder) RecordAccess(entry AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return m.err
}

func (m *mockRecorder) last() AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[len(m.entries)-1]
}

func (m *mockRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func newTestContext(method, path string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAudit_RecordRead(t *testing.T) {
	var buf bytes.Buffer
	recorder := &mockRecorder{}
	id := uuid.New().String()

	c, _ := newTestContext(http.MethodGet, "/api/v1/patients/"+id)
	c.Set("request_id", "req-123")

	if err := Audit(zerolog.New(&buf), recorder)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recorder.count() != 1 {
		t.Fatalf("expected 1 audit entry, got %d", recorder.count())
	}

	entry := recorder.last()
	if entry.Action != "read" {
		t.Errorf("expected action read, got %s", entry.Action)
	}
	if entry.Resource != "patients" {
		t.Errorf("expected resource patients, got %s", entry.Resource)
	}
	if entry.ResourceID != id {
		t.Errorf("expected resource id %s, got %s", id, entry.ResourceID)
	}
	if entry.RequestID != "req-123" {
		t.Errorf("expected request id req-123, got %s", entry.RequestID)
	}
	if entry.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", entry.StatusCode)
	}
	if !strings.Contains(buf.String(), `"message":"phi_access"`) {
		t.Errorf("expected phi_access log line, got %s", buf.String())
	}
}

func TestAudit_SubmitUsesErrorStatus(t *testing.T) {
	recorder := &mockRecorder{}
	id := uuid.New().String()
	c, _ := newTestContext(http.MethodPost, "/api/v1/registrations/"+id+"/submit")

	err := Audit(zerolog.Nop(), recorder)(func(echo.Context) error {
		return echo.NewHTTPError(http.StatusConflict, "submission already in progress")
	})(c)
	if err == nil {
		t.Fatal("expected handler error to propagate")
	}

	entry := recorder.last()
	if entry.Action != "create" || entry.Resource != "registrations" || entry.ResourceID != id {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.StatusCode != http.StatusConflict {
		t.Errorf("expected status 409, got %d", entry.StatusCode)
	}
}

func TestAudit_SkipsNonAPIPaths(t *testing.T) {
	recorder := &mockRecorder{}
	for _, path := range []string{"/health", "/health/db", "/api/v1"} {
		c, _ := newTestContext(http.MethodGet, path)
		Audit(zerolog.Nop(), recorder)(okHandler)(c)
	}
	if recorder.count() != 0 {
		t.Errorf("expected no audit entries, got %d", recorder.count())
	}
}

func TestAudit_RecorderErrorDoesNotBreakRequest(t *testing.T) {
	var buf bytes.Buffer
	recorder := &mockRecorder{err: errors.New("disk full")}
	c, rec := newTestContext(http.MethodDelete, "/api/v1/registrations/"+uuid.New().String())

	if err := Audit(zerolog.New(&buf), recorder)(okHandler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "failed to record audit entry") {
		t.Error("expected recorder failure to be logged")
	}
}

func TestAudit_CapturesIPAndUserAgent(t *testing.T) {
	recorder := &mockRecorder{}
	c, _ := newTestContext(http.MethodGet, "/api/v1/patients")
	c.Request().RemoteAddr = "192.168.1.50:1234"
	c.Request().Header.Set("User-Agent", "intake-web/1.0")

	Audit(zerolog.Nop(), recorder)(okHandler)(c)

	entry := recorder.last()
	if entry.IPAddress != "192.168.1.50" {
		t.Errorf("expected IP 192.168.1.50, got %s", entry.IPAddress)
	}
	if entry.UserAgent != "intake-web/1.0" {
		t.Errorf("expected user agent, got %s", entry.UserAgent)
	}
}

func TestHttpMethodToAction(t *testing.T) {
	tests := map[string]string{
		http.MethodGet:     "read",
		http.MethodHead:    "read",
		http.MethodPost:    "create",
		http.MethodPut:     "update",
		http.MethodPatch:   "update",
		http.MethodDelete:  "delete",
		http.MethodOptions: "read",
	}
	for method, want := range tests {
		if got := httpMethodToAction(method); got != want {
			t.Errorf("httpMethodToAction(%s) = %s, want %s", method, got, want)
		}
	}
}

func TestSplitResourcePath(t *testing.T) {
	id := uuid.New().String()
	tests := []struct {
		path         string
		wantResource string
		wantID       string
	}{
		{"/api/v1/patients", "patients", ""},
		{"/api/v1/patients/" + id, "patients", id},
		{"/api/v1/registrations/" + id + "/lists/allergies", "registrations", id},
		{"/api/v1/registrations/not-a-uuid", "registrations", ""},
		{"/api/v1/", "unknown", ""},
	}
	for _, tt := range tests {
		resource, gotID := splitResourcePath(tt.path)
		if resource != tt.wantResource || gotID != tt.wantID {
			t.Errorf("splitResourcePath(%q) = (%q, %q), want (%q, %q)", tt.path, resource, gotID, tt.wantResource, tt.wantID)
		}
	}
}

func TestAuditRecorderFunc(t *testing.T) {
	var got AuditEntry
	f := AuditRecorderFunc(func(e AuditEntry) error {
		got = e
		return nil
	})
	if err := f.RecordAccess(AuditEntry{Action: "read"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Action != "read" {
		t.Errorf("expected entry to be passed through, got %+v", got)
	}
}
