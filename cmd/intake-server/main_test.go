package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/intake/internal/config"
	"github.com/ehr/intake/internal/platform/db"
	"github.com/ehr/intake/internal/platform/middleware"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:                 "0",
		Env:                  "test",
		SubmitBackend:        config.BackendSimulated,
		SubmitTimeout:        5 * time.Second,
		SessionTTL:           time.Minute,
		SessionSweepInterval: time.Second,
		ValidationScope:      "record",
		Theme:                "wellness",
		CORSOrigins:          []string{"http://localhost:3000"},
		RateLimitRPS:         100,
		RateLimitBurst:       200,
		RequestTimeout:       5 * time.Second,
		BodyLimit:            "1M",
	}
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	a, err := newApp(context.Background(), testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(a.close)
	return a
}

func doRequest(a *app, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)

	rec := doRequest(a, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["backend"] != config.BackendSimulated {
		t.Errorf("expected simulated backend, got %v", body["backend"])
	}

	if rec := doRequest(a, http.MethodGet, "/health/db", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected no db health route without postgres, got %d", rec.Code)
	}
}

func TestStartDraftThroughMiddleware(t *testing.T) {
	a := newTestApp(t)

	rec := doRequest(a, http.MethodPost, "/api/v1/registrations", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("expected request id header")
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("expected no-store on draft responses")
	}
	if rec.Header().Get("X-RateLimit-Limit") != "100" {
		t.Errorf("expected rate limit header, got %q", rec.Header().Get("X-RateLimit-Limit"))
	}
	if a.sessions.Len() != 1 {
		t.Errorf("expected one active draft, got %d", a.sessions.Len())
	}

	var draft struct {
		ID          string `json:"id"`
		CurrentStep int    `json:"currentStep"`
		TotalSteps  int    `json:"totalSteps"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &draft); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if draft.ID == "" || draft.CurrentStep != 1 || draft.TotalSteps != 6 {
		t.Errorf("unexpected draft: %+v", draft)
	}
}

func TestConfiguredThemeIsServed(t *testing.T) {
	a := newTestApp(t)

	rec := doRequest(a, http.MethodGet, "/api/v1/theme", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"dataTheme":"wellness"`) {
		t.Errorf("expected wellness theme, got %s", rec.Body.String())
	}
}

func TestNotificationRoutesMounted(t *testing.T) {
	a := newTestApp(t)

	if rec := doRequest(a, http.MethodGet, "/api/v1/notifications/stats", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestBodyLimitApplied(t *testing.T) {
	cfg := testConfig()
	cfg.BodyLimit = "64"
	a, err := newApp(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}

	rec := doRequest(a, http.MethodPost, "/api/v1/registrations", `{"padding":"`+strings.Repeat("x", 128)+`"}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestNewApp_RejectsBadScope(t *testing.T) {
	cfg := testConfig()
	cfg.ValidationScope = "page"
	if _, err := newApp(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown validation scope")
	}
}

func TestNewApp_ProductionRequiresKey(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "production"
	if _, err := newApp(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected error when production runs without an encryption key")
	}
}

func TestNewLogger_Level(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := newLogger("production", in).GetLevel(); got != want {
			t.Errorf("newLogger(%q) level = %s, want %s", in, got, want)
		}
	}
}

func TestPrintStatus(t *testing.T) {
	at := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printStatus(&buf, []db.MigrationStatus{
		{Version: 1, Name: "001_patient_registration.sql", Applied: true, AppliedAt: &at},
		{Version: 2, Name: "002_next.sql"},
	})

	out := buf.String()
	if !strings.Contains(out, "applied") || !strings.Contains(out, "2026-03-15 12:00:00") {
		t.Errorf("expected applied row, got:\n%s", out)
	}
	if !strings.Contains(out, "pending") {
		t.Errorf("expected pending row, got:\n%s", out)
	}
}

func TestMigrationFiles_DefaultsToEmbedded(t *testing.T) {
	m := db.NewMigrator(nil, migrationFiles(""), zerolog.Nop())
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	if len(migrations) == 0 || migrations[0].Version != 1 {
		t.Errorf("expected embedded registration schema, got %+v", migrations)
	}
}
