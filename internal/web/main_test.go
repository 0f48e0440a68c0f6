package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/automation"
	"github.com/sparkcoach/sparkcoach/internal/config"
	"github.com/sparkcoach/sparkcoach/internal/mailer"
	"github.com/sparkcoach/sparkcoach/internal/web/handler/health"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	dispatcher := mailer.NewDummyDispatcher()

	return New(&config.Config{Title: "sparkcoach"}, db, automation.New(db, dispatcher), dispatcher)
}

func performHealthCheck(t *testing.T, s *Service) *http.Response {
	t.Helper()

	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, health.Path, nil), -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	return resp
}

// The drain flag flipped during shutdown must be the same one the
// health endpoint reads, so a started drain turns the probe to 503.
func TestDrainFlagReachesHealthEndpoint(t *testing.T) {
	svc := newTestService(t)

	resp := performHealthCheck(t, svc)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK before drain, got %d", resp.StatusCode)
	}

	svc.alive.Store(false)

	drained := performHealthCheck(t, svc)

	defer func() {
		_ = drained.Body.Close()
	}()

	if drained.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 during drain, got %d", drained.StatusCode)
	}
}
