package login

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage"
	"gorm.io/gorm"

	"github.com/sparkcoach/sparkcoach/internal/auth"
	"github.com/sparkcoach/sparkcoach/internal/config"
	"github.com/sparkcoach/sparkcoach/internal/db/controller/user"
	"github.com/sparkcoach/sparkcoach/internal/db/models"
	websess "github.com/sparkcoach/sparkcoach/internal/web/session"
)

func newTestApp() *fiber.App {
	return fiber.New()
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.LoginActivity{}); err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}

	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		DevMode: false,
		Webserver: config.Webserver{
			Port:    3000,
			Session: config.Session{ExpiryTime: time.Minute},
		},
	}
}

// testStorage is a minimal in-memory implementation of storage.Storage for tests.
type testStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// Ensure testStorage implements the storage.Storage interface.
var _ storage.Storage = (*testStorage)(nil)

func (s *testStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.data[key]
	out := make([]byte, len(v))
	copy(out, v)

	return out, nil
}

func (s *testStorage) Set(key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string][]byte)
	}

	buf := make([]byte, len(val))
	copy(buf, val)
	s.data[key] = buf

	return nil
}

func (s *testStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)

	return nil
}

func (s *testStorage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string][]byte)

	return nil
}

func (s *testStorage) Close() error { return nil }

func initSessionStore() {
	// Initialize a fresh in-memory session store for each test.
	websess.Init(&testStorage{data: make(map[string][]byte)})
}

func newTestService(t *testing.T, app *fiber.App, cfg *config.Config, db *gorm.DB) *Service {
	t.Helper()

	var s Service
	if err := s.Init(app, cfg, db, auth.NewService(db)); err != nil {
		t.Fatalf("failed to init login handler: %v", err)
	}

	return &s
}

func performJSONPost(t *testing.T, app *fiber.App, target, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	return resp
}

func TestLogin_Success_SetsCookieAndTracksLogin(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := newTestApp()

	initSessionStore()
	newTestService(t, app, cfg, db)

	if _, err := user.Create(db, "bob@example.com", "Bob Doe", "s3cr3t", false); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	resp := performJSONPost(t, app, Path, `{"email":"bob@example.com","password":"s3cr3t"}`)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}

	// Check cookie is set and Secure flag present
	setCookie := resp.Header.Get("Set-Cookie")
	if !strings.Contains(setCookie, websess.CookieName+"=") {
		t.Fatalf("expected session cookie, got %q", setCookie)
	}

	if !strings.Contains(strings.ToLower(setCookie), "secure") {
		t.Fatalf("expected Secure flag on cookie when DevMode=false, got %q", setCookie)
	}

	var body struct {
		Email              string `json:"email"`
		FullName           string `json:"full_name"`
		MustChangePassword bool   `json:"must_change_password"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	if body.Email != "bob@example.com" || body.FullName != "Bob Doe" {
		t.Fatalf("unexpected response body: %+v", body)
	}

	// A successful sign-in feeds the login tracking table.
	var la models.LoginActivity
	if err := db.Where("user_email = ?", "bob@example.com").First(&la).Error; err != nil {
		t.Fatalf("expected login tracking row, got %v", err)
	}

	if la.LoginCount != 1 {
		t.Fatalf("expected login count 1, got %d", la.LoginCount)
	}
}

func TestLogin_DevModeDisablesSecureCookie(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	cfg.DevMode = true

	app := newTestApp()

	initSessionStore()
	newTestService(t, app, cfg, db)

	if _, err := user.Create(db, "carol@example.com", "Carol Doe", "pass", false); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	resp := performJSONPost(t, app, Path, `{"email":"carol@example.com","password":"pass"}`)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}

	setCookie := resp.Header.Get("Set-Cookie")
	if strings.Contains(strings.ToLower(setCookie), "secure") {
		t.Fatalf("did not expect Secure flag when DevMode=true, got %q", setCookie)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := newTestApp()

	initSessionStore()
	newTestService(t, app, cfg, db)

	if _, err := user.Create(db, "alice@example.com", "Alice Doe", "secret", false); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	resp := performJSONPost(t, app, Path, `{"email":"alice@example.com","password":"wrong"}`)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 Unauthorized, got %d", resp.StatusCode)
	}

	// An unknown account must be indistinguishable from a wrong password.
	resp2 := performJSONPost(t, app, Path, `{"email":"nobody@example.com","password":"wrong"}`)

	defer func() {
		_ = resp2.Body.Close()
	}()

	if resp2.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 Unauthorized for unknown account, got %d", resp2.StatusCode)
	}
}

func TestLogin_DisabledAccount(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := newTestApp()

	initSessionStore()
	newTestService(t, app, cfg, db)

	u, err := user.Create(db, "dave@example.com", "Dave Doe", "secret", false)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	if err = db.Model(u).Update("active", false).Error; err != nil {
		t.Fatalf("failed to disable account: %v", err)
	}

	resp := performJSONPost(t, app, Path, `{"email":"dave@example.com","password":"secret"}`)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 Forbidden, got %d", resp.StatusCode)
	}
}

func TestLogin_MalformedBody(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := newTestApp()

	initSessionStore()
	newTestService(t, app, cfg, db)

	resp := performJSONPost(t, app, Path, "{")

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 Bad Request, got %d", resp.StatusCode)
	}
}

func TestMe_RequiresSession(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := newTestApp()

	initSessionStore()
	newTestService(t, app, cfg, db)

	// Without a cookie the endpoint must reject the request.
	req := httptest.NewRequest(http.MethodGet, MePath, nil)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 Unauthorized, got %d", resp.StatusCode)
	}

	// Sign in, then replay the cookie.
	if _, err = user.Create(db, "erin@example.com", "Erin Doe", "secret", true); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	loginResp := performJSONPost(t, app, Path, `{"email":"erin@example.com","password":"secret"}`)

	defer func() {
		_ = loginResp.Body.Close()
	}()

	cookie := sessionCookie(t, loginResp)

	req = httptest.NewRequest(http.MethodGet, MePath, nil)
	req.AddCookie(cookie)

	meResp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	defer func() {
		_ = meResp.Body.Close()
	}()

	if meResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK with session cookie, got %d", meResp.StatusCode)
	}

	var body struct {
		Email string `json:"email"`
		Admin bool   `json:"admin"`
	}
	if err = json.NewDecoder(meResp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	if body.Email != "erin@example.com" || !body.Admin {
		t.Fatalf("unexpected response body: %+v", body)
	}
}

func TestLogout_DestroysSession(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := newTestApp()

	initSessionStore()
	newTestService(t, app, cfg, db)

	if _, err := user.Create(db, "frank@example.com", "Frank Doe", "secret", false); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	loginResp := performJSONPost(t, app, Path, `{"email":"frank@example.com","password":"secret"}`)

	defer func() {
		_ = loginResp.Body.Close()
	}()

	cookie := sessionCookie(t, loginResp)

	req := httptest.NewRequest(http.MethodPost, LogoutPath, nil)
	req.AddCookie(cookie)

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", resp.StatusCode)
	}

	// The replayed cookie must no longer work.
	req = httptest.NewRequest(http.MethodGet, MePath, nil)
	req.AddCookie(cookie)

	meResp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, meResp.Body)
		_ = meResp.Body.Close()
	}()

	if meResp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 Unauthorized after logout, got %d", meResp.StatusCode)
	}
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()

	for _, c := range resp.Cookies() {
		if c.Name == websess.CookieName {
			return c
		}
	}

	t.Fatalf("no session cookie in response")

	return nil
}
