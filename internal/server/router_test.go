package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"videotube/internal/auth"
	"videotube/internal/config"
	"videotube/internal/media"
	"videotube/internal/models"
	"videotube/internal/service"
	"videotube/internal/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

// oneAccount is an auth.AccountStore holding a single account.
type oneAccount struct {
	acc *models.Account
}

func (s *oneAccount) FindByLogin(_ context.Context, identifier string) (*models.Account, error) {
	if identifier != s.acc.Username && identifier != s.acc.Email {
		return nil, store.ErrNotFound
	}
	cp := *s.acc
	return &cp, nil
}

func (s *oneAccount) FindByID(_ context.Context, id primitive.ObjectID) (*models.Account, error) {
	if id != s.acc.ID {
		return nil, store.ErrNotFound
	}
	cp := *s.acc
	return &cp, nil
}

func (s *oneAccount) SetRefreshToken(_ context.Context, _ primitive.ObjectID, token string) error {
	s.acc.RefreshToken = token
	return nil
}

func (s *oneAccount) SwapRefreshToken(_ context.Context, _ primitive.ObjectID, presented, next string) error {
	if s.acc.RefreshToken != presented {
		return store.ErrNotFound
	}
	s.acc.RefreshToken = next
	return nil
}

func (s *oneAccount) ClearRefreshToken(context.Context, primitive.ObjectID) error {
	s.acc.RefreshToken = ""
	return nil
}

func newTestRouter(t *testing.T, health Pinger) *gin.Engine {
	t.Helper()
	r, stop := setupTestRouter(t, health)
	t.Cleanup(stop)
	return r
}

func setupTestRouter(t *testing.T, health Pinger) (*gin.Engine, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hash, err := auth.HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	accounts := &oneAccount{acc: &models.Account{
		ID:       primitive.NewObjectID(),
		Username: "alice",
		Email:    "alice@x.com",
		FullName: "Alice",
		Password: hash,
	}}
	cfg := config.Config{
		Env:                   "dev",
		AccessTokenSecret:     "access",
		RefreshTokenSecret:    "refresh",
		AccessTokenTTLMinutes: 15,
		RefreshTokenTTLDays:   1,
		CORSOrigin:            "*",
		UploadTempDir:         t.TempDir(),
		MaxUploadMB:           1,
	}
	// Services are only reached on paths that fail validation before any
	// repository call.
	storage := media.Unconfigured{}
	deps := Deps{
		Auth:          auth.NewManager(accounts, cfg),
		Users:         service.NewUserService(nil, nil, storage),
		Videos:        service.NewVideoService(nil, nil, nil, nil, nil, nil, storage),
		Comments:      service.NewCommentService(nil, nil, nil, nil),
		Likes:         service.NewLikeService(nil, nil, nil, nil, nil),
		Subscriptions: service.NewSubscriptionService(nil, nil, nil),
		Tweets:        service.NewTweetService(nil, nil, nil, nil),
		Playlists:     service.NewPlaylistService(nil, nil, nil, nil),
		Dashboard:     service.NewDashboardService(nil),
		Health:        health,
	}
	return SetupRouter(cfg, deps)
}

func do(r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t, fakePinger{})
	w, env := do(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("expected 200 success, got %d %+v", w.Code, env)
	}

	r = newTestRouter(t, fakePinger{err: errors.New("down")})
	w, env = do(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusServiceUnavailable || env.Success {
		t.Fatalf("expected 503 failure, got %d %+v", w.Code, env)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t, nil)
	for _, path := range []string{
		"/api/v1/users/current-user",
		"/api/v1/dashboard/stats",
		"/api/v1/likes/videos",
	} {
		w, env := do(r, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, w.Code)
		}
		if env.Success || env.StatusCode != http.StatusUnauthorized || env.Message == "" {
			t.Fatalf("%s: unexpected envelope %+v", path, env)
		}
	}
}

func TestLoginSetsCookies(t *testing.T) {
	r := newTestRouter(t, nil)
	body := bytes.NewBufferString(`{"email":"ALICE@x.com","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", body)
	req.Header.Set("Content-Type", "application/json")
	w, env := do(r, req)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("expected 200, got %d %+v", w.Code, env)
	}

	cookies := map[string]*http.Cookie{}
	for _, ck := range w.Result().Cookies() {
		cookies[ck.Name] = ck
	}
	for _, name := range []string{auth.AccessCookie, auth.RefreshCookie} {
		ck, ok := cookies[name]
		if !ok || ck.Value == "" {
			t.Fatalf("cookie %s not set", name)
		}
		if !ck.HttpOnly || !ck.Secure {
			t.Fatalf("cookie %s must be HttpOnly and Secure", name)
		}
	}

	me := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	me.AddCookie(cookies[auth.AccessCookie])
	w, env = do(r, me)
	if w.Code != http.StatusOK {
		t.Fatalf("current-user: expected 200, got %d", w.Code)
	}
	data, _ := env.Data.(map[string]interface{})
	if data["username"] != "alice" {
		t.Fatalf("unexpected user %v", env.Data)
	}
	if _, leaked := data["password"]; leaked {
		t.Fatal("password leaked")
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	r := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewBufferString(`{"username":"alice","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	w, env := do(r, req)
	if w.Code != http.StatusUnauthorized || env.Success {
		t.Fatalf("expected 401, got %d %+v", w.Code, env)
	}
	if len(w.Result().Cookies()) != 0 {
		t.Fatal("no cookies expected on failed login")
	}
}

func TestRefreshTokenSingleUse(t *testing.T) {
	r := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewBufferString(`{"username":"alice","password":"secret123"}`))
	req.Header.Set("Content-Type", "application/json")
	_, env := do(r, req)
	first, _ := env.Data.(map[string]interface{})["refreshToken"].(string)
	if first == "" {
		t.Fatal("no refresh token in login response")
	}

	refresh := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", bytes.NewBufferString(`{"refreshToken":"`+first+`"}`))
		req.Header.Set("Content-Type", "application/json")
		w, _ := do(r, req)
		return w.Code
	}
	if code := refresh(); code != http.StatusOK {
		t.Fatalf("first rotation: expected 200, got %d", code)
	}
	if code := refresh(); code != http.StatusUnauthorized {
		t.Fatalf("reused token: expected 401, got %d", code)
	}
}

func TestValidationErrors(t *testing.T) {
	r := newTestRouter(t, nil)
	tests := []struct {
		name string
		path string
		want int
	}{
		{"bad video id", "/api/v1/videos/not-an-id", http.StatusBadRequest},
		{"unknown sort field", "/api/v1/videos?sortBy=password", http.StatusBadRequest},
		{"bad page", "/api/v1/videos?page=0", http.StatusBadRequest},
		{"unknown route", "/api/v1/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(r, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.want || env.Success {
				t.Fatalf("expected %d, got %d %+v", tt.want, w.Code, env)
			}
		})
	}
}

func TestRegisterRequiresAvatar(t *testing.T) {
	r := newTestRouter(t, nil)
	var buf bytes.Buffer
	mpw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{"fullName": "Bob", "email": "bob@x.com", "username": "bob", "password": "pw"} {
		_ = mpw.WriteField(k, v)
	}
	_ = mpw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &buf)
	req.Header.Set("Content-Type", mpw.FormDataContentType())

	w, env := do(r, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %+v", w.Code, env)
	}
	if env.Message != "avatar file is required" {
		t.Fatalf("unexpected message %q", env.Message)
	}
}

func TestPanicReturnsEnvelope(t *testing.T) {
	r := newTestRouter(t, nil)
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w, env := do(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if env.Success || env.StatusCode != http.StatusInternalServerError || env.Message != "internal server error" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestStopEndsLimiterSweepers(t *testing.T) {
	before := runtime.NumGoroutine()
	_, stop := setupTestRouter(t, nil)
	stop()
	stop()

	deadline := time.Now().Add(2 * time.Second)
	for runtime.NumGoroutine() > before {
		if time.Now().After(deadline) {
			t.Fatalf("sweepers still running: %d goroutines, want <= %d", runtime.NumGoroutine(), before)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
