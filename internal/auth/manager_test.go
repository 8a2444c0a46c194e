package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"videotube/internal/apperr"
	"videotube/internal/config"
	"videotube/internal/models"
	"videotube/internal/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memAccounts is an in-memory AccountStore with the same swap semantics as
// the Mongo repository.
type memAccounts struct {
	mu   sync.Mutex
	byID map[primitive.ObjectID]*models.Account
}

func newMemAccounts(accounts ...*models.Account) *memAccounts {
	m := &memAccounts{byID: map[primitive.ObjectID]*models.Account{}}
	for _, a := range accounts {
		m.byID[a.ID] = a
	}
	return m
}

func (m *memAccounts) FindByLogin(_ context.Context, identifier string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Username == identifier || a.Email == identifier {
			cp := *a
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memAccounts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) SetRefreshToken(_ context.Context, id primitive.ObjectID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	a.RefreshToken = token
	return nil
}

func (m *memAccounts) SwapRefreshToken(_ context.Context, id primitive.ObjectID, presented, next string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok || a.RefreshToken != presented {
		return store.ErrNotFound
	}
	a.RefreshToken = next
	return nil
}

func (m *memAccounts) ClearRefreshToken(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	a.RefreshToken = ""
	return nil
}

func (m *memAccounts) stored(id primitive.ObjectID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id].RefreshToken
}

func testConfig() config.Config {
	return config.Config{
		AccessTokenSecret:     "access-secret",
		RefreshTokenSecret:    "refresh-secret",
		AccessTokenTTLMinutes: 15,
		RefreshTokenTTLDays:   10,
	}
}

func newAlice(t *testing.T) (*Manager, *memAccounts, *models.Account) {
	t.Helper()
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	alice := &models.Account{ID: primitive.NewObjectID(), Username: "alice", Email: "alice@x.com", FullName: "Alice", Password: hash}
	accounts := newMemAccounts(alice)
	return NewManager(accounts, testConfig()), accounts, alice
}

func TestAuthenticate(t *testing.T) {
	m, accounts, alice := newAlice(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		identifier string
		password   string
		wantKind   apperr.Kind
		wantErr    bool
	}{
		{"username", "alice", "s3cret", 0, false},
		{"email any case", "Alice@X.com", "s3cret", 0, false},
		{"unknown account", "bob", "s3cret", apperr.NotFound, true},
		{"wrong password", "alice", "nope", apperr.Unauthorized, true},
		{"empty identifier", "  ", "s3cret", apperr.BadRequest, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess, err := m.Authenticate(ctx, tt.identifier, tt.password)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Authenticate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if got := apperr.KindOf(err); got != tt.wantKind {
					t.Errorf("Authenticate() kind = %v, want %v", got, tt.wantKind)
				}
				return
			}
			if sess.Account.Password != "" || sess.Account.RefreshToken != "" {
				t.Error("Authenticate() leaked credential fields")
			}
			if accounts.stored(alice.ID) != sess.RefreshToken {
				t.Error("Authenticate() should persist the refresh token")
			}
		})
	}
}

func TestRotate_SingleUse(t *testing.T) {
	m, accounts, alice := newAlice(t)
	ctx := context.Background()

	login, err := m.Authenticate(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	rotated, err := m.Rotate(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Rotate() error = %v", err)
	}
	if rotated.RefreshToken == login.RefreshToken {
		t.Fatal("Rotate() should issue a different refresh token")
	}
	if accounts.stored(alice.ID) != rotated.RefreshToken {
		t.Fatal("Rotate() should persist the new refresh token")
	}

	_, err = m.Rotate(ctx, login.RefreshToken)
	if !apperr.Is(err, apperr.Unauthorized) {
		t.Fatalf("Rotate() with stale token error = %v, want Unauthorized", err)
	}
	if accounts.stored(alice.ID) != rotated.RefreshToken {
		t.Fatal("failed Rotate() must not change the stored token")
	}

	if _, err := m.Rotate(ctx, rotated.RefreshToken); err != nil {
		t.Fatalf("Rotate() with current token error = %v", err)
	}
}

func TestRotate_Rejects(t *testing.T) {
	m, _, alice := newAlice(t)
	ctx := context.Background()

	access, err := GenerateAccessToken(alice, "access-secret", 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	expired, err := GenerateRefreshToken(alice.ID.Hex(), "refresh-secret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}
	ghost, err := GenerateRefreshToken(primitive.NewObjectID().Hex(), "refresh-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateRefreshToken() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"malformed", "not-a-token"},
		{"access token", access},
		{"expired", expired},
		{"unknown account", ghost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Rotate(ctx, tt.token); !apperr.Is(err, apperr.Unauthorized) {
				t.Errorf("Rotate() error = %v, want Unauthorized", err)
			}
		})
	}
}

func TestRevoke(t *testing.T) {
	m, accounts, alice := newAlice(t)
	ctx := context.Background()

	login, err := m.Authenticate(ctx, "alice", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if err := m.Revoke(ctx, alice.ID); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if accounts.stored(alice.ID) != "" {
		t.Fatal("Revoke() should clear the stored token")
	}
	if _, err := m.Rotate(ctx, login.RefreshToken); !apperr.Is(err, apperr.Unauthorized) {
		t.Fatalf("Rotate() after Revoke() error = %v, want Unauthorized", err)
	}
	if err := m.Revoke(ctx, primitive.NewObjectID()); !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("Revoke() unknown account error = %v, want NotFound", err)
	}
}

func TestAuthorize_RoundTrip(t *testing.T) {
	m, _, alice := newAlice(t)
	ctx := context.Background()

	login, err := m.Authenticate(ctx, "alice@x.com", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	acc, err := m.Authorize(ctx, login.AccessToken)
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if acc.ID != alice.ID {
		t.Errorf("Authorize() id = %v, want %v", acc.ID, alice.ID)
	}
	if acc.Password != "" {
		t.Error("Authorize() leaked password hash")
	}

	if _, err := m.Authorize(ctx, login.RefreshToken); !apperr.Is(err, apperr.Unauthorized) {
		t.Errorf("Authorize() with refresh token error = %v, want Unauthorized", err)
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, _, alice := newAlice(t)

	login, err := m.Authenticate(context.Background(), "alice", "s3cret")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	r := gin.New()
	r.GET("/me", m.Middleware(), func(c *gin.Context) {
		c.String(http.StatusOK, AccountID(c).Hex())
	})

	tests := []struct {
		name     string
		setup    func(*http.Request)
		wantCode int
	}{
		{"bearer header", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+login.AccessToken) }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessCookie, Value: login.AccessToken}) }, http.StatusOK},
		{"missing", func(*http.Request) {}, http.StatusUnauthorized},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") }, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantCode == http.StatusOK && w.Body.String() != alice.ID.Hex() {
				t.Errorf("body = %q, want %q", w.Body.String(), alice.ID.Hex())
			}
			if tt.wantCode != http.StatusOK && !strings.Contains(w.Body.String(), `"success":false`) {
				t.Errorf("body = %q, want envelope", w.Body.String())
			}
		})
	}
}
