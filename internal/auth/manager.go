package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"videotube/internal/apperr"
	"videotube/internal/config"
	"videotube/internal/metrics"
	"videotube/internal/models"
	"videotube/internal/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccountStore is the persistence the session manager needs. Lookups report
// store.ErrNotFound for missing accounts.
type AccountStore interface {
	FindByLogin(ctx context.Context, identifier string) (*models.Account, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error
	SwapRefreshToken(ctx context.Context, id primitive.ObjectID, presented, next string) error
	ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error
}

var (
	ErrInvalidCredentials = apperr.NewUnauthorized("invalid user credentials")
	ErrAccountNotFound    = apperr.NewNotFound("user does not exist")
	ErrMissingToken       = apperr.NewUnauthorized("unauthorized request")
	ErrInvalidToken       = apperr.NewUnauthorized("invalid access token")
	ErrInvalidRefresh     = apperr.NewUnauthorized("invalid refresh token")
	ErrRefreshReused      = apperr.NewUnauthorized("refresh token is expired or used")
)

// Session is a freshly minted token pair. Account is set on login only.
type Session struct {
	Account      *models.Account `json:"user,omitempty"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
}

// Manager owns the refresh token stored on each account: it is written only by
// Authenticate, Rotate and Revoke.
type Manager struct {
	store         AccountStore
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewManager(s AccountStore, cfg config.Config) *Manager {
	return &Manager{
		store:         s,
		accessSecret:  cfg.AccessTokenSecret,
		refreshSecret: cfg.RefreshTokenSecret,
		accessTTL:     time.Duration(cfg.AccessTokenTTLMinutes) * time.Minute,
		refreshTTL:    time.Duration(cfg.RefreshTokenTTLDays) * 24 * time.Hour,
	}
}

// Authenticate checks identifier (username or email) and password and starts a
// new session, replacing any refresh token issued before.
func (m *Manager) Authenticate(ctx context.Context, identifier, password string) (sess *Session, err error) {
	defer func() { metrics.AuthEventsTotal.WithLabelValues("login", metrics.Result(err)).Inc() }()

	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" {
		return nil, apperr.NewBadRequest("username or email is required")
	}
	acc, err := m.store.FindByLogin(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, apperr.NewInternal("failed to load user", err)
	}
	if !VerifyPassword(acc.Password, password) {
		return nil, ErrInvalidCredentials
	}

	access, refresh, err := m.mint(acc)
	if err != nil {
		return nil, err
	}
	if err := m.store.SetRefreshToken(ctx, acc.ID, refresh); err != nil {
		return nil, apperr.NewInternal("failed to store session", err)
	}
	acc.Password, acc.RefreshToken = "", ""
	return &Session{Account: acc, AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate exchanges the current refresh token for a new pair. A token that is
// not the one stored on the account fails and leaves the session unchanged.
func (m *Manager) Rotate(ctx context.Context, presented string) (sess *Session, err error) {
	defer func() { metrics.AuthEventsTotal.WithLabelValues("refresh", metrics.Result(err)).Inc() }()

	presented = strings.TrimSpace(presented)
	if presented == "" {
		return nil, ErrMissingToken
	}
	claims, err := ParseRefreshToken(presented, m.refreshSecret)
	if err != nil {
		return nil, ErrInvalidRefresh
	}
	id, err := primitive.ObjectIDFromHex(claims.AccountID)
	if err != nil {
		return nil, ErrInvalidRefresh
	}
	acc, err := m.store.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidRefresh
	}
	if err != nil {
		return nil, apperr.NewInternal("failed to load user", err)
	}
	if subtle.ConstantTimeCompare([]byte(acc.RefreshToken), []byte(presented)) != 1 {
		return nil, ErrRefreshReused
	}

	access, refresh, err := m.mint(acc)
	if err != nil {
		return nil, err
	}
	err = m.store.SwapRefreshToken(ctx, id, presented, refresh)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRefreshReused
	}
	if err != nil {
		return nil, apperr.NewInternal("failed to rotate session", err)
	}
	return &Session{AccessToken: access, RefreshToken: refresh}, nil
}

// Revoke ends the account's session; any refresh token issued before is dead.
func (m *Manager) Revoke(ctx context.Context, accountID primitive.ObjectID) (err error) {
	defer func() { metrics.AuthEventsTotal.WithLabelValues("logout", metrics.Result(err)).Inc() }()

	err = m.store.ClearRefreshToken(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrAccountNotFound
	}
	if err != nil {
		return apperr.NewInternal("failed to revoke session", err)
	}
	return nil
}

// Authorize resolves the account behind a valid access token.
func (m *Manager) Authorize(ctx context.Context, accessToken string) (*models.Account, error) {
	if accessToken == "" {
		return nil, ErrMissingToken
	}
	claims, err := ParseAccessToken(accessToken, m.accessSecret)
	if err != nil {
		return nil, ErrInvalidToken
	}
	id, err := primitive.ObjectIDFromHex(claims.AccountID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	acc, err := m.store.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, apperr.NewInternal("failed to load user", err)
	}
	acc.Password, acc.RefreshToken = "", ""
	return acc, nil
}

func (m *Manager) mint(acc *models.Account) (access, refresh string, err error) {
	access, err = GenerateAccessToken(acc, m.accessSecret, m.accessTTL)
	if err != nil {
		return "", "", apperr.NewInternal("failed to sign access token", err)
	}
	refresh, err = GenerateRefreshToken(acc.ID.Hex(), m.refreshSecret, m.refreshTTL)
	if err != nil {
		return "", "", apperr.NewInternal("failed to sign refresh token", err)
	}
	return access, refresh, nil
}

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"

	ctxAccount = "account"
)

// Middleware gates a route on a valid access token taken from the accessToken
// cookie or an Authorization bearer header.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		acc, err := m.Authorize(c.Request.Context(), bearerToken(c))
		if err != nil {
			status := apperr.Status(apperr.KindOf(err))
			c.AbortWithStatusJSON(status, gin.H{
				"statusCode": status,
				"data":       nil,
				"message":    apperr.PublicMessage(err),
				"success":    false,
			})
			return
		}
		c.Set(ctxAccount, acc)
		c.Next()
	}
}

// Optional attaches the account when a valid token is present and never aborts.
func (m *Manager) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := bearerToken(c); tok != "" {
			if acc, err := m.Authorize(c.Request.Context(), tok); err == nil {
				c.Set(ctxAccount, acc)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if tok, err := c.Cookie(AccessCookie); err == nil && tok != "" {
		return tok
	}
	authz := c.GetHeader("Authorization")
	if len(authz) > len("Bearer ") && strings.EqualFold(authz[:len("Bearer ")], "bearer ") {
		return strings.TrimSpace(authz[len("Bearer "):])
	}
	return ""
}

// CurrentAccount returns the account set by Middleware or Optional, or nil.
func CurrentAccount(c *gin.Context) *models.Account {
	if v, ok := c.Get(ctxAccount); ok {
		if acc, ok2 := v.(*models.Account); ok2 {
			return acc
		}
	}
	return nil
}

// AccountID returns the authenticated account id, or the zero id.
func AccountID(c *gin.Context) primitive.ObjectID {
	if acc := CurrentAccount(c); acc != nil {
		return acc.ID
	}
	return primitive.NilObjectID
}
