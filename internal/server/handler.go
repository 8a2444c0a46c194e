package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"videotube/internal/apperr"
	"videotube/internal/auth"
	"videotube/internal/config"
	"videotube/internal/media"
	"videotube/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Pinger reports whether the document store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP layer dispatches to.
type Deps struct {
	Auth          *auth.Manager
	Users         *service.UserService
	Videos        *service.VideoService
	Comments      *service.CommentService
	Likes         *service.LikeService
	Subscriptions *service.SubscriptionService
	Tweets        *service.TweetService
	Playlists     *service.PlaylistService
	Dashboard     *service.DashboardService
	Health        Pinger
}

// Handler holds every HTTP handler of the API.
type Handler struct {
	Deps
	tempDir    string
	maxUpload  int64
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewHandler(cfg config.Config, deps Deps) *Handler {
	return &Handler{
		Deps:       deps,
		tempDir:    cfg.UploadTempDir,
		maxUpload:  int64(cfg.MaxUploadMB) << 20,
		accessTTL:  time.Duration(cfg.AccessTokenTTLMinutes) * time.Minute,
		refreshTTL: time.Duration(cfg.RefreshTokenTTLDays) * 24 * time.Hour,
	}
}

// Healthz reports ok when the document store answers a ping.
func (h *Handler) Healthz(c *gin.Context) {
	if h.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.Health.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("healthz ping")
			OK(c, http.StatusServiceUnavailable, gin.H{"status": "unavailable"}, "database unreachable")
			return
		}
	}
	OK(c, http.StatusOK, gin.H{"status": "ok"}, "ok")
}

// saveUpload moves the multipart file in field into the temporary holding
// area. A missing file yields nil without error.
func (h *Handler) saveUpload(c *gin.Context, field, kind string) (*media.LocalFile, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.NewBadRequest("invalid " + field + " upload")
	}
	if h.maxUpload > 0 && fh.Size > h.maxUpload {
		return nil, apperr.NewBadRequest(field + " is too large")
	}
	if err := os.MkdirAll(h.tempDir, 0o750); err != nil {
		return nil, apperr.NewInternal("failed to prepare upload directory", err)
	}
	path := filepath.Join(h.tempDir, uuid.NewString()+strings.ToLower(filepath.Ext(fh.Filename)))
	if err := c.SaveUploadedFile(fh, path); err != nil {
		return nil, apperr.NewInternal("failed to store upload", err)
	}
	return &media.LocalFile{Path: path, Kind: kind, ContentType: fh.Header.Get("Content-Type")}, nil
}

// discard removes temporary files that never reached storage.
func discard(files ...*media.LocalFile) {
	for _, f := range files {
		if f == nil {
			continue
		}
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", f.Path).Msg("remove temp upload")
		}
	}
}
