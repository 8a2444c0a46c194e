package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"videotube/internal/auth"
	"videotube/internal/config"
	"videotube/internal/db"
	clog "videotube/internal/log"
	"videotube/internal/media"
	"videotube/internal/server"
	"videotube/internal/service"
	"videotube/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	clog.Init(cfg.Env, cfg.LogLevel)
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := db.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()
	database := client.Database(cfg.MongoDatabase)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		log.Fatal().Err(err).Msg("db indexes")
	}
	st := store.New(database)

	if err := os.MkdirAll(cfg.UploadTempDir, 0o750); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.UploadTempDir).Msg("upload dir")
	}
	storage := newStorage(ctx, cfg)

	deps := server.Deps{
		Auth:          auth.NewManager(st.Accounts, cfg),
		Users:         service.NewUserService(st.Accounts, st, storage),
		Videos:        service.NewVideoService(st.Videos, st.Comments, st.Likes, st.Playlists, st.Accounts, st, storage),
		Comments:      service.NewCommentService(st.Comments, st.Videos, st.Likes, st),
		Likes:         service.NewLikeService(st.Likes, st.Videos, st.Comments, st.Tweets, st),
		Subscriptions: service.NewSubscriptionService(st.Subscriptions, st.Accounts, st),
		Tweets:        service.NewTweetService(st.Tweets, st.Accounts, st.Likes, st),
		Playlists:     service.NewPlaylistService(st.Playlists, st.Videos, st.Accounts, st),
		Dashboard:     service.NewDashboardService(st),
		Health:        st,
	}

	router, stopLimiters := server.SetupRouter(cfg, deps)
	defer stopLimiters()
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server run")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}

// newStorage returns S3 storage when a bucket is configured. Without one,
// every upload is rejected.
func newStorage(ctx context.Context, cfg config.Config) media.Storage {
	if cfg.Media.Bucket == "" {
		log.Warn().Msg("MEDIA_BUCKET not set, uploads are disabled")
		return media.Unconfigured{}
	}
	prober := media.NewProber(cfg.Media.FFProbePath, 30*time.Second)
	s, err := media.NewS3Storage(ctx, cfg.Media, prober)
	if err != nil {
		log.Fatal().Err(err).Msg("media storage")
	}
	return s
}
