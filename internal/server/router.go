package server

import (
	"fmt"
	"net/http"
	"time"

	"videotube/internal/apperr"
	"videotube/internal/config"
	"videotube/internal/metrics"
	"videotube/internal/mw"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// SetupRouter wires middleware, the REST API under /api/v1, health and metrics.
// The returned func stops the rate limiters' sweepers.
func SetupRouter(cfg config.Config, deps Deps) (*gin.Engine, func()) {
	h := NewHandler(cfg, deps)
	apiLimiter := mw.NewRateLimiter(rate.Every(time.Second/20), 40, 2*time.Minute)
	// Credential endpoints get a tighter bucket.
	sessionLimiter := mw.NewRateLimiter(rate.Every(time.Second), 10, 2*time.Minute)
	stop := func() {
		apiLimiter.Stop()
		sessionLimiter.Stop()
	}

	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, rec any) {
		Fail(c, apperr.NewInternal("internal server error", fmt.Errorf("panic: %v", rec)))
	}))
	r.Use(mw.RequestLogger())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.CORSOrigin))
	r.MaxMultipartMemory = 8 << 20

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.NoRoute(func(c *gin.Context) {
		OK(c, http.StatusNotFound, nil, "route not found")
	})

	api := r.Group("/api/v1")
	api.Use(apiLimiter.Middleware())
	api.GET("/healthcheck", h.Healthz)

	authed := deps.Auth.Middleware()
	optional := deps.Auth.Optional()

	users := api.Group("/users")
	{
		sessions := users.Group("", sessionLimiter.Middleware())
		sessions.POST("/register", h.Register)
		sessions.POST("/login", h.Login)
		sessions.POST("/refresh-token", h.RefreshToken)

		users.POST("/logout", authed, h.Logout)
		users.POST("/change-password", authed, h.ChangePassword)
		users.GET("/current-user", authed, h.CurrentUser)
		users.PATCH("/update-account", authed, h.UpdateAccount)
		users.PATCH("/avatar", authed, h.UpdateAvatar)
		users.PATCH("/cover-image", authed, h.UpdateCover)
		users.GET("/c/:username", authed, h.ChannelProfile)
		users.GET("/history", authed, h.WatchHistory)
	}

	videos := api.Group("/videos")
	{
		videos.GET("", h.ListVideos)
		videos.POST("", authed, h.PublishVideo)
		videos.GET("/:videoId", optional, h.GetVideo)
		videos.PATCH("/:videoId", authed, h.UpdateVideo)
		videos.DELETE("/:videoId", authed, h.DeleteVideo)
		videos.PATCH("/toggle/publish/:videoId", authed, h.TogglePublish)
	}

	comments := api.Group("/comments", authed)
	{
		comments.GET("/:videoId", h.ListComments)
		comments.POST("/:videoId", h.AddComment)
		comments.PATCH("/c/:commentId", h.UpdateComment)
		comments.DELETE("/c/:commentId", h.DeleteComment)
	}

	likes := api.Group("/likes", authed)
	{
		likes.POST("/toggle/v/:videoId", h.ToggleVideoLike)
		likes.POST("/toggle/c/:commentId", h.ToggleCommentLike)
		likes.POST("/toggle/t/:tweetId", h.ToggleTweetLike)
		likes.GET("/videos", h.LikedVideos)
	}

	subs := api.Group("/subscriptions", authed)
	{
		subs.GET("/c/:channelId", h.ChannelSubscribers)
		subs.POST("/c/:channelId", h.ToggleSubscription)
		subs.GET("/u/:subscriberId", h.SubscribedChannels)
	}

	tweets := api.Group("/tweets", authed)
	{
		tweets.POST("", h.CreateTweet)
		tweets.GET("/user/:userId", h.UserTweets)
		tweets.PATCH("/:tweetId", h.UpdateTweet)
		tweets.DELETE("/:tweetId", h.DeleteTweet)
	}

	playlists := api.Group("/playlist", authed)
	{
		playlists.POST("", h.CreatePlaylist)
		playlists.GET("/:playlistId", h.GetPlaylist)
		playlists.PATCH("/:playlistId", h.UpdatePlaylist)
		playlists.DELETE("/:playlistId", h.DeletePlaylist)
		playlists.PATCH("/add/:videoId/:playlistId", h.AddToPlaylist)
		playlists.PATCH("/remove/:videoId/:playlistId", h.RemoveFromPlaylist)
		playlists.GET("/user/:userId", h.UserPlaylists)
	}

	dashboard := api.Group("/dashboard", authed)
	{
		dashboard.GET("/stats", h.ChannelStats)
		dashboard.GET("/videos", h.ChannelVideos)
	}

	return r, stop
}
