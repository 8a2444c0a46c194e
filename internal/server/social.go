package server

import (
	"net/http"

	"videotube/internal/auth"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ToggleVideoLike(c *gin.Context) {
	st, err := h.Likes.ToggleVideo(c.Request.Context(), auth.AccountID(c), c.Param("videoId"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, st, "Video like toggled")
}

func (h *Handler) ToggleCommentLike(c *gin.Context) {
	st, err := h.Likes.ToggleComment(c.Request.Context(), auth.AccountID(c), c.Param("commentId"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, st, "Comment like toggled")
}

func (h *Handler) ToggleTweetLike(c *gin.Context) {
	st, err := h.Likes.ToggleTweet(c.Request.Context(), auth.AccountID(c), c.Param("tweetId"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, st, "Tweet like toggled")
}

func (h *Handler) LikedVideos(c *gin.Context) {
	videos, err := h.Likes.LikedVideos(c.Request.Context(), auth.AccountID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, videos, "Liked videos fetched successfully")
}

func (h *Handler) ToggleSubscription(c *gin.Context) {
	st, err := h.Subscriptions.Toggle(c.Request.Context(), auth.AccountID(c), c.Param("channelId"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, st, "Subscription toggled")
}

func (h *Handler) ChannelSubscribers(c *gin.Context) {
	subs, err := h.Subscriptions.Subscribers(c.Request.Context(), c.Param("channelId"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, subs, "Subscribers fetched successfully")
}

func (h *Handler) SubscribedChannels(c *gin.Context) {
	channels, err := h.Subscriptions.SubscribedChannels(c.Request.Context(), c.Param("subscriberId"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, channels, "Subscribed channels fetched successfully")
}

func (h *Handler) ChannelStats(c *gin.Context) {
	stats, err := h.Dashboard.Stats(c.Request.Context(), auth.AccountID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, stats, "Channel stats fetched successfully")
}

func (h *Handler) ChannelVideos(c *gin.Context) {
	videos, err := h.Dashboard.Videos(c.Request.Context(), auth.AccountID(c), c.Query("page"), c.Query("limit"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, videos, "Channel videos fetched successfully")
}
