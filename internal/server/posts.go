package server

import (
	"net/http"

	"videotube/internal/apperr"
	"videotube/internal/auth"

	"github.com/gin-gonic/gin"
)

type contentRequest struct {
	Content string `json:"content" form:"content"`
}

func bindContent(c *gin.Context) (string, bool) {
	var req contentRequest
	if err := c.ShouldBind(&req); err != nil {
		Fail(c, apperr.NewBadRequest("invalid payload"))
		return "", false
	}
	return req.Content, true
}

func (h *Handler) ListComments(c *gin.Context) {
	comments, err := h.Comments.List(c.Request.Context(), c.Param("videoId"), c.Query("page"), c.Query("limit"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, comments, "Comments fetched successfully")
}

func (h *Handler) AddComment(c *gin.Context) {
	content, ok := bindContent(c)
	if !ok {
		return
	}
	cm, err := h.Comments.Add(c.Request.Context(), auth.AccountID(c), c.Param("videoId"), content)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusCreated, cm, "Comment added successfully")
}

func (h *Handler) UpdateComment(c *gin.Context) {
	content, ok := bindContent(c)
	if !ok {
		return
	}
	cm, err := h.Comments.Update(c.Request.Context(), auth.AccountID(c), c.Param("commentId"), content)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, cm, "Comment updated successfully")
}

func (h *Handler) DeleteComment(c *gin.Context) {
	if err := h.Comments.Delete(c.Request.Context(), auth.AccountID(c), c.Param("commentId")); err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, gin.H{}, "Comment deleted successfully")
}

func (h *Handler) CreateTweet(c *gin.Context) {
	content, ok := bindContent(c)
	if !ok {
		return
	}
	t, err := h.Tweets.Create(c.Request.Context(), auth.AccountID(c), content)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusCreated, t, "Tweet created successfully")
}

func (h *Handler) UserTweets(c *gin.Context) {
	tweets, err := h.Tweets.ListByUser(c.Request.Context(), c.Param("userId"), c.Query("page"), c.Query("limit"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, tweets, "Tweets fetched successfully")
}

func (h *Handler) UpdateTweet(c *gin.Context) {
	content, ok := bindContent(c)
	if !ok {
		return
	}
	t, err := h.Tweets.Update(c.Request.Context(), auth.AccountID(c), c.Param("tweetId"), content)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, t, "Tweet updated successfully")
}

func (h *Handler) DeleteTweet(c *gin.Context) {
	if err := h.Tweets.Delete(c.Request.Context(), auth.AccountID(c), c.Param("tweetId")); err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, gin.H{}, "Tweet deleted successfully")
}
