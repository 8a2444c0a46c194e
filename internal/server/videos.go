package server

import (
	"net/http"

	"videotube/internal/apperr"
	"videotube/internal/auth"
	"videotube/internal/media"
	"videotube/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListVideos(c *gin.Context) {
	videos, err := h.Videos.Feed(c.Request.Context(), service.FeedInput{
		Page:     c.Query("page"),
		Limit:    c.Query("limit"),
		Query:    c.Query("query"),
		SortBy:   c.Query("sortBy"),
		SortType: c.Query("sortType"),
		UserID:   c.Query("userId"),
	})
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, videos, "Videos fetched successfully")
}

// PublishVideo takes a multipart form with videoFile and thumbnail.
func (h *Handler) PublishVideo(c *gin.Context) {
	var req struct {
		Title       string `form:"title" json:"title"`
		Description string `form:"description" json:"description"`
	}
	if err := c.ShouldBind(&req); err != nil {
		Fail(c, apperr.NewBadRequest("invalid payload"))
		return
	}
	video, err := h.saveUpload(c, "videoFile", media.KindVideo)
	if err != nil {
		Fail(c, err)
		return
	}
	thumb, err := h.saveUpload(c, "thumbnail", media.KindThumbnail)
	if err != nil {
		discard(video)
		Fail(c, err)
		return
	}
	defer discard(video, thumb)

	v, err := h.Videos.Publish(c.Request.Context(), auth.AccountID(c), service.PublishInput{
		Title:       req.Title,
		Description: req.Description,
		Video:       video,
		Thumbnail:   thumb,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusCreated, v, "Video published successfully")
}

func (h *Handler) GetVideo(c *gin.Context) {
	v, err := h.Videos.Get(c.Request.Context(), c.Param("videoId"), auth.AccountID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, v, "Video fetched successfully")
}

// UpdateVideo accepts title and description fields and an optional thumbnail file.
func (h *Handler) UpdateVideo(c *gin.Context) {
	var req struct {
		Title       *string `form:"title" json:"title"`
		Description *string `form:"description" json:"description"`
	}
	if err := c.ShouldBind(&req); err != nil {
		Fail(c, apperr.NewBadRequest("invalid payload"))
		return
	}
	thumb, err := h.saveUpload(c, "thumbnail", media.KindThumbnail)
	if err != nil {
		Fail(c, err)
		return
	}
	defer discard(thumb)

	v, err := h.Videos.Update(c.Request.Context(), auth.AccountID(c), c.Param("videoId"), service.UpdateVideoInput{
		Title:       req.Title,
		Description: req.Description,
		Thumbnail:   thumb,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, v, "Video updated successfully")
}

func (h *Handler) DeleteVideo(c *gin.Context) {
	if err := h.Videos.Delete(c.Request.Context(), auth.AccountID(c), c.Param("videoId")); err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, gin.H{}, "Video deleted successfully")
}

func (h *Handler) TogglePublish(c *gin.Context) {
	v, err := h.Videos.TogglePublish(c.Request.Context(), auth.AccountID(c), c.Param("videoId"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, v, "Publish status toggled successfully")
}
