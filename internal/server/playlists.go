package server

import (
	"net/http"

	"videotube/internal/apperr"
	"videotube/internal/auth"

	"github.com/gin-gonic/gin"
)

type playlistRequest struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
}

func (h *Handler) CreatePlaylist(c *gin.Context) {
	var req playlistRequest
	if err := c.ShouldBind(&req); err != nil {
		Fail(c, apperr.NewBadRequest("invalid payload"))
		return
	}
	p, err := h.Playlists.Create(c.Request.Context(), auth.AccountID(c), req.Name, req.Description)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusCreated, p, "Playlist created successfully")
}

func (h *Handler) GetPlaylist(c *gin.Context) {
	p, err := h.Playlists.Get(c.Request.Context(), c.Param("playlistId"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, p, "Playlist fetched successfully")
}

func (h *Handler) UserPlaylists(c *gin.Context) {
	lists, err := h.Playlists.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, lists, "Playlists fetched successfully")
}

func (h *Handler) AddToPlaylist(c *gin.Context) {
	p, err := h.Playlists.AddVideo(c.Request.Context(), auth.AccountID(c), c.Param("playlistId"), c.Param("videoId"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, p, "Video added to playlist")
}

func (h *Handler) RemoveFromPlaylist(c *gin.Context) {
	p, err := h.Playlists.RemoveVideo(c.Request.Context(), auth.AccountID(c), c.Param("playlistId"), c.Param("videoId"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, p, "Video removed from playlist")
}

func (h *Handler) UpdatePlaylist(c *gin.Context) {
	var req playlistRequest
	if err := c.ShouldBind(&req); err != nil {
		Fail(c, apperr.NewBadRequest("invalid payload"))
		return
	}
	p, err := h.Playlists.Update(c.Request.Context(), auth.AccountID(c), c.Param("playlistId"), req.Name, req.Description)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, p, "Playlist updated successfully")
}

func (h *Handler) DeletePlaylist(c *gin.Context) {
	if err := h.Playlists.Delete(c.Request.Context(), auth.AccountID(c), c.Param("playlistId")); err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, gin.H{}, "Playlist deleted successfully")
}
