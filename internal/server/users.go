package server

import (
	"net/http"

	"videotube/internal/apperr"
	"videotube/internal/auth"
	"videotube/internal/media"
	"videotube/internal/service"

	"github.com/gin-gonic/gin"
)

// Register takes a multipart form with an avatar and an optional coverImage.
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		FullName string `form:"fullName" json:"fullName"`
		Email    string `form:"email" json:"email"`
		Username string `form:"username" json:"username"`
		Password string `form:"password" json:"password"`
	}
	if err := c.ShouldBind(&req); err != nil {
		Fail(c, apperr.NewBadRequest("invalid payload"))
		return
	}
	avatar, err := h.saveUpload(c, "avatar", media.KindAvatar)
	if err != nil {
		Fail(c, err)
		return
	}
	cover, err := h.saveUpload(c, "coverImage", media.KindCover)
	if err != nil {
		discard(avatar)
		Fail(c, err)
		return
	}
	defer discard(avatar, cover)

	acc, err := h.Users.Register(c.Request.Context(), service.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Avatar:   avatar,
		Cover:    cover,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusCreated, acc, "User registered successfully")
}

func (h *Handler) CurrentUser(c *gin.Context) {
	OK(c, http.StatusOK, auth.CurrentAccount(c), "User fetched successfully")
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req struct {
		OldPassword string `json:"oldPassword" form:"oldPassword"`
		NewPassword string `json:"newPassword" form:"newPassword"`
	}
	if err := c.ShouldBind(&req); err != nil {
		Fail(c, apperr.NewBadRequest("invalid payload"))
		return
	}
	if err := h.Users.ChangePassword(c.Request.Context(), auth.AccountID(c), req.OldPassword, req.NewPassword); err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

func (h *Handler) UpdateAccount(c *gin.Context) {
	var req struct {
		FullName string `json:"fullName" form:"fullName"`
		Email    string `json:"email" form:"email"`
	}
	if err := c.ShouldBind(&req); err != nil {
		Fail(c, apperr.NewBadRequest("invalid payload"))
		return
	}
	acc, err := h.Users.UpdateDetails(c.Request.Context(), auth.AccountID(c), req.FullName, req.Email)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, acc, "Account details updated successfully")
}

func (h *Handler) UpdateAvatar(c *gin.Context) {
	h.updateImage(c, "avatar", service.ImageAvatar, media.KindAvatar, "Avatar updated successfully")
}

func (h *Handler) UpdateCover(c *gin.Context) {
	h.updateImage(c, "coverImage", service.ImageCover, media.KindCover, "Cover image updated successfully")
}

func (h *Handler) updateImage(c *gin.Context, formField, field, kind, msg string) {
	file, err := h.saveUpload(c, formField, kind)
	if err != nil {
		Fail(c, err)
		return
	}
	defer discard(file)
	acc, err := h.Users.UpdateImage(c.Request.Context(), auth.AccountID(c), field, file)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, acc, msg)
}

func (h *Handler) ChannelProfile(c *gin.Context) {
	ch, err := h.Users.ChannelProfile(c.Request.Context(), c.Param("username"), auth.AccountID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, ch, "User channel fetched successfully")
}

func (h *Handler) WatchHistory(c *gin.Context) {
	videos, err := h.Users.WatchHistory(c.Request.Context(), auth.AccountID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, http.StatusOK, videos, "Watch history fetched successfully")
}
