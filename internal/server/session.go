package server

import (
	"net/http"
	"time"

	"videotube/internal/apperr"
	"videotube/internal/auth"

	"github.com/gin-gonic/gin"
)

func setCookie(c *gin.Context, name, value string, ttl time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl).UTC(),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func clearCookie(c *gin.Context, name string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *Handler) setSessionCookies(c *gin.Context, sess *auth.Session) {
	setCookie(c, auth.AccessCookie, sess.AccessToken, h.accessTTL)
	setCookie(c, auth.RefreshCookie, sess.RefreshToken, h.refreshTTL)
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" form:"username"`
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := c.ShouldBind(&req); err != nil {
		Fail(c, apperr.NewBadRequest("invalid payload"))
		return
	}
	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}
	sess, err := h.Auth.Authenticate(c.Request.Context(), identifier, req.Password)
	if err != nil {
		Fail(c, err)
		return
	}
	h.setSessionCookies(c, sess)
	OK(c, http.StatusOK, sess, "User logged in successfully")
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.Auth.Revoke(c.Request.Context(), auth.AccountID(c)); err != nil {
		Fail(c, err)
		return
	}
	clearCookie(c, auth.AccessCookie)
	clearCookie(c, auth.RefreshCookie)
	OK(c, http.StatusOK, gin.H{}, "User logged out")
}

// RefreshToken rotates the session. The token comes from the refreshToken
// cookie or the request body.
func (h *Handler) RefreshToken(c *gin.Context) {
	token, _ := c.Cookie(auth.RefreshCookie)
	if token == "" {
		var req struct {
			RefreshToken string `json:"refreshToken" form:"refreshToken"`
		}
		_ = c.ShouldBind(&req)
		token = req.RefreshToken
	}
	sess, err := h.Auth.Rotate(c.Request.Context(), token)
	if err != nil {
		Fail(c, err)
		return
	}
	h.setSessionCookies(c, sess)
	OK(c, http.StatusOK, sess, "Access token refreshed")
}
