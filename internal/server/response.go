package server

import (
	"net/http"

	"videotube/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// envelope is the body of every API response.
type envelope struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

// OK writes data in the response envelope.
func OK(c *gin.Context, status int, data interface{}, msg string) {
	c.JSON(status, envelope{StatusCode: status, Data: data, Message: msg, Success: status < http.StatusBadRequest})
}

// Fail maps err to its status and aborts. Internal causes are logged, never returned.
func Fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.Status(kind)
	l := requestLogger(c)
	if kind == apperr.Internal {
		l.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	} else {
		l.Warn().Err(err).Str("path", c.FullPath()).Int("status", status).Msg("request rejected")
	}
	c.AbortWithStatusJSON(status, envelope{StatusCode: status, Message: apperr.PublicMessage(err), Success: false})
}

func requestLogger(c *gin.Context) *zerolog.Logger {
	l := zerolog.Ctx(c.Request.Context())
	if l.GetLevel() == zerolog.Disabled {
		return &log.Logger
	}
	return l
}
