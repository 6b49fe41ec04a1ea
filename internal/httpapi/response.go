package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lingoquest/lingoquest/internal/apperr"
)

// APIError is the body of a failed request.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
}

// ErrorEnvelope wraps APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func respondBadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorEnvelope{Error: APIError{Message: err.Error(), Code: "bad_request"}})
}

// respondError maps the engine's error taxonomy to a status code. Internal
// errors are logged and reported without detail.
func (h *Handler) respondError(c *gin.Context, err error) {
	var v *apperr.ValidationError
	switch {
	case errors.Is(err, apperr.ErrUnknownGameType):
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorEnvelope{Error: APIError{Message: err.Error(), Code: "unknown_game_type", Field: "gameType"}})
	case errors.As(err, &v):
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorEnvelope{Error: APIError{Message: err.Error(), Code: "invalid", Field: v.Field}})
	case errors.Is(err, apperr.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorEnvelope{Error: APIError{Message: err.Error(), Code: "not_found"}})
	case errors.Is(err, apperr.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, ErrorEnvelope{Error: APIError{Message: "request raced with another; retry", Code: "conflict"}})
	default:
		h.log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorEnvelope{Error: APIError{Message: "internal error", Code: "internal"}})
	}
}
