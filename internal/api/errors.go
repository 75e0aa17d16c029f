package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tokenbook/internal/apperr"
	"tokenbook/internal/logger"
)

// RequestIDKey is the gin context key set by the request-id middleware.
const RequestIDKey = "request_id"

func StatusFor(e *apperr.Error) int {
	switch e.Kind {
	case apperr.KindValidation, apperr.KindState, apperr.KindFunds:
		return http.StatusBadRequest
	case apperr.KindAuthentication:
		return http.StatusUnauthorized
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes the error envelope. Anything that is not an
// *apperr.Error is logged and reported as SERVER_ERROR.
func RespondError(c *gin.Context, err error) {
	e := apperr.From(err)
	status := StatusFor(e)
	if status >= http.StatusInternalServerError {
		logger.WithError(err).Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", c.GetString(RequestIDKey),
		)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Success: false,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
