package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/wms-platform/scanpick-service/pkg/errors"
)

// ErrorHandler converts errors attached to the Gin context into JSON responses
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		respondWithError(c, logger, err)
	}
}

// ErrorResponder writes an error response for a handler-level error
type ErrorResponder struct {
	logger *slog.Logger
}

// NewErrorResponder creates a responder bound to the given logger
func NewErrorResponder(logger *slog.Logger) *ErrorResponder {
	return &ErrorResponder{logger: logger}
}

// Respond maps the error onto an HTTP status and writes the body
func (r *ErrorResponder) Respond(c *gin.Context, err error) {
	respondWithError(c, r.logger, err)
}

func respondWithError(c *gin.Context, logger *slog.Logger, err error) {
	appErr := apperrors.MapDomainError(err)

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error("Request failed",
			"code", appErr.Code,
			"error", appErr.Error(),
			"path", c.Request.URL.Path,
		)
	}

	body := gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	}
	if requestID, exists := c.Get(ContextKeyRequestID); exists {
		body["requestId"] = requestID
	}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}

	c.AbortWithStatusJSON(appErr.HTTPStatus, body)
}
