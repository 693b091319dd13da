package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"posledger/internal/core/apperror"
	"posledger/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}

		if appErr, ok := apperror.AsAppError(err); ok {
			if appErr.Err != nil {
				logger.Error(c.Request.Context(), "request error",
					"code", appErr.Code,
					"cause", appErr.Err,
				)
			}

			writeAppError(c, appErr)
			return
		}

		logger.Error(c.Request.Context(), "unhandled error",
			"error", err,
		)

		body := gin.H{
			"code":    apperror.CodeInternal,
			"message": "Internal server error",
			"details": map[string]any{
				"request_id": c.GetString("request_id"),
			},
		}
		FailIdempotency(c, http.StatusInternalServerError, body)
		c.JSON(http.StatusInternalServerError, body)
	}
}

func writeAppError(c *gin.Context, appErr *apperror.AppError) {
	body := gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
	}
	FailIdempotency(c, appErr.HTTPStatus, body)
	c.JSON(appErr.HTTPStatus, body)
}
