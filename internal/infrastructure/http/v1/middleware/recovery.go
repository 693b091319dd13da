// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"posledger/internal/core/apperror"
	"posledger/pkg/logger"
)

// Recovery turns a panic into a 500 response. It runs outside ErrorHandler,
// so it writes the body and releases the request's idempotency key itself.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			logger.Error(c.Request.Context(), "panic recovered",
				"panic", rec,
				"method", c.Request.Method,
				"route", c.FullPath(),
				"stack", string(debug.Stack()),
			)

			appErr := apperror.NewInternal(fmt.Errorf("panic in %s %s: %v", c.Request.Method, c.FullPath(), rec)).
				WithDetail("request_id", c.GetString("request_id"))
			_ = c.Error(appErr)
			c.Abort()
			if !c.Writer.Written() {
				writeAppError(c, appErr)
			}
		}()
		c.Next()
	}
}
