package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"health-concierge/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// writeEnvelope emits the error body shared by every failed request:
// {"error": {"code", "message", "details"}}.
func writeEnvelope(c *gin.Context, status int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// ErrorHandler converts errors attached by handlers into the envelope.
// Unknown errors become STORAGE_ERROR via FromError; handlers only ever
// call c.Error and abort.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		appErr := FromError(c.Errors[0].Err)

		logger.FromContext(c).Error("Request error",
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"status_code", appErr.StatusCode,
			"error_code", appErr.Code,
			"message", appErr.Message,
			"details", appErr.Details,
		)

		writeEnvelope(c, appErr.StatusCode, appErr.Code, appErr.Message, appErr.Details)
	}
}

// RecoveryWithLogger turns panics into a 500 envelope. The stack only
// reaches the response body in debug mode.
func RecoveryWithLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())

				logger.FromContext(c).Error("Panic recovered",
					"error", r,
					"stack", stack,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				var details interface{}
				if gin.Mode() == gin.DebugMode {
					details = fmt.Sprintf("Panic: %v\n%s", r, stack)
				}

				writeEnvelope(c, http.StatusInternalServerError, "SERVER_ERROR",
					"The server encountered an unexpected error", details)
			}
		}()

		c.Next()
	}
}
