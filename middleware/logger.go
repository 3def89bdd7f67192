package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const loggerKey = "logger"

// RequestLogger gắn một slog.Logger theo từng request vào context,
// kèm request_id để trace log của cùng một request.
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()

		l := base.With(
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		c.Set(loggerKey, l)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// GetLogger lấy logger của request hiện tại (fallback về slog.Default).
func GetLogger(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}
