package realtime

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const sseKeepAlive = 25 * time.Second

// NewSSEHandler serves GET /api/events for clients that cannot open a websocket.
func NewSSEHandler(hub *Hub, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		s := NewSession("sse")
		if err := hub.Register(ctx, s); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": "realtime unavailable"})
			return
		}
		defer hub.Unregister(s)

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
		c.Writer.Flush()

		ticker := time.NewTicker(sseKeepAlive)
		defer ticker.Stop()

		c.Stream(func(w io.Writer) bool {
			select {
			case msg := <-s.Messages():
				c.SSEvent(Topic, string(msg))
				return true
			case <-ticker.C:
				_, _ = io.WriteString(w, ": keep-alive\n\n")
				return true
			case <-s.Done():
				return false
			case <-ctx.Done():
				return false
			}
		})
		log.Debug("sse stream closed", "session", s.ID)
	}
}
