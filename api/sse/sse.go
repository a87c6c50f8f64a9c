package sse

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/orbstation/portal/aggregate"
	"github.com/orbstation/portal/cache"
	"go.uber.org/zap"
)

// Handler streams server-status updates over SSE. The stream is public;
// it carries the same payload as GET /api/server, pushed on change.
type Handler struct {
	pubsub cache.PubSub
	agg    *aggregate.Service
	logger *zap.Logger
}

// NewHandler creates a new SSE Handler.
func NewHandler(pubsub cache.PubSub, agg *aggregate.Service, logger *zap.Logger) *Handler {
	return &Handler{pubsub: pubsub, agg: agg, logger: logger}
}

// ServeSSE handles GET /sse. Clients get the current status immediately,
// then an event whenever the background poll observes a change.
func (h *Handler) ServeSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	subCtx, subCancel := context.WithCancel(c.Request.Context())
	defer subCancel()

	msgCh, unsub, err := h.pubsub.Subscribe(subCtx, aggregate.StatusChannel)
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	defer unsub()

	// Send the current snapshot so clients do not wait for the next change.
	if status, err := h.agg.ServerStatus(c.Request.Context()); err == nil {
		fmt.Fprintf(c.Writer, "event: status\ndata: %s\n\n", status)
	} else {
		fmt.Fprintf(c.Writer, "event: connected\ndata: {}\n\n")
	}
	c.Writer.Flush()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "event: status\ndata: %s\n\n", msg.Payload)
			c.Writer.Flush()

		case <-ticker.C:
			// Keepalive comment to prevent proxy timeouts.
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}
