package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"prodplex.app/relay/internal/queue"
)

const statusBlock = 25 * time.Second

// AgentStatusHandler streams status events over SSE. Clients resume with
// ?last_id= or the Last-Event-ID header.
type AgentStatusHandler struct {
	status queue.StatusReader
	block  time.Duration
}

func NewAgentStatusHandler(status queue.StatusReader) *AgentStatusHandler {
	return &AgentStatusHandler{status: status, block: statusBlock}
}

// WithBlock overrides how long each read waits before a keep-alive ping.
func (h *AgentStatusHandler) WithBlock(d time.Duration) *AgentStatusHandler {
	h.block = d
	return h
}

func (h *AgentStatusHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	if h.status == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "status stream not configured"})
		return
	}

	lastID := c.Query("last_id")
	if lastID == "" {
		lastID = c.GetHeader("Last-Event-ID")
	}

	if lastID == "" {
		lastID = "$"
	}

	setSSEHeaders(c.Writer)
	c.Render(-1, sse.Event{Event: "ping", Data: "ready"})
	c.Writer.Flush()

	for {
		if ctx.Err() != nil {
			return
		}

		// "$" would drop events published between reads; pin the tail id.
		if lastID == "$" {
			tail, err := h.status.LastID(ctx)
			if err != nil {
				slog.WarnContext(ctx, "status stream tail lookup failed", "error", err)
			} else {
				lastID = tail
			}
		}

		events, err := h.status.ReadAfter(ctx, lastID, h.block)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.WarnContext(ctx, "status stream read failed", "error", err)
			c.Render(-1, sse.Event{Event: "error", Data: gin.H{"error": "status stream unavailable"}})
			c.Writer.Flush()
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if len(events) == 0 {
			c.Render(-1, sse.Event{Event: "ping", Data: time.Now().UTC().Format(time.RFC3339Nano)})
			c.Writer.Flush()
			continue
		}

		for _, ev := range events {
			lastID = ev.ID
			c.Render(-1, sse.Event{Id: ev.ID, Event: "status", Data: ev})
		}
		c.Writer.Flush()
	}
}

func setSSEHeaders(w http.ResponseWriter) {
	headers := w.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
}
