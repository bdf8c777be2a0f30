package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"prodplex.app/relay/internal/backend"
)

// BackendHandler proxies read-only views of the workflow backend.
type BackendHandler struct {
	client backend.Client
}

func NewBackendHandler(client backend.Client) *BackendHandler {
	return &BackendHandler{client: client}
}

func (h *BackendHandler) Workflows(c *gin.Context) {
	ctx := c.Request.Context()

	workflows, err := h.client.ListWorkflows(ctx)
	if err != nil {
		slog.WarnContext(ctx, "backend workflows unavailable", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "workflow backend unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"workflows": workflows, "count": len(workflows)})
}

func (h *BackendHandler) Agents(c *gin.Context) {
	ctx := c.Request.Context()

	agents, err := h.client.AgentStatus(ctx)
	if err != nil {
		slog.WarnContext(ctx, "backend agents unavailable", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "workflow backend unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents, "count": len(agents)})
}

func (h *BackendHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	health, err := h.client.Health(ctx)
	if err != nil {
		slog.WarnContext(ctx, "backend health check failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"status": "unreachable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, health)
}
