package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"prodplex.app/relay/common/id"
	"prodplex.app/relay/internal/http/dto"
	"prodplex.app/relay/internal/service"
)

type DispatchHandler struct {
	dispatches service.DispatchService
}

func NewDispatchHandler(dispatches service.DispatchService) *DispatchHandler {
	return &DispatchHandler{dispatches: dispatches}
}

func (h *DispatchHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	limit := service.DefaultDispatchLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	list, err := h.dispatches.List(ctx, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list dispatches", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list dispatches"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListDispatchesResponse(list))
}

func (h *DispatchHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	dispatchID, err := id.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dispatch id"})
		return
	}

	d, err := h.dispatches.Get(ctx, dispatchID)
	if err != nil {
		if errors.Is(err, service.ErrDispatchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "dispatch not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get dispatch", "error", err, "dispatch_id", dispatchID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get dispatch"})
		return
	}

	c.JSON(http.StatusOK, dto.ToDispatchView(d))
}
