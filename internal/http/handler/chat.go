package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"prodplex.app/relay/common/logger"
	"prodplex.app/relay/internal/http/dto"
	"prodplex.app/relay/internal/planner"
	"prodplex.app/relay/internal/service"
)

type ChatHandler struct {
	chat        service.ChatService
	planner     planner.Planner
	traceHeader string
}

func NewChatHandler(chat service.ChatService, p planner.Planner, traceHeader string) *ChatHandler {
	return &ChatHandler{
		chat:        chat,
		planner:     p,
		traceHeader: traceHeader,
	}
}

// Analyze classifies a message without queueing anything.
func (h *ChatHandler) Analyze(c *gin.Context) {
	var req dto.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	c.JSON(http.StatusOK, h.chat.Analyze(c.Request.Context(), req.Message))
}

func (h *ChatHandler) Dispatch(c *gin.Context) {
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{Component: "relay.http.chat"})

	var req dto.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	res, err := h.chat.Dispatch(ctx, service.DispatchParams{
		Message:     req.Message,
		ProjectID:   req.ProjectID,
		UseNemotron: req.UseNemotron,
		TraceID:     h.traceID(c),
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.ErrorContext(ctx, "failed to dispatch message", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to dispatch message"})
		return
	}

	c.JSON(http.StatusAccepted, dto.ToDispatchResponse(res))
}

func (h *ChatHandler) Plan(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task is required"})
		return
	}

	plan, err := h.chat.Plan(ctx, service.PlanParams{Task: req.Task, Agents: req.Agents})
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "task is required"})
			return
		}
		slog.ErrorContext(ctx, "failed to plan task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to plan task"})
		return
	}

	c.JSON(http.StatusOK, dto.PlanResponse{Plan: plan, Usage: h.planner.Usage()})
}

// PlannerUsage reports the LLM call budget.
func (h *ChatHandler) PlannerUsage(c *gin.Context) {
	c.JSON(http.StatusOK, h.planner.Usage())
}

func (h *ChatHandler) ResetPlanner(c *gin.Context) {
	h.planner.Reset()
	slog.InfoContext(c.Request.Context(), "planner limits reset")
	c.JSON(http.StatusOK, h.planner.Usage())
}

// traceID prefers the active span, then the configured request header.
func (h *ChatHandler) traceID(c *gin.Context) *string {
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return logger.Ptr(sc.TraceID().String())
	}
	if h.traceHeader == "" {
		return nil
	}
	if v := strings.TrimSpace(c.GetHeader(h.traceHeader)); v != "" {
		return &v
	}
	return nil
}
