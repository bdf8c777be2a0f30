package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"prodplex.app/relay/internal/http/dto"
	"prodplex.app/relay/internal/service"
	"prodplex.app/relay/internal/template"
)

type WorkflowHandler struct {
	workflows service.WorkflowService
}

func NewWorkflowHandler(workflows service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflows: workflows}
}

// Catalog lists the routing rules in evaluation order.
func (h *WorkflowHandler) Catalog(c *gin.Context) {
	rules := h.workflows.Catalog()
	c.JSON(http.StatusOK, dto.WorkflowCatalogResponse{Workflows: rules, Count: len(rules)})
}

func (h *WorkflowHandler) Templates(c *gin.Context) {
	list := h.workflows.Templates()
	c.JSON(http.StatusOK, dto.TemplateListResponse{Templates: list, Count: len(list)})
}

func (h *WorkflowHandler) CreateTemplate(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "display_name and at least one agent are required"})
		return
	}

	t, err := h.workflows.CreateTemplate(ctx, req.Params())
	if err != nil {
		switch {
		case errors.Is(err, template.ErrTemplateExists):
			c.JSON(http.StatusConflict, gin.H{"error": "template already exists"})
		case errors.Is(err, template.ErrInvalidTemplate):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			slog.ErrorContext(ctx, "failed to create template", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create template"})
		}
		return
	}

	c.JSON(http.StatusCreated, t)
}

func (h *WorkflowHandler) Recommend(c *gin.Context) {
	description := strings.TrimSpace(c.Query("project_description"))
	if description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_description is required"})
		return
	}

	t := h.workflows.Recommend(c.Request.Context(), description)
	c.JSON(http.StatusOK, dto.RecommendResponse{Template: t})
}
