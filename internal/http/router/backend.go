package router

import (
	"github.com/gin-gonic/gin"

	"prodplex.app/relay/internal/http/handler"
)

func BackendRouter(rg *gin.RouterGroup, h *handler.BackendHandler) {
	rg.GET("/workflows", h.Workflows)
	rg.GET("/agents", h.Agents)
	rg.GET("/health", h.Health)
}
