package router

import (
	"github.com/gin-gonic/gin"

	"prodplex.app/relay/internal/http/handler"
)

func ChatRouter(rg *gin.RouterGroup, h *handler.ChatHandler) {
	rg.POST("/analyze", h.Analyze)
	rg.POST("/dispatch", h.Dispatch)
	rg.POST("/plan", h.Plan)
}

func PlannerRouter(rg *gin.RouterGroup, h *handler.ChatHandler) {
	rg.GET("/usage", h.PlannerUsage)
	rg.POST("/reset", h.ResetPlanner)
}
