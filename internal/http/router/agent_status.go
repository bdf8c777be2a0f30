package router

import (
	"github.com/gin-gonic/gin"

	"prodplex.app/relay/internal/http/handler"
)

func AgentStatusRouter(rg *gin.RouterGroup, h *handler.AgentStatusHandler) {
	rg.GET("/stream", h.Stream)
}
