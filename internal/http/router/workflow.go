package router

import (
	"github.com/gin-gonic/gin"

	"prodplex.app/relay/internal/http/handler"
)

func WorkflowRouter(rg *gin.RouterGroup, h *handler.WorkflowHandler) {
	rg.GET("", h.Catalog)
	rg.GET("/templates", h.Templates)
	rg.POST("/templates", h.CreateTemplate)
	rg.GET("/templates/recommend", h.Recommend)
}
