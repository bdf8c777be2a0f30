package router

import (
	"github.com/gin-gonic/gin"

	"prodplex.app/relay/internal/http/handler"
)

func DispatchRouter(rg *gin.RouterGroup, h *handler.DispatchHandler) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
}
