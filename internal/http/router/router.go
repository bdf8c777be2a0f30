package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"prodplex.app/relay/internal/backend"
	"prodplex.app/relay/internal/classifier"
	"prodplex.app/relay/internal/http/handler"
	"prodplex.app/relay/internal/queue"
	"prodplex.app/relay/internal/service"
)

type RouterConfig struct {
	TraceHeaderName string
	Status          queue.StatusReader
	Backend         backend.Client // nil disables the /backend proxy routes
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"agents":    len(classifier.Agents()),
		})
	})

	v1 := router.Group("/api/v1")
	{
		chatHandler := handler.NewChatHandler(services.Chat(), services.Planner(), cfg.TraceHeaderName)
		ChatRouter(v1.Group("/chat"), chatHandler)
		PlannerRouter(v1.Group("/planner"), chatHandler)

		dispatchHandler := handler.NewDispatchHandler(services.Dispatches())
		DispatchRouter(v1.Group("/dispatches"), dispatchHandler)

		workflowHandler := handler.NewWorkflowHandler(services.Workflows())
		WorkflowRouter(v1.Group("/workflows"), workflowHandler)

		statusHandler := handler.NewAgentStatusHandler(cfg.Status)
		AgentStatusRouter(v1.Group("/agents"), statusHandler)

		if cfg.Backend != nil {
			backendHandler := handler.NewBackendHandler(cfg.Backend)
			BackendRouter(v1.Group("/backend"), backendHandler)
		}
	}
}
