package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"prodplex.app/relay/common/id"
	"prodplex.app/relay/common/llm"
	"prodplex.app/relay/common/logger"
	"prodplex.app/relay/common/otel"
	"prodplex.app/relay/core/config"
	"prodplex.app/relay/core/db"
	"prodplex.app/relay/internal/backend"
	"prodplex.app/relay/internal/http/middleware"
	httprouter "prodplex.app/relay/internal/http/router"
	"prodplex.app/relay/internal/planner"
	"prodplex.app/relay/internal/queue"
	"prodplex.app/relay/internal/service"
	"prodplex.app/relay/internal/store"
	"prodplex.app/relay/internal/template"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "relay starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(id.NodeServer); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to apply schema", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Pipeline.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.DispatchStream)

	producer := queue.NewRedisProducer(redisClient, cfg.Pipeline.DispatchStream, slog.Default())
	defer producer.Close()

	statusStream := queue.NewStatusStream(redisClient, cfg.Pipeline.StatusStream, cfg.Pipeline.StatusMaxLen)

	services := service.NewServices(
		store.NewDispatchStore(database.Conn()),
		producer,
		statusStream,
		newPlanner(ctx, cfg.PlannerLLM),
		template.NewEngine(),
		cfg.Backend.UseNemotron,
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services, statusStream, backend.NewClient(cfg.Backend))
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// No WriteTimeout: the SSE status stream holds responses open.
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

// newPlanner falls back to the rule planner when no model key is set.
func newPlanner(ctx context.Context, cfg config.LLMConfig) planner.Planner {
	if !cfg.Enabled() {
		slog.InfoContext(ctx, "planner llm disabled, using rule plans")
		return planner.New(nil, 0)
	}

	client, err := llm.New(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: 60 * time.Second,
	})
	if err != nil {
		slog.WarnContext(ctx, "planner llm unavailable, using rule plans", "error", err)
		return planner.New(nil, 0)
	}

	slog.InfoContext(ctx, "planner llm enabled", "model", client.Model(), "max_calls", cfg.MaxCalls)
	return planner.New(client, cfg.MaxCalls)
}

func setupRouter(cfg config.Config, services *service.Services, status queue.StatusReader, backendClient backend.Client) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORSOrigins))

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		TraceHeaderName: cfg.Pipeline.TraceHeaderName,
		Status:          status,
		Backend:         backendClient,
	})

	return router
}

const banner = `
 ___  ___  ___  ___  ___  ___  _    ___ __  __
| _ \| _ \/ _ \|   \| _ \| _ \| |  | __|\ \/ /
|  _/|   / (_) | |) |  _/|  _/| |__| _|  >  <
|_|  |_|_\\___/|___/|_|  |_|  |____|___|/_/\_\  relay server
`
