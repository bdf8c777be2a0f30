package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"prodplex.app/relay/common/id"
	"prodplex.app/relay/common/logger"
	"prodplex.app/relay/common/otel"
	"prodplex.app/relay/core/config"
	"prodplex.app/relay/core/db"
	"prodplex.app/relay/internal/backend"
	"prodplex.app/relay/internal/queue"
	"prodplex.app/relay/internal/store"
	"prodplex.app/relay/internal/worker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger.Setup(cfg)

	slog.InfoContext(ctx, "relay worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Pipeline.DispatchGroup,
		"consumer_name", cfg.Pipeline.Consumer,
		"backend_url", cfg.Backend.BaseURL)

	if err := id.Init(id.NodeWorker); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
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

	consumer, err := queue.NewRedisConsumer(ctx, redisClient, queue.ConsumerConfig{
		Stream:       cfg.Pipeline.DispatchStream,
		Group:        cfg.Pipeline.DispatchGroup,
		Consumer:     cfg.Pipeline.Consumer,
		DLQStream:    cfg.Pipeline.DispatchDLQ,
		BatchSize:    1, // workflows run for minutes; one at a time per consumer
		Block:        5 * time.Second,
		MaxAttempts:  cfg.Pipeline.MaxAttempts,
		RequeueDelay: 2 * time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	statusStream := queue.NewStatusStream(redisClient, cfg.Pipeline.StatusStream, cfg.Pipeline.StatusMaxLen)
	backendClient := backend.NewClient(cfg.Backend)

	processor := worker.NewDispatchProcessor(
		store.NewDispatchStore(database.Conn()),
		backendClient,
		statusStream,
	)

	w := worker.New(consumer, processor, worker.Config{
		MaxAttempts: cfg.Pipeline.MaxAttempts,
	})

	reclaimer := worker.NewReclaimer(consumer, w, worker.ReclaimerConfig{
		MinIdle:   cfg.Backend.Timeout + time.Minute,
		Interval:  time.Minute,
		BatchSize: 10,
	})

	listener, err := backend.NewListener(backend.ListenerConfig{
		BaseURL: cfg.Backend.BaseURL,
	}, worker.NewEventBridge(statusStream).Handle)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create backend listener", "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()
	go reclaimer.Run(ctx)

	listenerDone := make(chan struct{})
	go func() {
		defer close(listenerDone)
		if err := listener.Run(ctx); err != nil {
			slog.ErrorContext(ctx, "backend listener stopped", "error", err)
		}
	}()

	slog.InfoContext(ctx, "worker initialized and running", "events_url", listener.URL())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop reclaimer first (quick)
	reclaimer.Stop()

	// Stop worker (may be mid-run against the backend)
	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(shutdownCtx, "shutdown timeout exceeded")
	case <-stopped:
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			slog.ErrorContext(shutdownCtx, "worker error during shutdown", "error", err)
		}
	}

	cancel()
	<-listenerDone

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "worker shutdown complete")
}

const banner = `
 ___  ___  ___  ___  ___  ___  _    ___ __  __
| _ \| _ \/ _ \|   \| _ \| _ \| |  | __|\ \/ /
|  _/|   / (_) | |) |  _/|  _/| |__| _|  >  <
|_|  |_|_\\___/|___/|_|  |_|  |____|___|/_/\_\  relay worker
`
