package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"prodplex.app/relay/common/logger"
	"prodplex.app/relay/internal/backend"
	"prodplex.app/relay/internal/model"
	"prodplex.app/relay/internal/queue"
	"prodplex.app/relay/internal/store"
)

// ErrBackendRejected marks a run the backend answered with success=false.
var ErrBackendRejected = errors.New("backend reported failure")

type DispatchProcessor struct {
	dispatches store.DispatchStore
	backend    backend.Client
	status     queue.StatusPublisher
}

func NewDispatchProcessor(dispatches store.DispatchStore, client backend.Client, status queue.StatusPublisher) *DispatchProcessor {
	return &DispatchProcessor{
		dispatches: dispatches,
		backend:    client,
		status:     status,
	}
}

func (p *DispatchProcessor) Process(ctx context.Context, msg queue.Message) error {
	sc := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.run_dispatch",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.Int64("dispatch.id", msg.DispatchID),
			attribute.Int("dispatch.attempt", msg.Attempt),
		))
	defer sc.End()
	ctx = sc.Context()

	d, err := p.dispatches.GetByID(ctx, msg.DispatchID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.WarnContext(ctx, "dispatch not found, dropping message")
			return nil
		}
		sc.RecordError(err)
		return fmt.Errorf("loading dispatch: %w", err)
	}

	if d.Status.Terminal() {
		slog.InfoContext(ctx, "dispatch already settled, skipping", "status", d.Status)
		return nil
	}

	if err := p.dispatches.MarkRunning(ctx, d.ID); err != nil {
		sc.RecordError(err)
		return fmt.Errorf("marking dispatch running: %w", err)
	}
	p.publish(ctx, model.EventTaskStarted, d.ID, map[string]any{
		"workflow_type": d.WorkflowType,
		"attempt":       msg.Attempt,
	})

	req, err := runRequest(d)
	if err != nil {
		p.fail(ctx, d.ID, err)
		return nil
	}

	resp, err := p.backend.RunWorkflow(ctx, req)
	if err == nil && !resp.Success {
		err = ErrBackendRejected
	}
	if err != nil {
		sc.RecordError(err)
		if !errors.Is(err, ErrBackendRejected) && backend.IsRetryable(err) {
			return fmt.Errorf("running workflow: %w", err)
		}
		p.fail(ctx, d.ID, err)
		return nil
	}

	var workflowID *string
	if resp.WorkflowID != "" {
		workflowID = &resp.WorkflowID
		ctx = logger.WithLogFields(ctx, logger.LogFields{WorkflowID: workflowID})
	}

	if err := p.dispatches.MarkCompleted(ctx, d.ID, workflowID, resp.Result); err != nil {
		sc.RecordError(err)
		return fmt.Errorf("marking dispatch completed: %w", err)
	}

	p.publish(ctx, model.EventTaskCompleted, d.ID, map[string]any{
		"workflow_type": d.WorkflowType,
		"workflow_id":   resp.WorkflowID,
		"status":        resp.Status,
	})
	slog.InfoContext(ctx, "dispatch completed", "backend_status", resp.Status)
	return nil
}

// Fail settles a dispatch whose retries are exhausted.
func (p *DispatchProcessor) Fail(ctx context.Context, msg queue.Message, cause error) {
	p.fail(ctx, msg.DispatchID, cause)
}

func (p *DispatchProcessor) fail(ctx context.Context, dispatchID int64, cause error) {
	if err := p.dispatches.MarkFailed(ctx, dispatchID, cause.Error()); err != nil {
		slog.ErrorContext(ctx, "failed to mark dispatch failed", "error", err)
	}
	p.publish(ctx, model.EventTaskFailed, dispatchID, map[string]any{"error": cause.Error()})
	slog.WarnContext(ctx, "dispatch failed", "error", cause)
}

func (p *DispatchProcessor) publish(ctx context.Context, typ model.EventType, dispatchID int64, data map[string]any) {
	raw, _ := json.Marshal(data)
	if _, err := p.status.Publish(ctx, model.StatusEvent{
		Type:       typ,
		DispatchID: &dispatchID,
		Source:     model.SourceRelay,
		Data:       raw,
	}); err != nil {
		slog.WarnContext(ctx, "failed to publish status event", "error", err, "event_type", typ)
	}
}

func runRequest(d *model.Dispatch) (backend.RunRequest, error) {
	input := map[string]any{}
	if len(d.InputData) > 0 {
		if err := json.Unmarshal(d.InputData, &input); err != nil {
			return backend.RunRequest{}, fmt.Errorf("decoding input data: %w", err)
		}
	}
	return backend.RunRequest{
		WorkflowType: d.WorkflowType,
		InputData:    input,
		ProjectID:    d.ProjectID,
		UseNemotron:  d.UseNemotron,
	}, nil
}
