package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"prodplex.app/relay/common/id"
	"prodplex.app/relay/common/logger"
	"prodplex.app/relay/internal/classifier"
	"prodplex.app/relay/internal/model"
	"prodplex.app/relay/internal/planner"
	"prodplex.app/relay/internal/queue"
	"prodplex.app/relay/internal/store"
)

var ErrEmptyMessage = errors.New("message is required")

type DispatchParams struct {
	Message     string
	ProjectID   *string
	UseNemotron *bool
	TraceID     *string
}

type DispatchResult struct {
	Dispatch *model.Dispatch
	Analysis classifier.Analysis
}

type PlanParams struct {
	Task   string
	Agents []string
}

// ChatService turns chat messages into routing decisions and queued
// backend work.
type ChatService interface {
	Analyze(ctx context.Context, message string) classifier.Analysis
	Dispatch(ctx context.Context, params DispatchParams) (*DispatchResult, error)
	Plan(ctx context.Context, params PlanParams) (planner.Plan, error)
}

type chatService struct {
	dispatches  store.DispatchStore
	producer    queue.Producer
	status      queue.StatusPublisher
	planner     planner.Planner
	useNemotron bool
}

func NewChatService(dispatches store.DispatchStore, producer queue.Producer, status queue.StatusPublisher, p planner.Planner, useNemotron bool) ChatService {
	return &chatService{
		dispatches:  dispatches,
		producer:    producer,
		status:      status,
		planner:     p,
		useNemotron: useNemotron,
	}
}

func (s *chatService) Analyze(ctx context.Context, message string) classifier.Analysis {
	analysis := classifier.Classify(message)
	slog.DebugContext(ctx, "message classified",
		"workflow_type", analysis.WorkflowType,
		"confidence", analysis.Confidence,
		"message", logger.Truncate(message, 80))
	return analysis
}

func (s *chatService) Dispatch(ctx context.Context, params DispatchParams) (*DispatchResult, error) {
	if strings.TrimSpace(params.Message) == "" {
		return nil, ErrEmptyMessage
	}

	analysis := classifier.Classify(params.Message)

	inputData, err := json.Marshal(analysis.InputData)
	if err != nil {
		return nil, fmt.Errorf("encoding input data: %w", err)
	}

	useNemotron := s.useNemotron
	if params.UseNemotron != nil {
		useNemotron = *params.UseNemotron
	}

	d := &model.Dispatch{
		ID:           id.New(),
		Message:      params.Message,
		ProjectID:    params.ProjectID,
		WorkflowType: string(analysis.WorkflowType),
		Confidence:   analysis.Confidence,
		Reasoning:    analysis.Reasoning,
		Agents:       analysis.AgentNames(),
		InputData:    inputData,
		UseNemotron:  useNemotron,
		Status:       model.DispatchStatusQueued,
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		DispatchID:   &d.ID,
		WorkflowType: logger.Ptr(d.WorkflowType),
		Component:    "relay.service.chat",
	})

	if err := s.dispatches.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("creating dispatch: %w", err)
	}

	s.publish(ctx, model.EventDispatchQueued, d)

	if err := s.producer.Enqueue(ctx, queue.DispatchMessage{
		DispatchID:   d.ID,
		WorkflowType: d.WorkflowType,
		TraceID:      params.TraceID,
		Attempt:      1,
	}); err != nil {
		reason := fmt.Sprintf("enqueue failed: %v", err)
		if markErr := s.dispatches.MarkFailed(ctx, d.ID, reason); markErr != nil {
			slog.ErrorContext(ctx, "failed to mark unqueued dispatch", "error", markErr)
		}
		return nil, fmt.Errorf("enqueueing dispatch: %w", err)
	}

	slog.InfoContext(ctx, "dispatch queued",
		"confidence", d.Confidence,
		"agent_count", len(d.Agents))

	return &DispatchResult{Dispatch: d, Analysis: analysis}, nil
}

func (s *chatService) Plan(ctx context.Context, params PlanParams) (planner.Plan, error) {
	if strings.TrimSpace(params.Task) == "" {
		return planner.Plan{}, ErrEmptyMessage
	}
	return s.planner.Plan(ctx, params.Task, params.Agents), nil
}

// publish is best effort; the stream is for live progress, the dispatch row
// is the record.
func (s *chatService) publish(ctx context.Context, typ model.EventType, d *model.Dispatch) {
	if s.status == nil {
		return
	}
	data, _ := json.Marshal(map[string]any{
		"workflow_type": d.WorkflowType,
		"agents":        d.Agents,
		"project_id":    d.ProjectID,
	})
	if _, err := s.status.Publish(ctx, model.StatusEvent{
		Type:       typ,
		DispatchID: &d.ID,
		Source:     model.SourceRelay,
		Data:       data,
	}); err != nil {
		slog.WarnContext(ctx, "failed to publish status event", "error", err, "event_type", typ)
	}
}
