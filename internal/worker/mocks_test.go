package worker_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"prodplex.app/relay/internal/backend"
	"prodplex.app/relay/internal/model"
	"prodplex.app/relay/internal/queue"
)

type claimPage struct {
	msgs []queue.Message
	next string
	err  error
}

type mockConsumer struct {
	mu       sync.Mutex
	batches  [][]queue.Message
	pages    []claimPage
	acked    []string
	requeued []string
	dlq      []string
	readErr  error
	cursors  []string
}

func (m *mockConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	if len(m.batches) == 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
		return []queue.Message{}, nil
	}
	batch := m.batches[0]
	m.batches = m.batches[1:]
	return batch, nil
}

func (m *mockConsumer) Claim(_ context.Context, _ time.Duration, start string, _ int64) ([]queue.Message, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursors = append(m.cursors, start)
	if len(m.pages) == 0 {
		return nil, "0-0", nil
	}
	page := m.pages[0]
	m.pages = m.pages[1:]
	return page.msgs, page.next, page.err
}

func (m *mockConsumer) Ack(_ context.Context, msg queue.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, msg.ID)
	return nil
}

func (m *mockConsumer) Requeue(_ context.Context, msg queue.Message, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requeued = append(m.requeued, msg.ID)
	return nil
}

func (m *mockConsumer) SendDLQ(_ context.Context, msg queue.Message, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dlq = append(m.dlq, msg.ID)
	return nil
}

func (m *mockConsumer) snapshot() (acked, requeued, dlq []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...), append([]string(nil), m.requeued...), append([]string(nil), m.dlq...)
}

type mockProcessor struct {
	processFn func(ctx context.Context, msg queue.Message) error
	failed    []int64
}

func (m *mockProcessor) Process(ctx context.Context, msg queue.Message) error {
	if m.processFn != nil {
		return m.processFn(ctx, msg)
	}
	return nil
}

func (m *mockProcessor) Fail(_ context.Context, msg queue.Message, _ error) {
	m.failed = append(m.failed, msg.DispatchID)
}

type mockDispatchStore struct {
	dispatch  *model.Dispatch
	getErr    error
	running   []int64
	completed map[int64]*string
	results   map[int64]json.RawMessage
	failed    map[int64]string
}

func newMockDispatchStore(d *model.Dispatch) *mockDispatchStore {
	return &mockDispatchStore{
		dispatch:  d,
		completed: map[int64]*string{},
		results:   map[int64]json.RawMessage{},
		failed:    map[int64]string{},
	}
}

func (m *mockDispatchStore) Create(context.Context, *model.Dispatch) error { return nil }

func (m *mockDispatchStore) GetByID(context.Context, int64) (*model.Dispatch, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.dispatch, nil
}

func (m *mockDispatchStore) List(context.Context, int32) ([]model.Dispatch, error) {
	return nil, nil
}

func (m *mockDispatchStore) MarkRunning(_ context.Context, id int64) error {
	m.running = append(m.running, id)
	return nil
}

func (m *mockDispatchStore) MarkCompleted(_ context.Context, id int64, workflowID *string, result json.RawMessage) error {
	m.completed[id] = workflowID
	m.results[id] = result
	return nil
}

func (m *mockDispatchStore) MarkFailed(_ context.Context, id int64, errMsg string) error {
	m.failed[id] = errMsg
	return nil
}

type mockBackend struct {
	runFn    func(ctx context.Context, req backend.RunRequest) (*backend.RunResponse, error)
	requests []backend.RunRequest
}

func (m *mockBackend) RunWorkflow(ctx context.Context, req backend.RunRequest) (*backend.RunResponse, error) {
	m.requests = append(m.requests, req)
	return m.runFn(ctx, req)
}

func (m *mockBackend) ListWorkflows(context.Context) ([]backend.WorkflowInfo, error) {
	return nil, nil
}

func (m *mockBackend) AgentStatus(context.Context) (map[string]backend.AgentInfo, error) {
	return nil, nil
}

func (m *mockBackend) Health(context.Context) (*backend.HealthStatus, error) {
	return &backend.HealthStatus{Status: "healthy"}, nil
}

type mockStatusPublisher struct {
	mu     sync.Mutex
	events []model.StatusEvent
	err    error
}

func (m *mockStatusPublisher) Publish(_ context.Context, ev model.StatusEvent) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.events = append(m.events, ev)
	return "1-0", nil
}

func (m *mockStatusPublisher) types() []model.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.EventType, len(m.events))
	for i, ev := range m.events {
		out[i] = ev.Type
	}
	return out
}
