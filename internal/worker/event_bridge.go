package worker

import (
	"context"
	"log/slog"

	"prodplex.app/relay/common/logger"
	"prodplex.app/relay/internal/backend"
	"prodplex.app/relay/internal/model"
	"prodplex.app/relay/internal/queue"
)

var knownBackendEvents = map[model.EventType]bool{
	model.EventConnected:      true,
	model.EventTaskStarted:    true,
	model.EventTaskCompleted:  true,
	model.EventTaskFailed:     true,
	model.EventAgentStarted:   true,
	model.EventAgentCompleted: true,
	model.EventProjectCreated: true,
	model.EventNewMessage:     true,
	model.EventEcho:           true,
}

// EventBridge re-publishes backend websocket events on the status stream so
// SSE clients see agent progress next to relay events.
type EventBridge struct {
	status queue.StatusPublisher
}

func NewEventBridge(status queue.StatusPublisher) *EventBridge {
	return &EventBridge{status: status}
}

// Handle satisfies backend.EventHandler.
func (b *EventBridge) Handle(ctx context.Context, ev backend.Event) error {
	typ := model.EventType(ev.Type)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		EventType: logger.Ptr(ev.Type),
		Component: "relay.worker.event_bridge",
	})

	if !knownBackendEvents[typ] {
		slog.DebugContext(ctx, "forwarding unrecognized backend event")
	}

	if _, err := b.status.Publish(ctx, model.StatusEvent{
		Type:   typ,
		Source: model.SourceBackend,
		Data:   ev.Data,
	}); err != nil {
		return err
	}
	return nil
}
