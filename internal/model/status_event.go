package model

import (
	"encoding/json"
	"time"
)

// EventType names a status update. Backend push events keep the backend's
// names; relay-originated events add dispatch_queued.
type EventType string

const (
	EventConnected      EventType = "connected"
	EventDispatchQueued EventType = "dispatch_queued"
	EventTaskStarted    EventType = "task_started"
	EventTaskCompleted  EventType = "task_completed"
	EventTaskFailed     EventType = "task_failed"
	EventAgentStarted   EventType = "agent_started"
	EventAgentCompleted EventType = "agent_completed"
	EventProjectCreated EventType = "project_created"
	EventNewMessage     EventType = "new_message"
	EventEcho           EventType = "echo"
)

// StatusEvent is what the SSE stream delivers to the chat client.
type StatusEvent struct {
	ID         string          `json:"id,omitempty"`
	Type       EventType       `json:"type"`
	DispatchID *int64          `json:"dispatch_id,omitempty,string"`
	Source     string          `json:"source"`
	Data       json.RawMessage `json:"data,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

const (
	SourceRelay   = "relay"
	SourceBackend = "backend"
)
