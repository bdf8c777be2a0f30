package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields are attached to every log record emitted with a context that
// carries them. Set them once at the edge (HTTP handler, queue message) and
// downstream code logs with slog.*Context without repeating them.
type LogFields struct {
	DispatchID   *int64  // Relay dispatch ID
	WorkflowType *string // Classified workflow category
	WorkflowID   *string // Backend workflow ID once known
	MessageID    *string // Redis stream message ID
	EventType    *string // Backend push event type
	Agent        *string // Backend agent name
	Component    string  // e.g. "relay.worker.dispatch"
}

// WithLogFields merges fields into the context. Newer non-nil values win.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.DispatchID != nil {
		result.DispatchID = next.DispatchID
	}
	if next.WorkflowType != nil {
		result.WorkflowType = next.WorkflowType
	}
	if next.WorkflowID != nil {
		result.WorkflowID = next.WorkflowID
	}
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.EventType != nil {
		result.EventType = next.EventType
	}
	if next.Agent != nil {
		result.Agent = next.Agent
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr returns a pointer to v, for inline LogFields literals.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate shortens s to maxLen bytes plus "...". Chat messages can be long.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
