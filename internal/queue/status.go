package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"prodplex.app/relay/internal/model"
)

// StatusPublisher appends status events to the capped status stream.
type StatusPublisher interface {
	Publish(ctx context.Context, ev model.StatusEvent) (string, error)
}

// StatusReader tails the status stream. lastID "$" means only new events.
type StatusReader interface {
	LastID(ctx context.Context) (string, error)
	ReadAfter(ctx context.Context, lastID string, block time.Duration) ([]model.StatusEvent, error)
}

type StatusStream struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewStatusStream(client *redis.Client, stream string, maxLen int64) *StatusStream {
	return &StatusStream{client: client, stream: stream, maxLen: maxLen}
}

func (s *StatusStream) Publish(ctx context.Context, ev model.StatusEvent) (string, error) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: StatusValues(ev),
	}).Result()
	if err != nil {
		return "", fmt.Errorf("publishing status event: %w", err)
	}
	return id, nil
}

// LastID returns the id of the newest entry, or "0-0" for an empty stream.
// Readers resume from it instead of "$" so nothing published between two
// reads is missed.
func (s *StatusStream) LastID(ctx context.Context) (string, error) {
	msgs, err := s.client.XRevRangeN(ctx, s.stream, "+", "-", 1).Result()
	if err != nil {
		return "", fmt.Errorf("reading status stream tail: %w", err)
	}
	return TailID(msgs), nil
}

// TailID picks the resume point from an XREVRANGE ... COUNT 1 reply.
func TailID(msgs []redis.XMessage) string {
	if len(msgs) == 0 {
		return "0-0"
	}
	return msgs[0].ID
}

// ReadAfter returns an empty slice when block elapses without events.
func (s *StatusStream) ReadAfter(ctx context.Context, lastID string, block time.Duration) ([]model.StatusEvent, error) {
	if lastID == "" {
		lastID = "$"
	}
	res, err := s.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{s.stream, lastID},
		Block:   block,
		Count:   100,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.StatusEvent{}, nil
		}
		return nil, fmt.Errorf("reading status stream: %w", err)
	}

	var events []model.StatusEvent
	for _, stream := range res {
		for _, msg := range stream.Messages {
			events = append(events, ParseStatusEvent(msg))
		}
	}
	return events, nil
}

func StatusValues(ev model.StatusEvent) map[string]any {
	values := map[string]any{
		"type":        string(ev.Type),
		"source":      ev.Source,
		"occurred_at": ev.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if ev.DispatchID != nil {
		values["dispatch_id"] = *ev.DispatchID
	}
	if len(ev.Data) > 0 {
		values["data"] = string(ev.Data)
	}
	return values
}

// ParseStatusEvent is lenient: unknown or malformed fields are left empty so
// one bad entry never stalls a stream reader.
func ParseStatusEvent(msg redis.XMessage) model.StatusEvent {
	ev := model.StatusEvent{
		ID:     msg.ID,
		Type:   model.EventType(parseOptionalString(msg.Values, "type")),
		Source: parseOptionalString(msg.Values, "source"),
	}
	if raw := parseOptionalString(msg.Values, "dispatch_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			ev.DispatchID = &id
		}
	}
	if raw := parseOptionalString(msg.Values, "data"); raw != "" && json.Valid([]byte(raw)) {
		ev.Data = json.RawMessage(raw)
	}
	if raw := parseOptionalString(msg.Values, "occurred_at"); raw != "" {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			ev.OccurredAt = t
		}
	}
	return ev
}
