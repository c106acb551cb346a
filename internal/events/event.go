package events

import (
	"context"
	"encoding/json"
	"time"
)

// Type identifies what happened to a task.
type Type string

const (
	TypeCreated Type = "task.created"
	TypeUpdated Type = "task.updated"
	TypeDeleted Type = "task.deleted"
	TypeToggled Type = "task.toggled"
)

// Event is a change notification emitted after a task mutation was persisted.
// Content is empty for deletions.
type Event struct {
	Type       Type      `json:"type"`
	TaskID     int64     `json:"task_id"`
	Content    string    `json:"task,omitempty"`
	Completed  bool      `json:"completed"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events to an external channel.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

func encode(event Event) ([]byte, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return json.Marshal(event)
}
