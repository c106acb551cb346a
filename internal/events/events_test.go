package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestMemoryBusDeliversInOrder(t *testing.T) {
	bus := NewMemoryBus(4)
	ctx := context.Background()

	for i, typ := range []Type{TypeCreated, TypeToggled, TypeDeleted} {
		if err := bus.Publish(ctx, Event{Type: typ, TaskID: int64(i + 1)}); err != nil {
			t.Fatalf("publish %s: %v", typ, err)
		}
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var got []Type
	if err := bus.Subscribe(ctx, func(e Event) { got = append(got, e.Type) }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if len(got) != 3 || got[0] != TypeCreated || got[2] != TypeDeleted {
		t.Fatalf("unexpected events: %v", got)
	}

	if err := bus.Publish(ctx, Event{Type: TypeCreated}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestMemoryBusPublishHonoursContext(t *testing.T) {
	bus := NewMemoryBus(1)
	defer bus.Close()

	if err := bus.Publish(context.Background(), Event{Type: TypeCreated}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := bus.Publish(ctx, Event{Type: TypeCreated}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestEncodeStampsTime(t *testing.T) {
	raw, err := encode(Event{Type: TypeUpdated, TaskID: 3, Content: "buy milk"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var decoded Event
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be set")
	}
	if decoded.Content != "buy milk" || decoded.TaskID != 3 {
		t.Fatalf("unexpected event: %+v", decoded)
	}
}

func TestRemotePublishersRequireAddress(t *testing.T) {
	if _, err := NewRedisPublisher(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected error for empty redis address")
	}
	if _, err := NewRabbitMQPublisher(RabbitMQConfig{}); err == nil {
		t.Fatalf("expected error for empty rabbitmq url")
	}
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = Noop{}
	if err := p.Publish(context.Background(), Event{}); err != nil {
		t.Fatalf("noop publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("noop close: %v", err)
	}
}
