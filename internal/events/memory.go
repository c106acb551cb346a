package events

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when publishing to a closed bus.
var ErrClosed = errors.New("event bus closed")

// MemoryBus buffers events in a channel. It is used in tests and when a
// single process wants to observe its own changes.
type MemoryBus struct {
	ch     chan Event
	mu     sync.RWMutex
	closed bool
}

// NewMemoryBus creates a bus holding at most size undelivered events.
func NewMemoryBus(size int) *MemoryBus {
	if size <= 0 {
		size = 64
	}
	return &MemoryBus{ch: make(chan Event, size)}
}

// Publish enqueues the event, blocking while the buffer is full.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case b.ch <- event:
		return nil
	}
}

// Events exposes the receive side of the bus. The channel is closed by Close.
func (b *MemoryBus) Events() <-chan Event {
	return b.ch
}

// Subscribe invokes handler for every event until ctx is done or the bus closes.
func (b *MemoryBus) Subscribe(ctx context.Context, handler func(Event)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-b.ch:
			if !ok {
				return nil
			}
			handler(event)
		}
	}
}

// Close stops the bus.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		close(b.ch)
		b.closed = true
	}
	return nil
}
