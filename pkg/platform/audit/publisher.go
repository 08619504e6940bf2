package audit

import (
	"context"
	"sync/atomic"
)

// ChannelPublisher hands events to a background worker over a bounded
// channel. When the buffer is full the event is dropped and counted rather
// than blocking the domain operation.
type ChannelPublisher struct {
	inbox   chan Event
	dropped atomic.Int64
}

// NewChannelPublisher creates a publisher with the given buffer capacity.
func NewChannelPublisher(capacity int) *ChannelPublisher {
	if capacity <= 0 {
		capacity = 256
	}
	return &ChannelPublisher{inbox: make(chan Event, capacity)}
}

// Emit enqueues the event without blocking.
func (p *ChannelPublisher) Emit(_ context.Context, event Event) error {
	select {
	case p.inbox <- event:
	default:
		p.dropped.Add(1)
	}
	return nil
}

// Inbox exposes the receive side for the worker.
func (p *ChannelPublisher) Inbox() <-chan Event { return p.inbox }

// Dropped reports how many events were discarded on a full buffer.
func (p *ChannelPublisher) Dropped() int64 { return p.dropped.Load() }
