package bus

import (
	"context"
	"sync"
)

const subscriberBuffer = 16

// MemoryBus is an in-process pub/sub. It is the bus for single-instance
// deployments and for tests.
type MemoryBus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		subs: make(map[chan Event]struct{}),
	}
}

func (b *MemoryBus) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *MemoryBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

func (b *MemoryBus) Publish(_ context.Context, ev Event) {
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
