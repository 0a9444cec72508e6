package bus

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBus relays events through a Redis channel so multiple service
// instances converge on the same view. Local subscribers receive events
// published by any instance, including this one.
type RedisBus struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
	pubsub  *redis.PubSub

	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func NewRedisBus(ctx context.Context, client *redis.Client, channel string, logger *slog.Logger) *RedisBus {
	b := &RedisBus{
		client:  client,
		channel: channel,
		logger:  logger,
		pubsub:  client.Subscribe(ctx, channel),
		subs:    make(map[chan Event]struct{}),
	}
	go b.relay()
	return b
}

func (b *RedisBus) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *RedisBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("encoding bus event", "kind", ev.Kind, "error", err)
		return
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Warn("publishing bus event", "kind", ev.Kind, "error", err)
	}
}

// Close stops the relay goroutine. Pending local subscriptions stop
// receiving events but remain safe to drain.
func (b *RedisBus) Close() error {
	return b.pubsub.Close()
}

func (b *RedisBus) relay() {
	for msg := range b.pubsub.Channel() {
		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			b.logger.Warn("decoding bus event", "error", err)
			continue
		}
		b.mu.RLock()
		for ch := range b.subs {
			select {
			case ch <- ev:
			default:
			}
		}
		b.mu.RUnlock()
	}
}
