package bus

import (
	"context"
	"encoding/json"
	"testing"
)

func TestMemoryBusPublishSubscribe(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	ev := Event{Kind: KindSessionUpdate, Payload: json.RawMessage(`{"isActive":true}`)}
	b.Publish(ctx, ev)

	for i, ch := range []chan Event{ch1, ch2} {
		select {
		case got := <-ch:
			if got.Kind != KindSessionUpdate {
				t.Errorf("subscriber %d: expected kind %s, got %s", i, KindSessionUpdate, got.Kind)
			}
		default:
			t.Errorf("subscriber %d: expected an event", i)
		}
	}
}

func TestMemoryBusUnsubscribe(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()

	ch := b.Subscribe()
	b.Unsubscribe(ch)
	b.Publish(ctx, Event{Kind: KindMeetingEnd})

	select {
	case <-ch:
		t.Error("unsubscribed channel received an event")
	default:
	}
}

func TestMemoryBusDropsWhenSlow(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()

	ch := b.Subscribe()
	// Overfill the buffer; Publish must never block.
	for range subscriberBuffer + 10 {
		b.Publish(ctx, Event{Kind: KindMeetingAlert})
	}

	if got := len(ch); got != subscriberBuffer {
		t.Errorf("expected %d buffered events, got %d", subscriberBuffer, got)
	}
}
