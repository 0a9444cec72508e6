// Package bus fans state-change notifications out to every interested
// context: in-process subscribers directly, remote browser contexts via
// the SSE and WebSocket handlers that drain a subscription.
package bus

import (
	"context"
	"encoding/json"
)

// Event kinds. Meeting alerts are distinct from general session updates
// so a display-only screen can react without parsing full session state.
const (
	KindSessionUpdate = "session_update"
	KindMeetingAlert  = "meeting_alert"
	KindMeetingEnd    = "meeting_end"
)

// Event is the envelope delivered to subscribers. Payload is the
// JSON-encoded record for the kind: a session snapshot for
// session_update, a meeting alert record for the meeting kinds.
type Event struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

type Bus interface {
	// Publish delivers ev to all current subscribers. It never blocks
	// the caller.
	Publish(ctx context.Context, ev Event)

	// Subscribe returns a buffered channel of events. Slow consumers
	// miss events rather than stall the publisher.
	Subscribe() chan Event

	// Unsubscribe removes a channel returned by Subscribe.
	Unsubscribe(ch chan Event)
}
