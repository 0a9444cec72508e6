// Package store is the durable key/value substrate every browsing
// context reads and writes through. Keys are named slots; values are
// JSON documents owned by the coordination core.
package store

import (
	"context"
	"errors"
)

// Durable keys shared by all contexts.
const (
	// KeySession holds the authoritative session record.
	KeySession = "gamestate"

	// KeyMeetingAlert holds the last meeting alert, so contexts that
	// only care about alerts never parse the full session record.
	KeyMeetingAlert = "meeting_alert"
)

// TaskSetKey is the per-player slot for the completion gateway's
// already-completed task set. Not shared between players.
func TaskSetKey(playerID string) string {
	return "tasks:" + playerID
}

var ErrNotFound = errors.New("key not found")

type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put writes value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
