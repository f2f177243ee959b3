package store

import (
	"context"
	"errors"

	"github.com/buzzdash/buzzdash-backend/internal/game"
)

// ErrRoomNotFound means no record exists for the room yet. Readers treat it
// as "waiting for initial state", not as a hard failure.
var ErrRoomNotFound = errors.New("store: room not found")

// ErrStaleVersion signals that a concurrent write landed between read and
// write of an optimistic update. Update retries on it internally; it never
// escapes to callers.
var ErrStaleVersion = errors.New("store: concurrent update")

// Store holds one authoritative record per room. Update is the serialization
// point of the authority deployment: a read-modify-write that re-runs its
// closure against a fresh read whenever a concurrent writer got in first, so
// the closure's guard checks (buzzing only while WAITING) always run against
// the record that will actually be replaced.
type Store interface {
	Create(ctx context.Context, room game.Room) error
	Get(ctx context.Context, roomID string) (game.Room, error)
	Update(ctx context.Context, roomID string, mutate func(game.Room) (game.Room, error)) (game.Room, error)
	Delete(ctx context.Context, roomID string) error
}
