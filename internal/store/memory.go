package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/buzzdash/buzzdash-backend/internal/game"
)

type memoryRecord struct {
	room    game.Room
	version int64
}

// Memory keeps room records in a map. It runs the same optimistic
// compare-and-swap loop as the Postgres store so the two are interchangeable
// in tests and single-process deployments.
type Memory struct {
	mu    sync.Mutex
	rooms map[string]memoryRecord
}

func NewMemory() *Memory {
	return &Memory{rooms: make(map[string]memoryRecord)}
}

func (m *Memory) Create(ctx context.Context, room game.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[room.RoomID]; ok {
		return fmt.Errorf("create room %s: already exists", room.RoomID)
	}
	m.rooms[room.RoomID] = memoryRecord{room: room, version: 1}
	return nil
}

func (m *Memory) Get(ctx context.Context, roomID string) (game.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rooms[roomID]
	if !ok {
		return game.Room{}, ErrRoomNotFound
	}
	return rec.room, nil
}

func (m *Memory) Update(ctx context.Context, roomID string, mutate func(game.Room) (game.Room, error)) (game.Room, error) {
	for {
		if err := ctx.Err(); err != nil {
			return game.Room{}, err
		}

		m.mu.Lock()
		rec, ok := m.rooms[roomID]
		m.mu.Unlock()
		if !ok {
			return game.Room{}, ErrRoomNotFound
		}

		// The closure runs outside the lock, like a transaction body; the
		// version check below is the commit.
		next, err := mutate(rec.room)
		if err != nil {
			return game.Room{}, err
		}

		m.mu.Lock()
		cur, ok := m.rooms[roomID]
		if !ok {
			m.mu.Unlock()
			return game.Room{}, ErrRoomNotFound
		}
		if cur.version != rec.version {
			m.mu.Unlock()
			continue // stale read, retry against the fresh record
		}
		m.rooms[roomID] = memoryRecord{room: next, version: rec.version + 1}
		m.mu.Unlock()
		return next, nil
	}
}

func (m *Memory) Delete(ctx context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
	return nil
}
