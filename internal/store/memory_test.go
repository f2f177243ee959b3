package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/buzzdash/buzzdash-backend/internal/game"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetMissingRoom(t *testing.T) {
	m := NewMemory()
	_, err := m.Get(context.Background(), "NOPE")
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestMemory_CreateThenGet(t *testing.T) {
	m := NewMemory()
	room := game.NewRoom("ROOM1", "host-1")
	require.NoError(t, m.Create(context.Background(), room))

	got, err := m.Get(context.Background(), "ROOM1")
	require.NoError(t, err)
	require.Equal(t, room, got)

	require.Error(t, m.Create(context.Background(), room), "duplicate create must fail")
}

func TestMemory_UpdateAppliesMutation(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Create(context.Background(), game.NewRoom("ROOM1", "host-1")))

	got, err := m.Update(context.Background(), "ROOM1", func(r game.Room) (game.Room, error) {
		return game.Apply(r, game.Event{
			Type: game.EvtBuzz, RoomID: "ROOM1", PlayerID: "p1", Timestamp: 100,
		}), nil
	})
	require.NoError(t, err)
	require.Equal(t, game.StateLocked, got.GameState)

	stored, err := m.Get(context.Background(), "ROOM1")
	require.NoError(t, err)
	require.Equal(t, got, stored)
}

// The property the whole authority deployment rests on: any number of racing
// buzz transactions produce exactly one winner with delta 0, because each
// retry re-reads the record and re-checks the WAITING guard.
func TestMemory_ConcurrentBuzzesSingleWinner(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Create(context.Background(), game.NewRoom("ROOM1", "host-1")))

	const racers = 32
	errs := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			playerID := fmt.Sprintf("p%d", i)
			_, err := m.Update(context.Background(), "ROOM1", func(r game.Room) (game.Room, error) {
				return game.Apply(r, game.Event{
					Type:      game.EvtBuzz,
					RoomID:    "ROOM1",
					PlayerID:  playerID,
					Timestamp: int64(1000 + i),
				}), nil
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	room, err := m.Get(context.Background(), "ROOM1")
	require.NoError(t, err)
	require.Equal(t, game.StateLocked, room.GameState)
	require.Len(t, room.Buzzes, 1, "the lock must have gated every later transaction")
	require.EqualValues(t, 0, room.Buzzes[0].Delta)
}

func TestMemory_MutationErrorAborts(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Create(context.Background(), game.NewRoom("ROOM1", "host-1")))

	boom := fmt.Errorf("boom")
	_, err := m.Update(context.Background(), "ROOM1", func(r game.Room) (game.Room, error) {
		return game.Room{}, boom
	})
	require.ErrorIs(t, err, boom)

	room, err := m.Get(context.Background(), "ROOM1")
	require.NoError(t, err)
	require.Equal(t, game.StateWaiting, room.GameState, "aborted update must not commit")
}
