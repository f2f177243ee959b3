// Package authority implements the store-backed serialization point: one
// arbiter per room consumes the room's event stream, applies each event
// inside the store's optimistic transaction, and broadcasts the resulting
// snapshot. Everyone else mirrors those snapshots and never runs the buzz
// decision locally.
package authority

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/buzzdash/buzzdash-backend/internal/game"
	"github.com/buzzdash/buzzdash-backend/internal/store"
	"github.com/buzzdash/buzzdash-backend/internal/transport"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

type Arbiter struct {
	roomID string
	tr     transport.Transport
	st     store.Store
	logger *zap.Logger

	inbox  chan game.Event
	unsub  transport.Unsubscribe
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New ensures the room record exists, publishes the initial snapshot so late
// joiners have something to adopt, and starts consuming the room's events.
func New(roomID, hostID string, tr transport.Transport, st store.Store, logger *zap.Logger) (*Arbiter, error) {
	ctx, cancel := context.WithCancel(context.Background())
	a := &Arbiter{
		roomID: roomID,
		tr:     tr,
		st:     st,
		logger: logger.Named("arbiter").With(zap.String("room", roomID)),
		inbox:  make(chan game.Event, 64),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	room, err := st.Get(ctx, roomID)
	if errors.Is(err, store.ErrRoomNotFound) {
		room = game.NewRoom(roomID, hostID)
		err = st.Create(ctx, room)
	}
	if err != nil {
		cancel()
		return nil, err
	}

	unsub, err := tr.Subscribe(roomID, func(ev game.Event) {
		select {
		case a.inbox <- ev:
		case <-ctx.Done():
		}
	})
	if err != nil {
		cancel()
		return nil, err
	}
	a.unsub = unsub

	go a.loop()
	a.publish(room)
	return a, nil
}

func (a *Arbiter) Close() {
	a.cancel()
	a.unsub()
	<-a.done
}

func (a *Arbiter) loop() {
	defer close(a.done)
	for {
		select {
		case <-a.ctx.Done():
			return

		case ev := <-a.inbox:
			// SYNC_STATE on the wire is this arbiter's own output echoing
			// back; folding it into the store again would be a feedback loop.
			if ev.Type == game.EvtSyncState {
				continue
			}

			changed := false
			next, err := a.st.Update(a.ctx, a.roomID, func(r game.Room) (game.Room, error) {
				// The reducer runs against the freshly read record on every
				// retry, so the WAITING guard always sees the state that is
				// about to be replaced.
				n := game.Apply(r, ev)
				changed = !reflect.DeepEqual(n, r)
				return n, nil
			})
			if err != nil {
				a.logger.Warn("apply event",
					zap.String("type", string(ev.Type)), zap.Error(err))
				continue
			}
			if changed {
				a.publish(next)
			}
		}
	}
}

func (a *Arbiter) publish(room game.Room) {
	snap := game.SnapshotOf(room)
	ctx, cancel := context.WithTimeout(a.ctx, publishTimeout)
	defer cancel()
	err := a.tr.Send(ctx, game.Event{
		Type:   game.EvtSyncState,
		RoomID: a.roomID,
		State:  &snap,
	})
	if err != nil {
		a.logger.Warn("publish snapshot", zap.Error(err))
	}
}
