package session

import (
	"context"
	"reflect"
	"time"

	"github.com/buzzdash/buzzdash-backend/internal/game"
	"github.com/buzzdash/buzzdash-backend/internal/transport"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Mode fixes how a controller converges on room state. A controller never
// straddles both disciplines; mixing them is how ghost state happens.
type Mode string

const (
	// ModeReplica runs the reducer over every event on the shared stream
	// (event-sourced broadcast; requires an order-preserving transport).
	ModeReplica Mode = "replica"
	// ModeMirror adopts incoming SYNC_STATE snapshots as authoritative and
	// ignores everything else; the store transaction decides the winner.
	ModeMirror Mode = "mirror"
)

const sendTimeout = 5 * time.Second

// Snapshot is what observers receive whenever the controller's view of the
// room changes.
type Snapshot struct {
	Version int
	Room    game.Room
}

// View is a test/diagnostic window into the controller, answered serially by
// the loop so there is no racy direct field access.
type View struct {
	Version      int
	Room         game.Room
	Connected    bool
	NumObservers int
}

type msg interface{ isSessionMsg() }

type fromTransport struct{ ev game.Event }

type action struct {
	ev game.Event
	// waitingOnly suppresses the send unless the observed state is WAITING.
	// Only Buzz sets it; the authoritative decision still belongs to the
	// serialization point, this just avoids pointless traffic.
	waitingOnly bool
}

type attach struct {
	id     string
	outbox chan Snapshot
}

type detach struct{ id string }

type getView struct{ reply chan View }

func (fromTransport) isSessionMsg() {}
func (action) isSessionMsg() {}
func (attach) isSessionMsg() {}
func (detach) isSessionMsg() {}
func (getView) isSessionMsg() {}

// Controller owns one participant's live view of one room: it subscribes to
// the transport, converges local state per its Mode, and turns outward calls
// into events on the wire.
type Controller struct {
	roomID string
	selfID string
	mode   Mode
	tr     transport.Transport
	logger *zap.Logger

	inbox  chan msg
	unsub  transport.Unsubscribe
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(roomID string, mode Mode, tr transport.Transport, logger *zap.Logger) (*Controller, error) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		roomID: roomID,
		selfID: uuid.NewString(),
		mode:   mode,
		tr:     tr,
		logger: logger.Named("session").With(zap.String("room", roomID)),
		inbox:  make(chan msg, 64),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	unsub, err := tr.Subscribe(roomID, func(ev game.Event) {
		select {
		case c.inbox <- fromTransport{ev: ev}:
		case <-ctx.Done():
		}
	})
	if err != nil {
		cancel()
		return nil, err
	}
	c.unsub = unsub

	go c.loop()
	return c, nil
}

func (c *Controller) RoomID() string { return c.roomID }
func (c *Controller) SelfID() string { return c.selfID }

// Join announces this participant. The id is the controller's own; the name
// is passed through untouched; display concerns live upstream.
func (c *Controller) Join(name string) {
	c.post(action{ev: game.Event{
		Type:   game.EvtJoin,
		RoomID: c.roomID,
		Player: &game.Player{ID: c.selfID, Name: name, JoinedAt: time.Now().UnixMilli()},
	}})
}

func (c *Controller) Buzz() {
	c.post(action{
		waitingOnly: true,
		ev: game.Event{
			Type:      game.EvtBuzz,
			RoomID:    c.roomID,
			PlayerID:  c.selfID,
			Timestamp: time.Now().UnixMilli(),
		},
	})
}

func (c *Controller) Reset() {
	c.post(action{ev: game.Event{Type: game.EvtReset, RoomID: c.roomID}})
}

func (c *Controller) SetQuestion(question string) {
	c.post(action{ev: game.Event{Type: game.EvtSetQuestion, RoomID: c.roomID, Question: question}})
}

func (c *Controller) Kick(playerID string) {
	c.post(action{ev: game.Event{Type: game.EvtKick, RoomID: c.roomID, PlayerID: playerID}})
}

func (c *Controller) Pause() {
	c.post(action{ev: game.Event{Type: game.EvtPause, RoomID: c.roomID}})
}

func (c *Controller) Resume() {
	c.post(action{ev: game.Event{Type: game.EvtResume, RoomID: c.roomID}})
}

// Attach registers an observer outbox and immediately delivers the current
// snapshot, so late observers never start blank.
func (c *Controller) Attach(id string, outbox chan Snapshot) {
	c.post(attach{id: id, outbox: outbox})
}

func (c *Controller) Detach(id string) {
	c.post(detach{id: id})
}

func (c *Controller) View() View {
	reply := make(chan View, 1)
	c.post(getView{reply: reply})
	select {
	case v := <-reply:
		return v
	case <-c.done:
		return View{}
	}
}

// Close tears the controller down: after it returns no transport callback and
// no observer delivery will happen again.
func (c *Controller) Close() {
	c.cancel()
	c.unsub()
	<-c.done
}

func (c *Controller) post(m msg) {
	select {
	case c.inbox <- m:
	case <-c.ctx.Done():
	}
}

func (c *Controller) loop() {
	room := game.NewRoom(c.roomID, "")
	version := 0
	connected := true
	observers := make(map[string]chan Snapshot)

	defer func() {
		for id, ch := range observers {
			close(ch)
			delete(observers, id)
		}
		close(c.done)
	}()

	for {
		select {
		case <-c.ctx.Done():
			return

		case m := <-c.inbox:
			switch msg := m.(type) {
			case fromTransport:
				if c.mode == ModeMirror && msg.ev.Type != game.EvtSyncState {
					break
				}
				next := game.Apply(room, msg.ev)
				if reflect.DeepEqual(next, room) {
					break
				}
				room = next
				version++
				broadcast(observers, Snapshot{Version: version, Room: room})

			case action:
				if msg.waitingOnly && room.GameState != game.StateWaiting {
					break
				}
				sendCtx, cancel := context.WithTimeout(c.ctx, sendTimeout)
				err := c.tr.Send(sendCtx, msg.ev)
				cancel()
				if err != nil {
					// Delivery failure is "not delivered yet", never "state
					// is wrong". Flag it so the UI can show a connection
					// indicator and move on.
					connected = false
					c.logger.Warn("send failed", zap.String("type", string(msg.ev.Type)), zap.Error(err))
					break
				}
				connected = true

			case attach:
				observers[msg.id] = msg.outbox
				msg.outbox <- Snapshot{Version: version, Room: room}

			case detach:
				delete(observers, msg.id)

			case getView:
				msg.reply <- View{
					Version:      version,
					Room:         room,
					Connected:    connected,
					NumObservers: len(observers),
				}
			}
		}
	}
}

func broadcast(observers map[string]chan Snapshot, snap Snapshot) {
	for id, ch := range observers {
		select {
		case ch <- snap:
		default:
			// Slow observer; drop it rather than stall the room.
			close(ch)
			delete(observers, id)
		}
	}
}
