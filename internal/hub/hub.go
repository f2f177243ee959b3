package hub

import (
	"context"

	"github.com/buzzdash/buzzdash-backend/internal/authority"
	"github.com/buzzdash/buzzdash-backend/internal/store"
	"github.com/buzzdash/buzzdash-backend/internal/transport"
	"go.uber.org/zap"
)

// BuzzMode selects the deployment-wide winner-determination discipline. It is
// fixed at startup; rooms never mix the two.
type BuzzMode string

const (
	// ModeBroadcast: every participant reduces the ordered event stream
	// locally.
	ModeBroadcast BuzzMode = "broadcast"
	// ModeAuthority: a per-room arbiter owns the reducer behind the store's
	// compare-and-swap; participants mirror its snapshots.
	ModeAuthority BuzzMode = "authority"
)

type HubMsg interface{ isHubMsg() }

type EnsureRoom struct {
	Code   string
	HostID string
	Reply  chan error
}

type RoomExists struct {
	Code  string
	Reply chan bool
}

type RemoveRoom struct {
	Code string
}

type ShutdownHub struct{}

func (EnsureRoom) isHubMsg() {}
func (RoomExists) isHubMsg() {}
func (RemoveRoom) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

type room struct {
	arbiter *authority.Arbiter // nil in broadcast mode
}

// Hub is the registry of live rooms. In authority mode it also owns each
// room's arbiter lifecycle.
type Hub struct {
	inbox  chan HubMsg
	rooms  map[string]room
	mode   BuzzMode
	tr     transport.Transport
	st     store.Store
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, mode BuzzMode, tr transport.Transport, st store.Store, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]room),
		mode:   mode,
		tr:     tr,
		st:     st,
		logger: logger.Named("hub"),
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) Mode() BuzzMode { return h.mode }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureRoom:
				if _, ok := h.rooms[msg.Code]; ok {
					msg.Reply <- nil
					break
				}
				rm := room{}
				if h.mode == ModeAuthority {
					arb, err := authority.New(msg.Code, msg.HostID, h.tr, h.st, h.logger)
					if err != nil {
						h.logger.Error("start arbiter", zap.String("room", msg.Code), zap.Error(err))
						msg.Reply <- err
						break
					}
					rm.arbiter = arb
				}
				h.rooms[msg.Code] = rm
				h.logger.Info("room opened", zap.String("room", msg.Code))
				msg.Reply <- nil

			case RoomExists:
				_, ok := h.rooms[msg.Code]
				msg.Reply <- ok

			case RemoveRoom:
				if rm, ok := h.rooms[msg.Code]; ok {
					if rm.arbiter != nil {
						rm.arbiter.Close()
					}
					delete(h.rooms, msg.Code)
					h.logger.Info("room closed", zap.String("room", msg.Code))
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for code, rm := range h.rooms {
		if rm.arbiter != nil {
			rm.arbiter.Close()
		}
		delete(h.rooms, code)
	}
	h.cancel()
}
