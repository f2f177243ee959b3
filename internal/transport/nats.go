package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/buzzdash/buzzdash-backend/internal/game"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSBus carries room events over a NATS broker, one subject per room.
// NATS delivers messages on a subject to every subscriber in publish order
// and invokes a subscription's callback serially, which satisfies both the
// per-room total order and the serial-handler requirement.
type NATSBus struct {
	conn   *nats.Conn
	logger *zap.Logger
}

func NewNATSBus(url string, logger *zap.Logger) (*NATSBus, error) {
	conn, err := nats.Connect(url, nats.RetryOnFailedConnect(true))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSBus{conn: conn, logger: logger.Named("natsbus")}, nil
}

func subjectFor(roomID string) string {
	return "buzz.room." + roomID
}

func (b *NATSBus) Send(ctx context.Context, ev game.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrDelivery, err)
	}
	if err := b.conn.Publish(subjectFor(ev.RoomID), payload); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

func (b *NATSBus) Subscribe(roomID string, h Handler) (Unsubscribe, error) {
	// Unsubscribe below must guarantee that no callback runs after it
	// returns. nats.Unsubscribe stops new deliveries but a callback may
	// already be executing, so every invocation goes through a gate the
	// teardown can close and settle.
	gate := &subGate{}
	sub, err := b.conn.Subscribe(subjectFor(roomID), func(msg *nats.Msg) {
		gate.run(func() {
			var ev game.Event
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				b.logger.Warn("dropping undecodable event", zap.Error(err))
				return
			}
			// Subjects are already per-room; keep the filter anyway in case
			// two rooms ever share a subject.
			if ev.RoomID != roomID {
				return
			}
			h(ev)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: subscribe: %v", ErrDelivery, err)
	}

	return func() {
		if err := sub.Unsubscribe(); err != nil {
			b.logger.Warn("unsubscribe", zap.Error(err))
		}
		gate.close()
	}, nil
}

// subGate serializes callback runs against teardown: close blocks until any
// in-flight run finishes, and every run after close is refused.
type subGate struct {
	mu     sync.Mutex
	closed bool
}

func (g *subGate) run(fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	fn()
	return true
}

func (g *subGate) close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}

func (b *NATSBus) Close() {
	if err := b.conn.Drain(); err != nil {
		b.logger.Warn("drain connection", zap.Error(err))
	}
}
