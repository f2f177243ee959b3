package transport

import (
	"context"
	"errors"

	"github.com/buzzdash/buzzdash-backend/internal/game"
)

// ErrDelivery means the underlying channel was unreachable. The event was not
// rejected as invalid; callers retry or rely on eventual convergence.
var ErrDelivery = errors.New("transport: delivery failed")

// Handler receives one event per observed delivery. Handlers registered by a
// single Subscribe call are invoked serially, never concurrently.
type Handler func(game.Event)

// Unsubscribe tears a subscription down. Once it returns, the handler will
// not be invoked again.
type Unsubscribe func()

// Transport is the wire between room participants. Delivery is at-least-once
// and unordered across senders unless a concrete implementation says
// otherwise; a sender may or may not observe its own events back through its
// subscription. Subscribers get every event on the channel, filtered to the
// subscribed room id.
type Transport interface {
	Send(ctx context.Context, ev game.Event) error
	Subscribe(roomID string, h Handler) (Unsubscribe, error)
}
