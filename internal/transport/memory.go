package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/buzzdash/buzzdash-backend/internal/game"
	"go.uber.org/zap"
)

// All rooms share one topic, the way the original single broadcast channel
// worked. Every subscriber filters by room id on receipt.
const memoryTopic = "room-events"

// MemoryBus is an in-process fan-out transport backed by a watermill
// GoChannel pub/sub. Senders observe their own events through the same
// ordered delivery path as everyone else. Publishing blocks until every
// subscriber has acked, and GoChannel serializes publishers per topic, so all
// subscribers see events in one publish order: the per-room total order the
// event-sourced deployment relies on.
type MemoryBus struct {
	pubsub *gochannel.GoChannel
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
}

func NewMemoryBus(logger *zap.Logger) *MemoryBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &MemoryBus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: 64,
				// Without this, GoChannel hands each message to a goroutine
				// per subscriber and delivery order becomes a lock race.
				// Blocking until ack keeps the per-topic publish lock held
				// for the whole delivery, so every subscriber observes the
				// same order.
				BlockPublishUntilSubscriberAck: true,
			},
			watermill.NopLogger{},
		),
		ctx:    ctx,
		cancel: cancel,
		logger: logger.Named("membus"),
	}
}

func (b *MemoryBus) Send(ctx context.Context, ev game.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrDelivery, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(memoryTopic, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

func (b *MemoryBus) Subscribe(roomID string, h Handler) (Unsubscribe, error) {
	subCtx, subCancel := context.WithCancel(b.ctx)
	msgs, err := b.pubsub.Subscribe(subCtx, memoryTopic)
	if err != nil {
		subCancel()
		return nil, fmt.Errorf("%w: subscribe: %v", ErrDelivery, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			var ev game.Event
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				b.logger.Warn("dropping undecodable event", zap.Error(err))
				msg.Ack()
				continue
			}
			if subCtx.Err() == nil && ev.RoomID == roomID {
				h(ev)
			}
			msg.Ack()
		}
	}()

	return func() {
		subCancel()
		// Block until the dispatch goroutine has exited so no handler call
		// can land after unsubscribe returns.
		<-done
	}, nil
}

func (b *MemoryBus) Close() error {
	b.cancel()
	return b.pubsub.Close()
}
