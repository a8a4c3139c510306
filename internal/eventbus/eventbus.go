// Package eventbus is the in-process typed event dispatcher the three
// promotion engines (referral, streak, gold status) subscribe to instead
// of cross-calling the Commission Splitter or each other directly.
package eventbus

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Topic identifies one of the fixed set of domain events this bus carries.
type Topic string

const (
	TopicOrderDelivered  Topic = "order.delivered"
	TopicOrderAccepted   Topic = "order.accepted"
	TopicOrderCancelled  Topic = "order.cancelled"
	TopicPayoutPaid      Topic = "payout.paid"
	TopicPayoutOverdue   Topic = "payout.overdue"
	TopicRiderBlocked    Topic = "rider.blocked"
	TopicRiderDeactivated Topic = "rider.deactivated"
)

// Handler receives an event payload. The concrete type behind payload is
// fixed per Topic (see events.go); handlers type-assert it themselves.
// Handlers must be idempotent — delivery is at-least-once per publisher.
type Handler func(payload any)

// Bus is an in-process publish/subscribe dispatcher. Subscribers are
// registered at startup; the zero value is not usable, use New.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic][]Handler
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{handlers: make(map[Topic][]Handler)}
}

// Subscribe registers a handler for topic. Subscription order is
// preserved and determines per-publisher delivery order.
func (b *Bus) Subscribe(topic Topic, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Publish delivers payload to every handler registered for topic, in
// subscription order. A handler that panics is recovered and logged so
// it cannot take down the caller or block the remaining subscribers —
// events are not persisted, so a dropped delivery is not retried.
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[topic]))
	copy(handlers, b.handlers[topic])
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatchOne(topic, h, payload)
	}
}

func (b *Bus) dispatchOne(topic Topic, handler Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("topic", string(topic)).
				Msg("eventbus.subscriber_panic")
		}
	}()
	handler(payload)
}
