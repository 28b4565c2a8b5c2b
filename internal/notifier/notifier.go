// Package notifier is the engine-facing event sink. The engine calls Publish
// exactly once per state change; fan-out to subscribers happens downstream
// (worker handlers, websocket stream). Delivery is at-least-once. Events for
// the same order are keyed identically on the bus, so every subscriber
// observes them in the order the engine issued them; no ordering is promised
// across different orders.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kooko-labs/kooko/internal/entity"
	"github.com/kooko-labs/kooko/internal/messaging"
)

// EventKind labels an order lifecycle event.
type EventKind string

const (
	EventCreated   EventKind = "order.created"
	EventUpdated   EventKind = "order.updated"
	EventCancelled EventKind = "order.cancelled"
)

// Event is the wire payload published for every order state change.
type Event struct {
	Kind      EventKind    `json:"kind"`
	Order     entity.Order `json:"order"`
	EmittedAt time.Time    `json:"emitted_at"`
}

// Notifier publishes order lifecycle events.
type Notifier interface {
	Publish(ctx context.Context, kind EventKind, order *entity.Order) error
}

// Module provides the bus-backed notifier to Fx.
var Module = fx.Provide(New)

type busNotifier struct {
	client messaging.Client
	logger *zap.Logger
}

// New builds a Notifier over the configured messaging client.
func New(client messaging.Client, logger *zap.Logger) Notifier {
	return &busNotifier{client: client, logger: logger}
}

// Publish serializes the event and writes it keyed by order id. The key pins
// all events for one order to one partition.
func (n *busNotifier) Publish(ctx context.Context, kind EventKind, order *entity.Order) error {
	event := Event{
		Kind:      kind,
		Order:     *order,
		EmittedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	key := []byte(fmt.Sprintf("order-%d", order.ID))
	if err := n.client.Publish(ctx, key, payload); err != nil {
		return err
	}

	n.logger.Debug("order event published",
		zap.String("kind", string(kind)),
		zap.Int64("order_id", order.ID),
	)
	return nil
}
