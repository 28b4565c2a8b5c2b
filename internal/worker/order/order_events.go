package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kooko-labs/kooko/internal/config"
	"github.com/kooko-labs/kooko/internal/messaging"
	"github.com/kooko-labs/kooko/internal/notifier"
	"github.com/kooko-labs/kooko/internal/transport/http/stream"
	"github.com/kooko-labs/kooko/internal/worker"
)

var workerTracer = otel.Tracer("github.com/kooko-labs/kooko/worker/order")

// Module registers the order event handler.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewOrderEventHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// HandlerParams collects the handler's dependencies. The stream hub only
// exists in the HTTP process; the headless worker runs without it.
type HandlerParams struct {
	fx.In

	Logger *zap.Logger
	Config config.Config
	Hub    *stream.Hub `optional:"true"`
}

// NewOrderEventHandler builds the worker handler that fans order events out
// to websocket subscribers and logs them for the audit trail.
func NewOrderEventHandler(p HandlerParams) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event notifier.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			p.Logger.Error("failed to decode order event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}

		p.Logger.Info("order event processed",
			zap.String("kind", string(event.Kind)),
			zap.Int64("order_id", event.Order.ID),
			zap.String("status", string(event.Order.Status)),
			zap.Int("queue_position", event.Order.QueuePosition),
		)

		if p.Hub != nil {
			p.Hub.Broadcast(msg.Value)
		}

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   p.Config.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
