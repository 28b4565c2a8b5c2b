package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/kooko-labs/kooko/internal/cache"
	"github.com/kooko-labs/kooko/internal/catalog"
	"github.com/kooko-labs/kooko/internal/config"
	"github.com/kooko-labs/kooko/internal/entity"
	"github.com/kooko-labs/kooko/internal/notifier"
	"github.com/kooko-labs/kooko/internal/queue"
	repo "github.com/kooko-labs/kooko/internal/repository/order"
	"github.com/kooko-labs/kooko/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/kooko-labs/kooko/service/order")

// Repository is the storage surface the engine needs. *repo.Repository
// satisfies it; tests swap in an in-memory fake.
type Repository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id int64) (*entity.Order, error)
	ListByCustomer(ctx context.Context, customerRef string) ([]entity.Order, error)
	List(ctx context.Context, status *entity.Status) ([]entity.Order, error)
	ListUnresolved(ctx context.Context) ([]entity.Order, error)
	UpdateStatus(ctx context.Context, id int64, from, to entity.Status, updatedAt time.Time) error
}

// Service is the order queue engine: it prices submissions, reserves queue
// positions, enforces status transitions, and emits one event per state
// change.
type Service struct {
	repo      Repository
	allocator *queue.Allocator
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	notifier  notifier.Notifier
}

// CreateOrderInput carries a customer's order submission.
type CreateOrderInput struct {
	CustomerRef string
	Variant     entity.Variant
	Size        entity.Size
	Quantity    int
	AddOns      []string
	Note        string
}

// Snapshot describes the live queue: unresolved orders oldest first, their
// count, and a wait estimate derived from the current length rather than the
// per-order frozen values.
type Snapshot struct {
	Length               int            `json:"length"`
	EstimatedWaitMinutes int            `json:"estimated_wait_minutes"`
	Orders               []entity.Order `json:"orders"`
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Allocator  *queue.Allocator
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Notifier   notifier.Notifier
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:      p.Repository,
		allocator: p.Allocator,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    p.Logger,
		notifier:  p.Notifier,
	}
}

// CreateOrder validates and prices a submission, reserves the next queue
// position, persists the order as pending, and publishes a created event.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.CreateOrder", trace.WithAttributes(
		attribute.String("order.variant", string(in.Variant)),
		attribute.String("order.size", string(in.Size)),
	))
	defer span.End()

	if in.CustomerRef == "" {
		return nil, errorbank.BadRequest("customer reference is required")
	}
	if in.Quantity < 1 {
		return nil, errorbank.BadRequest("quantity must be at least 1")
	}
	if !in.Variant.Valid() {
		return nil, errorbank.BadRequest(fmt.Sprintf("unknown variant %q", in.Variant))
	}
	if !in.Size.Valid() {
		return nil, errorbank.BadRequest(fmt.Sprintf("unknown size %q", in.Size))
	}

	addOns := dedupe(in.AddOns)

	total, err := catalog.Total(in.Variant, in.Size, in.Quantity, addOns)
	if err != nil {
		// Unreachable after membership validation, kept as a guard.
		return nil, errorbank.BadRequest(err.Error())
	}

	now := time.Now().UTC()
	order := &entity.Order{
		CustomerRef: in.CustomerRef,
		Variant:     in.Variant,
		Size:        in.Size,
		Quantity:    in.Quantity,
		AddOns:      addOns,
		Note:        in.Note,
		Status:      entity.StatusPending,
		TotalPrice:  total,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	position, err := s.allocator.Reserve(ctx, func(position int) error {
		order.QueuePosition = position
		order.EstimatedWaitMinutes = s.allocator.Estimate(position)
		return s.repo.Create(ctx, order)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order creation failed")
		if position > 0 {
			// The computed position is not reclaimed; the queue carries a gap.
			s.logger.Warn("order insert failed after position reservation",
				zap.Int("queue_position", position), zap.Error(err))
		}
		return nil, errorbank.Unavailable("failed to create order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", order.ID), zap.Error(err))
	}

	s.publish(ctx, notifier.EventCreated, order)
	return order, nil
}

// UpdateStatus applies a vendor-initiated status change. Any transition
// between distinct non-terminal states is accepted except ready to cancelled;
// terminal states accept nothing.
func (s *Service) UpdateStatus(ctx context.Context, id int64, newStatus entity.Status) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status.to", string(newStatus)),
	))
	defer span.End()

	if !newStatus.Valid() {
		return nil, errorbank.BadRequest(fmt.Sprintf("unknown status %q", newStatus))
	}

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !queue.CanTransition(order.Status, newStatus) {
		return nil, invalidTransition(order.Status, newStatus)
	}

	return s.applyTransition(ctx, span, order, newStatus, notifier.EventUpdated)
}

// Cancel performs a customer-initiated cancellation. Only the originating
// customer may cancel, and only while the order is pending or preparing.
func (s *Service) Cancel(ctx context.Context, id int64, customerRef string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Cancel", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if order.CustomerRef != customerRef {
		return nil, errorbank.Forbidden("only the ordering customer may cancel")
	}
	if !queue.CustomerCanCancel(order.Status) {
		return nil, invalidTransition(order.Status, entity.StatusCancelled)
	}

	return s.applyTransition(ctx, span, order, entity.StatusCancelled, notifier.EventCancelled)
}

// Get retrieves an order by id, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if order, err := s.getFromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	order, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", id), zap.Error(err))
	}

	return order, nil
}

// ListByCustomer returns the given customer's orders, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerRef string) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ListByCustomer")
	defer span.End()

	if customerRef == "" {
		return nil, errorbank.BadRequest("customer reference is required")
	}

	orders, err := s.repo.ListByCustomer(ctx, customerRef)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Unavailable("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// List returns all orders, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *entity.Status) ([]entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	if status != nil && !status.Valid() {
		return nil, errorbank.BadRequest(fmt.Sprintf("unknown status %q", *status))
	}

	orders, err := s.repo.List(ctx, status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Unavailable("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// QueueSnapshot reports the unresolved orders oldest first with a wait
// estimate recomputed from the current queue length.
func (s *Service) QueueSnapshot(ctx context.Context) (*Snapshot, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.QueueSnapshot")
	defer span.End()

	orders, err := s.repo.ListUnresolved(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Unavailable("failed to read queue", errorbank.WithCause(err))
	}

	length := len(orders)
	span.SetAttributes(attribute.Int("queue.length", length))
	return &Snapshot{
		Length:               length,
		EstimatedWaitMinutes: length * s.allocator.ServiceMinutes(),
		Orders:               orders,
	}, nil
}

func (s *Service) load(ctx context.Context, id int64) (*entity.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, errorbank.NotFound("order not found")
	}
	if err != nil {
		return nil, errorbank.Unavailable("failed to load order", errorbank.WithCause(err))
	}
	return order, nil
}

// applyTransition persists a validated status change with a compare-and-set
// against the status the validation saw, then publishes the event. A lost
// race surfaces as a conflict rather than silently overwriting.
func (s *Service) applyTransition(ctx context.Context, span trace.Span, order *entity.Order, to entity.Status, kind notifier.EventKind) (*entity.Order, error) {
	now := time.Now().UTC()
	err := s.repo.UpdateStatus(ctx, order.ID, order.Status, to, now)
	if errors.Is(err, repo.ErrStaleStatus) {
		return nil, errorbank.Conflict("order was updated concurrently")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Unavailable("failed to update order", errorbank.WithCause(err))
	}

	order.Status = to
	order.UpdatedAt = now

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", order.ID), zap.Error(err))
	}

	s.publish(ctx, kind, order)
	return order, nil
}

// publish is fire-and-forget: a notifier failure never rolls back the
// persisted change and is not retried here.
func (s *Service) publish(ctx context.Context, kind notifier.EventKind, order *entity.Order) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, kind, order); err != nil {
		s.logger.Error("order event publish failed",
			zap.String("kind", string(kind)),
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
	}
}

func dedupe(addOns []string) []string {
	if len(addOns) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(addOns))
	out := make([]string, 0, len(addOns))
	for _, a := range addOns {
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

func (s *Service) cacheKey(id int64) string {
	return fmt.Sprintf("orders:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.cache == nil || order == nil {
		return nil
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(order.ID), bytes, s.cacheTTL)
}

func invalidTransition(from, to entity.Status) error {
	return errorbank.Unprocessable("invalid status transition",
		errorbank.WithDetail("from", string(from)),
		errorbank.WithDetail("to", string(to)),
	)
}
