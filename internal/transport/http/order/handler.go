package order

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kooko-labs/kooko/internal/dto"
	"github.com/kooko-labs/kooko/internal/entity"
	"github.com/kooko-labs/kooko/internal/presentation/http/response"
	service "github.com/kooko-labs/kooko/internal/service/order"
	"github.com/kooko-labs/kooko/internal/transport/http/actor"
	"github.com/kooko-labs/kooko/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/kooko-labs/kooko/transport/http/order")

// Handler exposes order endpoints over HTTP. Each route maps 1:1 onto an
// engine operation.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with the provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/orders", actor.Middleware())
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/mine", h.listMine)
	g.GET("/:id", h.getByID)
	g.PATCH("/:id/status", h.updateStatus)
	g.POST("/:id/cancel", h.cancel)

	e.GET("/queue", h.queue)
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)
	caller := actor.FromContext(c)

	var payload dto.CreateOrderRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.create", trace.WithAttributes(
		attribute.String("order.variant", payload.Variant),
	))
	defer span.End()

	order, err := h.svc.CreateOrder(ctx, service.CreateOrderInput{
		CustomerRef: caller.CustomerRef,
		Variant:     entity.Variant(payload.Variant),
		Size:        entity.Size(payload.Size),
		Quantity:    payload.Quantity,
		AddOns:      payload.AddOns,
		Note:        payload.Note,
	})
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	caller := actor.FromContext(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.getByID", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	// Customers see only their own orders; vendors see everything.
	if !caller.IsVendor() && order.CustomerRef != caller.CustomerRef {
		return b.WithError(errorbank.Forbidden("access denied")).Build()
	}

	return b.WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)
	caller := actor.FromContext(c)

	if !caller.IsVendor() {
		return b.WithError(errorbank.Forbidden("vendor role required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.list")
	defer span.End()

	var status *entity.Status
	if raw := c.QueryParam("status"); raw != "" {
		s := entity.Status(raw)
		status = &s
	}

	orders, err := h.svc.List(ctx, status)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrders(orders)).Build()
}

func (h *Handler) listMine(c echo.Context) error {
	b := response.New(c)
	caller := actor.FromContext(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.listMine")
	defer span.End()

	orders, err := h.svc.ListByCustomer(ctx, caller.CustomerRef)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrders(orders)).Build()
}

func (h *Handler) updateStatus(c echo.Context) error {
	b := response.New(c)
	caller := actor.FromContext(c)

	if !caller.IsVendor() {
		return b.WithError(errorbank.Forbidden("vendor role required")).Build()
	}

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload dto.UpdateStatusRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.updateStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status.to", payload.Status),
	))
	defer span.End()

	order, err := h.svc.UpdateStatus(ctx, id, entity.Status(payload.Status))
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) cancel(c echo.Context) error {
	b := response.New(c)
	caller := actor.FromContext(c)

	id, err := parseID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.cancel", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := h.svc.Cancel(ctx, id, caller.CustomerRef)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.FromOrder(order)).Build()
}

func (h *Handler) queue(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "orders.queue")
	defer span.End()

	snapshot, err := h.svc.QueueSnapshot(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.QueueResponse{
		Length:               snapshot.Length,
		EstimatedWaitMinutes: snapshot.EstimatedWaitMinutes,
		Orders:               dto.FromOrders(snapshot.Orders),
	}).Build()
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errorbank.BadRequest("invalid id", errorbank.WithCause(err))
	}
	return id, nil
}
