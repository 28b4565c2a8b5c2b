package dto

import (
	"time"

	"github.com/kooko-labs/kooko/internal/entity"
)

// CreateOrderRequest is the payload a customer submits to place an order.
type CreateOrderRequest struct {
	Variant  string   `json:"variant"`
	Size     string   `json:"size"`
	Quantity int      `json:"quantity"`
	AddOns   []string `json:"add_ons"`
	Note     string   `json:"note"`
}

// UpdateStatusRequest is the payload a vendor submits to move an order.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID                   int64     `json:"id"`
	CustomerRef          string    `json:"customer_ref"`
	Variant              string    `json:"variant"`
	Size                 string    `json:"size"`
	Quantity             int       `json:"quantity"`
	AddOns               []string  `json:"add_ons"`
	Note                 string    `json:"note,omitempty"`
	Status               string    `json:"status"`
	TotalPrice           int64     `json:"total_price"`
	QueuePosition        int       `json:"queue_position"`
	EstimatedWaitMinutes int       `json:"estimated_wait_minutes"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// QueueResponse reports the live queue state.
type QueueResponse struct {
	Length               int             `json:"length"`
	EstimatedWaitMinutes int             `json:"estimated_wait_minutes"`
	Orders               []OrderResponse `json:"orders"`
}

// FromOrder maps an order entity onto its transport representation.
func FromOrder(order *entity.Order) OrderResponse {
	return OrderResponse{
		ID:                   order.ID,
		CustomerRef:          order.CustomerRef,
		Variant:              string(order.Variant),
		Size:                 string(order.Size),
		Quantity:             order.Quantity,
		AddOns:               order.AddOns,
		Note:                 order.Note,
		Status:               string(order.Status),
		TotalPrice:           order.TotalPrice,
		QueuePosition:        order.QueuePosition,
		EstimatedWaitMinutes: order.EstimatedWaitMinutes,
		CreatedAt:            order.CreatedAt,
		UpdatedAt:            order.UpdatedAt,
	}
}

// FromOrders maps a slice of order entities.
func FromOrders(orders []entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, FromOrder(&orders[i]))
	}
	return out
}
