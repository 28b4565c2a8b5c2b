package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s accepts no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Unresolved reports whether an order in this status still occupies a queue slot.
func (s Status) Unresolved() bool {
	return s == StatusPending || s == StatusPreparing
}

// Variant enumerates the porridge types on the menu.
type Variant string

const (
	VariantPlain     Variant = "plain"
	VariantWithMilk  Variant = "with-milk"
	VariantWithSugar Variant = "with-sugar"
	VariantSpecial   Variant = "special"
)

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	switch v {
	case VariantPlain, VariantWithMilk, VariantWithSugar, VariantSpecial:
		return true
	}
	return false
}

// Size enumerates serving sizes.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// Valid reports whether s is a known size.
func (s Size) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

// Order is a customer order as stored in the orders table.
//
// TotalPrice, QueuePosition and EstimatedWaitMinutes are written once at
// creation and never mutated afterwards; status changes go through the
// transition rules in internal/queue. Orders are never deleted, cancellation
// is a terminal status.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID                   int64     `bun:",pk,autoincrement" json:"id"`
	CustomerRef          string    `bun:"customer_ref" json:"customer_ref"`
	Variant              Variant   `bun:"variant" json:"variant"`
	Size                 Size      `bun:"size" json:"size"`
	Quantity             int       `bun:"quantity" json:"quantity"`
	AddOns               []string  `bun:"add_ons,type:json" json:"add_ons"`
	Note                 string    `bun:"note" json:"note,omitempty"`
	Status               Status    `bun:"status" json:"status"`
	TotalPrice           int64     `bun:"total_price" json:"total_price"`
	QueuePosition        int       `bun:"queue_position" json:"queue_position"`
	EstimatedWaitMinutes int       `bun:"estimated_wait_minutes" json:"estimated_wait_minutes"`
	CreatedAt            time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time `bun:"updated_at,nullzero" json:"updated_at"`
}
