package queue

import "github.com/kooko-labs/kooko/internal/entity"

// The vendor-facing transition rules are deliberately permissive: the only
// hard invariant is that completed and cancelled are absorbing. Vendors move
// orders freely between the working states, including backwards when a ticket
// was bumped by mistake. The single carve-out is that a ready order cannot be
// cancelled; at that point the food exists.

// CanTransition reports whether a vendor may move an order from one status to
// another.
func CanTransition(from, to entity.Status) bool {
	if !from.Valid() || !to.Valid() || from == to {
		return false
	}
	if from.Terminal() {
		return false
	}
	if from == entity.StatusReady && to == entity.StatusCancelled {
		return false
	}
	return true
}

// CustomerCanCancel reports whether the originating customer may still cancel
// an order in the given status. The cancellation window closes once the order
// leaves the unresolved set.
func CustomerCanCancel(status entity.Status) bool {
	return status.Unresolved()
}
