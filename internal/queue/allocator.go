// Package queue owns queue position allocation and the status transition
// rules for orders.
package queue

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kooko-labs/kooko/internal/config"
)

var allocatorTracer = otel.Tracer("github.com/kooko-labs/kooko/queue")

// UnresolvedCounter reports how many orders currently occupy a queue slot
// (status pending or preparing).
type UnresolvedCounter interface {
	CountUnresolved(ctx context.Context) (int, error)
}

// Allocator hands out 1-based queue positions for new orders.
//
// Counting the unresolved orders, computing the next position, and persisting
// the order that claims it all happen inside one critical section, so two
// concurrent submissions can never observe the same count and claim the same
// position. All order creation flows through a single logical service
// instance, which is what makes an in-process mutex a sufficient
// serialization point; the count itself is one atomically evaluated storage
// query. If persistence fails after the position was computed, nothing is
// rolled back; the engine simply reports the failure.
type Allocator struct {
	mu             sync.Mutex
	counter        UnresolvedCounter
	serviceMinutes int
}

// NewAllocator builds an Allocator over the given unresolved-order counter.
func NewAllocator(cfg config.Config, counter UnresolvedCounter) *Allocator {
	return &Allocator{
		counter:        counter,
		serviceMinutes: cfg.Queue.ServiceMinutes,
	}
}

// Reserve computes the next queue position (unresolved count + 1) and runs
// persist with it before releasing the critical section. The returned
// position is valid only when persist succeeded.
func (a *Allocator) Reserve(ctx context.Context, persist func(position int) error) (int, error) {
	ctx, span := allocatorTracer.Start(ctx, "Allocator.Reserve")
	defer span.End()

	a.mu.Lock()
	defer a.mu.Unlock()

	count, err := a.counter.CountUnresolved(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unresolved count failed")
		return 0, err
	}

	position := count + 1
	span.SetAttributes(attribute.Int("queue.position", position))

	if err := persist(position); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reservation persist failed")
		return position, err
	}
	return position, nil
}

// Estimate projects the wait in minutes for a given queue position. The value
// is frozen onto the order at creation; live estimates are re-derived from the
// current queue length instead.
func (a *Allocator) Estimate(position int) int {
	return position * a.serviceMinutes
}

// ServiceMinutes exposes the fixed per-order service time constant.
func (a *Allocator) ServiceMinutes() int {
	return a.serviceMinutes
}
