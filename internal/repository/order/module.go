package order

import (
	"go.uber.org/fx"

	"github.com/kooko-labs/kooko/internal/queue"
)

// Module provides the order repository to Fx, also exposing it as the
// allocator's unresolved-order counter.
var Module = fx.Provide(
	NewRepository,
	fx.Annotate(
		func(r *Repository) *Repository { return r },
		fx.As(new(queue.UnresolvedCounter)),
	),
)
