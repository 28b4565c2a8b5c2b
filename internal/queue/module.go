package queue

import "go.uber.org/fx"

// Module provides the queue position allocator to Fx.
var Module = fx.Provide(NewAllocator)
