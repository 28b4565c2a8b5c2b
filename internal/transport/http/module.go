package http

import (
	"go.uber.org/fx"

	ordertransport "github.com/kooko-labs/kooko/internal/transport/http/order"
	streamtransport "github.com/kooko-labs/kooko/internal/transport/http/stream"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	streamtransport.Module,
)
