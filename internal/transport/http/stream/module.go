package stream

import (
	"go.uber.org/fx"

	"github.com/labstack/echo/v4"
)

// Module wires the event stream hub and its websocket endpoint.
var Module = fx.Options(
	fx.Provide(NewHub),
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler) {
		Register(e, h)
	}),
)
