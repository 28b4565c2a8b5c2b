package stream

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients arrive from arbitrary origins; access control happens
	// at the gateway in front of this service.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades /events requests onto the hub.
type Handler struct {
	hub    *Hub
	logger *zap.Logger
}

// NewHandler constructs the stream Handler.
func NewHandler(hub *Hub, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

// Register mounts the websocket endpoint.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/events", h.events)
}

func (h *Handler) events(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return nil
	}

	h.hub.add(conn)
	h.logger.Debug("event stream client connected", zap.Int("clients", h.hub.ClientCount()))

	// The stream is one-way; the read loop only notices disconnects.
	go func() {
		defer h.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}
