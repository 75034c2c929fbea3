package v1

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/reloved/marketplace/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ServeWS upgrades the connection and streams the user's negotiation events.
// GET /ws?user_id=...
func (h *Handler) ServeWS(c echo.Context) error {
	if h.hub == nil {
		return respondError(c, domain.NewError(domain.ErrCodeInternal, "realtime feed is not enabled"))
	}

	userID := c.QueryParam("user_id")
	if userID == "" {
		userID = callerID(c)
	}
	if userID == "" {
		return respondError(c, domain.NewError(domain.ErrCodeUnauthorized, "user_id is required"))
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("ERROR: websocket upgrade failed: %v", err)
		return err
	}

	conn := h.hub.NewConnection(ws, userID)
	go conn.WritePump()
	conn.ReadPump()
	return nil
}
