// Package v1 provides HTTP handlers for the marketplace API.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reloved/marketplace/internal/hub"
	"github.com/reloved/marketplace/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	hub     *hub.Hub
}

// NewHandler creates a new handler. hub may be nil to disable the WebSocket
// feed.
func NewHandler(service *service.Service, hub *hub.Hub) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
	}
}

// RegisterRoutes registers the routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Listings
	e.POST("/v1/uploads/analyze", h.AnalyzeUpload)
	e.POST("/v1/items", h.CreateItem)
	e.GET("/v1/items", h.ListItems)
	e.GET("/v1/items/:item_id", h.GetItem)
	e.PATCH("/v1/items/:item_id", h.UpdateItem)

	// Negotiations
	e.POST("/v1/items/:item_id/offers", h.OpenOffer)
	e.GET("/v1/items/:item_id/negotiations", h.ListItemNegotiations)
	e.GET("/v1/items/:item_id/offer-analysis", h.AnalyzeOffers)
	e.GET("/v1/negotiations", h.ListNegotiations)
	e.GET("/v1/negotiations/:negotiation_id", h.GetNegotiation)
	e.GET("/v1/negotiations/:negotiation_id/offers", h.ListOffers)
	e.POST("/v1/negotiations/:negotiation_id/accept", h.Accept)
	e.POST("/v1/negotiations/:negotiation_id/decline", h.Decline)
	e.POST("/v1/negotiations/:negotiation_id/counter", h.Counter)
	e.POST("/v1/negotiations/:negotiation_id/status", h.RecordDealStatus)
	e.GET("/v1/negotiations/:negotiation_id/status", h.ListDealEvents)

	// Assistant
	e.POST("/v1/chat", h.Chat)
	e.POST("/v1/chat/agent", h.AgentChat)
	e.GET("/v1/conversations/:conversation_id/messages", h.GetConversationMessages)
	e.POST("/v1/plans/:plan_id/decide", h.DecidePlan)

	// Users
	e.POST("/v1/users", h.UpsertUser)

	// Realtime feed
	e.GET("/ws", h.ServeWS)

	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
