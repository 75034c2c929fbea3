package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reloved/marketplace/internal/domain"
)

// OpenOffer makes an offer on an item as the buyer.
// POST /v1/items/:item_id/offers
func (h *Handler) OpenOffer(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(c)
	if err != nil {
		return err
	}

	var req domain.OfferRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, domain.ValidationError("invalid request body"))
	}

	neg, offer, err := h.service.OpenOffer(ctx, c.Param("item_id"), userID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"negotiation": neg,
		"offer":       offer,
	})
}

// ListItemNegotiations lists an item's negotiations. Seller only.
// GET /v1/items/:item_id/negotiations
func (h *Handler) ListItemNegotiations(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(c)
	if err != nil {
		return err
	}

	negs, err := h.service.ListItemNegotiations(ctx, c.Param("item_id"), userID)
	if err != nil {
		return respondError(c, err)
	}
	if negs == nil {
		negs = []domain.Negotiation{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"negotiations": negs})
}

// AnalyzeOffers buckets the active offers on an item. Seller only.
// GET /v1/items/:item_id/offer-analysis
func (h *Handler) AnalyzeOffers(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(c)
	if err != nil {
		return err
	}

	analysis, err := h.service.AnalyzeOffers(ctx, c.Param("item_id"), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, analysis)
}

// ListNegotiations lists the caller's negotiations on both sides.
// GET /v1/negotiations
func (h *Handler) ListNegotiations(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(c)
	if err != nil {
		return err
	}

	negs, err := h.service.ListUserNegotiations(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}
	if negs == nil {
		negs = []domain.Negotiation{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"negotiations": negs})
}

// GetNegotiation retrieves one negotiation. Parties only.
// GET /v1/negotiations/:negotiation_id
func (h *Handler) GetNegotiation(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(c)
	if err != nil {
		return err
	}

	neg, err := h.service.GetNegotiationForUser(ctx, c.Param("negotiation_id"), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, neg)
}

// ListOffers lists the offer history of a negotiation. Parties only.
// GET /v1/negotiations/:negotiation_id/offers
func (h *Handler) ListOffers(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(c)
	if err != nil {
		return err
	}

	offers, err := h.service.ListOffersForUser(ctx, c.Param("negotiation_id"), userID)
	if err != nil {
		return respondError(c, err)
	}
	if offers == nil {
		offers = []domain.Offer{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"offers": offers})
}

// Accept accepts the standing offer. Seller only.
// POST /v1/negotiations/:negotiation_id/accept
func (h *Handler) Accept(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(c)
	if err != nil {
		return err
	}

	neg, err := h.service.Accept(ctx, c.Param("negotiation_id"), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, neg)
}

// Decline cancels a negotiation. Either party.
// POST /v1/negotiations/:negotiation_id/decline
func (h *Handler) Decline(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(c)
	if err != nil {
		return err
	}

	var req domain.DeclineRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, domain.ValidationError("invalid request body"))
	}

	neg, err := h.service.Decline(ctx, c.Param("negotiation_id"), userID, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, neg)
}

// Counter appends the next offer. Either party, alternating turns.
// POST /v1/negotiations/:negotiation_id/counter
func (h *Handler) Counter(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(c)
	if err != nil {
		return err
	}

	var req domain.OfferRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, domain.ValidationError("invalid request body"))
	}

	neg, offer, err := h.service.Counter(ctx, c.Param("negotiation_id"), userID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"negotiation": neg,
		"offer":       offer,
	})
}

// RecordDealStatus appends a logistics update to a completed sale.
// POST /v1/negotiations/:negotiation_id/status
func (h *Handler) RecordDealStatus(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(c)
	if err != nil {
		return err
	}

	var req domain.DealStatusRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, domain.ValidationError("invalid request body"))
	}

	event, err := h.service.RecordDealStatus(ctx, c.Param("negotiation_id"), userID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, event)
}

// ListDealEvents returns the logistics trail. Parties only.
// GET /v1/negotiations/:negotiation_id/status
func (h *Handler) ListDealEvents(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(c)
	if err != nil {
		return err
	}

	events, err := h.service.ListDealEvents(ctx, c.Param("negotiation_id"), userID)
	if err != nil {
		return respondError(c, err)
	}
	if events == nil {
		events = []domain.DealEvent{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"events": events})
}
