package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/reloved/marketplace/internal/domain"
	"github.com/reloved/marketplace/internal/repository"
)

// CreateItem posts a new listing.
// POST /v1/items
func (h *Handler) CreateItem(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(c)
	if err != nil {
		return err
	}

	var req domain.CreateItemRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, domain.ValidationError("invalid request body"))
	}

	item, err := h.service.CreateItem(ctx, userID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

// ListItems browses listings. Public.
// GET /v1/items
func (h *Handler) ListItems(c echo.Context) error {
	ctx := c.Request().Context()

	filter := repository.ItemFilter{
		FurnitureType: domain.FurnitureType(c.QueryParam("furniture_type")),
		Status:        domain.ItemStatus(c.QueryParam("status")),
		SellerID:      c.QueryParam("seller_id"),
		Sort:          c.QueryParam("sort"),
	}
	// Default browse hides sold and withdrawn listings. Sellers listing their
	// own inventory, or callers asking for a status explicitly, see everything.
	if filter.Status == "" && filter.SellerID == "" {
		filter.Status = domain.ItemStatusAvailable
	}
	if limit := c.QueryParam("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			return respondError(c, domain.ValidationError("limit must be a positive integer"))
		}
		filter.Limit = n
	}

	items, err := h.service.ListItems(ctx, filter)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []domain.Item{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": items})
}

// GetItem retrieves one listing and counts the view. Public.
// GET /v1/items/:item_id
func (h *Handler) GetItem(c echo.Context) error {
	ctx := c.Request().Context()

	item, err := h.service.ViewItem(ctx, c.Param("item_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

// UpdateItem edits a listing. Seller only.
// PATCH /v1/items/:item_id
func (h *Handler) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(c)
	if err != nil {
		return err
	}

	var req domain.UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, domain.ValidationError("invalid request body"))
	}

	item, err := h.service.UpdateItem(ctx, c.Param("item_id"), userID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}
