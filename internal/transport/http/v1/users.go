package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reloved/marketplace/internal/domain"
)

// UpsertUser registers or updates a profile. Self-service: the body user_id
// must match the caller.
// POST /v1/users
func (h *Handler) UpsertUser(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(c)
	if err != nil {
		return err
	}

	var req domain.UpsertUserRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, domain.ValidationError("invalid request body"))
	}
	if req.UserID == "" {
		req.UserID = userID
	}
	if req.UserID != userID {
		return respondError(c, domain.NewError(domain.ErrCodeUnauthorized, "cannot modify another user's profile"))
	}

	user, err := h.service.UpsertUser(ctx, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
