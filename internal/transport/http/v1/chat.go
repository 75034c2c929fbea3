package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reloved/marketplace/internal/domain"
)

// Chat handles one rule-based assistant turn.
// POST /v1/chat
func (h *Handler) Chat(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(c)
	if err != nil {
		return err
	}

	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, domain.ValidationError("invalid request body"))
	}

	resp, err := h.service.Chat(ctx, userID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// AgentChat handles one LLM-driven assistant turn.
// POST /v1/chat/agent
func (h *Handler) AgentChat(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(c)
	if err != nil {
		return err
	}

	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, domain.ValidationError("invalid request body"))
	}

	resp, err := h.service.AgentChat(ctx, userID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetConversationMessages returns a conversation's history. Owner only.
// GET /v1/conversations/:conversation_id/messages
func (h *Handler) GetConversationMessages(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(c)
	if err != nil {
		return err
	}

	messages, err := h.service.GetConversationMessages(ctx, c.Param("conversation_id"), userID)
	if err != nil {
		return respondError(c, err)
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"messages": messages})
}

// DecidePlan confirms or cancels a pending plan.
// POST /v1/plans/:plan_id/decide
func (h *Handler) DecidePlan(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireCaller(c)
	if err != nil {
		return err
	}

	var req domain.PlanDecisionRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, domain.ValidationError("invalid request body"))
	}

	resp, err := h.service.DecidePlan(ctx, c.Param("plan_id"), userID, req.Decision)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
