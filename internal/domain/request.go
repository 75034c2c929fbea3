package domain

import "encoding/json"

// CreateItemRequest is the body of POST /v1/items.
type CreateItemRequest struct {
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	FurnitureType FurnitureType `json:"furniture_type"`
	Condition     string        `json:"condition"`
	StartingPrice float64       `json:"starting_price"`
	MinPrice      float64       `json:"min_price"`
	ImageURL      string        `json:"image_url"`
	Dimensions    string        `json:"dimensions"`
	Material      string        `json:"material"`
	Brand         string        `json:"brand"`
	Color         string        `json:"color"`
}

// UpdateItemRequest is the body of PATCH /v1/items/:item_id.
// Nil pointers leave the field untouched.
type UpdateItemRequest struct {
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	StartingPrice *float64 `json:"starting_price,omitempty"`
	MinPrice      *float64 `json:"min_price,omitempty"`
	Condition     *string  `json:"condition,omitempty"`
	Withdrawn     *bool    `json:"withdrawn,omitempty"`
}

// OfferRequest is the body of POST /v1/items/:item_id/offers and
// POST /v1/negotiations/:negotiation_id/counter.
type OfferRequest struct {
	Price   float64 `json:"price"`
	Message string  `json:"message"`
	Force   bool    `json:"force"`
}

// DeclineRequest is the body of POST /v1/negotiations/:negotiation_id/decline.
type DeclineRequest struct {
	Reason string `json:"reason"`
}

// DealStatusRequest is the body of POST /v1/negotiations/:negotiation_id/status.
type DealStatusRequest struct {
	Status DealStatus `json:"status"`
	Note   string     `json:"note"`
}

// ChatRequest is the body of POST /v1/chat and POST /v1/chat/agent.
type ChatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

// ChatResponse is a single assistant turn.
type ChatResponse struct {
	ConversationID   string          `json:"conversation_id"`
	Reply            string          `json:"reply"`
	SuggestedActions []string        `json:"suggested_actions,omitempty"`
	PlanID           string          `json:"plan_id,omitempty"`
	ToolResults      json.RawMessage `json:"tool_results,omitempty"`
}

// PlanDecisionRequest is the body of POST /v1/plans/:plan_id/decide.
type PlanDecisionRequest struct {
	Decision string `json:"decision"` // confirm | cancel
}

// PlanDecisionResponse reports the outcome of a plan decision.
type PlanDecisionResponse struct {
	PlanID  string             `json:"plan_id"`
	Status  PlanStatus         `json:"status"`
	Results []PlanActionResult `json:"results,omitempty"`
}

// PlanActionResult is the per-action outcome of a confirmed plan.
type PlanActionResult struct {
	Action        string `json:"action"`
	NegotiationID string `json:"negotiation_id"`
	OK            bool   `json:"ok"`
	Error         string `json:"error,omitempty"`
}

// UpsertUserRequest is the body of POST /v1/users.
type UpsertUserRequest struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}
