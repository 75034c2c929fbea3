package domain

import (
	"encoding/json"
	"time"
)

// User is a minimal profile row. Authentication itself lives outside this
// service; requests carry the caller's ID in the X-User-ID header.
type User struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Item is a furniture listing.
type Item struct {
	ItemID        string        `json:"item_id"`
	SellerID      string        `json:"seller_id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	FurnitureType FurnitureType `json:"furniture_type"`
	Condition     string        `json:"condition,omitempty"`
	StartingPrice float64       `json:"starting_price"`
	MinPrice      float64       `json:"min_price,omitempty"`
	ImageURL      string        `json:"image_url,omitempty"`
	Status        ItemStatus    `json:"status"`
	ViewsCount    int           `json:"views_count"`
	Dimensions    string        `json:"dimensions,omitempty"`
	Material      string        `json:"material,omitempty"`
	Brand         string        `json:"brand,omitempty"`
	Color         string        `json:"color,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	SoldAt        *time.Time    `json:"sold_at,omitempty"`
}

// Negotiation is the offer thread between one buyer and one seller for one item.
type Negotiation struct {
	NegotiationID string            `json:"negotiation_id"`
	ItemID        string            `json:"item_id"`
	SellerID      string            `json:"seller_id"`
	BuyerID       string            `json:"buyer_id"`
	Status        NegotiationStatus `json:"status"`
	CurrentOffer  float64           `json:"current_offer"`
	FinalPrice    float64           `json:"final_price,omitempty"`
	RoundNumber   int               `json:"round_number"`
	MaxRounds     int               `json:"max_rounds"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	ExpiresAt     *time.Time        `json:"expires_at,omitempty"`
}

// IsExpired reports whether the negotiation passed its deadline.
func (n *Negotiation) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && now.After(*n.ExpiresAt)
}

// Offer is one immutable priced message within a negotiation's history.
type Offer struct {
	OfferID        string    `json:"offer_id"`
	NegotiationID  string    `json:"negotiation_id"`
	OfferType      OfferType `json:"offer_type"`
	Price          float64   `json:"price"`
	Message        string    `json:"message,omitempty"`
	RoundNumber    int       `json:"round_number"`
	IsCounterOffer bool      `json:"is_counter_offer"`
	CreatedAt      time.Time `json:"created_at"`
}

// Conversation is a per-user assistant chat session.
type Conversation struct {
	ConversationID string          `json:"conversation_id"`
	UserID         string          `json:"user_id"`
	CreatedAt      time.Time       `json:"created_at"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
}

// ChatMessage is one turn inside a conversation. ToolName/ToolPayload carry
// the structured function-call record when the assistant acted on the user's
// behalf, so a fresh process can reconstruct what happened.
type ChatMessage struct {
	MessageID      string          `json:"message_id"`
	ConversationID string          `json:"conversation_id"`
	Role           string          `json:"role"`
	Content        string          `json:"content"`
	ToolName       string          `json:"tool_name,omitempty"`
	ToolPayload    json.RawMessage `json:"tool_payload,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PlanAction is a single negotiation action inside a pending plan.
type PlanAction struct {
	Action        string  `json:"action"` // accept | decline | counter
	NegotiationID string  `json:"negotiation_id"`
	Price         float64 `json:"price,omitempty"`
	Message       string  `json:"message,omitempty"`
}

// PendingPlan is a proposed batch of negotiation actions awaiting explicit
// user confirmation. Persisted so any replica can resume it.
type PendingPlan struct {
	PlanID         string       `json:"plan_id"`
	ConversationID string       `json:"conversation_id"`
	UserID         string       `json:"user_id"`
	Actions        []PlanAction `json:"actions"`
	Status         PlanStatus   `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	ExpiresAt      time.Time    `json:"expires_at"`
	DecidedAt      *time.Time   `json:"decided_at,omitempty"`
}

// DealEvent is an append-only logistics audit entry for a completed sale.
type DealEvent struct {
	EventID       string     `json:"event_id"`
	NegotiationID string     `json:"negotiation_id"`
	Status        DealStatus `json:"status"`
	Note          string     `json:"note,omitempty"`
	ActorID       string     `json:"actor_id"`
	CreatedAt     time.Time  `json:"created_at"`
}
