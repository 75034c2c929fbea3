package domain

// Event types pushed over the WebSocket feed.
const (
	EventOfferCreated     = "offer_created"
	EventCounterOffer     = "counter_offer"
	EventOfferAccepted    = "offer_accepted"
	EventOfferDeclined    = "offer_declined"
	EventNegotiationEnded = "negotiation_cancelled"
	EventDealUpdated      = "deal_updated"
	EventItemSold         = "item_sold"
)

// NegotiationEvent is the payload pushed to both parties of a negotiation.
type NegotiationEvent struct {
	Type          string  `json:"type"`
	Ts            int64   `json:"ts"`
	NegotiationID string  `json:"negotiation_id"`
	ItemID        string  `json:"item_id"`
	ActorID       string  `json:"actor_id,omitempty"`
	Price         float64 `json:"price,omitempty"`
	RoundNumber   int     `json:"round_number,omitempty"`
	Status        string  `json:"status,omitempty"`
	Message       string  `json:"message,omitempty"`
}
