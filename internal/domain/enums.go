// Package domain defines the core domain models for the marketplace.
package domain

// ItemStatus represents the availability of a listing.
type ItemStatus string

const (
	ItemStatusAvailable ItemStatus = "available"
	ItemStatusSold      ItemStatus = "sold"
	ItemStatusWithdrawn ItemStatus = "withdrawn"
)

// FurnitureType categorizes a listing.
type FurnitureType string

const (
	FurnitureTypeCouch       FurnitureType = "couch"
	FurnitureTypeDiningTable FurnitureType = "dining_table"
	FurnitureTypeBookshelf   FurnitureType = "bookshelf"
	FurnitureTypeChair       FurnitureType = "chair"
	FurnitureTypeDresser     FurnitureType = "dresser"
	FurnitureTypeOther       FurnitureType = "other"
)

// NegotiationStatus represents the lifecycle state of a negotiation.
// Transitions: active -> completed | cancelled; completed -> picked_up.
// cancelled and picked_up are terminal.
type NegotiationStatus string

const (
	NegotiationStatusActive    NegotiationStatus = "active"
	NegotiationStatusCompleted NegotiationStatus = "completed"
	NegotiationStatusCancelled NegotiationStatus = "cancelled"
	NegotiationStatusPickedUp  NegotiationStatus = "picked_up"
)

// OfferType identifies which party made an offer.
type OfferType string

const (
	OfferTypeBuyer  OfferType = "buyer"
	OfferTypeSeller OfferType = "seller"
)

// PlanStatus represents the state of a pending action plan.
type PlanStatus string

const (
	PlanStatusPending   PlanStatus = "pending"
	PlanStatusConfirmed PlanStatus = "confirmed"
	PlanStatusCancelled PlanStatus = "cancelled"
	PlanStatusExpired   PlanStatus = "expired"
)

// DealStatus represents a post-acceptance logistics state.
type DealStatus string

const (
	DealStatusArranging        DealStatus = "arranging"
	DealStatusMeetingScheduled DealStatus = "meeting_scheduled"
	DealStatusCompleted        DealStatus = "completed"
)

// IsTerminal reports whether no further negotiation action may succeed.
func (s NegotiationStatus) IsTerminal() bool {
	return s == NegotiationStatusCancelled || s == NegotiationStatusPickedUp
}
