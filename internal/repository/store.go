// Package repository provides persistence for the marketplace.
package repository

import (
	"context"
	"time"

	"github.com/reloved/marketplace/internal/domain"
)

// ItemFilter narrows ListItems.
type ItemFilter struct {
	FurnitureType domain.FurnitureType
	Status        domain.ItemStatus
	SellerID      string
	Sort          string // newest | price_asc | price_desc
	Limit         int
}

// Store defines the persistence operations used by the service layer.
type Store interface {
	Close() error

	// Users
	UpsertUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// Items
	CreateItem(ctx context.Context, item *domain.Item) error
	GetItem(ctx context.Context, itemID string) (*domain.Item, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]domain.Item, error)
	UpdateItem(ctx context.Context, item *domain.Item) error
	IncrementItemViews(ctx context.Context, itemID string) error

	// Negotiations and offers
	CreateNegotiation(ctx context.Context, neg *domain.Negotiation, first *domain.Offer) error
	GetNegotiation(ctx context.Context, negotiationID string) (*domain.Negotiation, error)
	GetActiveNegotiation(ctx context.Context, itemID, buyerID string) (*domain.Negotiation, error)
	ListNegotiationsByItem(ctx context.Context, itemID string) ([]domain.Negotiation, error)
	ListNegotiationsByUser(ctx context.Context, userID string) ([]domain.Negotiation, error)

	// AppendOffer atomically stores the offer row and advances the
	// negotiation's current_offer/round_number/expires_at. The update is
	// guarded on status=active and the expected prior round; a false return
	// means the negotiation moved underneath the caller.
	AppendOffer(ctx context.Context, offer *domain.Offer, priorRound int, expiresAt time.Time) (bool, error)
	ListOffers(ctx context.Context, negotiationID string) ([]domain.Offer, error)
	LatestOffer(ctx context.Context, negotiationID string) (*domain.Offer, error)

	// CompleteNegotiation performs the accept in a single transaction:
	// negotiation -> completed, item -> sold, sibling active negotiations on
	// the same item -> cancelled. Returns the cancelled sibling IDs. A false
	// return means the negotiation was not active.
	CompleteNegotiation(ctx context.Context, negotiationID string, finalPrice float64) (bool, []string, error)

	// CancelNegotiation moves an active negotiation to cancelled, recording
	// the optional decline offer row in the same transaction. A false return
	// means it was not active.
	CancelNegotiation(ctx context.Context, negotiationID string, decline *domain.Offer) (bool, error)

	// MarkPickedUp moves a completed negotiation to picked_up.
	MarkPickedUp(ctx context.Context, negotiationID string) (bool, error)

	// Conversations
	CreateConversation(ctx context.Context, conv *domain.Conversation) error
	GetConversation(ctx context.Context, conversationID string) (*domain.Conversation, error)
	CreateChatMessage(ctx context.Context, msg *domain.ChatMessage) error
	GetChatMessages(ctx context.Context, conversationID string, limit int) ([]domain.ChatMessage, error)

	// Pending plans
	CreatePlan(ctx context.Context, plan *domain.PendingPlan) error
	GetPlan(ctx context.Context, planID string) (*domain.PendingPlan, error)
	LatestPendingPlan(ctx context.Context, conversationID string) (*domain.PendingPlan, error)
	DecidePlanIfPending(ctx context.Context, planID string, status domain.PlanStatus) (bool, error)

	// Deal events
	AppendDealEvent(ctx context.Context, event *domain.DealEvent) error
	ListDealEvents(ctx context.Context, negotiationID string) ([]domain.DealEvent, error)
}
