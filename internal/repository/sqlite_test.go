package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reloved/marketplace/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedItem(t *testing.T, ctx context.Context, store *SQLiteStore, itemID, sellerID string, price float64) *domain.Item {
	t.Helper()
	now := time.Now()
	item := &domain.Item{
		ItemID:        itemID,
		SellerID:      sellerID,
		Name:          "test couch",
		FurnitureType: domain.FurnitureTypeCouch,
		StartingPrice: price,
		Status:        domain.ItemStatusAvailable,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, store.CreateItem(ctx, item))
	return item
}

func seedNegotiation(t *testing.T, ctx context.Context, store *SQLiteStore, negID, itemID, sellerID, buyerID string, offer float64) *domain.Negotiation {
	t.Helper()
	now := time.Now()
	expires := now.Add(72 * time.Hour)
	neg := &domain.Negotiation{
		NegotiationID: negID,
		ItemID:        itemID,
		SellerID:      sellerID,
		BuyerID:       buyerID,
		Status:        domain.NegotiationStatusActive,
		CurrentOffer:  offer,
		RoundNumber:   1,
		MaxRounds:     10,
		CreatedAt:     now,
		UpdatedAt:     now,
		ExpiresAt:     &expires,
	}
	first := &domain.Offer{
		OfferID:       negID + "-o1",
		NegotiationID: negID,
		OfferType:     domain.OfferTypeBuyer,
		Price:         offer,
		RoundNumber:   1,
		CreatedAt:     now,
	}
	require.NoError(t, store.CreateNegotiation(ctx, neg, first))
	return neg
}

func TestItemCRUD(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	seedItem(t, ctx, store, "item-1", "seller-1", 500)

	item, err := store.GetItem(ctx, "item-1")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "seller-1", item.SellerID)
	assert.Equal(t, 500.0, item.StartingPrice)
	assert.Equal(t, domain.ItemStatusAvailable, item.Status)

	require.NoError(t, store.IncrementItemViews(ctx, "item-1"))
	require.NoError(t, store.IncrementItemViews(ctx, "item-1"))
	item, err = store.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, 2, item.ViewsCount)

	item.Name = "renamed couch"
	item.Status = domain.ItemStatusWithdrawn
	require.NoError(t, store.UpdateItem(ctx, item))
	item, err = store.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "renamed couch", item.Name)
	assert.Equal(t, domain.ItemStatusWithdrawn, item.Status)

	missing, err := store.GetItem(ctx, "item-nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListItemsFilters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	seedItem(t, ctx, store, "item-1", "seller-1", 500)
	seedItem(t, ctx, store, "item-2", "seller-1", 100)
	seedItem(t, ctx, store, "item-3", "seller-2", 300)
	require.NoError(t, store.CreateItem(ctx, &domain.Item{
		ItemID: "item-4", SellerID: "seller-2", Name: "chair",
		FurnitureType: domain.FurnitureTypeChair, StartingPrice: 80,
		Status: domain.ItemStatusAvailable, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}))

	items, err := store.ListItems(ctx, ItemFilter{SellerID: "seller-1"})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = store.ListItems(ctx, ItemFilter{FurnitureType: domain.FurnitureTypeChair})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, "item-4", items[0].ItemID)

	items, err = store.ListItems(ctx, ItemFilter{Sort: "price_asc"})
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, 80.0, items[0].StartingPrice)

	items, err = store.ListItems(ctx, ItemFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestAppendOfferRoundGuard(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	seedItem(t, ctx, store, "item-1", "seller-1", 500)
	seedNegotiation(t, ctx, store, "neg-1", "item-1", "seller-1", "buyer-1", 300)

	counter := &domain.Offer{
		OfferID: "o2", NegotiationID: "neg-1", OfferType: domain.OfferTypeSeller,
		Price: 450, RoundNumber: 2, IsCounterOffer: true, CreatedAt: time.Now(),
	}
	ok, err := store.AppendOffer(ctx, counter, 1, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	neg, err := store.GetNegotiation(ctx, "neg-1")
	require.NoError(t, err)
	assert.Equal(t, 450.0, neg.CurrentOffer)
	assert.Equal(t, 2, neg.RoundNumber)

	// A writer holding the stale round loses.
	stale := &domain.Offer{
		OfferID: "o3", NegotiationID: "neg-1", OfferType: domain.OfferTypeBuyer,
		Price: 350, RoundNumber: 2, IsCounterOffer: true, CreatedAt: time.Now(),
	}
	ok, err = store.AppendOffer(ctx, stale, 1, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	// The losing offer row must not have been stored.
	offers, err := store.ListOffers(ctx, "neg-1")
	require.NoError(t, err)
	assert.Len(t, offers, 2)

	latest, err := store.LatestOffer(ctx, "neg-1")
	require.NoError(t, err)
	assert.Equal(t, "o2", latest.OfferID)
}

func TestCompleteNegotiationCancelsSiblings(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	seedItem(t, ctx, store, "item-1", "seller-1", 500)
	seedNegotiation(t, ctx, store, "neg-1", "item-1", "seller-1", "buyer-1", 450)
	seedNegotiation(t, ctx, store, "neg-2", "item-1", "seller-1", "buyer-2", 400)
	seedNegotiation(t, ctx, store, "neg-3", "item-1", "seller-1", "buyer-3", 350)

	ok, siblings, err := store.CompleteNegotiation(ctx, "neg-1", 450)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.ElementsMatch(t, []string{"neg-2", "neg-3"}, siblings)

	winner, err := store.GetNegotiation(ctx, "neg-1")
	require.NoError(t, err)
	assert.Equal(t, domain.NegotiationStatusCompleted, winner.Status)
	assert.Equal(t, 450.0, winner.FinalPrice)
	require.NotNil(t, winner.CompletedAt)

	loser, err := store.GetNegotiation(ctx, "neg-2")
	require.NoError(t, err)
	assert.Equal(t, domain.NegotiationStatusCancelled, loser.Status)

	item, err := store.GetItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ItemStatusSold, item.Status)
	require.NotNil(t, item.SoldAt)

	// The second accept hits a no-longer-active row.
	ok, _, err = store.CompleteNegotiation(ctx, "neg-2", 400)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCancelNegotiationIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	seedItem(t, ctx, store, "item-1", "seller-1", 500)
	seedNegotiation(t, ctx, store, "neg-1", "item-1", "seller-1", "buyer-1", 300)

	decline := &domain.Offer{
		OfferID: "od", NegotiationID: "neg-1", OfferType: domain.OfferTypeSeller,
		Price: 300, Message: "not interested", RoundNumber: 1, CreatedAt: time.Now(),
	}
	ok, err := store.CancelNegotiation(ctx, "neg-1", decline)
	require.NoError(t, err)
	assert.True(t, ok)

	offers, err := store.ListOffers(ctx, "neg-1")
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, "not interested", offers[1].Message)

	// Second decline neither flips state nor appends another row.
	ok, err = store.CancelNegotiation(ctx, "neg-1", decline)
	require.NoError(t, err)
	assert.False(t, ok)
	offers, err = store.ListOffers(ctx, "neg-1")
	require.NoError(t, err)
	assert.Len(t, offers, 2)
}

func TestMarkPickedUpRequiresCompleted(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	seedItem(t, ctx, store, "item-1", "seller-1", 500)
	seedNegotiation(t, ctx, store, "neg-1", "item-1", "seller-1", "buyer-1", 300)

	ok, err := store.MarkPickedUp(ctx, "neg-1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = store.CompleteNegotiation(ctx, "neg-1", 300)
	require.NoError(t, err)

	ok, err = store.MarkPickedUp(ctx, "neg-1")
	require.NoError(t, err)
	assert.True(t, ok)

	neg, err := store.GetNegotiation(ctx, "neg-1")
	require.NoError(t, err)
	assert.Equal(t, domain.NegotiationStatusPickedUp, neg.Status)
}

func TestActiveNegotiationUniquePerBuyer(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	seedItem(t, ctx, store, "item-1", "seller-1", 500)
	seedNegotiation(t, ctx, store, "neg-1", "item-1", "seller-1", "buyer-1", 300)

	dup := &domain.Negotiation{
		NegotiationID: "neg-dup", ItemID: "item-1", SellerID: "seller-1", BuyerID: "buyer-1",
		Status: domain.NegotiationStatusActive, CurrentOffer: 310, RoundNumber: 1, MaxRounds: 10,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	err := store.CreateNegotiation(ctx, dup, nil)
	assert.Error(t, err)

	found, err := store.GetActiveNegotiation(ctx, "item-1", "buyer-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "neg-1", found.NegotiationID)
}

func TestPendingPlanLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.CreateConversation(ctx, &domain.Conversation{
		ConversationID: "conv-1", UserID: "user-1", CreatedAt: time.Now(),
	}))

	plan := &domain.PendingPlan{
		PlanID:         "plan-1",
		ConversationID: "conv-1",
		UserID:         "user-1",
		Actions: []domain.PlanAction{
			{Action: "accept", NegotiationID: "neg-1"},
			{Action: "decline", NegotiationID: "neg-2", Message: "sold elsewhere"},
		},
		Status:    domain.PlanStatusPending,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	require.NoError(t, store.CreatePlan(ctx, plan))

	got, err := store.GetPlan(ctx, "plan-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Actions, 2)
	assert.Equal(t, "accept", got.Actions[0].Action)

	latest, err := store.LatestPendingPlan(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "plan-1", latest.PlanID)

	ok, err := store.DecidePlanIfPending(ctx, "plan-1", domain.PlanStatusConfirmed)
	require.NoError(t, err)
	assert.True(t, ok)

	// Already decided: guard refuses, and it no longer counts as pending.
	ok, err = store.DecidePlanIfPending(ctx, "plan-1", domain.PlanStatusCancelled)
	require.NoError(t, err)
	assert.False(t, ok)

	latest, err = store.LatestPendingPlan(ctx, "conv-1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	got, err = store.GetPlan(ctx, "plan-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PlanStatusConfirmed, got.Status)
	assert.NotNil(t, got.DecidedAt)
}

func TestChatMessagesRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.CreateConversation(ctx, &domain.Conversation{
		ConversationID: "conv-1", UserID: "user-1", CreatedAt: time.Now(),
	}))
	require.NoError(t, store.CreateChatMessage(ctx, &domain.ChatMessage{
		MessageID: "m1", ConversationID: "conv-1", Role: "user", Content: "status",
		CreatedAt: time.Now(),
	}))
	require.NoError(t, store.CreateChatMessage(ctx, &domain.ChatMessage{
		MessageID: "m2", ConversationID: "conv-1", Role: "assistant", Content: "you have 1 negotiation",
		ToolName: "status", ToolPayload: []byte(`{"count":1}`),
		CreatedAt: time.Now().Add(time.Millisecond),
	}))

	messages, err := store.GetChatMessages(ctx, "conv-1", 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "status", messages[1].ToolName)
	assert.JSONEq(t, `{"count":1}`, string(messages[1].ToolPayload))
}

func TestDealEvents(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	seedItem(t, ctx, store, "item-1", "seller-1", 500)
	seedNegotiation(t, ctx, store, "neg-1", "item-1", "seller-1", "buyer-1", 300)

	require.NoError(t, store.AppendDealEvent(ctx, &domain.DealEvent{
		EventID: "e1", NegotiationID: "neg-1", Status: domain.DealStatusArranging,
		ActorID: "seller-1", CreatedAt: time.Now(),
	}))
	require.NoError(t, store.AppendDealEvent(ctx, &domain.DealEvent{
		EventID: "e2", NegotiationID: "neg-1", Status: domain.DealStatusMeetingScheduled,
		Note: "saturday 10am", ActorID: "buyer-1", CreatedAt: time.Now().Add(time.Millisecond),
	}))

	events, err := store.ListDealEvents(ctx, "neg-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.DealStatusArranging, events[0].Status)
	assert.Equal(t, "saturday 10am", events[1].Note)
}

func TestUpsertUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.UpsertUser(ctx, &domain.User{
		UserID: "u1", Username: "ana", CreatedAt: time.Now(),
	}))
	require.NoError(t, store.UpsertUser(ctx, &domain.User{
		UserID: "u1", Username: "ana", DisplayName: "Ana B", CreatedAt: time.Now(),
	}))

	user, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Ana B", user.DisplayName)
}
