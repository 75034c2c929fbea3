package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reloved/marketplace/internal/domain"
)

func TestChatHelpAndUnknown(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	resp, err := svc.Chat(ctx, "user-1", domain.ChatRequest{Message: "help"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ConversationID)
	assert.Contains(t, resp.Reply, "accept_<negotiation_id>")

	resp2, err := svc.Chat(ctx, "user-1", domain.ChatRequest{
		ConversationID: resp.ConversationID, Message: "gibberish blah",
	})
	require.NoError(t, err)
	assert.Equal(t, resp.ConversationID, resp2.ConversationID)
	assert.Contains(t, resp2.Reply, "accept_<negotiation_id>")
}

func TestChatStatusAndOffers(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	item := createTestItem(t, svc, "seller-1", 500)
	neg := openTestOffer(t, svc, item.ItemID, "buyer-1", 300)

	resp, err := svc.Chat(ctx, "seller-1", domain.ChatRequest{Message: "status"})
	require.NoError(t, err)
	assert.Contains(t, resp.Reply, neg.NegotiationID)
	assert.Contains(t, resp.Reply, "selling")

	resp, err = svc.Chat(ctx, "seller-1", domain.ChatRequest{Message: "any offers?"})
	require.NoError(t, err)
	assert.Contains(t, resp.Reply, "$300")
	assert.Contains(t, resp.SuggestedActions, "accept_"+neg.NegotiationID)
}

func TestChatAcceptCommand(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newTestService(t)
	item := createTestItem(t, svc, "seller-1", 500)
	neg := openTestOffer(t, svc, item.ItemID, "buyer-1", 450)

	resp, err := svc.Chat(ctx, "seller-1", domain.ChatRequest{
		Message: fmt.Sprintf("accept_%s", neg.NegotiationID),
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Reply, "$450")

	stored, err := store.GetNegotiation(ctx, neg.NegotiationID)
	require.NoError(t, err)
	assert.Equal(t, domain.NegotiationStatusCompleted, stored.Status)

	// The action and its payload are persisted with the assistant turn.
	messages, err := svc.GetConversationMessages(ctx, resp.ConversationID, "seller-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "accept", messages[1].ToolName)
}

func TestChatCounterBelowFloorExplains(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newTestService(t)
	item := createTestItem(t, svc, "seller-1", 500)
	neg := openTestOffer(t, svc, item.ItemID, "buyer-1", 300)

	resp, err := svc.Chat(ctx, "seller-1", domain.ChatRequest{
		Message: fmt.Sprintf("counter_%s_100", neg.NegotiationID),
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Reply, "unusually low")

	// Nothing changed.
	stored, err := store.GetNegotiation(ctx, neg.NegotiationID)
	require.NoError(t, err)
	assert.Equal(t, 300.0, stored.CurrentOffer)
}

func TestChatErrorsBecomeReplies(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	resp, err := svc.Chat(ctx, "user-1", domain.ChatRequest{Message: "accept_neg_nope"})
	require.NoError(t, err)
	assert.Contains(t, resp.Reply, "couldn't do that")
}

func TestChatConfirmWithoutPlan(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	resp, err := svc.Chat(ctx, "user-1", domain.ChatRequest{Message: "confirm"})
	require.NoError(t, err)
	assert.Contains(t, resp.Reply, "no pending plan")
}

func TestChatConversationOwnership(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	resp, err := svc.Chat(ctx, "user-1", domain.ChatRequest{Message: "help"})
	require.NoError(t, err)

	_, err = svc.Chat(ctx, "user-2", domain.ChatRequest{
		ConversationID: resp.ConversationID, Message: "status",
	})
	requireCode(t, err, domain.ErrCodeUnauthorized)

	_, err = svc.GetConversationMessages(ctx, resp.ConversationID, "user-2")
	requireCode(t, err, domain.ErrCodeUnauthorized)
}
