package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reloved/marketplace/internal/domain"
)

const helpText = "I can manage your negotiations. Try: status, offers, " +
	"accept_<negotiation_id>, decline_<negotiation_id>, or counter_<negotiation_id>_<price>."

// intentHandlers is the dispatch table for the rule-based assistant. Each
// handler returns the reply text, suggested follow-up commands, and an
// optional pending plan ID.
var intentHandlers = map[IntentKind]func(*Service, context.Context, string, *domain.Conversation, Intent) (string, []string, string){
	IntentAccept:  (*Service).chatAccept,
	IntentDecline: (*Service).chatDecline,
	IntentCounter: (*Service).chatCounter,
	IntentConfirm: (*Service).chatConfirm,
	IntentCancel:  (*Service).chatCancelPlan,
	IntentStatus:  (*Service).chatStatus,
	IntentOffers:  (*Service).chatOffers,
	IntentHelp:    (*Service).chatHelp,
	IntentUnknown: (*Service).chatHelp,
}

// Chat handles one rule-based assistant turn: parse the intent, run the
// matching handler against the negotiation service, persist both sides of the
// exchange.
func (s *Service) Chat(ctx context.Context, userID string, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, domain.ValidationError("message is required")
	}
	conv, err := s.ensureConversation(ctx, userID, req.ConversationID)
	if err != nil {
		return nil, err
	}
	if err := s.recordChatMessage(ctx, conv.ConversationID, "user", req.Message, "", nil); err != nil {
		return nil, err
	}

	intent := ParseIntent(req.Message)
	handler := intentHandlers[intent.Kind]
	if handler == nil {
		handler = (*Service).chatHelp
	}
	reply, suggestions, planID := handler(s, ctx, userID, conv, intent)

	toolName := ""
	var toolPayload json.RawMessage
	switch intent.Kind {
	case IntentAccept, IntentDecline, IntentCounter, IntentConfirm, IntentCancel:
		toolName = string(intent.Kind)
		toolPayload, _ = json.Marshal(map[string]interface{}{
			"negotiation_id": intent.NegotiationID,
			"price":          intent.Price,
		})
	}
	if err := s.recordChatMessage(ctx, conv.ConversationID, "assistant", reply, toolName, toolPayload); err != nil {
		return nil, err
	}

	return &domain.ChatResponse{
		ConversationID:   conv.ConversationID,
		Reply:            reply,
		SuggestedActions: suggestions,
		PlanID:           planID,
	}, nil
}

// GetConversationMessages returns a conversation's history, oldest first.
// Owner only.
func (s *Service) GetConversationMessages(ctx context.Context, conversationID, userID string) ([]domain.ChatMessage, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, domain.NotFoundError("conversation %s not found", conversationID)
	}
	if conv.UserID != userID {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "not your conversation")
	}
	return s.store.GetChatMessages(ctx, conversationID, 0)
}

func (s *Service) ensureConversation(ctx context.Context, userID, conversationID string) (*domain.Conversation, error) {
	if conversationID != "" {
		conv, err := s.store.GetConversation(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		if conv == nil {
			return nil, domain.NotFoundError("conversation %s not found", conversationID)
		}
		if conv.UserID != userID {
			return nil, domain.NewError(domain.ErrCodeUnauthorized, "not your conversation")
		}
		return conv, nil
	}
	conv := &domain.Conversation{
		ConversationID: newConversationID(),
		UserID:         userID,
		CreatedAt:      time.Now(),
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *Service) recordChatMessage(ctx context.Context, conversationID, role, content, toolName string, toolPayload json.RawMessage) error {
	return s.store.CreateChatMessage(ctx, &domain.ChatMessage{
		MessageID:      newMessageID(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		ToolName:       toolName,
		ToolPayload:    toolPayload,
		CreatedAt:      time.Now(),
	})
}

func (s *Service) chatAccept(ctx context.Context, userID string, conv *domain.Conversation, intent Intent) (string, []string, string) {
	neg, err := s.Accept(ctx, intent.NegotiationID, userID)
	if err != nil {
		return friendlyError(err), []string{"offers"}, ""
	}
	return fmt.Sprintf("Done. Accepted the $%.0f offer on %s; the item is marked sold and other buyers were notified.",
		neg.FinalPrice, intent.NegotiationID), []string{"status"}, ""
}

func (s *Service) chatDecline(ctx context.Context, userID string, conv *domain.Conversation, intent Intent) (string, []string, string) {
	_, err := s.Decline(ctx, intent.NegotiationID, userID, "declined via assistant")
	if err != nil {
		return friendlyError(err), []string{"offers"}, ""
	}
	return fmt.Sprintf("Declined %s. The other party was notified.", intent.NegotiationID), []string{"status"}, ""
}

func (s *Service) chatCounter(ctx context.Context, userID string, conv *domain.Conversation, intent Intent) (string, []string, string) {
	neg, _, err := s.Counter(ctx, intent.NegotiationID, userID, domain.OfferRequest{Price: intent.Price})
	if err != nil {
		var derr *domain.Error
		if errors.As(err, &derr) && derr.Code == domain.ErrCodeConfirmRequired {
			return fmt.Sprintf("That counter is unusually low: %s Use the negotiation page to force it if you mean it.", derr.Message),
				[]string{"offers"}, ""
		}
		return friendlyError(err), []string{"offers"}, ""
	}
	return fmt.Sprintf("Countered at $%.0f on %s (round %d of %d). Waiting for the other party.",
		intent.Price, neg.NegotiationID, neg.RoundNumber, neg.MaxRounds), []string{"status"}, ""
}

func (s *Service) chatConfirm(ctx context.Context, userID string, conv *domain.Conversation, intent Intent) (string, []string, string) {
	return s.decideLatestPlan(ctx, userID, conv, "confirm")
}

func (s *Service) chatCancelPlan(ctx context.Context, userID string, conv *domain.Conversation, intent Intent) (string, []string, string) {
	return s.decideLatestPlan(ctx, userID, conv, "cancel")
}

func (s *Service) decideLatestPlan(ctx context.Context, userID string, conv *domain.Conversation, decision string) (string, []string, string) {
	plan, err := s.store.LatestPendingPlan(ctx, conv.ConversationID)
	if err != nil {
		return friendlyError(err), nil, ""
	}
	if plan == nil {
		return "There is no pending plan to decide.", []string{"offers", "status"}, ""
	}
	result, err := s.DecidePlan(ctx, plan.PlanID, userID, decision)
	if err != nil {
		return friendlyError(err), nil, plan.PlanID
	}
	if result.Status == domain.PlanStatusCancelled {
		return "Plan cancelled, nothing was changed.", []string{"offers"}, plan.PlanID
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Executed %d planned action(s):", len(result.Results))
	for _, r := range result.Results {
		if r.OK {
			fmt.Fprintf(&b, "\n- %s on %s: done", r.Action, r.NegotiationID)
		} else {
			fmt.Fprintf(&b, "\n- %s on %s: failed (%s)", r.Action, r.NegotiationID, r.Error)
		}
	}
	return b.String(), []string{"status"}, plan.PlanID
}

func (s *Service) chatStatus(ctx context.Context, userID string, conv *domain.Conversation, intent Intent) (string, []string, string) {
	negs, err := s.ListUserNegotiations(ctx, userID)
	if err != nil {
		return friendlyError(err), nil, ""
	}
	if len(negs) == 0 {
		return "You have no negotiations yet.", []string{"help"}, ""
	}
	var b strings.Builder
	b.WriteString("Your negotiations:")
	shown := 0
	for _, neg := range negs {
		if shown == 10 {
			fmt.Fprintf(&b, "\n...and %d more", len(negs)-shown)
			break
		}
		role := "buying"
		if neg.SellerID == userID {
			role = "selling"
		}
		fmt.Fprintf(&b, "\n- %s (%s, item %s): %s, current offer $%.0f, round %d/%d",
			neg.NegotiationID, role, neg.ItemID, neg.Status, neg.CurrentOffer, neg.RoundNumber, neg.MaxRounds)
		shown++
	}
	return b.String(), []string{"offers"}, ""
}

func (s *Service) chatOffers(ctx context.Context, userID string, conv *domain.Conversation, intent Intent) (string, []string, string) {
	negs, err := s.ListUserNegotiations(ctx, userID)
	if err != nil {
		return friendlyError(err), nil, ""
	}
	var b strings.Builder
	var suggestions []string
	count := 0
	for _, neg := range negs {
		if neg.SellerID != userID || neg.Status != domain.NegotiationStatusActive || neg.CurrentOffer <= 0 {
			continue
		}
		count++
		fmt.Fprintf(&b, "\n- %s: $%.0f from %s (round %d)",
			neg.NegotiationID, neg.CurrentOffer, neg.BuyerID, neg.RoundNumber)
		if len(suggestions) < 4 {
			suggestions = append(suggestions,
				fmt.Sprintf("accept_%s", neg.NegotiationID),
				fmt.Sprintf("decline_%s", neg.NegotiationID))
		}
	}
	if count == 0 {
		return "No incoming offers on your listings right now.", []string{"status"}, ""
	}
	return fmt.Sprintf("You have %d open offer(s):%s", count, b.String()), suggestions, ""
}

func (s *Service) chatHelp(ctx context.Context, userID string, conv *domain.Conversation, intent Intent) (string, []string, string) {
	return helpText, []string{"status", "offers"}, ""
}

// friendlyError turns a service error into chat prose. Coded errors keep
// their message; anything else is hidden behind a generic line.
func friendlyError(err error) string {
	var derr *domain.Error
	if errors.As(err, &derr) {
		return "I couldn't do that: " + derr.Message + "."
	}
	return "Something went wrong on my side, please try again."
}
