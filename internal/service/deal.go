package service

import (
	"context"
	"log"
	"time"

	"github.com/reloved/marketplace/internal/domain"
)

// MarkPickedUp closes out a completed sale once the buyer collected the item.
// Either party may report it.
func (s *Service) MarkPickedUp(ctx context.Context, negotiationID, actorID string) (*domain.Negotiation, error) {
	neg, err := s.requireParty(ctx, negotiationID, actorID)
	if err != nil {
		return nil, err
	}
	ok, err := s.store.MarkPickedUp(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ValidationError("negotiation is not awaiting pickup")
	}

	log.Printf("Negotiation %s picked up (reported by %s)", negotiationID, actorID)
	_ = s.store.AppendDealEvent(ctx, &domain.DealEvent{
		EventID:       newRowID(),
		NegotiationID: negotiationID,
		Status:        domain.DealStatusCompleted,
		Note:          "item picked up",
		ActorID:       actorID,
		CreatedAt:     time.Now(),
	})
	s.pushToParties(neg, domain.NegotiationEvent{
		Type:          domain.EventDealUpdated,
		NegotiationID: negotiationID,
		ItemID:        neg.ItemID,
		ActorID:       actorID,
		Status:        string(domain.NegotiationStatusPickedUp),
	})
	return s.store.GetNegotiation(ctx, negotiationID)
}

// RecordDealStatus appends a logistics status entry on a completed sale.
// Recording "completed" also moves the negotiation to picked_up.
func (s *Service) RecordDealStatus(ctx context.Context, negotiationID, actorID string, req domain.DealStatusRequest) (*domain.DealEvent, error) {
	switch req.Status {
	case domain.DealStatusArranging, domain.DealStatusMeetingScheduled, domain.DealStatusCompleted:
	default:
		return nil, domain.ValidationError("unknown deal status %q", req.Status)
	}

	neg, err := s.requireParty(ctx, negotiationID, actorID)
	if err != nil {
		return nil, err
	}
	if neg.Status != domain.NegotiationStatusCompleted && neg.Status != domain.NegotiationStatusPickedUp {
		return nil, domain.ValidationError("negotiation has no deal to update")
	}

	if req.Status == domain.DealStatusCompleted && neg.Status == domain.NegotiationStatusCompleted {
		if _, err := s.store.MarkPickedUp(ctx, negotiationID); err != nil {
			return nil, err
		}
	}

	event := &domain.DealEvent{
		EventID:       newRowID(),
		NegotiationID: negotiationID,
		Status:        req.Status,
		Note:          req.Note,
		ActorID:       actorID,
		CreatedAt:     time.Now(),
	}
	if err := s.store.AppendDealEvent(ctx, event); err != nil {
		return nil, err
	}

	s.pushToParties(neg, domain.NegotiationEvent{
		Type:          domain.EventDealUpdated,
		NegotiationID: negotiationID,
		ItemID:        neg.ItemID,
		ActorID:       actorID,
		Status:        string(req.Status),
		Message:       req.Note,
	})
	return event, nil
}

// ListDealEvents returns the logistics trail of a negotiation, oldest first.
func (s *Service) ListDealEvents(ctx context.Context, negotiationID, userID string) ([]domain.DealEvent, error) {
	if _, err := s.requireParty(ctx, negotiationID, userID); err != nil {
		return nil, err
	}
	return s.store.ListDealEvents(ctx, negotiationID)
}
