package service

import (
	"context"
	"log"
	"time"

	"github.com/reloved/marketplace/internal/domain"
)

// CreatePlan persists a batch of negotiation actions awaiting the user's
// explicit confirmation. Nothing executes until the plan is confirmed.
func (s *Service) CreatePlan(ctx context.Context, conversationID, userID string, actions []domain.PlanAction) (*domain.PendingPlan, error) {
	if len(actions) == 0 {
		return nil, domain.ValidationError("a plan needs at least one action")
	}
	for _, action := range actions {
		if action.NegotiationID == "" {
			return nil, domain.ValidationError("every plan action needs a negotiation_id")
		}
		switch action.Action {
		case "accept", "decline":
		case "counter":
			if action.Price <= 0 {
				return nil, domain.ValidationError("counter actions need a positive price")
			}
		default:
			return nil, domain.ValidationError("unknown plan action %q", action.Action)
		}
	}

	now := time.Now()
	plan := &domain.PendingPlan{
		PlanID:         newPlanID(),
		ConversationID: conversationID,
		UserID:         userID,
		Actions:        actions,
		Status:         domain.PlanStatusPending,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.config.PlanTTL),
	}
	if err := s.store.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}
	log.Printf("Plan %s created for %s with %d action(s)", plan.PlanID, userID, len(actions))
	return plan, nil
}

// DecidePlan confirms or cancels a pending plan. Confirmation executes the
// actions one by one; each action's outcome is reported individually so one
// stale negotiation does not sink the batch. The pending->decided transition
// is guarded in the store, so a plan executes at most once.
func (s *Service) DecidePlan(ctx context.Context, planID, userID, decision string) (*domain.PlanDecisionResponse, error) {
	var target domain.PlanStatus
	switch decision {
	case "confirm":
		target = domain.PlanStatusConfirmed
	case "cancel":
		target = domain.PlanStatusCancelled
	default:
		return nil, domain.ValidationError("decision must be confirm or cancel")
	}

	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.NotFoundError("plan %s not found", planID)
	}
	if plan.UserID != userID {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "not your plan")
	}
	if plan.Status != domain.PlanStatusPending {
		return nil, domain.ValidationError("plan was already decided (%s)", plan.Status)
	}
	if time.Now().After(plan.ExpiresAt) {
		_, _ = s.store.DecidePlanIfPending(ctx, planID, domain.PlanStatusExpired)
		return nil, domain.NewError(domain.ErrCodeExpired, "plan expired, ask again for a fresh one")
	}

	ok, err := s.store.DecidePlanIfPending(ctx, planID, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ValidationError("plan was already decided")
	}

	resp := &domain.PlanDecisionResponse{PlanID: planID, Status: target}
	if target == domain.PlanStatusCancelled {
		return resp, nil
	}

	for _, action := range plan.Actions {
		result := domain.PlanActionResult{Action: action.Action, NegotiationID: action.NegotiationID, OK: true}
		if err := s.executePlanAction(ctx, userID, action); err != nil {
			result.OK = false
			result.Error = err.Error()
		}
		resp.Results = append(resp.Results, result)
	}
	log.Printf("Plan %s confirmed by %s: %d action(s) executed", planID, userID, len(resp.Results))
	return resp, nil
}

func (s *Service) executePlanAction(ctx context.Context, userID string, action domain.PlanAction) error {
	switch action.Action {
	case "accept":
		_, err := s.Accept(ctx, action.NegotiationID, userID)
		return err
	case "decline":
		_, err := s.Decline(ctx, action.NegotiationID, userID, action.Message)
		return err
	case "counter":
		_, _, err := s.Counter(ctx, action.NegotiationID, userID, domain.OfferRequest{
			Price:   action.Price,
			Message: action.Message,
		})
		return err
	}
	return domain.ValidationError("unknown plan action %q", action.Action)
}
