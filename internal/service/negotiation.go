package service

import (
	"context"
	"log"
	"time"

	"github.com/reloved/marketplace/internal/domain"
	"github.com/reloved/marketplace/internal/metrics"
	"github.com/reloved/marketplace/internal/policy"
)

// OpenOffer starts (or continues) a negotiation on an item as the buyer. If
// the buyer already has an active negotiation on the item, the offer is
// appended there instead of opening a second thread.
func (s *Service) OpenOffer(ctx context.Context, itemID, buyerID string, req domain.OfferRequest) (*domain.Negotiation, *domain.Offer, error) {
	item, err := s.cachedItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, domain.NotFoundError("item %s not found", itemID)
	}
	if item.SellerID == buyerID {
		return nil, nil, domain.ValidationError("cannot make an offer on your own item")
	}
	if item.Status != domain.ItemStatusAvailable {
		return nil, nil, domain.ValidationError("item is no longer available")
	}
	if req.Price <= 0 {
		return nil, nil, domain.ValidationError("offer price must be positive")
	}

	existing, err := s.store.GetActiveNegotiation(ctx, itemID, buyerID)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return s.Counter(ctx, existing.NegotiationID, buyerID, req)
	}

	now := time.Now()
	expiresAt := now.Add(s.config.OfferTTL)
	neg := &domain.Negotiation{
		NegotiationID: newNegotiationID(),
		ItemID:        itemID,
		SellerID:      item.SellerID,
		BuyerID:       buyerID,
		Status:        domain.NegotiationStatusActive,
		CurrentOffer:  req.Price,
		RoundNumber:   1,
		MaxRounds:     s.config.MaxRounds,
		CreatedAt:     now,
		UpdatedAt:     now,
		ExpiresAt:     &expiresAt,
	}
	offer := &domain.Offer{
		OfferID:       newRowID(),
		NegotiationID: neg.NegotiationID,
		OfferType:     domain.OfferTypeBuyer,
		Price:         req.Price,
		Message:       req.Message,
		RoundNumber:   1,
		CreatedAt:     now,
	}
	if err := s.store.CreateNegotiation(ctx, neg, offer); err != nil {
		return nil, nil, err
	}

	log.Printf("Negotiation %s opened on item %s by %s at %.2f", neg.NegotiationID, itemID, buyerID, req.Price)
	metrics.OffersCreated.WithLabelValues(string(domain.OfferTypeBuyer)).Inc()
	s.pushToParties(neg, domain.NegotiationEvent{
		Type:          domain.EventOfferCreated,
		NegotiationID: neg.NegotiationID,
		ItemID:        itemID,
		ActorID:       buyerID,
		Price:         req.Price,
		RoundNumber:   1,
		Message:       req.Message,
	})
	return neg, offer, nil
}

// Counter appends the next offer in an active negotiation. Either party may
// counter, strictly alternating; req.Force lets the actor skip the turn check
// and the below-floor confirmation, but never the price ceiling.
func (s *Service) Counter(ctx context.Context, negotiationID, actorID string, req domain.OfferRequest) (*domain.Negotiation, *domain.Offer, error) {
	neg, err := s.requireParty(ctx, negotiationID, actorID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.requireActive(ctx, neg); err != nil {
		return nil, nil, err
	}
	if req.Price <= 0 {
		return nil, nil, domain.ValidationError("offer price must be positive")
	}
	if neg.RoundNumber >= neg.MaxRounds {
		return nil, nil, domain.ValidationError("negotiation reached its round limit of %d", neg.MaxRounds)
	}

	role := domain.OfferTypeBuyer
	if actorID == neg.SellerID {
		role = domain.OfferTypeSeller
	}

	if !req.Force {
		latest, err := s.store.LatestOffer(ctx, negotiationID)
		if err != nil {
			return nil, nil, err
		}
		if latest != nil && latest.OfferType == role {
			return nil, nil, domain.NewError(domain.ErrCodeNotYourTurn, "waiting for the other party to respond")
		}
	}

	item, err := s.cachedItem(ctx, neg.ItemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, domain.NotFoundError("item %s not found", neg.ItemID)
	}
	if err := s.checkOfferPolicy(ctx, req.Price, item.StartingPrice, req.Force); err != nil {
		return nil, nil, err
	}

	now := time.Now()
	offer := &domain.Offer{
		OfferID:        newRowID(),
		NegotiationID:  negotiationID,
		OfferType:      role,
		Price:          req.Price,
		Message:        req.Message,
		RoundNumber:    neg.RoundNumber + 1,
		IsCounterOffer: true,
		CreatedAt:      now,
	}
	expiresAt := now.Add(s.config.OfferTTL)
	ok, err := s.store.AppendOffer(ctx, offer, neg.RoundNumber, expiresAt)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, domain.ValidationError("negotiation changed, reload and retry")
	}

	neg.CurrentOffer = req.Price
	neg.RoundNumber = offer.RoundNumber
	neg.ExpiresAt = &expiresAt
	neg.UpdatedAt = now

	log.Printf("Negotiation %s round %d: %s countered at %.2f", negotiationID, offer.RoundNumber, role, req.Price)
	metrics.OffersCreated.WithLabelValues(string(role)).Inc()
	s.pushToParties(neg, domain.NegotiationEvent{
		Type:          domain.EventCounterOffer,
		NegotiationID: negotiationID,
		ItemID:        neg.ItemID,
		ActorID:       actorID,
		Price:         req.Price,
		RoundNumber:   offer.RoundNumber,
		Message:       req.Message,
	})
	return neg, offer, nil
}

// Accept closes the negotiation at its current offer. Seller only. The store
// transition also marks the item sold and cancels every other active
// negotiation on it.
func (s *Service) Accept(ctx context.Context, negotiationID, sellerID string) (*domain.Negotiation, error) {
	neg, err := s.requireParty(ctx, negotiationID, sellerID)
	if err != nil {
		return nil, err
	}
	if sellerID != neg.SellerID {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "only the seller can accept an offer")
	}
	if err := s.requireActive(ctx, neg); err != nil {
		return nil, err
	}
	if neg.CurrentOffer <= 0 {
		return nil, domain.ValidationError("negotiation has no offer to accept")
	}

	ok, siblings, err := s.store.CompleteNegotiation(ctx, negotiationID, neg.CurrentOffer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ValidationError("negotiation is no longer active")
	}
	s.itemCache.Remove(neg.ItemID)

	log.Printf("Negotiation %s accepted at %.2f, item %s sold (%d siblings cancelled)",
		negotiationID, neg.CurrentOffer, neg.ItemID, len(siblings))
	metrics.NegotiationsResolved.WithLabelValues("completed").Inc()

	// Seed the logistics trail so both parties see the deal immediately.
	_ = s.store.AppendDealEvent(ctx, &domain.DealEvent{
		EventID:       newRowID(),
		NegotiationID: negotiationID,
		Status:        domain.DealStatusArranging,
		Note:          "offer accepted, arrange pickup",
		ActorID:       sellerID,
		CreatedAt:     time.Now(),
	})

	s.pushToParties(neg, domain.NegotiationEvent{
		Type:          domain.EventOfferAccepted,
		NegotiationID: negotiationID,
		ItemID:        neg.ItemID,
		ActorID:       sellerID,
		Price:         neg.CurrentOffer,
		Status:        string(domain.NegotiationStatusCompleted),
	})
	for _, siblingID := range siblings {
		metrics.NegotiationsResolved.WithLabelValues("cancelled").Inc()
		sibling, err := s.store.GetNegotiation(ctx, siblingID)
		if err != nil || sibling == nil {
			continue
		}
		s.pushEvent(sibling.BuyerID, domain.NegotiationEvent{
			Type:          domain.EventItemSold,
			NegotiationID: siblingID,
			ItemID:        neg.ItemID,
			Status:        string(domain.NegotiationStatusCancelled),
			Message:       "the item was sold to another buyer",
		})
	}

	return s.store.GetNegotiation(ctx, negotiationID)
}

// Decline cancels an active negotiation. Either party may decline; a non-empty
// reason is recorded as a final offer-log entry at the standing price.
func (s *Service) Decline(ctx context.Context, negotiationID, actorID, reason string) (*domain.Negotiation, error) {
	neg, err := s.requireParty(ctx, negotiationID, actorID)
	if err != nil {
		return nil, err
	}
	if neg.Status != domain.NegotiationStatusActive {
		return nil, domain.ValidationError("negotiation is not active")
	}

	role := domain.OfferTypeBuyer
	if actorID == neg.SellerID {
		role = domain.OfferTypeSeller
	}
	var decline *domain.Offer
	if reason != "" && neg.CurrentOffer > 0 {
		decline = &domain.Offer{
			OfferID:       newRowID(),
			NegotiationID: negotiationID,
			OfferType:     role,
			Price:         neg.CurrentOffer,
			Message:       reason,
			RoundNumber:   neg.RoundNumber,
			CreatedAt:     time.Now(),
		}
	}

	ok, err := s.store.CancelNegotiation(ctx, negotiationID, decline)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ValidationError("negotiation is no longer active")
	}

	log.Printf("Negotiation %s declined by %s", negotiationID, actorID)
	metrics.NegotiationsResolved.WithLabelValues("declined").Inc()
	s.pushToParties(neg, domain.NegotiationEvent{
		Type:          domain.EventOfferDeclined,
		NegotiationID: negotiationID,
		ItemID:        neg.ItemID,
		ActorID:       actorID,
		Status:        string(domain.NegotiationStatusCancelled),
		Message:       reason,
	})
	return s.store.GetNegotiation(ctx, negotiationID)
}

// GetNegotiationForUser retrieves one negotiation, visible to its parties only.
func (s *Service) GetNegotiationForUser(ctx context.Context, negotiationID, userID string) (*domain.Negotiation, error) {
	return s.requireParty(ctx, negotiationID, userID)
}

// ListOffersForUser retrieves a negotiation's offer history for one party.
func (s *Service) ListOffersForUser(ctx context.Context, negotiationID, userID string) ([]domain.Offer, error) {
	if _, err := s.requireParty(ctx, negotiationID, userID); err != nil {
		return nil, err
	}
	return s.store.ListOffers(ctx, negotiationID)
}

// ListUserNegotiations lists every negotiation the user participates in.
func (s *Service) ListUserNegotiations(ctx context.Context, userID string) ([]domain.Negotiation, error) {
	return s.store.ListNegotiationsByUser(ctx, userID)
}

// ListItemNegotiations lists an item's negotiations. Seller only.
func (s *Service) ListItemNegotiations(ctx context.Context, itemID, callerID string) ([]domain.Negotiation, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.NotFoundError("item %s not found", itemID)
	}
	if item.SellerID != callerID {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "only the seller can view an item's negotiations")
	}
	return s.store.ListNegotiationsByItem(ctx, itemID)
}

// requireParty loads the negotiation and verifies the caller participates.
func (s *Service) requireParty(ctx context.Context, negotiationID, userID string) (*domain.Negotiation, error) {
	neg, err := s.store.GetNegotiation(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if neg == nil {
		return nil, domain.NotFoundError("negotiation %s not found", negotiationID)
	}
	if userID != neg.BuyerID && userID != neg.SellerID {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "not a party to this negotiation")
	}
	return neg, nil
}

// requireActive rejects non-active negotiations and lazily expires stale ones.
func (s *Service) requireActive(ctx context.Context, neg *domain.Negotiation) error {
	if neg.Status != domain.NegotiationStatusActive {
		return domain.ValidationError("negotiation is not active")
	}
	if neg.IsExpired(time.Now()) {
		if ok, err := s.store.CancelNegotiation(ctx, neg.NegotiationID, nil); err == nil && ok {
			metrics.NegotiationsResolved.WithLabelValues("expired").Inc()
			s.pushToParties(neg, domain.NegotiationEvent{
				Type:          domain.EventNegotiationEnded,
				NegotiationID: neg.NegotiationID,
				ItemID:        neg.ItemID,
				Status:        string(domain.NegotiationStatusCancelled),
				Message:       "offer expired",
			})
		}
		return domain.NewError(domain.ErrCodeExpired, "the standing offer expired")
	}
	return nil
}

// checkOfferPolicy runs the price through the rego policy. An unconfigured
// engine allows everything.
func (s *Service) checkOfferPolicy(ctx context.Context, price, startingPrice float64, force bool) error {
	if s.policyEngine == nil {
		return nil
	}
	decision, err := s.policyEngine.Evaluate(ctx, policy.Input{
		Price:         price,
		StartingPrice: startingPrice,
		Ceiling:       s.config.PriceCeilingPct,
		Floor:         s.config.PriceFloorPct,
		Force:         force,
	})
	if err != nil {
		return err
	}
	metrics.PolicyDecisions.WithLabelValues(decision).Inc()
	switch decision {
	case policy.DecisionBlock:
		return domain.NewError(domain.ErrCodePriceBlocked,
			"price exceeds %.0f%% of the asking price", s.config.PriceCeilingPct*100)
	case policy.DecisionRequireConfirmation:
		return domain.NewError(domain.ErrCodeConfirmRequired,
			"price is below %.0f%% of the asking price, resubmit with force to proceed", s.config.PriceFloorPct*100)
	}
	return nil
}
