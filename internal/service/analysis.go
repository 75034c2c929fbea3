package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/reloved/marketplace/internal/domain"
)

// AnalyzeOffers groups the active offers on an item into priority, fair, and
// lowball buckets with deterministic thresholds. Seller only.
func (s *Service) AnalyzeOffers(ctx context.Context, itemID, sellerID string) (*domain.OfferAnalysis, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.NotFoundError("item %s not found", itemID)
	}
	if item.SellerID != sellerID {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "only the seller can analyze offers")
	}

	negs, err := s.store.ListNegotiationsByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	analysis := &domain.OfferAnalysis{
		PriorityOffers:  []domain.OfferBucket{},
		FairOffers:      []domain.OfferBucket{},
		LowballOffers:   []domain.OfferBucket{},
		Recommendations: []string{},
		MarketInsights:  map[string]string{},
	}

	totalPct := 0
	for _, neg := range negs {
		if neg.Status != domain.NegotiationStatusActive || neg.CurrentOffer <= 0 {
			continue
		}
		pct := 0
		if item.StartingPrice > 0 {
			pct = int(neg.CurrentOffer / item.StartingPrice * 100)
		}
		bucket := domain.OfferBucket{
			NegotiationID:      neg.NegotiationID,
			BuyerID:            neg.BuyerID,
			CurrentOffer:       neg.CurrentOffer,
			PercentageOfAsking: pct,
			RoundNumber:        neg.RoundNumber,
		}
		switch {
		case pct >= 90:
			bucket.Reason = "close to asking price"
			analysis.PriorityOffers = append(analysis.PriorityOffers, bucket)
		case pct >= 70:
			bucket.Reason = "reasonable starting point for a counter"
			analysis.FairOffers = append(analysis.FairOffers, bucket)
		default:
			bucket.Reason = "well below asking price"
			analysis.LowballOffers = append(analysis.LowballOffers, bucket)
		}
		totalPct += pct
		analysis.TotalAnalyzed++
	}

	for _, offers := range [][]domain.OfferBucket{analysis.PriorityOffers, analysis.FairOffers, analysis.LowballOffers} {
		sort.Slice(offers, func(i, j int) bool { return offers[i].CurrentOffer > offers[j].CurrentOffer })
	}

	switch {
	case len(analysis.PriorityOffers) > 0:
		best := analysis.PriorityOffers[0]
		analysis.Recommendations = append(analysis.Recommendations,
			fmt.Sprintf("Accept the $%.0f offer (%d%% of asking) before the buyer moves on.", best.CurrentOffer, best.PercentageOfAsking))
	case len(analysis.FairOffers) > 0:
		analysis.Recommendations = append(analysis.Recommendations,
			"Counter the fair offers closer to your asking price.")
	case len(analysis.LowballOffers) > 0:
		analysis.Recommendations = append(analysis.Recommendations,
			"Counter at your minimum acceptable price or decline the lowball offers.")
	default:
		analysis.Recommendations = append(analysis.Recommendations,
			"No active offers yet. Consider lowering the price if views stay high without offers.")
	}
	if len(analysis.LowballOffers) > 0 && len(analysis.PriorityOffers) > 0 {
		analysis.Recommendations = append(analysis.Recommendations,
			"Decline the lowball offers once a strong offer is on the table.")
	}

	analysis.MarketInsights["active_negotiations"] = fmt.Sprintf("%d", analysis.TotalAnalyzed)
	analysis.MarketInsights["views"] = fmt.Sprintf("%d", item.ViewsCount)
	if analysis.TotalAnalyzed > 0 {
		analysis.MarketInsights["average_offer_pct"] = fmt.Sprintf("%d%%", totalPct/analysis.TotalAnalyzed)
	}
	return analysis, nil
}
