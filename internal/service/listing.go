package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/reloved/marketplace/internal/domain"
	"github.com/reloved/marketplace/internal/metrics"
	"github.com/reloved/marketplace/internal/repository"
)

// AnalyzeListing runs one photo through storage and the vision model and
// returns a prefilled listing draft the seller can edit before posting.
func (s *Service) AnalyzeListing(ctx context.Context, sellerID, filename string, data []byte, contentType string) (*domain.ListingDraft, error) {
	if s.analyzer == nil {
		return nil, domain.NewError(domain.ErrCodeInternal, "listing analysis is not configured")
	}
	if len(data) == 0 {
		return nil, domain.ValidationError("image data is empty")
	}

	format := strings.TrimPrefix(contentType, "image/")
	if format == contentType || format == "" {
		format = "jpeg"
	}

	imageURL := ""
	if s.uploader != nil {
		name := fmt.Sprintf("%s.%s", ulid.Make().String(), format)
		url, err := s.uploader.UploadImage(ctx, name, data, contentType)
		if err != nil {
			// The draft is still useful without a hosted photo.
			log.Printf("WARN: image upload failed for %s: %v", sellerID, err)
		} else {
			imageURL = url
		}
	}

	analysis, err := s.analyzer.AnalyzeImage(ctx, data, format)
	if err != nil {
		metrics.LLMCalls.WithLabelValues("vision", "error").Inc()
		return nil, fmt.Errorf("listing analysis failed: %w", err)
	}
	metrics.LLMCalls.WithLabelValues("vision", "ok").Inc()
	metrics.ListingsAnalyzed.Inc()

	pricing := SuggestPricing(analysis)
	draft := &domain.ListingDraft{
		Listing:  draftListing(analysis, pricing, imageURL),
		Pricing:  pricing,
		Analysis: *analysis,
		ImageURL: imageURL,
	}
	log.Printf("Listing analyzed for %s: %s (condition %d/10, suggested %d)",
		sellerID, analysis.FurnitureType, analysis.ConditionScore, pricing.SuggestedStartingPrice)
	return draft, nil
}

var priceNumber = regexp.MustCompile(`\d+`)

// SuggestPricing derives sale price points from the vision analysis. The
// market-value range drives the numbers; condition score is the fallback when
// the model gave no usable range.
func SuggestPricing(analysis *domain.ImageAnalysis) domain.PricingSuggestion {
	low, high, ok := parsePriceRange(analysis.CurrentMarketValue)
	if !ok {
		base := 150.0
		switch {
		case analysis.ConditionScore >= 8:
			base = 400
		case analysis.ConditionScore >= 6:
			base = 250
		}
		low, high = base*0.7, base*1.3
	}
	avg := (low + high) / 2

	return domain.PricingSuggestion{
		QuickSalePrice:         int(low * 0.9),
		MarketPrice:            int(avg),
		PremiumPrice:           int(high),
		SuggestedStartingPrice: int(avg * 1.1),
		Explanation: fmt.Sprintf(
			"Based on an estimated market value of $%d-%d for a %s in condition %d/10. "+
				"Start near the suggested price and expect offers around the market price.",
			int(low), int(high), analysis.FurnitureType, analysis.ConditionScore),
	}
}

// parsePriceRange pulls the first one or two numbers out of a free-text value
// like "$300-500".
func parsePriceRange(value string) (float64, float64, bool) {
	matches := priceNumber.FindAllString(value, 2)
	if len(matches) == 0 {
		return 0, 0, false
	}
	low, err := strconv.ParseFloat(matches[0], 64)
	if err != nil || low <= 0 {
		return 0, 0, false
	}
	high := low
	if len(matches) > 1 {
		if v, err := strconv.ParseFloat(matches[1], 64); err == nil && v >= low {
			high = v
		}
	}
	return low, high, true
}

func draftListing(analysis *domain.ImageAnalysis, pricing domain.PricingSuggestion, imageURL string) domain.CreateItemRequest {
	name := analysis.SuggestedTitle
	if name == "" {
		name = strings.TrimSpace(analysis.FurnitureType + " for sale")
	}
	brand := analysis.Brand
	if strings.EqualFold(brand, "unknown") {
		brand = ""
	}
	return domain.CreateItemRequest{
		Name:          name,
		Description:   analysis.SuggestedDescription,
		FurnitureType: categoryToType(analysis.Category),
		Condition:     conditionLabel(analysis.ConditionScore),
		StartingPrice: float64(pricing.SuggestedStartingPrice),
		MinPrice:      float64(pricing.QuickSalePrice),
		ImageURL:      imageURL,
		Dimensions:    analysis.EstimatedDimensions,
		Material:      analysis.Material,
		Brand:         brand,
		Color:         analysis.Color,
	}
}

func categoryToType(category string) domain.FurnitureType {
	switch domain.FurnitureType(strings.ToLower(strings.TrimSpace(category))) {
	case domain.FurnitureTypeCouch:
		return domain.FurnitureTypeCouch
	case domain.FurnitureTypeDiningTable:
		return domain.FurnitureTypeDiningTable
	case domain.FurnitureTypeBookshelf:
		return domain.FurnitureTypeBookshelf
	case domain.FurnitureTypeChair:
		return domain.FurnitureTypeChair
	case domain.FurnitureTypeDresser:
		return domain.FurnitureTypeDresser
	default:
		return domain.FurnitureTypeOther
	}
}

func conditionLabel(score int) string {
	switch {
	case score >= 9:
		return "like new"
	case score >= 7:
		return "good"
	case score >= 5:
		return "fair"
	default:
		return "worn"
	}
}

// CreateItem posts a listing.
func (s *Service) CreateItem(ctx context.Context, sellerID string, req domain.CreateItemRequest) (*domain.Item, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, domain.ValidationError("item name is required")
	}
	if req.StartingPrice <= 0 {
		return nil, domain.ValidationError("starting price must be positive")
	}
	if req.MinPrice < 0 || req.MinPrice > req.StartingPrice {
		return nil, domain.ValidationError("min price must be between 0 and the starting price")
	}
	furnitureType := req.FurnitureType
	if furnitureType == "" {
		furnitureType = domain.FurnitureTypeOther
	}
	switch furnitureType {
	case domain.FurnitureTypeCouch, domain.FurnitureTypeDiningTable, domain.FurnitureTypeBookshelf,
		domain.FurnitureTypeChair, domain.FurnitureTypeDresser, domain.FurnitureTypeOther:
	default:
		return nil, domain.ValidationError("unknown furniture type %q", furnitureType)
	}

	now := time.Now()
	item := &domain.Item{
		ItemID:        newItemID(),
		SellerID:      sellerID,
		Name:          req.Name,
		Description:   req.Description,
		FurnitureType: furnitureType,
		Condition:     req.Condition,
		StartingPrice: req.StartingPrice,
		MinPrice:      req.MinPrice,
		ImageURL:      req.ImageURL,
		Status:        domain.ItemStatusAvailable,
		Dimensions:    req.Dimensions,
		Material:      req.Material,
		Brand:         req.Brand,
		Color:         req.Color,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	log.Printf("Item %s listed by %s at %.2f", item.ItemID, sellerID, item.StartingPrice)
	return item, nil
}

// ViewItem retrieves a listing and counts the view.
func (s *Service) ViewItem(ctx context.Context, itemID string) (*domain.Item, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.NotFoundError("item %s not found", itemID)
	}
	if err := s.store.IncrementItemViews(ctx, itemID); err != nil {
		return nil, err
	}
	item.ViewsCount++
	return item, nil
}

// cachedItem is the internal read path for negotiation checks. Mutating paths
// evict, so staleness is bounded by the cache TTL on external writes only.
func (s *Service) cachedItem(ctx context.Context, itemID string) (*domain.Item, error) {
	if item, ok := s.itemCache.Get(itemID); ok {
		return item, nil
	}
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil || item == nil {
		return item, err
	}
	s.itemCache.Add(itemID, item)
	return item, nil
}

// ListItems browses listings.
func (s *Service) ListItems(ctx context.Context, filter repository.ItemFilter) ([]domain.Item, error) {
	return s.store.ListItems(ctx, filter)
}

// UpdateItem edits a listing. Seller only; sold items are immutable.
func (s *Service) UpdateItem(ctx context.Context, itemID, sellerID string, req domain.UpdateItemRequest) (*domain.Item, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.NotFoundError("item %s not found", itemID)
	}
	if item.SellerID != sellerID {
		return nil, domain.NewError(domain.ErrCodeUnauthorized, "only the seller can edit a listing")
	}
	if item.Status == domain.ItemStatusSold {
		return nil, domain.ValidationError("sold items cannot be edited")
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, domain.ValidationError("item name is required")
		}
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.StartingPrice != nil {
		if *req.StartingPrice <= 0 {
			return nil, domain.ValidationError("starting price must be positive")
		}
		item.StartingPrice = *req.StartingPrice
	}
	if req.MinPrice != nil {
		if *req.MinPrice < 0 || *req.MinPrice > item.StartingPrice {
			return nil, domain.ValidationError("min price must be between 0 and the starting price")
		}
		item.MinPrice = *req.MinPrice
	}
	if req.Condition != nil {
		item.Condition = *req.Condition
	}
	if req.Withdrawn != nil {
		if *req.Withdrawn {
			item.Status = domain.ItemStatusWithdrawn
		} else {
			item.Status = domain.ItemStatusAvailable
		}
	}
	item.UpdatedAt = time.Now()

	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	s.itemCache.Remove(itemID)
	return item, nil
}
