package domain

// ImageAnalysis is the structured result of the vision model's look at one
// furniture photo.
type ImageAnalysis struct {
	FurnitureType       string   `json:"furniture_type"`
	Category            string   `json:"category"`
	Brand               string   `json:"brand"`
	Style               string   `json:"style"`
	Material            string   `json:"material"`
	Color               string   `json:"color"`
	ConditionScore      int      `json:"condition_score"`
	ConditionNotes      string   `json:"condition_notes"`
	EstimatedDimensions string   `json:"estimated_dimensions"`
	KeyFeatures         []string `json:"key_features"`
	EstimatedOriginal   string   `json:"estimated_original_price"`
	CurrentMarketValue  string   `json:"current_market_value"`
	PricingFactors      []string `json:"pricing_factors"`
	SuggestedTitle      string   `json:"suggested_title"`
	SuggestedDescription string  `json:"suggested_description"`
}

// PricingSuggestion is derived from an ImageAnalysis.
type PricingSuggestion struct {
	QuickSalePrice         int    `json:"quick_sale_price"`
	MarketPrice            int    `json:"market_price"`
	PremiumPrice           int    `json:"premium_price"`
	SuggestedStartingPrice int    `json:"suggested_starting_price"`
	Explanation            string `json:"pricing_explanation"`
}

// ListingDraft is the full intake result: a prefilled listing the seller can
// edit before submitting, plus the raw analysis and pricing that produced it.
type ListingDraft struct {
	Listing  CreateItemRequest `json:"listing"`
	Pricing  PricingSuggestion `json:"pricing"`
	Analysis ImageAnalysis     `json:"analysis"`
	ImageURL string            `json:"image_url"`
}

// OfferBucket is one categorized negotiation in an offer analysis.
type OfferBucket struct {
	NegotiationID       string  `json:"negotiation_id"`
	BuyerID             string  `json:"buyer_id"`
	CurrentOffer        float64 `json:"current_offer"`
	PercentageOfAsking  int     `json:"percentage_of_asking"`
	RoundNumber         int     `json:"round_number"`
	Reason              string  `json:"reason"`
}

// OfferAnalysis groups a seller's incoming offers into actionable buckets.
// Priority >= 90% of asking, fair 70-90%, lowball < 70%.
type OfferAnalysis struct {
	PriorityOffers  []OfferBucket     `json:"priority_offers"`
	FairOffers      []OfferBucket     `json:"fair_offers"`
	LowballOffers   []OfferBucket     `json:"lowball_offers"`
	Recommendations []string          `json:"recommendations"`
	MarketInsights  map[string]string `json:"market_insights"`
	TotalAnalyzed   int               `json:"total_offers_analyzed"`
}
