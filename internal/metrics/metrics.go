// Package metrics exposes prometheus counters for the marketplace.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OffersCreated counts stored offer rows, labeled by party.
	OffersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_offers_created_total",
		Help: "Number of offer rows appended, by offering party.",
	}, []string{"offer_type"})

	// NegotiationsResolved counts terminal negotiation transitions.
	NegotiationsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_negotiations_resolved_total",
		Help: "Number of negotiations leaving the active state, by outcome.",
	}, []string{"outcome"})

	// PolicyDecisions counts offer policy outcomes.
	PolicyDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_policy_decisions_total",
		Help: "Offer price policy decisions.",
	}, []string{"decision"})

	// LLMCalls counts chat-completion round trips, by caller.
	LLMCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_llm_calls_total",
		Help: "Chat-completion requests issued, by component and result.",
	}, []string{"component", "result"})

	// ListingsAnalyzed counts vision intake analyses.
	ListingsAnalyzed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketplace_listings_analyzed_total",
		Help: "Listing photos analyzed by the vision model.",
	})
)
