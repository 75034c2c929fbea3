// Package service implements the marketplace business rules. Every entry
// point (REST actions, rule-based chat, LLM agent) goes through the single
// implementation in this package.
package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/oklog/ulid/v2"

	"github.com/reloved/marketplace/internal/adapter/llm"
	"github.com/reloved/marketplace/internal/adapter/storage"
	"github.com/reloved/marketplace/internal/adapter/vision"
	"github.com/reloved/marketplace/internal/config"
	"github.com/reloved/marketplace/internal/domain"
	"github.com/reloved/marketplace/internal/policy"
	"github.com/reloved/marketplace/internal/repository"
)

// EventSink receives negotiation events for realtime delivery. *hub.Hub
// satisfies it; a nil sink disables pushes.
type EventSink interface {
	PushToUser(userID string, payload interface{})
}

// Service wires the store, adapters, and policy engine together.
type Service struct {
	store        repository.Store
	llmClient    llm.LLMClient
	analyzer     vision.Analyzer
	uploader     storage.Uploader
	policyEngine *policy.Engine
	sink         EventSink
	config       *config.Config

	itemCache *expirable.LRU[string, *domain.Item]
}

// New creates a Service. analyzer, uploader, and sink may be nil; the
// corresponding features degrade gracefully.
func New(store repository.Store, llmClient llm.LLMClient, analyzer vision.Analyzer, uploader storage.Uploader, policyEngine *policy.Engine, sink EventSink, cfg *config.Config) *Service {
	return &Service{
		store:        store,
		llmClient:    llmClient,
		analyzer:     analyzer,
		uploader:     uploader,
		policyEngine: policyEngine,
		sink:         sink,
		config:       cfg,
		itemCache:    expirable.NewLRU[string, *domain.Item](256, nil, time.Minute),
	}
}

func newItemID() string {
	return "item_" + uuid.New().String()[:8]
}

func newNegotiationID() string {
	return "neg_" + uuid.New().String()[:8]
}

func newConversationID() string {
	return "conv_" + uuid.New().String()[:8]
}

func newMessageID() string {
	return "msg_" + uuid.New().String()[:8]
}

func newPlanID() string {
	return "plan_" + uuid.New().String()[:8]
}

// Offer and deal-event rows are append-only logs; ULIDs keep them sortable
// by creation time.
func newRowID() string {
	return ulid.Make().String()
}

func (s *Service) pushEvent(userID string, event domain.NegotiationEvent) {
	if s.sink == nil || userID == "" {
		return
	}
	if event.Ts == 0 {
		event.Ts = time.Now().UnixMilli()
	}
	s.sink.PushToUser(userID, event)
}

func (s *Service) pushToParties(neg *domain.Negotiation, event domain.NegotiationEvent) {
	s.pushEvent(neg.BuyerID, event)
	s.pushEvent(neg.SellerID, event)
}
