package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reloved/marketplace/internal/adapter/llm"
	"github.com/reloved/marketplace/internal/config"
	"github.com/reloved/marketplace/internal/domain"
	"github.com/reloved/marketplace/internal/policy"
	"github.com/reloved/marketplace/internal/repository"
)

func testConfig() *config.Config {
	return &config.Config{
		LLMModel:        "test-model",
		MaxRounds:       10,
		OfferTTL:        72 * time.Hour,
		PlanTTL:         10 * time.Minute,
		PriceCeilingPct: 1.2,
		PriceFloorPct:   0.5,
		LowballPct:      0.7,
	}
}

func newTestService(t *testing.T) (*Service, *llm.MockClient, repository.Store) {
	t.Helper()
	store, err := repository.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	mock := llm.NewMockClient()
	svc := New(store, mock, nil, nil, engine, nil, testConfig())
	return svc, mock, store
}

func createTestItem(t *testing.T, svc *Service, sellerID string, price float64) *domain.Item {
	t.Helper()
	item, err := svc.CreateItem(context.Background(), sellerID, domain.CreateItemRequest{
		Name:          "mid-century couch",
		FurnitureType: domain.FurnitureTypeCouch,
		StartingPrice: price,
	})
	require.NoError(t, err)
	return item
}

func openTestOffer(t *testing.T, svc *Service, itemID, buyerID string, price float64) *domain.Negotiation {
	t.Helper()
	neg, _, err := svc.OpenOffer(context.Background(), itemID, buyerID, domain.OfferRequest{Price: price})
	require.NoError(t, err)
	return neg
}
