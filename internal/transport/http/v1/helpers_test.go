package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/reloved/marketplace/internal/adapter/llm"
	"github.com/reloved/marketplace/internal/config"
	"github.com/reloved/marketplace/internal/domain"
	"github.com/reloved/marketplace/internal/policy"
	"github.com/reloved/marketplace/internal/repository"
	"github.com/reloved/marketplace/internal/service"
)

func newTestServer(t *testing.T) (*echo.Echo, *llm.MockClient, repository.Store) {
	t.Helper()
	store, err := repository.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)

	cfg := &config.Config{
		LLMModel:        "test-model",
		MaxRounds:       10,
		OfferTTL:        72 * time.Hour,
		PlanTTL:         10 * time.Minute,
		PriceCeilingPct: 1.2,
		PriceFloorPct:   0.5,
		LowballPct:      0.7,
	}

	mock := llm.NewMockClient()
	svc := service.New(store, mock, nil, nil, engine, nil, cfg)

	e := echo.New()
	NewHandler(svc, nil).RegisterRoutes(e)
	return e, mock, store
}

func doJSON(t *testing.T, e *echo.Echo, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if userID != "" {
		req.Header.Set(userIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	decodeBody(t, rec, &body)
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func createItemHTTP(t *testing.T, e *echo.Echo, sellerID string, price float64) *domain.Item {
	t.Helper()
	rec := doJSON(t, e, http.MethodPost, "/v1/items", sellerID, domain.CreateItemRequest{
		Name:          "walnut bookshelf",
		FurnitureType: domain.FurnitureTypeBookshelf,
		StartingPrice: price,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var item domain.Item
	decodeBody(t, rec, &item)
	return &item
}

func openOfferHTTP(t *testing.T, e *echo.Echo, itemID, buyerID string, price float64) *domain.Negotiation {
	t.Helper()
	rec := doJSON(t, e, http.MethodPost, "/v1/items/"+itemID+"/offers", buyerID, domain.OfferRequest{Price: price})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Negotiation domain.Negotiation `json:"negotiation"`
	}
	decodeBody(t, rec, &resp)
	return &resp.Negotiation
}
