package v1

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reloved/marketplace/internal/domain"
)

func TestOfferCounterAcceptFlow(t *testing.T) {
	e, _, store := newTestServer(t)
	item := createItemHTTP(t, e, "seller-1", 500)
	neg := openOfferHTTP(t, e, item.ItemID, "buyer-1", 300)

	// Seller counters.
	rec := doJSON(t, e, http.MethodPost, "/v1/negotiations/"+neg.NegotiationID+"/counter", "seller-1",
		domain.OfferRequest{Price: 450, Message: "450 and it's yours"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var counterResp struct {
		Negotiation domain.Negotiation `json:"negotiation"`
		Offer       domain.Offer       `json:"offer"`
	}
	decodeBody(t, rec, &counterResp)
	assert.Equal(t, 2, counterResp.Negotiation.RoundNumber)
	assert.Equal(t, domain.OfferTypeSeller, counterResp.Offer.OfferType)

	// Buyer comes up, seller accepts.
	rec = doJSON(t, e, http.MethodPost, "/v1/negotiations/"+neg.NegotiationID+"/counter", "buyer-1",
		domain.OfferRequest{Price: 400})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/v1/negotiations/"+neg.NegotiationID+"/accept", "seller-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var accepted domain.Negotiation
	decodeBody(t, rec, &accepted)
	assert.Equal(t, domain.NegotiationStatusCompleted, accepted.Status)
	assert.Equal(t, 400.0, accepted.FinalPrice)

	soldItem, err := store.GetItem(context.Background(), item.ItemID)
	require.NoError(t, err)
	assert.Equal(t, domain.ItemStatusSold, soldItem.Status)

	// Sold items drop out of the default browse.
	rec = doJSON(t, e, http.MethodGet, "/v1/items", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var browse struct {
		Items []domain.Item `json:"items"`
	}
	decodeBody(t, rec, &browse)
	assert.Empty(t, browse.Items)

	// The offer history shows all three rounds.
	rec = doJSON(t, e, http.MethodGet, "/v1/negotiations/"+neg.NegotiationID+"/offers", "buyer-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var offersResp struct {
		Offers []domain.Offer `json:"offers"`
	}
	decodeBody(t, rec, &offersResp)
	assert.Len(t, offersResp.Offers, 3)
}

func TestCounterErrorCodes(t *testing.T) {
	e, _, _ := newTestServer(t)
	item := createItemHTTP(t, e, "seller-1", 500)
	neg := openOfferHTTP(t, e, item.ItemID, "buyer-1", 300)

	// Out of turn.
	rec := doJSON(t, e, http.MethodPost, "/v1/negotiations/"+neg.NegotiationID+"/counter", "buyer-1",
		domain.OfferRequest{Price: 320})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, domain.ErrCodeNotYourTurn, errorCode(t, rec))

	// Above the ceiling.
	rec = doJSON(t, e, http.MethodPost, "/v1/negotiations/"+neg.NegotiationID+"/counter", "seller-1",
		domain.OfferRequest{Price: 601})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, domain.ErrCodePriceBlocked, errorCode(t, rec))

	// Below the floor without force.
	rec = doJSON(t, e, http.MethodPost, "/v1/negotiations/"+neg.NegotiationID+"/counter", "seller-1",
		domain.OfferRequest{Price: 100})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, domain.ErrCodeConfirmRequired, errorCode(t, rec))

	// Stranger.
	rec = doJSON(t, e, http.MethodPost, "/v1/negotiations/"+neg.NegotiationID+"/counter", "stranger",
		domain.OfferRequest{Price: 400})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNegotiationVisibility(t *testing.T) {
	e, _, _ := newTestServer(t)
	item := createItemHTTP(t, e, "seller-1", 500)
	neg := openOfferHTTP(t, e, item.ItemID, "buyer-1", 300)

	rec := doJSON(t, e, http.MethodGet, "/v1/negotiations/"+neg.NegotiationID, "buyer-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/v1/negotiations/"+neg.NegotiationID, "stranger", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The seller sees the item's negotiations; the buyer does not.
	rec = doJSON(t, e, http.MethodGet, "/v1/items/"+item.ItemID+"/negotiations", "seller-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp struct {
		Negotiations []domain.Negotiation `json:"negotiations"`
	}
	decodeBody(t, rec, &listResp)
	assert.Len(t, listResp.Negotiations, 1)

	rec = doJSON(t, e, http.MethodGet, "/v1/items/"+item.ItemID+"/negotiations", "buyer-1", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Both parties see it in their own list.
	rec = doJSON(t, e, http.MethodGet, "/v1/negotiations", "buyer-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &listResp)
	assert.Len(t, listResp.Negotiations, 1)
}

func TestDeclineEndpoint(t *testing.T) {
	e, _, _ := newTestServer(t)
	item := createItemHTTP(t, e, "seller-1", 500)
	neg := openOfferHTTP(t, e, item.ItemID, "buyer-1", 300)

	rec := doJSON(t, e, http.MethodPost, "/v1/negotiations/"+neg.NegotiationID+"/decline", "seller-1",
		domain.DeclineRequest{Reason: "holding out"})
	require.Equal(t, http.StatusOK, rec.Code)
	var declined domain.Negotiation
	decodeBody(t, rec, &declined)
	assert.Equal(t, domain.NegotiationStatusCancelled, declined.Status)

	// Declining again reports the conflict.
	rec = doJSON(t, e, http.MethodPost, "/v1/negotiations/"+neg.NegotiationID+"/decline", "seller-1",
		domain.DeclineRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOfferAnalysisEndpoint(t *testing.T) {
	e, _, _ := newTestServer(t)
	item := createItemHTTP(t, e, "seller-1", 500)
	openOfferHTTP(t, e, item.ItemID, "buyer-1", 460)
	openOfferHTTP(t, e, item.ItemID, "buyer-2", 250)

	rec := doJSON(t, e, http.MethodGet, "/v1/items/"+item.ItemID+"/offer-analysis", "seller-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var analysis domain.OfferAnalysis
	decodeBody(t, rec, &analysis)
	assert.Len(t, analysis.PriorityOffers, 1)
	assert.Len(t, analysis.LowballOffers, 1)
	assert.Equal(t, 2, analysis.TotalAnalyzed)
}

func TestDealStatusEndpoints(t *testing.T) {
	e, _, _ := newTestServer(t)
	item := createItemHTTP(t, e, "seller-1", 500)
	neg := openOfferHTTP(t, e, item.ItemID, "buyer-1", 450)

	rec := doJSON(t, e, http.MethodPost, "/v1/negotiations/"+neg.NegotiationID+"/accept", "seller-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodPost, "/v1/negotiations/"+neg.NegotiationID+"/status", "buyer-1",
		domain.DealStatusRequest{Status: domain.DealStatusMeetingScheduled, Note: "tomorrow noon"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, e, http.MethodGet, "/v1/negotiations/"+neg.NegotiationID+"/status", "seller-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var eventsResp struct {
		Events []domain.DealEvent `json:"events"`
	}
	decodeBody(t, rec, &eventsResp)
	require.Len(t, eventsResp.Events, 2)
	assert.Equal(t, domain.DealStatusArranging, eventsResp.Events[0].Status)
	assert.Equal(t, "tomorrow noon", eventsResp.Events[1].Note)
}
