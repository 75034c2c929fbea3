package v1

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reloved/marketplace/internal/domain"
)

func TestCreateItemRequiresAuth(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/v1/items", "", domain.CreateItemRequest{
		Name: "couch", FurnitureType: domain.FurnitureTypeCouch, StartingPrice: 100,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, domain.ErrCodeUnauthorized, errorCode(t, rec))
}

func TestCreateAndGetItem(t *testing.T) {
	e, _, _ := newTestServer(t)
	item := createItemHTTP(t, e, "seller-1", 500)

	rec := doJSON(t, e, http.MethodGet, "/v1/items/"+item.ItemID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Item
	decodeBody(t, rec, &got)
	assert.Equal(t, item.ItemID, got.ItemID)
	assert.Equal(t, 1, got.ViewsCount)

	rec = doJSON(t, e, http.MethodGet, "/v1/items/item-nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, domain.ErrCodeNotFound, errorCode(t, rec))
}

func TestCreateItemValidationError(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/v1/items", "seller-1", domain.CreateItemRequest{
		Name: "couch", FurnitureType: domain.FurnitureTypeCouch, StartingPrice: -5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.ErrCodeValidation, errorCode(t, rec))
}

func TestListItemsFiltering(t *testing.T) {
	e, _, _ := newTestServer(t)
	createItemHTTP(t, e, "seller-1", 500)
	createItemHTTP(t, e, "seller-2", 100)

	rec := doJSON(t, e, http.MethodGet, "/v1/items?seller_id=seller-1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Items []domain.Item `json:"items"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "seller-1", resp.Items[0].SellerID)

	rec = doJSON(t, e, http.MethodGet, "/v1/items?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateItemOwnership(t *testing.T) {
	e, _, _ := newTestServer(t)
	item := createItemHTTP(t, e, "seller-1", 500)

	newName := "restored walnut bookshelf"
	rec := doJSON(t, e, http.MethodPatch, "/v1/items/"+item.ItemID, "seller-1", domain.UpdateItemRequest{
		Name: &newName,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated domain.Item
	decodeBody(t, rec, &updated)
	assert.Equal(t, newName, updated.Name)

	rec = doJSON(t, e, http.MethodPatch, "/v1/items/"+item.ItemID, "intruder", domain.UpdateItemRequest{
		Name: &newName,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpsertUserEndpoint(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodPost, "/v1/users", "u1", domain.UpsertUserRequest{
		Username: "ana", DisplayName: "Ana B",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var user domain.User
	decodeBody(t, rec, &user)
	assert.Equal(t, "u1", user.UserID)

	rec = doJSON(t, e, http.MethodPost, "/v1/users", "u1", domain.UpsertUserRequest{
		UserID: "somebody-else", Username: "x",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	e, _, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
}
