package grocy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"elzar-backend/internal/infrastructure/config"
	"elzar-backend/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := common.InitLogger("error"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestClient(url string) *Client {
	return NewClient(&config.Config{
		Grocy: config.GrocyConfig{
			URL:     url,
			APIKey:  "test-key",
			Timeout: 5 * time.Second,
		},
		Inventory: config.InventoryConfig{ShoppingListID: 1},
	})
}

func TestGetProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/objects/products", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("GROCY-API-KEY"))
		_ = json.NewEncoder(w).Encode([]Product{
			{ID: 1, Name: "Milk", LocationID: 2},
		})
	}))
	defer srv.Close()

	products, err := newTestClient(srv.URL).GetProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Milk", products[0].Name)
}

func TestErrorMessageSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_message": "Amount cannot be below 0"}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).PurchaseProduct(context.Background(), 5, PurchaseRequest{Amount: -1})
	require.Error(t, err)

	// Grocy 的 error_message 原文必須原封不動保留
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, "Amount cannot be below 0", apiErr.Message)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestErrorWithoutMessageGetsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GetProducts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(&APIError{StatusCode: http.StatusConflict}))
	assert.True(t, IsConflict(&APIError{StatusCode: 400, Message: "SQLSTATE[23000]: UNIQUE constraint failed"}))
	assert.False(t, IsConflict(&APIError{StatusCode: 400, Message: "amount must be positive"}))
	assert.False(t, IsConflict(context.DeadlineExceeded))
}

func TestCreateProductDefaultsUnits(t *testing.T) {
	var got CreateProductRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(CreatedObject{CreatedObjectID: 42})
	}))
	defer srv.Close()

	id, err := newTestClient(srv.URL).CreateProduct(context.Background(), CreateProductRequest{
		Name:      "Butter",
		QuIDStock: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	// 採購與消耗單位未指定時沿用庫存單位
	assert.Equal(t, int64(3), got.QuIDPurchase)
	assert.Equal(t, int64(3), got.QuIDConsume)
}

func TestAddToShoppingListDefaultsListID(t *testing.T) {
	var got ShoppingListAddRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/stock/shoppinglist/add-product", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).AddToShoppingList(context.Background(), ShoppingListAddRequest{
		ProductID:     7,
		ProductAmount: 8,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ListID)
}

func TestGetVolatileStock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/stock/volatile", r.URL.Path)
		_, _ = w.Write([]byte(`{"due_products": [{"product_id": 5, "amount": 2, "best_before_date": "2026-09-03"}]}`))
	}))
	defer srv.Close()

	entries, err := newTestClient(srv.URL).GetVolatileStock(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(5), entries[0].ProductID)
}
