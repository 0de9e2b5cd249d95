package commerce_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homatabesh/homa-core/internal/commerce"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *commerce.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return commerce.NewClient(srv.URL)
}

func TestLookup(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/facts/price", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("product_id"))
		json.NewEncoder(w).Encode(map[string]any{"value": 1500})
	})

	value, ok, err := c.Lookup(context.Background(), "price", map[string]any{"product_id": 42})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float64(1500), value)
}

func TestLookup_NotFoundIsAMiss(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, ok, err := c.Lookup(context.Background(), "price", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLookup_ServerErrorIsAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, _, err := c.Lookup(context.Background(), "price", nil)
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/otp/verify", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		verified := body["code"] == "1234"
		json.NewEncoder(w).Encode(map[string]any{"verified": verified, "error": "code mismatch"})
	})

	assert.NoError(t, c.Verify(context.Background(), "+98912", "1234"))

	err := c.Verify(context.Background(), "+98912", "0000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code mismatch")
}

func TestAddToCartAndRemove(t *testing.T) {
	var removedPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "/internal/cart/items", r.URL.Path)
			json.NewEncoder(w).Encode(map[string]string{"cart_item_id": "ci-9"})
		case http.MethodDelete:
			removedPath = r.URL.Path
			w.WriteHeader(http.StatusOK)
		}
	})
	ctx := context.Background()

	id, err := c.AddToCart(ctx, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, "ci-9", id)

	require.NoError(t, c.RemoveFromCart(ctx, "ci-9"))
	assert.Equal(t, "/internal/cart/items/ci-9", removedPath)
}

func TestCreateOrderAndCancel(t *testing.T) {
	var cancelPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/internal/orders":
			json.NewEncoder(w).Encode(map[string]string{"order_id": "ord-55"})
		default:
			cancelPath = r.URL.Path
			w.WriteHeader(http.StatusOK)
		}
	})
	ctx := context.Background()

	id, err := c.CreateOrder(ctx, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, "ord-55", id)

	require.NoError(t, c.CancelOrder(ctx, "ord-55"))
	assert.Equal(t, "/internal/orders/ord-55/cancel", cancelPath)
}

func TestErrorBodyIsSurfaced(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "product out of stock"})
	})

	_, err := c.CreateOrder(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product out of stock")
}
