package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orbot/internal/domain"
)

func TestSubmitOrderAccepted(t *testing.T) {
	var gotReq domain.OrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Secret"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(orderResponse{Accepted: true, OrderID: "ord-42"})
	}))
	defer srv.Close()

	c := New(srv.URL, "key", "secret")
	res, err := c.SubmitOrder(context.Background(), domain.OrderRequest{
		Symbol:   "RELIANCE",
		Side:     domain.OrderSideBuy,
		Quantity: 10,
		Type:     domain.OrderTypeLimit,
		Price:    2850.5,
		Tag:      "b1:entry",
	})
	require.NoError(t, err)

	assert.True(t, res.Accepted)
	assert.Equal(t, "ord-42", res.OrderID)
	assert.Equal(t, "RELIANCE", gotReq.Symbol)
	assert.Equal(t, int64(10), gotReq.Quantity)
}

func TestSubmitOrderBrokerRejectionIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(orderResponse{Accepted: false, Reason: "insufficient margin"})
	}))
	defer srv.Close()

	c := New(srv.URL, "key", "secret")
	res, err := c.SubmitOrder(context.Background(), domain.OrderRequest{Symbol: "TCS"})
	require.NoError(t, err)

	assert.False(t, res.Accepted)
	assert.Equal(t, "insufficient margin", res.Reason)
}

func TestSubmitOrderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL, "key", "secret")
	_, err := c.SubmitOrder(context.Background(), domain.OrderRequest{Symbol: "TCS"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "gateway down")
}

func TestOpenPositions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/positions", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))

		json.NewEncoder(w).Encode(positionsResponse{Positions: []domain.NetPosition{
			{Symbol: "RELIANCE", Exchange: "NSE", NetQuantity: 25},
			{Symbol: "TCS", Exchange: "NSE", NetQuantity: -10},
		}})
	}))
	defer srv.Close()

	c := New(srv.URL, "key", "secret")
	positions, err := c.OpenPositions(context.Background())
	require.NoError(t, err)

	require.Len(t, positions, 2)
	assert.Equal(t, int64(25), positions[0].NetQuantity)
	assert.Equal(t, int64(-10), positions[1].NetQuantity)
}

func TestOpenPositionsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, "key", "secret")
	_, err := c.OpenPositions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestBaseURLTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/positions", r.URL.Path)
		json.NewEncoder(w).Encode(positionsResponse{})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "key", "secret")
	_, err := c.OpenPositions(context.Background())
	require.NoError(t, err)
}
