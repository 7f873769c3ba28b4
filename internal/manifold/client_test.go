// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package manifold

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikhailtal/oreacle-bot/internal/httputil"
	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

func TestMain(m *testing.M) {
	httputil.RetryBaseDelay = time.Millisecond
	m.Run()
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	prev := APIBase
	APIBase = server.URL
	t.Cleanup(func() { APIBase = prev })

	return NewClient(types.MarketConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second},
		APIKey:     "test-key",
	}, server.Client())
}

func TestGetMarketBySlugDirect(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Key test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/slug/jianxiawo-2026", r.URL.Path)
		json.NewEncoder(w).Encode(Market{ID: "m1", Slug: "jianxiawo-2026", Question: "License renewed by 2026-12-31?"})
	})

	market, err := client.GetMarketBySlug(context.Background(), "jianxiawo-2026")
	require.NoError(t, err)
	assert.Equal(t, "m1", market.ID)
	assert.Equal(t, "License renewed by 2026-12-31?", market.Question)
}

func TestGetMarketBySlugFallsBackToList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/markets":
			json.NewEncoder(w).Encode([]Market{
				{ID: "other", Slug: "unrelated"},
				{ID: "m2", Slug: "jianxiawo-2026"},
			})
		default:
			http.NotFound(w, r)
		}
	})

	market, err := client.GetMarketBySlug(context.Background(), "jianxiawo-2026")
	require.NoError(t, err)
	assert.Equal(t, "m2", market.ID)
}

func TestGetMarketBySlugNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/markets":
			json.NewEncoder(w).Encode([]Market{{ID: "other", Slug: "unrelated"}})
		default:
			http.NotFound(w, r)
		}
	})

	_, err := client.GetMarketBySlug(context.Background(), "missing-slug")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing-slug")
}

func TestPostComment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/comment", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "m1", payload["contractId"])
		assert.Contains(t, payload["markdown"], "采矿许可证")

		json.NewEncoder(w).Encode(map[string]string{"id": "c99"})
	})

	id, err := client.PostComment(context.Background(), "m1", "**采矿许可证** update")
	require.NoError(t, err)
	assert.Equal(t, "c99", id)
}

func TestPlaceLimitDefaultsExpiry(t *testing.T) {
	var got LimitOrder
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bet", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{"betId": "b1"})
	})

	id, err := client.PlaceLimitYes(context.Background(), "m1", 5, 0.55)
	require.NoError(t, err)
	assert.Equal(t, "b1", id)
	assert.Equal(t, OutcomeYes, got.Outcome)
	assert.Equal(t, 5, got.Amount)
	assert.InDelta(t, 0.55, got.LimitProb, 1e-9)
	assert.Equal(t, int64(defaultOrderExpiryMillis), got.ExpiresMillisAfter)
}

func TestPlaceLimitRejectsInvalidOrders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid order must not reach the API")
	})

	tests := []struct {
		name  string
		order LimitOrder
	}{
		{"empty contract", LimitOrder{Outcome: OutcomeYes, Amount: 5, LimitProb: 0.5}},
		{"zero amount", LimitOrder{ContractID: "m1", Outcome: OutcomeNo, Amount: 0, LimitProb: 0.5}},
		{"negative amount", LimitOrder{ContractID: "m1", Outcome: OutcomeYes, Amount: -3, LimitProb: 0.5}},
		{"prob at zero", LimitOrder{ContractID: "m1", Outcome: OutcomeYes, Amount: 5, LimitProb: 0}},
		{"prob at one", LimitOrder{ContractID: "m1", Outcome: OutcomeNo, Amount: 5, LimitProb: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.PlaceLimit(context.Background(), tt.order)
			assert.Error(t, err)
		})
	}
}

func TestPlaceLimitSurfacesAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"insufficient balance"}`, http.StatusForbidden)
	})

	_, err := client.PlaceLimitNo(context.Background(), "m1", 5, 0.4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "insufficient balance")
}

func TestRelatedMarketsFiltersByPrefix(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/markets", r.URL.Path)
		json.NewEncoder(w).Encode([]Market{
			{ID: "a", Slug: "jianxiawo-by-2026"},
			{ID: "b", Slug: "jianxiawo-by-2027"},
			{ID: "c", Slug: "something-else"},
		})
	})

	markets, err := client.RelatedMarkets(context.Background(), "jianxiawo-")
	require.NoError(t, err)
	require.Len(t, markets, 2)
	assert.Equal(t, "a", markets[0].ID)
	assert.Equal(t, "b", markets[1].ID)
}
