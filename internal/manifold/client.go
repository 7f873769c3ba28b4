// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifold is a minimal Manifold Markets API client covering the
// operations the dispatcher needs: market lookup, comments, and limit
// orders.
package manifold

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mikhailtal/oreacle-bot/internal/httputil"
	"github.com/mikhailtal/oreacle-bot/pkg/types"
)

// APIBase is the Manifold REST endpoint. Declared as a var so tests can
// substitute an httptest server.
var APIBase = "https://api.manifold.markets/v0"

// defaultOrderExpiry keeps stale limit orders from lingering on the book.
const defaultOrderExpiryMillis = 6 * 60 * 60 * 1000

// Outcome is a binary-market side.
type Outcome string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

// Market is the subset of market fields the bot uses.
type Market struct {
	ID          string  `json:"id"`
	Slug        string  `json:"slug"`
	Question    string  `json:"question"`
	Probability float64 `json:"probability"`
	IsResolved  bool    `json:"isResolved"`
}

// LimitOrder is a resting order on a binary market.
type LimitOrder struct {
	ContractID         string  `json:"contractId"`
	Outcome            Outcome `json:"outcome"`
	Amount             int     `json:"amount"`
	LimitProb          float64 `json:"limitProb"`
	ExpiresMillisAfter int64   `json:"expiresMillisAfter"`
}

// Validate rejects orders the API would refuse or that should never be
// sent.
func (o LimitOrder) Validate() error {
	if o.ContractID == "" {
		return fmt.Errorf("order contract id must not be empty")
	}
	if o.Amount <= 0 {
		return fmt.Errorf("order amount must be positive, got %d", o.Amount)
	}
	if o.LimitProb <= 0.0 || o.LimitProb >= 1.0 {
		return fmt.Errorf("limit probability must be in (0,1), got %v", o.LimitProb)
	}
	return nil
}

// Client talks to the Manifold API.
type Client struct {
	client *http.Client
	apiKey string
}

// NewClient builds an authenticated client.
func NewClient(cfg types.MarketConfig, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{client: client, apiKey: cfg.APIKey}
}

// GetMarketBySlug resolves a market. It tries the direct slug endpoint
// first and falls back to scanning the market list, since the slug
// endpoint has moved before.
func (c *Client) GetMarketBySlug(ctx context.Context, slug string) (Market, error) {
	var m Market
	err := c.get(ctx, "/slug/"+slug, &m)
	if err == nil && m.ID != "" {
		return m, nil
	}

	var markets []Market
	if listErr := c.get(ctx, "/markets?limit=1000", &markets); listErr != nil {
		return Market{}, fmt.Errorf("market lookup for %q: %w", slug, listErr)
	}
	for _, candidate := range markets {
		if candidate.Slug == slug {
			return candidate, nil
		}
	}
	return Market{}, fmt.Errorf("no market found for slug %q", slug)
}

// PostComment publishes a markdown comment and returns the comment ID.
func (c *Client) PostComment(ctx context.Context, contractID, markdown string) (string, error) {
	payload := map[string]string{
		"contractId": contractID,
		"markdown":   markdown,
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := c.post(ctx, "/comment", payload, &created); err != nil {
		return "", fmt.Errorf("posting comment: %w", err)
	}
	return created.ID, nil
}

// PlaceLimit places a validated limit order and returns the bet ID.
func (c *Client) PlaceLimit(ctx context.Context, order LimitOrder) (string, error) {
	if err := order.Validate(); err != nil {
		return "", err
	}
	if order.ExpiresMillisAfter <= 0 {
		order.ExpiresMillisAfter = defaultOrderExpiryMillis
	}

	var created struct {
		BetID string `json:"betId"`
		ID    string `json:"id"`
	}
	if err := c.post(ctx, "/bet", order, &created); err != nil {
		return "", fmt.Errorf("placing %s order: %w", order.Outcome, err)
	}
	if created.BetID != "" {
		return created.BetID, nil
	}
	return created.ID, nil
}

// PlaceLimitYes is a convenience wrapper for a YES order.
func (c *Client) PlaceLimitYes(ctx context.Context, contractID string, amount int, limitProb float64) (string, error) {
	return c.PlaceLimit(ctx, LimitOrder{ContractID: contractID, Outcome: OutcomeYes, Amount: amount, LimitProb: limitProb})
}

// PlaceLimitNo is a convenience wrapper for a NO order.
func (c *Client) PlaceLimitNo(ctx context.Context, contractID string, amount int, limitProb float64) (string, error) {
	return c.PlaceLimit(ctx, LimitOrder{ContractID: contractID, Outcome: OutcomeNo, Amount: amount, LimitProb: limitProb})
}

// RelatedMarkets returns markets whose slug shares the given prefix,
// used by the ladder monotonicity check.
func (c *Client) RelatedMarkets(ctx context.Context, slugPrefix string) ([]Market, error) {
	var markets []Market
	if err := c.get(ctx, "/markets?limit=1000", &markets); err != nil {
		return nil, fmt.Errorf("listing markets: %w", err)
	}
	var related []Market
	for _, m := range markets {
		if strings.HasPrefix(m.Slug, slugPrefix) {
			related = append(related, m)
		}
	}
	return related, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, APIBase+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, APIBase+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Key "+c.apiKey)

	resp, err := httputil.DoWithRetry(req.Context(), c.client, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("manifold API returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing manifold response: %w", err)
	}
	return nil
}
