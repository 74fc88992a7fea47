// Package rest implements the broker gateway's order API over HTTP: order
// submission and the open-position snapshot. Authentication is API-key
// header based; the key pair comes from config, optionally decrypted from
// an encrypted secret file.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"orbot/internal/domain"
)

// Client talks to the gateway's REST API. It implements domain.OrderGateway.
type Client struct {
	baseURL   string
	apiKey    string
	apiSecret string
	http      *http.Client
}

// New creates a Client for the given base URL and credentials.
func New(baseURL, apiKey, apiSecret string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// orderResponse is the gateway's answer to POST /orders.
type orderResponse struct {
	Accepted bool   `json:"accepted"`
	OrderID  string `json:"order_id"`
	Reason   string `json:"reason"`
}

// SubmitOrder posts one order. A broker-side rejection is not an error: it
// comes back as OrderResult.Accepted == false with the broker's reason.
func (c *Client) SubmitOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("rest: marshal order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("rest: create request: %w", err)
	}
	c.authorize(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("rest: submit order %s %s: %w", req.Symbol, req.Side, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.OrderResult{}, fmt.Errorf("rest: submit order %s: unexpected status %d: %s",
			req.Symbol, resp.StatusCode, string(msg))
	}

	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.OrderResult{}, fmt.Errorf("rest: decode order response: %w", err)
	}
	return domain.OrderResult{
		Accepted: out.Accepted,
		OrderID:  out.OrderID,
		Reason:   out.Reason,
	}, nil
}

// positionsResponse is the gateway's answer to GET /positions.
type positionsResponse struct {
	Positions []domain.NetPosition `json:"positions"`
}

// OpenPositions returns the gateway's open-position snapshot.
func (c *Client) OpenPositions(ctx context.Context) ([]domain.NetPosition, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/positions", nil)
	if err != nil {
		return nil, fmt.Errorf("rest: create request: %w", err)
	}
	c.authorize(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("rest: query positions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("rest: query positions: unexpected status %d: %s", resp.StatusCode, string(msg))
	}

	var out positionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("rest: decode positions response: %w", err)
	}
	return out.Positions, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("X-Api-Secret", c.apiSecret)
}

var _ domain.OrderGateway = (*Client)(nil)
