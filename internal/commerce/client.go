// Package commerce talks to the storefront's internal HTTP API. It serves
// two roles: the live-data authority level (current product facts) and the
// side-effecting cart/order/OTP operations the built-in steps delegate to.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// Client is an HTTP client for the storefront internal API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a storefront client for the given origin,
// e.g. "http://localhost:8081".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ── FactSource (live data, authority level 3) ───────────────

func (c *Client) Name() string { return "live_data" }

// Lookup fetches a live fact from the storefront. The fact context is
// forwarded as query parameters; the storefront decides what to do with
// it. A 404 means the storefront holds no value for the key.
func (c *Client) Lookup(ctx context.Context, key string, fctx map[string]any) (any, bool, error) {
	q := url.Values{}
	for k, v := range fctx {
		q.Set(k, fmt.Sprintf("%v", v))
	}
	endpoint := fmt.Sprintf("%s/internal/facts/%s", c.baseURL, url.PathEscape(key))
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build fact request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("fact lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("fact lookup: HTTP %d", resp.StatusCode)
	}

	var body struct {
		Value any `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, false, fmt.Errorf("decode fact response: %w", err)
	}
	return body.Value, true, nil
}

// ── OTPVerifier ─────────────────────────────────────────────

// Verify checks a one-time code against the storefront's OTP service.
func (c *Client) Verify(ctx context.Context, phone, code string) error {
	payload := map[string]string{"phone": phone, "code": code}
	var out struct {
		Verified bool   `json:"verified"`
		Error    string `json:"error"`
	}
	if err := c.post(ctx, "/internal/otp/verify", payload, &out); err != nil {
		return err
	}
	if !out.Verified {
		if out.Error != "" {
			return fmt.Errorf("otp rejected: %s", out.Error)
		}
		return fmt.Errorf("otp rejected")
	}
	return nil
}

// ── Commerce operations ─────────────────────────────────────

func (c *Client) AddToCart(ctx context.Context, productID, quantity int) (string, error) {
	payload := map[string]int{"product_id": productID, "quantity": quantity}
	var out struct {
		CartItemID string `json:"cart_item_id"`
	}
	if err := c.post(ctx, "/internal/cart/items", payload, &out); err != nil {
		return "", err
	}
	return out.CartItemID, nil
}

func (c *Client) RemoveFromCart(ctx context.Context, cartItemID string) error {
	return c.do(ctx, http.MethodDelete, "/internal/cart/items/"+url.PathEscape(cartItemID), nil, nil)
}

func (c *Client) CreateOrder(ctx context.Context, productID, quantity int) (string, error) {
	payload := map[string]int{"product_id": productID, "quantity": quantity}
	var out struct {
		OrderID string `json:"order_id"`
	}
	if err := c.post(ctx, "/internal/orders", payload, &out); err != nil {
		return "", err
	}
	return out.OrderID, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	return c.post(ctx, "/internal/orders/"+url.PathEscape(orderID)+"/cancel", nil, nil)
}

// ── HTTP helpers ────────────────────────────────────────────

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	return c.do(ctx, http.MethodPost, path, payload, out)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to decode storefront response")
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
