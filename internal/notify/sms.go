// Package notify dispatches transactional SMS through the configured
// provider's HTTP API. When no endpoint is configured it runs in log-only
// mode, which keeps local development and tests free of a real provider.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// defaultTemplates are the built-in message templates. {name} tokens are
// filled from the per-send params.
var defaultTemplates = map[string]string{
	"order_confirmed": "Your order {order_id} has been confirmed. Thank you for shopping with us.",
	"order_canceled":  "Your order {order_id} has been canceled.",
	"otp_code":        "Your verification code is {code}.",
}

// SMSClient sends templated SMS messages over HTTP with retries.
type SMSClient struct {
	endpoint  string
	apiKey    string
	client    *http.Client
	templates map[string]string
}

// NewSMSClient creates an SMS client. An empty endpoint enables log-only
// mode: messages are rendered and logged but not sent.
func NewSMSClient(endpoint, apiKey string) *SMSClient {
	templates := make(map[string]string, len(defaultTemplates))
	for name, body := range defaultTemplates {
		templates[name] = body
	}
	return &SMSClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		templates: templates,
	}
}

// RegisterTemplate adds or replaces a message template.
func (c *SMSClient) RegisterTemplate(name, body string) {
	c.templates[name] = body
}

// Send renders the named template and dispatches it to phone. The rendered
// message text is returned so callers can surface it to the user.
func (c *SMSClient) Send(ctx context.Context, phone, template string, params map[string]string) (string, error) {
	body, ok := c.templates[template]
	if !ok {
		return "", fmt.Errorf("unknown sms template %q", template)
	}
	message := renderTemplate(body, params)

	if c.endpoint == "" {
		log.Info().Str("phone", phone).Str("template", template).Msg("SMS gateway not configured, log-only dispatch")
		return message, nil
	}

	payload, err := json.Marshal(map[string]string{
		"to":   phone,
		"text": message,
	})
	if err != nil {
		return "", fmt.Errorf("marshal sms payload: %w", err)
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// Provider rejected the message; retrying won't help.
			return backoff.Permanent(fmt.Errorf("sms provider HTTP %d", resp.StatusCode))
		}
		return fmt.Errorf("sms provider HTTP %d", resp.StatusCode)
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return "", fmt.Errorf("sms dispatch to %s: %w", phone, err)
	}

	log.Info().Str("phone", phone).Str("template", template).Msg("SMS dispatched")
	return message, nil
}

// renderTemplate fills {name} tokens with values from params.
func renderTemplate(body string, params map[string]string) string {
	out := body
	for k, v := range params {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}
