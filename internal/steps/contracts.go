// Package steps provides the built-in step executors and the contracts of
// the external services they delegate to. Each executor owns exactly one
// side effect; the orchestrator owns everything around it.
package steps

import (
	"context"
	"fmt"
)

// OTPVerifier checks a one-time code sent to a phone number.
type OTPVerifier interface {
	Verify(ctx context.Context, phone, code string) error
}

// Commerce is the storefront surface the cart and order steps mutate.
// RemoveFromCart and CancelOrder exist for compensation.
type Commerce interface {
	AddToCart(ctx context.Context, productID, quantity int) (cartItemID string, err error)
	RemoveFromCart(ctx context.Context, cartItemID string) error
	CreateOrder(ctx context.Context, productID, quantity int) (orderID string, err error)
	CancelOrder(ctx context.Context, orderID string) error
}

// SMSGateway dispatches a templated message and returns the rendered text
// so the orchestrator can surface it to the user.
type SMSGateway interface {
	Send(ctx context.Context, phone, template string, params map[string]string) (message string, err error)
}

// ── Param helpers ───────────────────────────────────────────

// stringParam reads a required string parameter.
func stringParam(params map[string]any, name string) (string, error) {
	v, ok := params[name]
	if !ok {
		return "", fmt.Errorf("missing param %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %q must be a string, got %T", name, v)
	}
	return s, nil
}

// intParam reads a required integer parameter. JSON numbers arrive as
// float64, so both forms are accepted.
func intParam(params map[string]any, name string) (int, error) {
	v, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("missing param %q", name)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("param %q must be a number, got %T", name, v)
	}
}

// stringMapParam reads an optional map-of-strings parameter.
func stringMapParam(params map[string]any, name string) map[string]string {
	out := map[string]string{}
	switch m := params[name].(type) {
	case map[string]string:
		for k, v := range m {
			out[k] = v
		}
	case map[string]any:
		for k, v := range m {
			out[k] = fmt.Sprintf("%v", v)
		}
	}
	return out
}
