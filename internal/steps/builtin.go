package steps

import (
	"context"
	"fmt"

	"github.com/homatabesh/homa-core/internal/orchestrator"
)

// NewDefaultRegistry registers the built-in step kinds against the given
// services. New kinds are added by registering another executor; the
// orchestrator never changes.
func NewDefaultRegistry(verifier OTPVerifier, commerce Commerce, sms SMSGateway) *orchestrator.Registry {
	registry := orchestrator.NewRegistry()
	registry.Register(&VerifyOTP{Verifier: verifier})
	registry.Register(&AddToCart{Commerce: commerce})
	registry.Register(&CreateOrder{Commerce: commerce})
	registry.Register(&SendSMS{Gateway: sms})
	return registry
}

// ── verify_otp ──────────────────────────────────────────────

// VerifyOTP confirms the shopper's phone before any order mutation. It has
// no compensation: a verified code cannot be un-verified.
type VerifyOTP struct {
	Verifier OTPVerifier
}

func (s *VerifyOTP) Kind() string { return "verify_otp" }

func (s *VerifyOTP) RequiredParams() []string { return []string{"phone", "code"} }

func (s *VerifyOTP) Execute(ctx context.Context, params map[string]any, _ *orchestrator.ExecContext) (map[string]any, error) {
	phone, err := stringParam(params, "phone")
	if err != nil {
		return nil, err
	}
	code, err := stringParam(params, "code")
	if err != nil {
		return nil, err
	}

	if err := s.Verifier.Verify(ctx, phone, code); err != nil {
		return nil, fmt.Errorf("otp verification failed: %w", err)
	}
	return map[string]any{
		"phone":          phone,
		"phone_verified": true,
	}, nil
}

// ── add_to_cart ─────────────────────────────────────────────

// AddToCart puts a product into the shopper's cart. Compensation removes
// the created cart item.
type AddToCart struct {
	Commerce Commerce
}

func (s *AddToCart) Kind() string { return "add_to_cart" }

func (s *AddToCart) RequiredParams() []string { return []string{"product_id", "quantity"} }

func (s *AddToCart) Execute(ctx context.Context, params map[string]any, _ *orchestrator.ExecContext) (map[string]any, error) {
	productID, err := intParam(params, "product_id")
	if err != nil {
		return nil, err
	}
	quantity, err := intParam(params, "quantity")
	if err != nil {
		return nil, err
	}

	cartItemID, err := s.Commerce.AddToCart(ctx, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("add to cart: %w", err)
	}
	return map[string]any{"cart_item_id": cartItemID}, nil
}

func (s *AddToCart) Compensate(ctx context.Context, output map[string]any) error {
	cartItemID, _ := output["cart_item_id"].(string)
	if cartItemID == "" {
		return nil
	}
	return s.Commerce.RemoveFromCart(ctx, cartItemID)
}

// ── create_order ────────────────────────────────────────────

// CreateOrder places the order. Compensation cancels it.
type CreateOrder struct {
	Commerce Commerce
}

func (s *CreateOrder) Kind() string { return "create_order" }

func (s *CreateOrder) RequiredParams() []string { return []string{"product_id", "quantity"} }

func (s *CreateOrder) Execute(ctx context.Context, params map[string]any, _ *orchestrator.ExecContext) (map[string]any, error) {
	productID, err := intParam(params, "product_id")
	if err != nil {
		return nil, err
	}
	quantity, err := intParam(params, "quantity")
	if err != nil {
		return nil, err
	}

	orderID, err := s.Commerce.CreateOrder(ctx, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return map[string]any{"order_id": orderID}, nil
}

func (s *CreateOrder) Compensate(ctx context.Context, output map[string]any) error {
	orderID, _ := output["order_id"].(string)
	if orderID == "" {
		return nil
	}
	return s.Commerce.CancelOrder(ctx, orderID)
}

// ── send_sms ────────────────────────────────────────────────

// SendSMS dispatches the confirmation message. The rendered text is
// returned under "message" so it becomes part of the composed run message.
// A sent SMS cannot be recalled, so there is no compensation.
type SendSMS struct {
	Gateway SMSGateway
}

func (s *SendSMS) Kind() string { return "send_sms" }

func (s *SendSMS) RequiredParams() []string { return []string{"template"} }

func (s *SendSMS) Execute(ctx context.Context, params map[string]any, ec *orchestrator.ExecContext) (map[string]any, error) {
	template, err := stringParam(params, "template")
	if err != nil {
		return nil, err
	}

	// Phone may be passed explicitly or inherited from a verify_otp step
	// earlier in the run.
	phone, _ := params["phone"].(string)
	if phone == "" {
		if v, ok := ec.Get("phone"); ok {
			phone, _ = v.(string)
		}
	}
	if phone == "" {
		return nil, fmt.Errorf("no phone number in params or execution context")
	}

	message, err := s.Gateway.Send(ctx, phone, template, stringMapParam(params, "template_params"))
	if err != nil {
		return nil, fmt.Errorf("send sms: %w", err)
	}
	return map[string]any{
		"message":  message,
		"sms_sent": true,
	}, nil
}
