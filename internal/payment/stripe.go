package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway charges through Stripe PaymentIntents. It doubles as a Refunder.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway builds a gateway for secretKey. backends may be nil to use
// Stripe's public endpoints.
func NewStripeGateway(secretKey string, backends *stripe.Backends) (*StripeGateway, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, fmt.Errorf("%w: stripe secret key is empty", ErrGatewayUnavailable)
	}
	return &StripeGateway{api: client.New(secretKey, backends)}, nil
}

// Initiate implements Gateway by creating and confirming a PaymentIntent.
func (g *StripeGateway) Initiate(ctx context.Context, payer Payer, charge Charge) (Result, error) {
	if strings.TrimSpace(charge.PaymentToken) == "" || strings.EqualFold(charge.PaymentToken, TokenDismissed) {
		return Result{Success: false, FailureReason: "payment dismissed"}, nil
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(charge.AmountMinorUnits),
		Currency:      stripe.String(strings.ToLower(charge.Currency)),
		PaymentMethod: stripe.String(charge.PaymentToken),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String(fmt.Sprintf("%s - %s", charge.Occasion, charge.PackageLabel)),
		// Confirming on create without a return URL is only accepted when
		// redirect-based methods are off.
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String(string(stripe.PaymentIntentAutomaticPaymentMethodsAllowRedirectsNever)),
		},
	}
	if payer.Email != "" {
		params.ReceiptEmail = stripe.String(payer.Email)
	}
	params.Context = ctx
	params.AddMetadata("occasion", charge.Occasion)
	params.AddMetadata("package_id", charge.PackageID)
	params.AddMetadata("customer_name", payer.Name)
	params.AddMetadata("customer_mobile", payer.Mobile)

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return Result{Success: false, FailureReason: stripeErr.Msg}, nil
		}
		return Result{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return Result{Success: false, Reference: intent.ID, FailureReason: string(intent.Status)}, nil
	}
	return Result{Success: true, Reference: intent.ID}, nil
}

// Refund implements Refunder.
func (g *StripeGateway) Refund(ctx context.Context, req RefundRequest) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.PaymentReference),
	}
	if req.AmountMinorUnits > 0 {
		params.Amount = stripe.Int64(req.AmountMinorUnits)
	}
	params.Context = ctx

	refund, err := g.api.Refunds.New(params)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRefundFailed, err)
	}
	if refund.Status == stripe.RefundStatusFailed || refund.Status == stripe.RefundStatusCanceled {
		return fmt.Errorf("%w: refund %s is %s", ErrRefundFailed, refund.ID, refund.Status)
	}
	return nil
}
