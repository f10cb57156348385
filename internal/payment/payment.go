// Package payment talks to payment providers on behalf of the booking flow.
package payment

import (
	"context"
	"errors"
)

var (
	// ErrGatewayUnavailable is returned when the provider is missing, misconfigured or unreachable.
	ErrGatewayUnavailable = errors.New("payment: gateway unavailable")
	// ErrRefundFailed is returned when the provider did not confirm a refund.
	ErrRefundFailed = errors.New("payment: refund failed")
)

// TokenDismissed is the payment token a client sends when the customer closed
// the checkout widget without paying.
const TokenDismissed = "dismissed"

// Payer is the contact snapshot sent with a charge.
type Payer struct {
	Name   string
	Email  string
	Mobile string
}

// Charge describes what is being paid for.
type Charge struct {
	Occasion         string
	PackageID        string
	PackageLabel     string
	AmountMinorUnits int64
	Currency         string
	// PaymentToken is the provider specific token produced by the client side widget.
	PaymentToken string
}

// Result is the outcome of a payment attempt. A declined or dismissed payment
// is a Result with Success false, not an error.
type Result struct {
	Success       bool
	Reference     string
	FailureReason string
}

// Gateway initiates payments.
type Gateway interface {
	Initiate(ctx context.Context, payer Payer, charge Charge) (Result, error)
}

// RefundRequest identifies the payment to refund and how much of it.
type RefundRequest struct {
	PaymentReference string
	AmountMinorUnits int64
}

// Refunder issues refunds against captured payments.
type Refunder interface {
	Refund(ctx context.Context, req RefundRequest) error
}
