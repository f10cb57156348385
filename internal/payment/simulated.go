package payment

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// SimulatedGateway approves every payment unless the client reports the
// checkout was dismissed or declined. Used for demos and tests.
type SimulatedGateway struct {
	newID func() string
}

// NewSimulatedGateway returns a gateway issuing pay_sim_ references.
func NewSimulatedGateway(idGenerator func() string) *SimulatedGateway {
	if idGenerator == nil {
		idGenerator = func() string { return uuid.NewString() }
	}
	return &SimulatedGateway{newID: idGenerator}
}

// Initiate implements Gateway.
func (g *SimulatedGateway) Initiate(ctx context.Context, _ Payer, charge Charge) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	switch strings.ToLower(strings.TrimSpace(charge.PaymentToken)) {
	case TokenDismissed:
		return Result{Success: false, FailureReason: "payment dismissed"}, nil
	case "declined":
		return Result{Success: false, FailureReason: "payment declined"}, nil
	}
	return Result{Success: true, Reference: "pay_sim_" + g.newID()}, nil
}
