package client

import "context"

// Charge outcome statuses. A decline is a normal business outcome, not an
// error; transport failures are returned as errors instead.
const (
	ChargeApproved = "approved"
	ChargeDeclined = "declined"
	// ChargeBypassed means no real charge was attempted. Only the dev
	// gateway produces it.
	ChargeBypassed = "bypassed"
)

type ChargeRequest struct {
	AmountMinorUnits int64
	Currency         string
	Email            string
	Token            string
	Description      string
	Phone            string
}

type ChargeResult struct {
	Status      string
	ProviderID  string // set when approved
	UserMessage string // provider's customer-facing text when declined
	Raw         []byte // response body verbatim, for the audit trail
}

// PaymentGateway is the single outbound charge call. Implementations are
// selected once at startup; the checkout pipeline never inspects the
// environment itself.
type PaymentGateway interface {
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)
}

// devGateway stands in when no gateway credentials are configured. It is
// only constructed for non-production processes (main refuses to start a
// production process without credentials).
type devGateway struct{}

func NewDevGateway() PaymentGateway {
	return &devGateway{}
}

func (g *devGateway) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	return &ChargeResult{Status: ChargeBypassed}, nil
}
