package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CheckoutRequest is the buyer's form submission. Field order matches the
// validation order: the first failing field is the one reported.
type CheckoutRequest struct {
	CheckoutKey string `json:"checkoutKey" form:"checkoutKey" validate:"required"`
	FullName    string `json:"fullName" form:"fullName" validate:"required,min=2"`
	Email       string `json:"email" form:"email" validate:"required,email"`
	Phone       string `json:"phone" form:"phone" validate:"required,min=6"`
	Country     string `json:"country" form:"country" validate:"required,min=2"`
	Quantity    int    `json:"quantity" form:"quantity" validate:"min=1,max=10"`
	CulqiToken  string `json:"culqiToken" form:"culqiToken" validate:"required"`
	AcceptTerms bool   `json:"acceptTerms" form:"acceptTerms" validate:"eq=true"`

	Source string `json:"source" form:"source"`

	// Optional client-generated key. Submissions carrying the same key are
	// charged at most once; replays return the first outcome.
	IdempotencyKey string `json:"idempotencyKey" form:"idempotencyKey"`
}

type CheckoutResult struct {
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
	RegistrationID string `json:"registrationId,omitempty"`
	ThankYouURL    string `json:"thankYouUrl,omitempty"`
}

// ThankYouInfo is what the confirmation page needs to display. Price is a
// plain JSON number here, not a decimal string.
type ThankYouInfo struct {
	PackageName string  `json:"packageName"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
}

type CheckoutConfigRequest struct {
	CheckoutKey string          `json:"checkoutKey"`
	PackageName string          `json:"packageName" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency" validate:"required,len=3"`
	IsActive    *bool           `json:"isActive"`
	RedirectURL string          `json:"redirectUrl"`
	ThankYouURL string          `json:"thankYouUrl"`
	Metadata    json.RawMessage `json:"metadata"`
}
