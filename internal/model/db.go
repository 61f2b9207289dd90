package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Payment status values recorded on a registration. A declined or failed
// charge never produces a row, so there is no "failed" status.
const (
	PaymentStatusPending    = "pending"
	PaymentStatusPaid       = "paid"
	PaymentStatusPendingDev = "pending_dev"
)

const PaymentProviderCulqi = "culqi"

type CheckoutConfig struct {
	ID uint `gorm:"primaryKey"`
	// Public-facing key used in checkout URLs, independent of the row id.
	CheckoutKey string          `gorm:"size:64;uniqueIndex;not null"`
	PackageName string          `gorm:"size:255;not null"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Currency    string          `gorm:"size:8;not null"` // ISO 4217, e.g. PEN, USD
	IsActive    bool            `gorm:"not null;default:true"`
	RedirectURL string          `gorm:"size:512"` // legacy external checkout destination
	ThankYouURL string          `gorm:"size:512"` // custom post-purchase destination, wins over RedirectURL
	// Display metadata (badge, image, sold-out flag, feature list). Opaque
	// to the pipeline.
	Metadata  json.RawMessage `gorm:"type:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Registration struct {
	ID         string `gorm:"primaryKey;size:36"` // uuid
	CheckoutID uint   `gorm:"index;not null"`     // FK -> checkout_config.id
	FullName   string `gorm:"size:255;not null"`
	Email      string `gorm:"size:255;index;not null"`
	Phone      string `gorm:"size:32;not null"`
	Country    string `gorm:"size:64;not null"`

	PaymentStatus   string `gorm:"size:32;index;not null"` // pending, paid, pending_dev
	PaymentProvider string `gorm:"size:32;not null"`
	PaymentID       string `gorm:"size:128"` // provider-assigned charge id

	AmountPaid decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	// Client-generated key deduplicating a double-submit. Nullable so that
	// legacy clients without one still insert.
	IdempotencyKey *string `gorm:"size:64;uniqueIndex"`

	// Request source, quantity and the raw gateway response, kept verbatim
	// for audit and dispute resolution.
	Metadata json.RawMessage `gorm:"type:json"`

	CreatedAt time.Time
}

type AnalyticsEvent struct {
	ID        uint            `gorm:"primaryKey"`
	EventType string          `gorm:"size:64;index;not null"`
	EventData json.RawMessage `gorm:"type:json"`
	CreatedAt time.Time
}
