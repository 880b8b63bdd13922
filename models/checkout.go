package models

import (
	"github.com/google/uuid"
)

// SnapshotVersion is bumped whenever the CheckoutSnapshot schema changes so
// that order materialization can reject payloads it no longer understands.
const SnapshotVersion = 1

// PriceBreakdown is the immutable result of pricing a cart once. It is
// never persisted on its own; it travels inside the payment intent metadata
// and, after confirmation, into the order row.
type PriceBreakdown struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	ShippingFee    float64 `json:"shipping_fee"`
	TaxAmount      float64 `json:"tax_amount"`
	Total          float64 `json:"total"`
}

// PricedLine is a cart line with its server-resolved price attached.
type PricedLine struct {
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	VendorID  uuid.UUID  `json:"vendor_id"`
	Name      string     `json:"name"`
	Image     string     `json:"image,omitempty"`
	Price     float64    `json:"price"`
	Quantity  int        `json:"quantity"`
}

// CheckoutSnapshot is the tamper-evident record embedded in the payment
// intent metadata. At confirmation time it is the sole source of truth for
// order creation, since catalog prices and stock may have changed since.
type CheckoutSnapshot struct {
	Version    int             `json:"version"`
	UserID     uuid.UUID       `json:"user_id"`
	Items      []PricedLine    `json:"items"`
	Shipping   ShippingAddress `json:"shipping"`
	CouponCode string          `json:"coupon_code,omitempty"`
	Breakdown  PriceBreakdown  `json:"breakdown"`
}

// CreateIntentRequest is the checkout payload. Items may be omitted, in
// which case the caller's saved cart is used.
type CreateIntentRequest struct {
	Items      []CartLine      `json:"items" binding:"omitempty,dive"`
	Shipping   ShippingAddress `json:"shipping" binding:"required"`
	CouponCode string          `json:"coupon_code"`
}

// CreateIntentResponse returns what the client needs to complete payment.
type CreateIntentResponse struct {
	IntentID     string         `json:"intent_id"`
	ClientSecret string         `json:"client_secret"`
	Breakdown    PriceBreakdown `json:"breakdown"`
}

// Customer maps a platform user to their gateway customer record.
type Customer struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	StripeCustomerID string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"stripe_customer_id"`
}
