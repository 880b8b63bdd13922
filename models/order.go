package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order statuses. Transitions only move forward through this list, or jump
// to cancelled/refunded from any non-terminal state.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// orderStatusRank orders the forward-only lifecycle. Terminal statuses
// (cancelled/refunded) rank above everything reachable.
var orderStatusRank = map[string]int{
	OrderStatusPending:    1,
	OrderStatusProcessing: 2,
	OrderStatusShipped:    3,
	OrderStatusDelivered:  4,
	OrderStatusCancelled:  5,
	OrderStatusRefunded:   5,
}

// IsForwardStatusTransition reports whether an order may move from -> to.
// Terminal statuses never transition again.
func IsForwardStatusTransition(from, to string) bool {
	fromRank, ok := orderStatusRank[from]
	if !ok {
		return false
	}
	toRank, ok := orderStatusRank[to]
	if !ok {
		return false
	}
	if from == OrderStatusCancelled || from == OrderStatusRefunded || from == OrderStatusDelivered {
		return false
	}
	return toRank > fromRank
}

// Order is materialized exactly once per payment confirmation. The unique
// index on ExternalPaymentID is the idempotency key: a redelivered payment
// event fails the insert and is acknowledged as a duplicate.
type Order struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	ExternalPaymentID string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"external_payment_id"`
	PaymentStatus     string         `gorm:"type:varchar(20);not null" json:"payment_status"`
	Status            string         `gorm:"type:varchar(20);not null;default:'processing'" json:"status"`
	Subtotal          float64        `gorm:"not null" json:"subtotal"` // before discount
	DiscountAmount    float64        `gorm:"not null;default:0" json:"discount_amount"`
	ShippingFee       float64        `gorm:"not null;default:0" json:"shipping_fee"`
	TaxAmount         float64        `gorm:"not null;default:0" json:"tax_amount"`
	TotalPrice        float64        `gorm:"not null" json:"total_price"`
	CouponCode        string         `gorm:"type:varchar(64)" json:"coupon_code,omitempty"`
	ShipName          string         `gorm:"type:varchar(255)" json:"ship_name"`
	ShipAddress       string         `gorm:"type:varchar(512)" json:"ship_address"`
	ShipCity          string         `gorm:"type:varchar(128)" json:"ship_city"`
	ShipPostalCode    string         `gorm:"type:varchar(32)" json:"ship_postal_code"`
	ShipCountry       string         `gorm:"type:varchar(128)" json:"ship_country"`
	OrderItems        []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// OrderItem is a settled line copied from the checkout snapshot, never from
// live catalog state.
type OrderItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID  `gorm:"type:uuid;not null" json:"product_id"`
	VariantID *uuid.UUID `gorm:"type:uuid" json:"variant_id,omitempty"`
	VendorID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	Image     string     `gorm:"type:varchar(1024)" json:"image"`
	Price     float64    `gorm:"not null" json:"price"`
	Quantity  int        `gorm:"not null" json:"quantity"`
}

// ShippingAddress is the client-supplied destination carried through the
// checkout snapshot into the order.
type ShippingAddress struct {
	Name       string `json:"name" binding:"required"`
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

// UpdateOrderStatusRequest is the admin payload for the order status hook.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled refunded"`
}
