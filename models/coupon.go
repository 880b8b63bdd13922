package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CouponType represents the type of discount a coupon provides.
type CouponType string

const (
	CouponTypePercentage CouponType = "percentage"
	CouponTypeFixed      CouponType = "fixed"
)

// Coupon represents a promotional coupon stored in Postgres.
// Codes are stored upper-cased and looked up case-insensitively.
// Coupons are never hard-deleted; Active soft-disables them.
type Coupon struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code              string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Type              CouponType     `gorm:"type:varchar(20);not null" json:"type"`
	Value             float64        `gorm:"not null" json:"value"`                     // discount amount or percentage
	MinOrderValue     float64        `gorm:"not null;default:0" json:"min_order_value"` // minimum subtotal to apply
	MaxDiscount       float64        `gorm:"not null;default:0" json:"max_discount"`    // 0 = uncapped, percentage only
	UsageLimit        int            `gorm:"not null;default:0" json:"usage_limit"`     // 0 = unlimited
	UsageLimitPerUser int            `gorm:"not null;default:0" json:"usage_limit_per_user"`
	UsedCount         int            `gorm:"not null;default:0" json:"used_count"`
	ValidFrom         time.Time      `gorm:"not null" json:"valid_from"`
	ValidUntil        time.Time      `gorm:"not null" json:"valid_until"`
	Active            bool           `gorm:"not null;default:true" json:"active"`
	VendorID          *uuid.UUID     `gorm:"type:uuid;index" json:"vendor_id,omitempty"` // nil = global coupon
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// CouponRedemption tracks per-user usage of a coupon. One row per
// (coupon, user) pair; Count is bumped atomically on redemption.
type CouponRedemption struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CouponID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_coupon_user" json:"coupon_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_coupon_user" json:"user_id"`
	Count     int       `gorm:"not null;default:0" json:"count"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// CreateCouponRequest is the payload for creating a new coupon.
type CreateCouponRequest struct {
	Code              string     `json:"code" binding:"required,min=3,max=64"`
	Type              CouponType `json:"type" binding:"required,oneof=percentage fixed"`
	Value             float64    `json:"value" binding:"required,gt=0"`
	MinOrderValue     float64    `json:"min_order_value" binding:"gte=0"`
	MaxDiscount       float64    `json:"max_discount" binding:"gte=0"`
	UsageLimit        int        `json:"usage_limit" binding:"gte=0"`
	UsageLimitPerUser int        `json:"usage_limit_per_user" binding:"gte=0"`
	ValidFrom         *time.Time `json:"valid_from"`
	ValidUntil        time.Time  `json:"valid_until" binding:"required"`
	VendorID          *uuid.UUID `json:"vendor_id"`
}

// ValidateCouponRequest is the payload for validating a coupon against a cart subtotal.
type ValidateCouponRequest struct {
	Code      string  `json:"code" binding:"required"`
	CartTotal float64 `json:"cart_total" binding:"required,gt=0"`
}

// ValidateCouponResponse reports whether a coupon applies and for how much.
type ValidateCouponResponse struct {
	Valid          bool       `json:"valid"`
	Code           string     `json:"code"`
	Type           CouponType `json:"type,omitempty"`
	DiscountAmount float64    `json:"discount_amount"`
	Message        string     `json:"message,omitempty"`
}
