package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vendor statuses.
const (
	VendorStatusPending  = "pending"
	VendorStatusApproved = "approved"
	VendorStatusRejected = "rejected"
)

// DefaultCommissionRate applies when a vendor has no explicit rate set.
const DefaultCommissionRate = 0.10

// Vendor accrues earnings from settled order lines. Earnings only increase
// via settlement and only decrease via an approved withdrawal.
type Vendor struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	ShopName        string         `gorm:"type:varchar(255);not null" json:"shop_name"`
	Status          string         `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Earnings        float64        `gorm:"not null;default:0" json:"earnings"`
	CommissionRate  float64        `gorm:"not null;default:0" json:"commission_rate"` // 0 = use DefaultCommissionRate
	StripeAccountID *string        `gorm:"type:varchar(255)" json:"stripe_account_id,omitempty"`
	PayoutsEnabled  bool           `gorm:"not null;default:false" json:"payouts_enabled"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// EffectiveCommissionRate returns the vendor's commission rate, falling back
// to the platform default when unset.
func (v *Vendor) EffectiveCommissionRate() float64 {
	if v.CommissionRate <= 0 || v.CommissionRate >= 1 {
		return DefaultCommissionRate
	}
	return v.CommissionRate
}

// Withdrawal statuses. Once terminal a withdrawal is immutable.
const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
	WithdrawalStatusRejected = "rejected"
)

// MinWithdrawalAmount is the smallest amount a vendor may request.
const MinWithdrawalAmount = 1.0

// Withdrawal is a vendor-initiated debit against accrued earnings,
// resolved by an admin. The earnings debit happens atomically with approval.
type Withdrawal struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VendorID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Amount      float64    `gorm:"not null" json:"amount"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	AdminNote   string     `gorm:"type:varchar(512)" json:"admin_note,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// RequestWithdrawalRequest is the vendor payload for requesting a payout.
type RequestWithdrawalRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// ResolveWithdrawalRequest is the admin payload for approving or rejecting
// a pending withdrawal.
type ResolveWithdrawalRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
	Note   string `json:"note"`
}
