package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a catalog item owned by a vendor. When a product has variants,
// the variant price and stock are authoritative for lines that select one.
type Product struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string           `gorm:"type:varchar(255);not null" json:"name"`
	Price     float64          `gorm:"not null" json:"price"`
	Stock     int              `gorm:"not null;default:0" json:"stock"`
	SoldCount int              `gorm:"not null;default:0" json:"sold_count"`
	Image     string           `gorm:"type:varchar(1024)" json:"image"`
	VendorID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Variants  []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"-"`
}

// ProductVariant carries its own price and stock, mutually exclusive with
// the base product fields when a cart line selects it.
type ProductVariant struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	SKU       string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"sku"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Price     float64   `gorm:"not null" json:"price"`
	Stock     int       `gorm:"not null;default:0" json:"stock"`
	SoldCount int       `gorm:"not null;default:0" json:"sold_count"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
