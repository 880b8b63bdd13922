package models

import (
	"time"

	"github.com/google/uuid"
)

// CartLine is one requested item in a cart. Prices are never carried here;
// the pricing engine resolves them from the catalog at checkout time.
type CartLine struct {
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity" binding:"required,min=1"`
}

// Cart is the ephemeral per-user cart kept in Redis.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartLine `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SaveCartRequest replaces the caller's stored cart.
type SaveCartRequest struct {
	Items []CartLine `json:"items" binding:"required,dive"`
}
