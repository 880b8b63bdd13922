package models

import "time"

// OrderSettledEvent is published to Kafka and SNS after settlement commits.
// Consumers (notification dispatch, analytics) are strictly best-effort.
type OrderSettledEvent struct {
	EventType  string    `json:"event_type"` // "order_settled"
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	TotalPrice float64   `json:"total_price"`
	CouponCode string    `json:"coupon_code,omitempty"`
	ItemCount  int       `json:"item_count"`
	Timestamp  time.Time `json:"timestamp"`
}

// WithdrawalResolvedEvent is published when an admin resolves a withdrawal.
type WithdrawalResolvedEvent struct {
	EventType    string    `json:"event_type"` // "withdrawal_resolved"
	WithdrawalID string    `json:"withdrawal_id"`
	VendorID     string    `json:"vendor_id"`
	Amount       float64   `json:"amount"`
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
}

// PayoutRetryMessage is enqueued to SQS when a vendor transfer fails during
// settlement; a worker retries it out of band.
type PayoutRetryMessage struct {
	VendorID        string  `json:"vendor_id"`
	StripeAccountID string  `json:"stripe_account_id"`
	Amount          float64 `json:"amount"`
	OrderID         string  `json:"order_id"`
	Attempts        int     `json:"attempts"`
}
