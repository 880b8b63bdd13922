package repository

import "errors"

var (
	ErrNotFound             = errors.New("record not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrDuplicateKey         = errors.New("duplicate key")
	ErrUsageLimitReached    = errors.New("coupon usage limit reached")
	ErrUserLimitReached     = errors.New("coupon per-user limit reached")
	ErrInsufficientEarnings = errors.New("insufficient earnings")
	ErrAlreadyProcessed     = errors.New("withdrawal already processed")
)
