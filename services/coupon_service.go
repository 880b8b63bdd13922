package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace-backend/models"
	"marketplace-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CouponService defines the interface for coupon business logic. Validation
// is read-only; redemption (the counter increments) happens exactly once per
// confirmed order, at settlement time, so abandoned checkouts never consume
// quota.
type CouponService interface {
	CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, *ServiceError)
	ValidateCoupon(ctx context.Context, code string, userID uuid.UUID, subtotal float64, vendorSubtotals map[uuid.UUID]float64) (*models.ValidateCouponResponse, *ServiceError)
	RedeemCoupon(ctx context.Context, code string, userID uuid.UUID) error
	GetCoupon(ctx context.Context, code string) (*models.Coupon, *ServiceError)
	DeactivateCoupon(ctx context.Context, code string) *ServiceError
	ListCoupons(ctx context.Context, page, limit int) ([]models.Coupon, int64, *ServiceError)
}

type couponServiceImpl struct {
	repo   repository.CouponRepository
	logger *zap.Logger
}

// NewCouponService creates a new CouponService.
func NewCouponService(repo repository.CouponRepository, logger *zap.Logger) CouponService {
	return &couponServiceImpl{repo: repo, logger: logger}
}

// CreateCoupon creates a new coupon (admin or vendor authored).
func (s *couponServiceImpl) CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, *ServiceError) {
	if req.ValidUntil.Before(time.Now()) {
		return nil, &ServiceError{StatusCode: 400, Message: "Expiry date must be in the future"}
	}

	if req.Type == models.CouponTypePercentage && req.Value > 100 {
		return nil, &ServiceError{StatusCode: 400, Message: "Percentage discount cannot exceed 100"}
	}

	validFrom := time.Now()
	if req.ValidFrom != nil {
		validFrom = *req.ValidFrom
	}

	coupon := &models.Coupon{
		Code:              strings.ToUpper(req.Code),
		Type:              req.Type,
		Value:             req.Value,
		MinOrderValue:     req.MinOrderValue,
		MaxDiscount:       req.MaxDiscount,
		UsageLimit:        req.UsageLimit,
		UsageLimitPerUser: req.UsageLimitPerUser,
		ValidFrom:         validFrom,
		ValidUntil:        req.ValidUntil,
		Active:            true,
		VendorID:          req.VendorID,
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, &ServiceError{StatusCode: 409, Message: "Coupon code already exists"}
		}
		s.logger.Error("Failed to create coupon", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create coupon"}
	}

	s.logger.Info("Coupon created", zap.String("code", coupon.Code), zap.String("type", string(coupon.Type)))
	return coupon, nil
}

// ValidateCoupon checks a code against its time window, usage caps and
// minimum order value, and computes the discount for the given subtotal.
// This never touches the usage counters.
//
// A vendor-scoped coupon discounts only that vendor's items: callers that
// price real lines pass the per-vendor subtotal breakdown, and the discount
// is computed over (and capped by) the owning vendor's share. A nil map
// means the caller has no line breakdown (the advisory validate endpoint);
// the checkout path always supplies one.
func (s *couponServiceImpl) ValidateCoupon(ctx context.Context, code string, userID uuid.UUID, subtotal float64, vendorSubtotals map[uuid.UUID]float64) (*models.ValidateCouponResponse, *ServiceError) {
	invalid := func(msg string) *models.ValidateCouponResponse {
		return &models.ValidateCouponResponse{Valid: false, Code: code, Message: msg}
	}

	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("Coupon not found or inactive"), nil
		}
		s.logger.Error("Failed to look up coupon", zap.String("code", code), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to validate coupon"}
	}

	now := time.Now()
	if now.Before(coupon.ValidFrom) {
		return invalid("Coupon is not yet valid"), nil
	}
	if now.After(coupon.ValidUntil) {
		return invalid("Coupon has expired"), nil
	}

	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return invalid("Coupon usage limit reached"), nil
	}

	// Vendor-scoped coupons discount only the owning vendor's share of the
	// cart.
	eligible := subtotal
	if coupon.VendorID != nil && vendorSubtotals != nil {
		eligible = vendorSubtotals[*coupon.VendorID]
		if eligible <= 0 {
			return invalid("Coupon does not apply to any item in this cart"), nil
		}
	}

	if eligible < coupon.MinOrderValue {
		return invalid(fmt.Sprintf("Minimum order value of %.2f required", coupon.MinOrderValue)), nil
	}

	if coupon.UsageLimitPerUser > 0 {
		used, err := s.repo.UserRedemptionCount(ctx, coupon.ID, userID)
		if err != nil {
			s.logger.Error("Failed to look up coupon usage", zap.String("code", code), zap.Error(err))
			return nil, &ServiceError{StatusCode: 500, Message: "Failed to validate coupon"}
		}
		if used >= coupon.UsageLimitPerUser {
			return invalid("Coupon usage limit reached for this user"), nil
		}
	}

	var discount float64
	switch coupon.Type {
	case models.CouponTypePercentage:
		discount = eligible * (coupon.Value / 100)
		if coupon.MaxDiscount > 0 && discount > coupon.MaxDiscount {
			discount = coupon.MaxDiscount
		}
	case models.CouponTypeFixed:
		discount = coupon.Value
	default:
		return nil, &ServiceError{StatusCode: 500, Message: "Unknown coupon type"}
	}

	// A discount never exceeds the eligible subtotal, so totals cannot go
	// negative.
	if discount > eligible {
		discount = eligible
	}

	return &models.ValidateCouponResponse{
		Valid:          true,
		Code:           coupon.Code,
		Type:           coupon.Type,
		DiscountAmount: discount,
		Message:        "Coupon applied successfully",
	}, nil
}

// RedeemCoupon consumes one use of the coupon for the given user. Called by
// the payment event processor after the order is materialized.
func (s *couponServiceImpl) RedeemCoupon(ctx context.Context, code string, userID uuid.UUID) error {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	return s.repo.Redeem(ctx, coupon.ID, userID, coupon.UsageLimitPerUser)
}

// GetCoupon retrieves a coupon by code.
func (s *couponServiceImpl) GetCoupon(ctx context.Context, code string) (*models.Coupon, *ServiceError) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Coupon not found"}
		}
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch coupon"}
	}
	return coupon, nil
}

// DeactivateCoupon soft-disables a coupon by code.
func (s *couponServiceImpl) DeactivateCoupon(ctx context.Context, code string) *ServiceError {
	if err := s.repo.Deactivate(ctx, code); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &ServiceError{StatusCode: 404, Message: "Coupon not found"}
		}
		s.logger.Error("Failed to deactivate coupon", zap.String("code", code), zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to deactivate coupon"}
	}

	s.logger.Info("Coupon deactivated", zap.String("code", code))
	return nil
}

// ListCoupons returns paginated coupons.
func (s *couponServiceImpl) ListCoupons(ctx context.Context, page, limit int) ([]models.Coupon, int64, *ServiceError) {
	coupons, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list coupons", zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to list coupons"}
	}
	return coupons, total, nil
}
