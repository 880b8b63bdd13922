package repository

import (
	"context"
	"errors"
	"strings"

	"marketplace-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CouponRepository defines the interface for coupon data access.
type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	UserRedemptionCount(ctx context.Context, couponID, userID uuid.UUID) (int, error)
	// Redeem atomically bumps used_count (guarded by usage_limit) and the
	// caller's per-user redemption row (guarded by perUserLimit; 0 means
	// unlimited). Never read-modify-write.
	Redeem(ctx context.Context, couponID, userID uuid.UUID, perUserLimit int) error
	Deactivate(ctx context.Context, code string) error
	FindAll(ctx context.Context, page, limit int) ([]models.Coupon, int64, error)
}

// GormCouponRepository implements CouponRepository using GORM.
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository creates a new GormCouponRepository.
func NewGormCouponRepository(db *gorm.DB) CouponRepository {
	return &GormCouponRepository{db: db}
}

// Create inserts a new coupon.
func (r *GormCouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	err := r.db.WithContext(ctx).Create(coupon).Error
	if err != nil && (strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique")) {
		return ErrDuplicateKey
	}
	return err
}

// FindByCode retrieves an active coupon by its code (case-insensitive).
func (r *GormCouponRepository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ? AND active = ?", strings.ToUpper(code), true).
		First(&coupon).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &coupon, nil
}

// UserRedemptionCount returns how many times a user has redeemed a coupon.
func (r *GormCouponRepository) UserRedemptionCount(ctx context.Context, couponID, userID uuid.UUID) (int, error) {
	var redemption models.CouponRedemption
	err := r.db.WithContext(ctx).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		First(&redemption).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return redemption.Count, nil
}

// Redeem bumps the per-user redemption row with the per-user cap in the
// WHERE clause, then increments used_count with the usage_limit guard.
// Concurrent redemptions serialize on the rows; the loser of the last slot
// observes zero affected rows and the whole transaction rolls back.
func (r *GormCouponRepository) Redeem(ctx context.Context, couponID, userID uuid.UUID, perUserLimit int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bump := func() (int64, error) {
			result := tx.Model(&models.CouponRedemption{}).
				Where("coupon_id = ? AND user_id = ? AND (? = 0 OR count < ?)",
					couponID, userID, perUserLimit, perUserLimit).
				UpdateColumn("count", gorm.Expr("count + 1"))
			return result.RowsAffected, result.Error
		}

		affected, err := bump()
		if err != nil {
			return err
		}
		if affected == 0 {
			err := tx.Create(&models.CouponRedemption{
				CouponID: couponID,
				UserID:   userID,
				Count:    1,
			}).Error
			if err != nil {
				if !strings.Contains(err.Error(), "duplicate") && !strings.Contains(err.Error(), "unique") {
					return err
				}
				// Lost the insert race; the row exists now, retry the
				// guarded update once.
				affected, err = bump()
				if err != nil {
					return err
				}
				if affected == 0 {
					return ErrUserLimitReached
				}
			}
		}

		result := tx.Model(&models.Coupon{}).
			Where("id = ? AND (usage_limit = 0 OR used_count < usage_limit)", couponID).
			UpdateColumn("used_count", gorm.Expr("used_count + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUsageLimitReached
		}
		return nil
	})
}

// Deactivate soft-disables a coupon by setting active = false.
func (r *GormCouponRepository) Deactivate(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("code = ?", strings.ToUpper(code)).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindAll retrieves paginated coupons.
func (r *GormCouponRepository) FindAll(ctx context.Context, page, limit int) ([]models.Coupon, int64, error) {
	var coupons []models.Coupon
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Coupon{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&coupons).Error; err != nil {
		return nil, 0, err
	}

	return coupons, total, nil
}
