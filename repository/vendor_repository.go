package repository

import (
	"context"
	"errors"
	"time"

	"marketplace-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VendorRepository defines the interface for vendor and withdrawal data
// access. Earnings mutations are expressed as atomic conditional updates.
type VendorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Vendor, error)
	Create(ctx context.Context, vendor *models.Vendor) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	// AddEarnings accrues net-of-commission earnings from a settled line.
	AddEarnings(ctx context.Context, id uuid.UUID, amount float64) error

	CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error
	FindWithdrawalByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	FindWithdrawalsByVendor(ctx context.Context, vendorID uuid.UUID, page, limit int) ([]models.Withdrawal, int64, error)
	FindAllWithdrawals(ctx context.Context, status string, page, limit int) ([]models.Withdrawal, int64, error)
	// ApproveWithdrawal debits vendor earnings and marks the withdrawal
	// approved in one transaction; the debit is guarded by the current
	// balance and the status flip is guarded by status = pending.
	ApproveWithdrawal(ctx context.Context, id uuid.UUID, note string) error
	// RejectWithdrawal terminates a pending withdrawal without touching
	// the balance.
	RejectWithdrawal(ctx context.Context, id uuid.UUID, note string) error
}

// GormVendorRepository implements VendorRepository using GORM.
type GormVendorRepository struct {
	db *gorm.DB
}

// NewGormVendorRepository creates a new GormVendorRepository.
func NewGormVendorRepository(db *gorm.DB) VendorRepository {
	return &GormVendorRepository{db: db}
}

func (r *GormVendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.WithContext(ctx).First(&vendor, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &vendor, nil
}

func (r *GormVendorRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.WithContext(ctx).First(&vendor, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &vendor, nil
}

func (r *GormVendorRepository) Create(ctx context.Context, vendor *models.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}

// SetStatus updates a vendor's approval status.
func (r *GormVendorRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddEarnings atomically increments the vendor balance.
func (r *GormVendorRepository) AddEarnings(ctx context.Context, id uuid.UUID, amount float64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ?", id).
		UpdateColumn("earnings", gorm.Expr("earnings + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormVendorRepository) CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *GormVendorRepository) FindWithdrawalByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.WithContext(ctx).First(&w, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *GormVendorRepository) FindWithdrawalsByVendor(ctx context.Context, vendorID uuid.UUID, page, limit int) ([]models.Withdrawal, int64, error) {
	var withdrawals []models.Withdrawal
	var total int64

	query := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Where("vendor_id = ?", vendorID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&withdrawals).Error; err != nil {
		return nil, 0, err
	}

	return withdrawals, total, nil
}

func (r *GormVendorRepository) FindAllWithdrawals(ctx context.Context, status string, page, limit int) ([]models.Withdrawal, int64, error) {
	var withdrawals []models.Withdrawal
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Withdrawal{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&withdrawals).Error; err != nil {
		return nil, 0, err
	}

	return withdrawals, total, nil
}

// ApproveWithdrawal re-checks the balance at approval time: the debit
// carries an "earnings >= amount" guard, and the status flip carries a
// "status = pending" guard. Either guard failing rolls back both.
func (r *GormVendorRepository) ApproveWithdrawal(ctx context.Context, id uuid.UUID, note string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var w models.Withdrawal
		if err := tx.First(&w, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		now := time.Now()
		flip := tx.Model(&models.Withdrawal{}).
			Where("id = ? AND status = ?", id, models.WithdrawalStatusPending).
			Updates(map[string]interface{}{
				"status":       models.WithdrawalStatusApproved,
				"admin_note":   note,
				"processed_at": &now,
			})
		if flip.Error != nil {
			return flip.Error
		}
		if flip.RowsAffected == 0 {
			return ErrAlreadyProcessed
		}

		debit := tx.Model(&models.Vendor{}).
			Where("id = ? AND earnings >= ?", w.VendorID, w.Amount).
			UpdateColumn("earnings", gorm.Expr("earnings - ?", w.Amount))
		if debit.Error != nil {
			return debit.Error
		}
		if debit.RowsAffected == 0 {
			return ErrInsufficientEarnings
		}
		return nil
	})
}

// RejectWithdrawal terminates a pending withdrawal; the balance is untouched.
// The lookup distinguishes an unknown id from one already resolved.
func (r *GormVendorRepository) RejectWithdrawal(ctx context.Context, id uuid.UUID, note string) error {
	var w models.Withdrawal
	if err := r.db.WithContext(ctx).First(&w, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, models.WithdrawalStatusPending).
		Updates(map[string]interface{}{
			"status":       models.WithdrawalStatusRejected,
			"admin_note":   note,
			"processed_at": &now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}
