package services

import (
	"context"
	"errors"

	"marketplace-backend/models"
	"marketplace-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WithdrawalService is the vendor payout request ledger. Requesting a
// withdrawal never touches the balance; the debit happens atomically with
// admin approval, with the balance re-checked at that moment.
type WithdrawalService interface {
	Request(ctx context.Context, userID uuid.UUID, req *models.RequestWithdrawalRequest) (*models.Withdrawal, *ServiceError)
	Resolve(ctx context.Context, withdrawalID uuid.UUID, req *models.ResolveWithdrawalRequest) (*models.Withdrawal, *ServiceError)
	ListForVendor(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Withdrawal, int64, *ServiceError)
	ListAll(ctx context.Context, status string, page, limit int) ([]models.Withdrawal, int64, *ServiceError)
}

type withdrawalServiceImpl struct {
	vendors   repository.VendorRepository
	publisher *EventPublisher
	logger    *zap.Logger
}

// NewWithdrawalService creates a new WithdrawalService.
func NewWithdrawalService(vendors repository.VendorRepository, publisher *EventPublisher, logger *zap.Logger) WithdrawalService {
	return &withdrawalServiceImpl{vendors: vendors, publisher: publisher, logger: logger}
}

// Request creates a pending withdrawal for the calling vendor.
func (s *withdrawalServiceImpl) Request(ctx context.Context, userID uuid.UUID, req *models.RequestWithdrawalRequest) (*models.Withdrawal, *ServiceError) {
	vendor, err := s.vendors.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ServiceError{StatusCode: 403, Message: "Vendor account not found"}
		}
		s.logger.Error("Failed to look up vendor", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to request withdrawal"}
	}

	if vendor.Status != models.VendorStatusApproved {
		return nil, &ServiceError{StatusCode: 403, Message: "Vendor is not approved"}
	}
	if req.Amount < models.MinWithdrawalAmount {
		return nil, &ServiceError{StatusCode: 400, Message: "Withdrawal amount is below the minimum"}
	}
	if req.Amount > vendor.Earnings {
		return nil, &ServiceError{StatusCode: 400, Message: "Insufficient earnings"}
	}

	withdrawal := &models.Withdrawal{
		VendorID: vendor.ID,
		Amount:   req.Amount,
		Status:   models.WithdrawalStatusPending,
	}
	if err := s.vendors.CreateWithdrawal(ctx, withdrawal); err != nil {
		s.logger.Error("Failed to create withdrawal", zap.String("vendor_id", vendor.ID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to request withdrawal"}
	}

	s.logger.Info("Withdrawal requested",
		zap.String("withdrawal_id", withdrawal.ID.String()),
		zap.String("vendor_id", vendor.ID.String()),
		zap.Float64("amount", req.Amount),
	)
	return withdrawal, nil
}

// Resolve approves or rejects a pending withdrawal. Approval re-validates
// the balance: a vendor whose earnings dropped since the request gets the
// failure surfaced to the admin, with nothing debited.
func (s *withdrawalServiceImpl) Resolve(ctx context.Context, withdrawalID uuid.UUID, req *models.ResolveWithdrawalRequest) (*models.Withdrawal, *ServiceError) {
	var err error
	switch req.Status {
	case models.WithdrawalStatusApproved:
		err = s.vendors.ApproveWithdrawal(ctx, withdrawalID, req.Note)
	case models.WithdrawalStatusRejected:
		err = s.vendors.RejectWithdrawal(ctx, withdrawalID, req.Note)
	default:
		return nil, &ServiceError{StatusCode: 400, Message: "Status must be approved or rejected"}
	}

	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, &ServiceError{StatusCode: 404, Message: "Withdrawal not found"}
		case errors.Is(err, repository.ErrAlreadyProcessed):
			return nil, &ServiceError{StatusCode: 409, Message: "Withdrawal has already been processed"}
		case errors.Is(err, repository.ErrInsufficientEarnings):
			return nil, &ServiceError{StatusCode: 409, Message: "Vendor earnings are no longer sufficient for this withdrawal"}
		default:
			s.logger.Error("Failed to resolve withdrawal",
				zap.String("withdrawal_id", withdrawalID.String()), zap.Error(err))
			return nil, &ServiceError{StatusCode: 500, Message: "Failed to resolve withdrawal"}
		}
	}

	withdrawal, err := s.vendors.FindWithdrawalByID(ctx, withdrawalID)
	if err != nil {
		s.logger.Error("Failed to reload withdrawal",
			zap.String("withdrawal_id", withdrawalID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to resolve withdrawal"}
	}

	s.logger.Info("Withdrawal resolved",
		zap.String("withdrawal_id", withdrawal.ID.String()),
		zap.String("status", withdrawal.Status),
		zap.Float64("amount", withdrawal.Amount),
	)

	if s.publisher != nil {
		s.publisher.PublishWithdrawalResolved(ctx, models.WithdrawalResolvedEvent{
			WithdrawalID: withdrawal.ID.String(),
			VendorID:     withdrawal.VendorID.String(),
			Amount:       withdrawal.Amount,
			Status:       withdrawal.Status,
		})
	}
	return withdrawal, nil
}

// ListForVendor returns the calling vendor's withdrawals.
func (s *withdrawalServiceImpl) ListForVendor(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Withdrawal, int64, *ServiceError) {
	vendor, err := s.vendors.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, &ServiceError{StatusCode: 403, Message: "Vendor account not found"}
		}
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to list withdrawals"}
	}

	withdrawals, total, err := s.vendors.FindWithdrawalsByVendor(ctx, vendor.ID, page, limit)
	if err != nil {
		s.logger.Error("Failed to list withdrawals", zap.String("vendor_id", vendor.ID.String()), zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to list withdrawals"}
	}
	return withdrawals, total, nil
}

// ListAll returns withdrawals across vendors, optionally filtered by status
// (admin).
func (s *withdrawalServiceImpl) ListAll(ctx context.Context, status string, page, limit int) ([]models.Withdrawal, int64, *ServiceError) {
	withdrawals, total, err := s.vendors.FindAllWithdrawals(ctx, status, page, limit)
	if err != nil {
		s.logger.Error("Failed to list withdrawals", zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to list withdrawals"}
	}
	return withdrawals, total, nil
}
