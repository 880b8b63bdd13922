package services

import (
	"context"
	"errors"

	"marketplace-backend/models"
	"marketplace-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VendorService exposes the vendor approval hook consumed by the admin
// surface, plus vendor lookup for the vendor-facing endpoints.
type VendorService interface {
	SetStatus(ctx context.Context, vendorID uuid.UUID, status string) (*models.Vendor, *ServiceError)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Vendor, *ServiceError)
}

type vendorServiceImpl struct {
	vendors repository.VendorRepository
	logger  *zap.Logger
}

// NewVendorService creates a new VendorService.
func NewVendorService(vendors repository.VendorRepository, logger *zap.Logger) VendorService {
	return &vendorServiceImpl{vendors: vendors, logger: logger}
}

// SetStatus approves or rejects a vendor.
func (s *vendorServiceImpl) SetStatus(ctx context.Context, vendorID uuid.UUID, status string) (*models.Vendor, *ServiceError) {
	if status != models.VendorStatusApproved && status != models.VendorStatusRejected {
		return nil, &ServiceError{StatusCode: 400, Message: "Status must be approved or rejected"}
	}

	if err := s.vendors.SetStatus(ctx, vendorID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Vendor not found"}
		}
		s.logger.Error("Failed to update vendor status", zap.String("vendor_id", vendorID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update vendor status"}
	}

	vendor, err := s.vendors.FindByID(ctx, vendorID)
	if err != nil {
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update vendor status"}
	}

	s.logger.Info("Vendor status updated",
		zap.String("vendor_id", vendorID.String()), zap.String("status", status))
	return vendor, nil
}

// GetByUserID returns the vendor record owned by a user.
func (s *vendorServiceImpl) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Vendor, *ServiceError) {
	vendor, err := s.vendors.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Vendor not found"}
		}
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch vendor"}
	}
	return vendor, nil
}
