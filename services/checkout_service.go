package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	"marketplace-backend/models"
	"marketplace-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Currency used for all intents and transfers.
const Currency = "usd"

// Metadata key carrying the serialized checkout snapshot on the payment
// intent.
const SnapshotMetadataKey = "checkout_snapshot"

// CheckoutService builds payment intents. The cart is re-priced here, never
// trusted from the client or a stale cache; the priced result is embedded as
// a snapshot in the intent metadata and becomes the sole source of truth
// for order creation once the payment succeeds.
type CheckoutService interface {
	CreateIntent(ctx context.Context, userID uuid.UUID, email string, req *models.CreateIntentRequest) (*models.CreateIntentResponse, *ServiceError)
}

type checkoutServiceImpl struct {
	pricing   PricingService
	carts     repository.CartRepository
	customers repository.CustomerRepository
	gateway   PaymentGateway
	logger    *zap.Logger
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	pricing PricingService,
	carts repository.CartRepository,
	customers repository.CustomerRepository,
	gateway PaymentGateway,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		pricing:   pricing,
		carts:     carts,
		customers: customers,
		gateway:   gateway,
		logger:    logger,
	}
}

// CreateIntent prices the cart, resolves the gateway customer, and opens a
// payment intent for the total. Besides the customer mapping, nothing is
// persisted: an intent that is never confirmed simply expires.
func (s *checkoutServiceImpl) CreateIntent(ctx context.Context, userID uuid.UUID, email string, req *models.CreateIntentRequest) (*models.CreateIntentResponse, *ServiceError) {
	lines := req.Items
	if len(lines) == 0 && s.carts != nil {
		cart, err := s.carts.GetCart(ctx, userID.String())
		if err != nil {
			s.logger.Error("Failed to load cart", zap.String("user_id", userID.String()), zap.Error(err))
			return nil, &ServiceError{StatusCode: 500, Message: "Failed to load cart"}
		}
		if cart != nil {
			lines = cart.Items
		}
	}
	if len(lines) == 0 {
		return nil, &ServiceError{StatusCode: 400, Message: "Cart is empty"}
	}

	priced, breakdown, svcErr := s.pricing.PriceCart(ctx, userID, lines, req.CouponCode)
	if svcErr != nil {
		return nil, svcErr
	}

	customerID, svcErr := s.resolveCustomer(ctx, userID, email)
	if svcErr != nil {
		return nil, svcErr
	}

	snapshot := models.CheckoutSnapshot{
		Version:    models.SnapshotVersion,
		UserID:     userID,
		Items:      priced,
		Shipping:   req.Shipping,
		CouponCode: req.CouponCode,
		Breakdown:  *breakdown,
	}
	snapshotBytes, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.Error("Failed to marshal checkout snapshot", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create payment intent"}
	}

	metadata := map[string]string{
		SnapshotMetadataKey: string(snapshotBytes),
		"user_id":           userID.String(),
	}
	if req.CouponCode != "" {
		metadata["coupon_code"] = req.CouponCode
	}

	amount := int64(math.Round(breakdown.Total * 100))
	intentID, clientSecret, err := s.gateway.CreatePaymentIntent(amount, Currency, customerID, metadata)
	if err != nil {
		s.logger.Error("Failed to create payment intent",
			zap.String("user_id", userID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 502, Message: "Payment provider unavailable"}
	}

	s.logger.Info("Payment intent created",
		zap.String("intent_id", intentID),
		zap.String("user_id", userID.String()),
		zap.Float64("total", breakdown.Total),
	)

	return &models.CreateIntentResponse{
		IntentID:     intentID,
		ClientSecret: clientSecret,
		Breakdown:    *breakdown,
	}, nil
}

// resolveCustomer returns the user's gateway customer id, creating the
// record on first checkout.
func (s *checkoutServiceImpl) resolveCustomer(ctx context.Context, userID uuid.UUID, email string) (string, *ServiceError) {
	existing, err := s.customers.FindByUserID(ctx, userID)
	if err == nil {
		return existing.StripeCustomerID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("Failed to look up customer", zap.String("user_id", userID.String()), zap.Error(err))
		return "", &ServiceError{StatusCode: 500, Message: "Failed to create payment intent"}
	}

	customerID, err := s.gateway.CreateCustomer(email, userID.String())
	if err != nil {
		s.logger.Error("Failed to create gateway customer", zap.String("user_id", userID.String()), zap.Error(err))
		return "", &ServiceError{StatusCode: 502, Message: "Payment provider unavailable"}
	}

	if err := s.customers.Create(ctx, &models.Customer{
		UserID:           userID,
		StripeCustomerID: customerID,
	}); err != nil {
		// A concurrent checkout may have inserted the mapping first; the
		// intent still works with the customer id we just created.
		s.logger.Warn("Failed to persist customer mapping",
			zap.String("user_id", userID.String()), zap.Error(err))
	}
	return customerID, nil
}
