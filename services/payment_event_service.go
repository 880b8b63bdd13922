package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"marketplace-backend/models"
	"marketplace-backend/repository"
	awspkg "marketplace-backend/pkg/aws"

	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

// PaymentEventService materializes orders from gateway payment events. The
// caller (webhook controller) has already verified the event signature; no
// side effect happens before that check passes. Only payment_intent.succeeded
// events drive order creation — everything else is acknowledged and ignored.
//
// Idempotency: the order insert carries the unique external payment id, so
// a redelivered event fails the insert and degrades to a logged no-op.
type PaymentEventService struct {
	orders     repository.OrderRepository
	carts      repository.CartRepository
	coupons    CouponService
	settlement *SettlementService
	publisher  *EventPublisher
	metrics    *awspkg.MetricsClient
	logger     *zap.Logger
}

// NewPaymentEventService creates a new PaymentEventService. carts, publisher
// and metrics may be nil.
func NewPaymentEventService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	coupons CouponService,
	settlement *SettlementService,
	publisher *EventPublisher,
	metrics *awspkg.MetricsClient,
	logger *zap.Logger,
) *PaymentEventService {
	return &PaymentEventService{
		orders:     orders,
		carts:      carts,
		coupons:    coupons,
		settlement: settlement,
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger,
	}
}

// ProcessEvent handles one verified gateway event. The returned error means
// the payload could not be understood; business failures downstream of the
// order insert are absorbed here because the buyer has already paid.
func (s *PaymentEventService) ProcessEvent(ctx context.Context, event stripe.Event) error {
	if event.Type != "payment_intent.succeeded" {
		s.logger.Debug("Ignoring event type", zap.String("event_type", string(event.Type)))
		return nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		s.logger.Error("Failed to unmarshal payment intent", zap.String("event_id", event.ID), zap.Error(err))
		return fmt.Errorf("unmarshal payment intent: %w", err)
	}

	snapshot, err := decodeSnapshot(pi.Metadata)
	if err != nil {
		// Not an intent this system created, or a snapshot schema we no
		// longer understand. Nothing to materialize.
		s.logger.Warn("Payment intent without a usable checkout snapshot",
			zap.String("intent_id", pi.ID), zap.Error(err))
		return nil
	}

	order := buildOrder(pi.ID, snapshot)
	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// Redelivery: the order already exists, acknowledge and stop.
			s.logger.Info("Duplicate payment event acknowledged",
				zap.String("intent_id", pi.ID))
			s.recordCount(ctx, awspkg.MetricDuplicateEvents)
			return nil
		}
		s.logger.Error("Failed to create order", zap.String("intent_id", pi.ID), zap.Error(err))
		return fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("Order materialized",
		zap.String("order_id", order.ID.String()),
		zap.String("intent_id", pi.ID),
		zap.Float64("total", order.TotalPrice),
	)
	s.recordCount(ctx, awspkg.MetricOrdersMaterialized)

	// Everything below is settlement of an already-paid order: failures
	// are logged, the order stands.
	s.settlement.SettleOrder(ctx, order)

	if snapshot.CouponCode != "" {
		if err := s.coupons.RedeemCoupon(ctx, snapshot.CouponCode, snapshot.UserID); err != nil {
			s.logger.Error("Failed to redeem coupon after settlement",
				zap.String("order_id", order.ID.String()),
				zap.String("coupon_code", snapshot.CouponCode),
				zap.Error(err),
			)
		}
	}

	if s.carts != nil {
		if err := s.carts.DeleteCart(ctx, snapshot.UserID.String()); err != nil {
			s.logger.Warn("Failed to clear cart after settlement",
				zap.String("user_id", snapshot.UserID.String()), zap.Error(err))
		}
	}

	if s.publisher != nil {
		s.publisher.PublishOrderSettled(ctx, models.OrderSettledEvent{
			OrderID:    order.ID.String(),
			UserID:     order.UserID.String(),
			TotalPrice: order.TotalPrice,
			CouponCode: order.CouponCode,
			ItemCount:  len(order.OrderItems),
		})
	}

	return nil
}

func (s *PaymentEventService) recordCount(ctx context.Context, metric string) {
	if s.metrics == nil {
		return
	}
	_ = s.metrics.RecordCount(ctx, metric, map[string]string{"Service": "payments"})
}

// decodeSnapshot extracts and validates the checkout snapshot from the
// intent metadata.
func decodeSnapshot(metadata map[string]string) (*models.CheckoutSnapshot, error) {
	raw, ok := metadata[SnapshotMetadataKey]
	if !ok || raw == "" {
		return nil, errors.New("missing checkout snapshot metadata")
	}

	var snapshot models.CheckoutSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, fmt.Errorf("decode checkout snapshot: %w", err)
	}
	if snapshot.Version != models.SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snapshot.Version)
	}
	if len(snapshot.Items) == 0 {
		return nil, errors.New("checkout snapshot has no items")
	}
	return &snapshot, nil
}

// buildOrder maps a snapshot onto an order row. Totals come from the
// snapshot breakdown, never recomputed from live catalog state.
func buildOrder(intentID string, snapshot *models.CheckoutSnapshot) *models.Order {
	items := make([]models.OrderItem, 0, len(snapshot.Items))
	for _, line := range snapshot.Items {
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			VendorID:  line.VendorID,
			Name:      line.Name,
			Image:     line.Image,
			Price:     line.Price,
			Quantity:  line.Quantity,
		})
	}

	b := snapshot.Breakdown
	return &models.Order{
		UserID:            snapshot.UserID,
		ExternalPaymentID: intentID,
		PaymentStatus:     "succeeded",
		Status:            models.OrderStatusProcessing,
		Subtotal:          b.Subtotal,
		DiscountAmount:    b.DiscountAmount,
		ShippingFee:       b.ShippingFee,
		TaxAmount:         b.TaxAmount,
		TotalPrice:        b.Total,
		CouponCode:        snapshot.CouponCode,
		ShipName:          snapshot.Shipping.Name,
		ShipAddress:       snapshot.Shipping.Address,
		ShipCity:          snapshot.Shipping.City,
		ShipPostalCode:    snapshot.Shipping.PostalCode,
		ShipCountry:       snapshot.Shipping.Country,
		OrderItems:        items,
	}
}
