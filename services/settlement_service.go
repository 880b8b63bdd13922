package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	"marketplace-backend/models"
	"marketplace-backend/repository"
	awspkg "marketplace-backend/pkg/aws"

	"go.uber.org/zap"
)

// QueueSender is the slice of SQS this service needs to park failed payouts
// for out-of-band retry.
type QueueSender interface {
	SendMessage(ctx context.Context, body string) error
}

// SettlementService applies the inventory and earnings effects of a paid
// order: stock decrements, sold counters, vendor earnings accrual, and the
// optional payout transfer. By the time it runs the buyer has already paid,
// so every failure here is logged and surfaced as telemetry rather than
// propagated — the order stands regardless.
type SettlementService struct {
	products    repository.ProductRepository
	vendors     repository.VendorRepository
	gateway     PaymentGateway
	payoutQueue QueueSender
	metrics     *awspkg.MetricsClient
	logger      *zap.Logger
}

// NewSettlementService creates a new SettlementService. payoutQueue and
// metrics may be nil when not configured.
func NewSettlementService(
	products repository.ProductRepository,
	vendors repository.VendorRepository,
	gateway PaymentGateway,
	payoutQueue QueueSender,
	metrics *awspkg.MetricsClient,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		products:    products,
		vendors:     vendors,
		gateway:     gateway,
		payoutQueue: payoutQueue,
		metrics:     metrics,
		logger:      logger,
	}
}

// SettleOrder settles every line of the order. Lines are independent; one
// line's anomaly never blocks the others.
func (s *SettlementService) SettleOrder(ctx context.Context, order *models.Order) {
	for i := range order.OrderItems {
		s.settleLine(ctx, order, &order.OrderItems[i])
	}
}

func (s *SettlementService) settleLine(ctx context.Context, order *models.Order, item *models.OrderItem) {
	var err error
	if item.VariantID != nil {
		err = s.products.DecrementVariantStock(ctx, *item.VariantID, item.Quantity)
	} else {
		err = s.products.DecrementStock(ctx, item.ProductID, item.Quantity)
	}
	if err != nil {
		// Stock was guarded at pricing time; hitting the guard here means a
		// concurrent sale won the race after payment. The buyer has paid,
		// so this is an operational anomaly, not a rollback.
		if errors.Is(err, repository.ErrInsufficientStock) {
			s.logger.Error("Stock went negative during settlement; order kept",
				zap.String("order_id", order.ID.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.Int("quantity", item.Quantity),
			)
			s.recordCount(ctx, awspkg.MetricSettlementAnomalies)
		} else {
			s.logger.Error("Failed to decrement stock",
				zap.String("order_id", order.ID.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.Error(err),
			)
			s.recordCount(ctx, awspkg.MetricSettlementFailures)
		}
	}

	vendor, err := s.vendors.FindByID(ctx, item.VendorID)
	if err != nil {
		s.logger.Error("Vendor not found during settlement",
			zap.String("order_id", order.ID.String()),
			zap.String("vendor_id", item.VendorID.String()),
			zap.Error(err),
		)
		s.recordCount(ctx, awspkg.MetricSettlementFailures)
		return
	}

	netEarnings := roundCents(item.Price * float64(item.Quantity) * (1 - vendor.EffectiveCommissionRate()))
	if err := s.vendors.AddEarnings(ctx, vendor.ID, netEarnings); err != nil {
		s.logger.Error("Failed to accrue vendor earnings",
			zap.String("order_id", order.ID.String()),
			zap.String("vendor_id", vendor.ID.String()),
			zap.Float64("net_earnings", netEarnings),
			zap.Error(err),
		)
		s.recordCount(ctx, awspkg.MetricSettlementFailures)
		return
	}

	s.logger.Info("Order line settled",
		zap.String("order_id", order.ID.String()),
		zap.String("vendor_id", vendor.ID.String()),
		zap.Float64("net_earnings", netEarnings),
	)

	if vendor.PayoutsEnabled && vendor.StripeAccountID != nil {
		s.requestPayout(ctx, order, vendor, netEarnings)
	}
}

// requestPayout attempts the transfer to the vendor's connected account. A
// failure is logged and enqueued for retry; the earnings accrual is the
// ledger of record and is never reversed.
func (s *SettlementService) requestPayout(ctx context.Context, order *models.Order, vendor *models.Vendor, amount float64) {
	cents := int64(math.Round(amount * 100))
	if _, err := s.gateway.CreateTransfer(cents, Currency, *vendor.StripeAccountID, order.ID.String()); err != nil {
		s.logger.Error("Payout transfer failed; queued for retry",
			zap.String("order_id", order.ID.String()),
			zap.String("vendor_id", vendor.ID.String()),
			zap.Float64("amount", amount),
			zap.Error(err),
		)
		s.recordCount(ctx, awspkg.MetricPayoutFailures)
		s.enqueuePayoutRetry(ctx, models.PayoutRetryMessage{
			VendorID:        vendor.ID.String(),
			StripeAccountID: *vendor.StripeAccountID,
			Amount:          amount,
			OrderID:         order.ID.String(),
			Attempts:        1,
		})
		return
	}

	s.logger.Info("Payout transfer requested",
		zap.String("order_id", order.ID.String()),
		zap.String("vendor_id", vendor.ID.String()),
		zap.Float64("amount", amount),
	)
}

func (s *SettlementService) enqueuePayoutRetry(ctx context.Context, msg models.PayoutRetryMessage) {
	if s.payoutQueue == nil {
		return
	}
	body, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("Failed to marshal payout retry message", zap.Error(err))
		return
	}
	if err := s.payoutQueue.SendMessage(ctx, string(body)); err != nil {
		s.logger.Error("Failed to enqueue payout retry",
			zap.String("vendor_id", msg.VendorID), zap.Error(err))
	}
}

func (s *SettlementService) recordCount(ctx context.Context, metric string) {
	if s.metrics == nil {
		return
	}
	_ = s.metrics.RecordCount(ctx, metric, map[string]string{"Service": "settlement"})
}
