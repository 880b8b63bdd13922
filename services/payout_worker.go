package services

import (
	"context"
	"encoding/json"
	"math"

	"marketplace-backend/models"
	awspkg "marketplace-backend/pkg/aws"

	"go.uber.org/zap"
)

// maxPayoutAttempts bounds retries before a payout is dropped for manual
// review. Earnings stay accrued either way.
const maxPayoutAttempts = 5

// RetryQueue is the queue surface the worker needs: a poll loop plus the
// ability to push a bumped message back. Implemented by awspkg.SQSQueue.
type RetryQueue interface {
	StartPolling(ctx context.Context, handler awspkg.MessageHandler) error
	SendMessage(ctx context.Context, body string) error
}

// PayoutWorker drains the payout retry queue, re-attempting vendor
// transfers that failed during settlement.
type PayoutWorker struct {
	queue   RetryQueue
	gateway PaymentGateway
	logger  *zap.Logger
}

// NewPayoutWorker creates a new PayoutWorker.
func NewPayoutWorker(queue RetryQueue, gateway PaymentGateway, logger *zap.Logger) *PayoutWorker {
	return &PayoutWorker{queue: queue, gateway: gateway, logger: logger}
}

// Run polls the queue until the context is cancelled.
func (w *PayoutWorker) Run(ctx context.Context) error {
	return w.queue.StartPolling(ctx, w.handleMessage)
}

func (w *PayoutWorker) handleMessage(ctx context.Context, body string) error {
	var msg models.PayoutRetryMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		w.logger.Error("Dropping malformed payout retry message", zap.Error(err))
		return nil // delete it; redelivery cannot help
	}

	cents := int64(math.Round(msg.Amount * 100))
	if _, err := w.gateway.CreateTransfer(cents, Currency, msg.StripeAccountID, msg.OrderID); err == nil {
		w.logger.Info("Payout retry succeeded",
			zap.String("vendor_id", msg.VendorID),
			zap.String("order_id", msg.OrderID),
			zap.Float64("amount", msg.Amount),
		)
		return nil
	} else if msg.Attempts >= maxPayoutAttempts {
		w.logger.Error("Payout retry exhausted; dropping for manual review",
			zap.String("vendor_id", msg.VendorID),
			zap.String("order_id", msg.OrderID),
			zap.Float64("amount", msg.Amount),
			zap.Int("attempts", msg.Attempts),
			zap.Error(err),
		)
		return nil
	} else {
		w.logger.Warn("Payout retry failed; re-queueing",
			zap.String("vendor_id", msg.VendorID),
			zap.Int("attempts", msg.Attempts),
			zap.Error(err),
		)
		msg.Attempts++
		requeued, mErr := json.Marshal(msg)
		if mErr != nil {
			return mErr
		}
		return w.queue.SendMessage(ctx, string(requeued))
	}
}
