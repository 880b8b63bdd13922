package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"marketplace-backend/models"
	awspkg "marketplace-backend/pkg/aws"
	"marketplace-backend/services"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeRetryQueue delivers its seeded messages once, collects re-queued
// bodies, and then stops the poll loop.
type fakeRetryQueue struct {
	pending  []string
	requeued []string
}

func (q *fakeRetryQueue) StartPolling(ctx context.Context, handler awspkg.MessageHandler) error {
	for _, body := range q.pending {
		if err := handler(ctx, body); err != nil {
			return err
		}
	}
	return context.Canceled
}

func (q *fakeRetryQueue) SendMessage(_ context.Context, body string) error {
	q.requeued = append(q.requeued, body)
	return nil
}

func retryBody(t *testing.T, attempts int) string {
	t.Helper()
	body, err := json.Marshal(models.PayoutRetryMessage{
		VendorID:        "vendor-1",
		StripeAccountID: "acct_123",
		Amount:          90,
		OrderID:         "order-1",
		Attempts:        attempts,
	})
	assert.NoError(t, err)
	return string(body)
}

func TestPayoutWorker_SuccessfulRetryNotRequeued(t *testing.T) {
	queue := &fakeRetryQueue{pending: []string{retryBody(t, 1)}}
	gateway := &mockGateway{}
	logger, _ := zap.NewDevelopment()

	worker := services.NewPayoutWorker(queue, gateway, logger)
	assert.ErrorIs(t, worker.Run(context.Background()), context.Canceled)

	assert.Equal(t, []int64{9000}, gateway.transfers)
	assert.Empty(t, queue.requeued)
}

func TestPayoutWorker_FailureRequeuedWithBumpedAttempts(t *testing.T) {
	queue := &fakeRetryQueue{pending: []string{retryBody(t, 2)}}
	gateway := &mockGateway{transferErr: errors.New("stripe unavailable")}
	logger, _ := zap.NewDevelopment()

	worker := services.NewPayoutWorker(queue, gateway, logger)
	assert.ErrorIs(t, worker.Run(context.Background()), context.Canceled)

	assert.Len(t, queue.requeued, 1)
	var msg models.PayoutRetryMessage
	assert.NoError(t, json.Unmarshal([]byte(queue.requeued[0]), &msg))
	assert.Equal(t, 3, msg.Attempts)
}

func TestPayoutWorker_ExhaustedAttemptsDropped(t *testing.T) {
	queue := &fakeRetryQueue{pending: []string{retryBody(t, 5)}}
	gateway := &mockGateway{transferErr: errors.New("stripe unavailable")}
	logger, _ := zap.NewDevelopment()

	worker := services.NewPayoutWorker(queue, gateway, logger)
	assert.ErrorIs(t, worker.Run(context.Background()), context.Canceled)

	assert.Empty(t, queue.requeued, "exhausted payout dropped for manual review")
}

func TestPayoutWorker_MalformedMessageDropped(t *testing.T) {
	queue := &fakeRetryQueue{pending: []string{"not json"}}
	gateway := &mockGateway{}
	logger, _ := zap.NewDevelopment()

	worker := services.NewPayoutWorker(queue, gateway, logger)
	assert.ErrorIs(t, worker.Run(context.Background()), context.Canceled)

	assert.Empty(t, gateway.transfers)
	assert.Empty(t, queue.requeued)
}
