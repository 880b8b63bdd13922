package services

import (
	"context"
	"encoding/json"
	"time"

	"marketplace-backend/kafka"
	"marketplace-backend/models"
	awspkg "marketplace-backend/pkg/aws"

	"go.uber.org/zap"
)

// EventPublisher fans settlement events out to the Kafka topic and the SNS
// notification topic. Both publishes are best-effort: a delivery failure is
// logged and never affects the transaction that produced the event.
type EventPublisher struct {
	producer    kafka.ProducerAPI
	snsClient   awspkg.SNSPublisher
	snsTopicArn string
	logger      *zap.Logger
}

// NewEventPublisher creates a new EventPublisher. Either sink may be nil
// when not configured.
func NewEventPublisher(producer kafka.ProducerAPI, snsClient awspkg.SNSPublisher, snsTopicArn string, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{
		producer:    producer,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		logger:      logger,
	}
}

// PublishOrderSettled announces a settled order for notification dispatch.
func (p *EventPublisher) PublishOrderSettled(ctx context.Context, event models.OrderSettledEvent) {
	event.EventType = "order_settled"
	event.Timestamp = time.Now().UTC()
	p.publish(ctx, event.OrderID, event.EventType, event)
}

// PublishWithdrawalResolved announces an admin decision on a withdrawal.
func (p *EventPublisher) PublishWithdrawalResolved(ctx context.Context, event models.WithdrawalResolvedEvent) {
	event.EventType = "withdrawal_resolved"
	event.Timestamp = time.Now().UTC()
	p.publish(ctx, event.WithdrawalID, event.EventType, event)
}

func (p *EventPublisher) publish(ctx context.Context, key, eventType string, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.String("event_type", eventType), zap.Error(err))
		return
	}

	if p.producer != nil {
		if err := p.producer.Publish(key, payload); err != nil {
			p.logger.Error("Failed to publish event to Kafka",
				zap.String("event_type", eventType), zap.Error(err))
		}
	}

	if p.snsClient != nil && p.snsTopicArn != "" {
		if err := p.snsClient.Publish(ctx, p.snsTopicArn, payload); err != nil {
			p.logger.Error("Failed to publish event to SNS",
				zap.String("event_type", eventType), zap.Error(err))
		}
	}
}
