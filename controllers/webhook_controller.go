package controllers

import (
	"net/http"

	awspkg "marketplace-backend/pkg/aws"
	"marketplace-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookController receives gateway payment events.
type WebhookController struct {
	gateway       services.PaymentGateway
	paymentEvents *services.PaymentEventService
	metrics       *awspkg.MetricsClient
	logger        *zap.Logger
}

// NewWebhookController creates a new WebhookController. metrics may be nil.
func NewWebhookController(gateway services.PaymentGateway, paymentEvents *services.PaymentEventService, metrics *awspkg.MetricsClient, logger *zap.Logger) *WebhookController {
	return &WebhookController{gateway: gateway, paymentEvents: paymentEvents, metrics: metrics, logger: logger}
}

// StripeWebhook handles POST /webhooks/stripe. Signature verification
// happens before anything else touches the payload; a failure is rejected
// outright and logged as a potential attack signal.
func (wc *WebhookController) StripeWebhook(ctx *gin.Context) {
	event, err := wc.gateway.ParseWebhook(ctx.Request)
	if err != nil {
		wc.logger.Warn("Webhook signature verification failed",
			zap.String("client_ip", ctx.ClientIP()), zap.Error(err))
		if wc.metrics != nil {
			_ = wc.metrics.RecordCount(ctx.Request.Context(), awspkg.MetricInvalidSignatures,
				map[string]string{"Service": "payments"})
		}
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}

	if err := wc.paymentEvents.ProcessEvent(ctx.Request.Context(), event); err != nil {
		// The payload was verified but could not be processed; let the
		// gateway redeliver.
		wc.logger.Error("Failed to process payment event",
			zap.String("event_id", event.ID), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "received"})
}
