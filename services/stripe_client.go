package services

import (
	"bytes"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/customer"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/transfer"
	"github.com/stripe/stripe-go/v80/webhook"
)

// PaymentGateway is the slice of the payment provider this core depends on:
// customers, payment intents with metadata, payout transfers, and signed
// webhook parsing. Implemented by StripeService; mocked in tests.
type PaymentGateway interface {
	CreateCustomer(email, userID string) (string, error)
	CreatePaymentIntent(amount int64, currency, customerID string, metadata map[string]string) (id, clientSecret string, err error)
	CreateTransfer(amount int64, currency, destinationAccount, orderID string) (string, error)
	ParseWebhook(r *http.Request) (stripe.Event, error)
}

// StripeService implements PaymentGateway against the Stripe API.
type StripeService struct {
	SecretKey  string
	WebhookKey string
}

// NewStripeService configures the global Stripe key and returns the service.
func NewStripeService(secretKey, webhookKey string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{SecretKey: secretKey, WebhookKey: webhookKey}
}

// CreateCustomer registers a gateway customer for a platform user.
func (s *StripeService) CreateCustomer(email, userID string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.AddMetadata("user_id", userID)
	c, err := customer.New(params)
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

// CreatePaymentIntent opens an intent for the given amount in minor units,
// attaching the checkout snapshot as metadata.
func (s *StripeService) CreatePaymentIntent(amount int64, currency, customerID string, metadata map[string]string) (string, string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return "", "", err
	}
	return pi.ID, pi.ClientSecret, nil
}

// CreateTransfer moves vendor earnings to a connected account.
func (s *StripeService) CreateTransfer(amount int64, currency, destinationAccount, orderID string) (string, error) {
	params := &stripe.TransferParams{
		Amount:      stripe.Int64(amount),
		Currency:    stripe.String(currency),
		Destination: stripe.String(destinationAccount),
	}
	params.AddMetadata("order_id", orderID)
	t, err := transfer.New(params)
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

// ParseWebhook reads the request body and verifies the Stripe-Signature
// header against the shared webhook secret. Verification failure rejects
// the event before anything else looks at the payload.
func (s *StripeService) ParseWebhook(r *http.Request) (stripe.Event, error) {
	var event stripe.Event
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return event, err
	}
	r.Body = io.NopCloser(bytes.NewBuffer(payload))
	sigHeader := r.Header.Get("Stripe-Signature")
	return webhook.ConstructEvent(payload, sigHeader, s.WebhookKey)
}
