package payment

import (
	"context"
	"errors"
	"fmt"

	"weyfar-booking/internal/config"
	"weyfar-booking/internal/logger"
	"weyfar-booking/internal/models"
	"weyfar-booking/internal/utils"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

var (
	ErrStripeAPIError         = errors.New("stripe API error")
	ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")
)

// StripeGateway creates and verifies payments through Stripe. It satisfies
// the booking service's Gateway interface.
type StripeGateway struct {
	client        *client.API
	webhookSecret string
	log           *logger.Logger
}

func NewStripeGateway(cfg config.PaymentConfig, log *logger.Logger) (*StripeGateway, error) {
	if cfg.StripeSecretKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY not set")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(cfg.StripeSecretKey, nil)
	if sc == nil {
		log.Error("STRIPE", "Failed to initialize Stripe client")
		return nil, ErrStripeClientInitFailed
	}

	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeGateway{
		client:        sc,
		webhookSecret: cfg.WebhookSecret,
		log:           log,
	}, nil
}

// CreateOrder opens a payment intent for the booking's final amount and
// returns the intent id. Amounts are converted to the smallest currency unit.
func (g *StripeGateway) CreateOrder(ctx context.Context, amount float64, currency, bookingID string) (string, error) {
	if amount <= 0 {
		return "", fmt.Errorf("invalid payment amount: %.2f", amount)
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(int64(amount * 100)),
		Currency:           stripe.String(currency),
		Description:        stripe.String(fmt.Sprintf("Travel booking %s", bookingID)),
		Metadata:           map[string]string{"booking_id": bookingID},
		PaymentMethodTypes: []*string{stripe.String("card")},
	}
	params.Context = ctx

	g.log.Info("STRIPE", fmt.Sprintf("Creating payment intent for booking %s, amount: %.2f %s", bookingID, amount, currency))
	pi, err := g.client.PaymentIntents.New(params)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to create payment intent: %v", err))
		return "", fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}
	g.log.Info("STRIPE", fmt.Sprintf("Payment intent created: %s (booking: %s)", pi.ID, bookingID))

	return pi.ID, nil
}

// VerifyPayment checks the caller's signature against the webhook secret and
// confirms with Stripe that the intent actually succeeded.
func (g *StripeGateway) VerifyPayment(ctx context.Context, paymentID, orderID, signature string) (bool, error) {
	if !VerifySignature(paymentID, orderID, signature, g.webhookSecret) {
		g.log.Warn("STRIPE", fmt.Sprintf("Signature mismatch for payment %s (order: %s)", paymentID, orderID))
		return false, nil
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.client.PaymentIntents.Get(orderID, params)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to retrieve payment intent %s: %v", orderID, err))
		return false, fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		g.log.Warn("STRIPE", fmt.Sprintf("Payment intent %s not settled, status: %s", orderID, pi.Status))
		return false, nil
	}
	return true, nil
}

// CheckoutProcessor drives a server-side charge for the checkout flow: it
// opens an intent for the amount and hands back a signed result the booking
// service will accept. Satisfies the workflow's PaymentProcessor.
type CheckoutProcessor struct {
	Gateway *StripeGateway
}

func (c *CheckoutProcessor) ProcessPayment(ctx context.Context, masked models.MaskedCard, amount float64, currency string) (models.PaymentResult, error) {
	orderID, err := c.Gateway.CreateOrder(ctx, amount, currency, "")
	if err != nil {
		return models.PaymentResult{}, err
	}

	paymentID := utils.GeneratePaymentID()
	c.Gateway.log.LogPayment("CHARGE", paymentID, fmt.Sprintf("%s card ending %s, %.2f %s", masked.Brand, masked.Last4, amount, currency))

	return models.PaymentResult{
		PaymentID: paymentID,
		OrderID:   orderID,
		Signature: Sign(paymentID, orderID, c.Gateway.webhookSecret),
		Amount:    amount,
		Currency:  currency,
	}, nil
}
