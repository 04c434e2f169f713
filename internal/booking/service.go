package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"weyfar-booking/internal/booking/db"
	"weyfar-booking/internal/logger"
	"weyfar-booking/internal/models"
	"weyfar-booking/internal/pricing"
	"weyfar-booking/internal/promo"
	"weyfar-booking/internal/utils"
	"weyfar-booking/internal/validation"

	"github.com/google/uuid"
)

var (
	ErrBookingNotFound       = errors.New("booking not found")
	ErrInvalidState          = errors.New("booking is not in a valid state for this operation")
	ErrPaymentMismatch       = errors.New("booking already confirmed with a different payment")
	ErrPaymentInProgress     = errors.New("payment is already being processed")
	ErrPaymentNotVerified    = errors.New("payment could not be verified")
	ErrPaymentOrderMismatch  = errors.New("payment does not belong to the booking's payment order")
	ErrPaymentAmountMismatch = errors.New("paid amount does not cover the booking total")
)

// ValidationError carries per-field messages back to the API layer.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("booking validation failed: %d field(s)", len(e.Fields))
}

type DBLayer interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, booking *models.Booking) error
	GetBookingsByEmail(ctx context.Context, email string) ([]models.Booking, error)
}

type PromoStore interface {
	GetByCode(ctx context.Context, code string) (*models.PromoCode, error)
	IncrementUsage(ctx context.Context, code string) error
}

type PaymentGuard interface {
	AcquirePayment(ctx context.Context, paymentID, bookingID string) (bool, error)
	ReleasePayment(ctx context.Context, paymentID, bookingID string) error
}

type Gateway interface {
	CreateOrder(ctx context.Context, amount float64, currency, bookingID string) (string, error)
	VerifyPayment(ctx context.Context, paymentID, orderID, signature string) (bool, error)
}

type EventPublisher interface {
	PublishBookingCreated(booking models.Booking) error
	PublishBookingConfirmed(booking models.Booking) error
	PublishBookingCancelled(booking models.Booking) error
}

type Notifier interface {
	SendBookingConfirmation(booking *models.Booking) error
}

type Service struct {
	DB        DBLayer
	Promos    PromoStore
	Guard     PaymentGuard
	Gateway   Gateway
	Events    EventPublisher
	Notifier  Notifier
	validator *promo.Validator
	logger    *logger.Logger
}

func NewService(db DBLayer, promos PromoStore, guard PaymentGuard, gateway Gateway, events EventPublisher, notifier Notifier, log *logger.Logger) *Service {
	return &Service{
		DB:        db,
		Promos:    promos,
		Guard:     guard,
		Gateway:   gateway,
		Events:    events,
		Notifier:  notifier,
		validator: promo.NewValidator(log),
		logger:    log,
	}
}

// PromoPreview is the outcome of a promo validation against an amount.
type PromoPreview struct {
	Code        string  `json:"code"`
	Discount    float64 `json:"discount"`
	FinalAmount float64 `json:"final_amount"`
	Valid       bool    `json:"valid"`
	Reason      string  `json:"reason,omitempty"`
	Message     string  `json:"message,omitempty"`
}

// ---------------- BOOKINGS ----------------

// CreateBooking validates the request, prices it (applying a promo code when
// one is supplied and valid), and persists a pending booking. An invalid
// promo never blocks creation; the booking simply proceeds at full price.
func (s *Service) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	if errs := s.validateRequest(req); len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	basePrice := req.Details.BasePrice()
	currency := req.Details.Currency()

	var discount float64
	appliedCode := ""
	if req.PromoCode != "" {
		preview, err := s.PreviewPromo(ctx, req.PromoCode, basePrice, req.Type)
		if err != nil {
			return nil, fmt.Errorf("promo validation failed: %w", err)
		}
		if preview.Valid {
			discount = preview.Discount
			appliedCode = promo.NormalizeCode(req.PromoCode)
		} else {
			s.logger.LogPromo("REJECTED", fmt.Sprintf("code %s: %s", req.PromoCode, preview.Reason))
		}
	}

	now := time.Now()
	booking := &models.Booking{
		ID:          uuid.NewString(),
		Reference:   utils.GenerateBookingReference(),
		Type:        req.Type,
		Details:     req.Details,
		Passengers:  req.Passengers,
		ContactInfo: req.ContactInfo,
		Pricing:     pricing.ComputePricing(basePrice, discount, currency),
		PromoCode:   appliedCode,
		Status:      models.BookingStatusPending,
		CreatedAt:   now,
	}

	if err := s.DB.CreateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	s.logger.LogBooking("CREATE", booking.ID, fmt.Sprintf("%s booking for %.2f %s", booking.Type, booking.Pricing.FinalPrice, currency))

	if err := s.Events.PublishBookingCreated(*booking); err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("Failed to publish booking created event: %v", err))
	}

	return booking, nil
}

func (s *Service) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.DB.GetBookingByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, id)
		}
		return nil, fmt.Errorf("failed to load booking %s: %w", id, err)
	}
	return booking, nil
}

// ListBookingsByEmail returns all bookings made with the given contact email,
// newest first.
func (s *Service) ListBookingsByEmail(ctx context.Context, email string) ([]models.Booking, error) {
	bookings, err := s.DB.GetBookingsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for %s: %w", email, err)
	}
	return bookings, nil
}

// CreatePaymentOrder asks the gateway for an order covering the booking's
// final price and records the order id on the booking. Called when the client
// reaches the payment step; safe to call again, the existing order is reused.
func (s *Service) CreatePaymentOrder(ctx context.Context, bookingID string) (*models.Booking, error) {
	booking, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusPending {
		return nil, ErrInvalidState
	}
	if booking.PaymentOrderID != "" {
		return booking, nil
	}

	orderID, err := s.Gateway.CreateOrder(ctx, booking.Pricing.FinalPrice, booking.Pricing.Currency, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("gateway order creation failed: %w", err)
	}

	booking.PaymentOrderID = orderID
	booking.UpdatedAt = time.Now()
	if err := s.DB.UpdateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to store payment order: %w", err)
	}
	s.logger.LogPayment("ORDER", orderID, fmt.Sprintf("gateway order created for booking %s", booking.ID))

	return booking, nil
}

// AttachPayment verifies a gateway payment and transitions the booking from
// pending to confirmed. Idempotent keyed by payment id: retrying the same
// successful payment returns the confirmed booking without a second
// transition or a second promo redemption.
func (s *Service) AttachPayment(ctx context.Context, bookingID string, result models.PaymentResult) (*models.Booking, error) {
	booking, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// Duplicate delivery of an already-applied payment is a no-op
	if booking.Status == models.BookingStatusConfirmed {
		if booking.Payment != nil && booking.Payment.PaymentID == result.PaymentID {
			s.logger.LogPayment("DUPLICATE", result.PaymentID, fmt.Sprintf("booking %s already confirmed", booking.ID))
			return booking, nil
		}
		return nil, ErrPaymentMismatch
	}
	if booking.Status != models.BookingStatusPending {
		return nil, ErrInvalidState
	}

	// The payment must settle the booking's own gateway order, in full. A
	// valid signature on some other order never confirms this booking.
	if booking.PaymentOrderID != "" && result.OrderID != booking.PaymentOrderID {
		s.logger.LogPayment("REJECTED", result.PaymentID,
			fmt.Sprintf("order %s does not belong to booking %s (expected %s)", result.OrderID, booking.ID, booking.PaymentOrderID))
		return nil, ErrPaymentOrderMismatch
	}
	if result.Amount < booking.Pricing.FinalPrice {
		s.logger.LogPayment("REJECTED", result.PaymentID,
			fmt.Sprintf("paid %.2f of %.2f for booking %s", result.Amount, booking.Pricing.FinalPrice, booking.ID))
		return nil, ErrPaymentAmountMismatch
	}

	acquired, err := s.Guard.AcquirePayment(ctx, result.PaymentID, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("payment guard error: %w", err)
	}
	if !acquired {
		// Another delivery of this payment is (or was) in flight; re-read in
		// case it already confirmed the booking.
		latest, err := s.GetBooking(ctx, bookingID)
		if err == nil && latest.Status == models.BookingStatusConfirmed &&
			latest.Payment != nil && latest.Payment.PaymentID == result.PaymentID {
			return latest, nil
		}
		return nil, ErrPaymentInProgress
	}

	verified, err := s.Gateway.VerifyPayment(ctx, result.PaymentID, result.OrderID, result.Signature)
	if err != nil || !verified {
		// Failed attempts release the guard so the user can retry
		if relErr := s.Guard.ReleasePayment(ctx, result.PaymentID, booking.ID); relErr != nil {
			s.logger.Error("REDIS", fmt.Sprintf("Failed to release payment guard: %v", relErr))
		}
		if err != nil {
			return nil, fmt.Errorf("payment verification error: %w", err)
		}
		s.logger.LogPayment("REJECTED", result.PaymentID, fmt.Sprintf("signature verification failed for booking %s", booking.ID))
		return nil, ErrPaymentNotVerified
	}

	booking.Payment = &models.Payment{
		PaymentID: result.PaymentID,
		OrderID:   result.OrderID,
		Status:    models.PaymentStatusCompleted,
		Amount:    result.Amount,
		Currency:  booking.Pricing.Currency,
		PaidAt:    time.Now(),
	}
	booking.Status = models.BookingStatusConfirmed
	booking.UpdatedAt = time.Now()

	if err := s.DB.UpdateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to confirm booking: %w", err)
	}
	s.logger.LogBooking("CONFIRM", booking.ID, fmt.Sprintf("payment %s verified", result.PaymentID))

	// Commit the promo redemption exactly once, now that payment is final
	if booking.PromoCode != "" && booking.Pricing.Discount > 0 {
		if err := s.Promos.IncrementUsage(ctx, booking.PromoCode); err != nil {
			s.logger.Warn("PROMO", fmt.Sprintf("Failed to commit usage for %s: %v", booking.PromoCode, err))
		}
	}

	if err := s.Events.PublishBookingConfirmed(*booking); err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("Failed to publish booking confirmed event: %v", err))
	}

	// Fire-and-forget: a failed email never blocks confirmation
	go func(b models.Booking) {
		if err := s.Notifier.SendBookingConfirmation(&b); err != nil {
			s.logger.Error("EMAIL", fmt.Sprintf("Failed to send confirmation for booking %s: %v", b.ID, err))
		}
	}(*booking)

	return booking, nil
}

// CancelBooking cancels a pending booking. Confirmed bookings are not
// cancellable through this path.
func (s *Service) CancelBooking(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusPending {
		return nil, ErrInvalidState
	}

	booking.Status = models.BookingStatusCancelled
	booking.UpdatedAt = time.Now()
	if err := s.DB.UpdateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to cancel booking %s: %w", id, err)
	}
	s.logger.LogBooking("CANCEL", booking.ID, "booking cancelled")

	if err := s.Events.PublishBookingCancelled(*booking); err != nil {
		s.logger.Error("KAFKA", fmt.Sprintf("Failed to publish booking cancelled event: %v", err))
	}

	return booking, nil
}

// ---------------- PROMO ----------------

// PreviewPromo validates a code against an amount without consuming usage.
// Both the validate-promo endpoint and booking creation go through here, so
// there is exactly one source of truth for discount computation.
func (s *Service) PreviewPromo(ctx context.Context, code string, amount float64, serviceType models.BookingType) (*PromoPreview, error) {
	record, err := s.Promos.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("promo lookup failed: %w", err)
	}

	result, err := s.validator.Validate(record, amount, serviceType, time.Now())
	if err != nil {
		return nil, err
	}

	preview := &PromoPreview{
		Code:        promo.NormalizeCode(code),
		Valid:       result.IsValid,
		Discount:    result.DiscountAmount,
		FinalAmount: pricing.ComputePricing(amount, result.DiscountAmount, "").FinalPrice,
		Reason:      result.Reason,
		Message:     result.Message,
	}
	return preview, nil
}

// ---------------- VALIDATION ----------------

func (s *Service) validateRequest(req models.BookingRequest) map[string]string {
	errs := make(map[string]string)

	if !req.Type.Valid() {
		errs["type"] = "Must be one of: flight hotel car cruise"
	} else if err := req.Details.Validate(req.Type); err != nil {
		errs["details"] = "Details payload must match the booking type"
	}

	if len(req.Passengers) == 0 {
		errs["passengers"] = "At least one passenger is required"
	}
	for i, p := range req.Passengers {
		for field, msg := range validation.Passenger(p, i) {
			errs[field] = msg
		}
	}

	for field, msg := range validation.Contact(req.ContactInfo) {
		errs[field] = msg
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
