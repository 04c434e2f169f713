package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"weyfar-booking/internal/booking"
	"weyfar-booking/internal/card"
	"weyfar-booking/internal/logger"
	"weyfar-booking/internal/models"
	"weyfar-booking/internal/pricing"
	"weyfar-booking/internal/validation"
)

// Step identifies where the client is in the checkout flow.
type Step string

const (
	StepPassengerDetails Step = "passenger_details"
	StepBookingSummary   Step = "booking_summary"
	StepPaymentDetails   Step = "payment_details"
	StepConfirmed        Step = "confirmed"
)

var (
	ErrInvalidTransition = errors.New("operation not allowed in the current step")
	ErrBusy              = errors.New("a request is already in flight for this step")
)

// PromoPreviewer validates a promo code against an amount without consuming
// usage. Satisfied by booking.Service.
type PromoPreviewer interface {
	PreviewPromo(ctx context.Context, code string, amount float64, serviceType models.BookingType) (*booking.PromoPreview, error)
}

// PaymentProcessor charges the final amount for a validated card. It receives
// only the masked card; the raw number and CVV never cross this boundary.
type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, masked models.MaskedCard, amount float64, currency string) (models.PaymentResult, error)
}

// Workflow is the explicit state of one checkout session. All state lives on
// the struct; concurrent calls are serialized and collaborator calls suspend
// the step via the busy flag.
type Workflow struct {
	mu   sync.Mutex
	step Step
	busy bool

	bookingType models.BookingType
	details     models.BookingDetails
	passengers  []models.Passenger
	contact     models.ContactInfo

	pricing        models.PricingBreakdown
	promo          *booking.PromoPreview
	promoRejection string

	card    *models.MaskedCard
	payment *models.PaymentResult

	previewer PromoPreviewer
	processor PaymentProcessor
	logger    *logger.Logger
}

// New starts a checkout session for a selected offer at the passenger step.
func New(bookingType models.BookingType, details models.BookingDetails, previewer PromoPreviewer, processor PaymentProcessor, log *logger.Logger) (*Workflow, error) {
	if err := details.Validate(bookingType); err != nil {
		return nil, err
	}
	return &Workflow{
		step:        StepPassengerDetails,
		bookingType: bookingType,
		details:     details,
		pricing:     pricing.ComputePricing(details.BasePrice(), 0, details.Currency()),
		previewer:   previewer,
		processor:   processor,
		logger:      log,
	}, nil
}

func (w *Workflow) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Workflow) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

// Pricing returns the current breakdown, including any applied promo.
func (w *Workflow) Pricing() models.PricingBreakdown {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pricing
}

// Passengers returns the captured passenger list, preserved across back
// navigation.
func (w *Workflow) Passengers() []models.Passenger {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]models.Passenger, len(w.passengers))
	copy(out, w.passengers)
	return out
}

func (w *Workflow) Contact() models.ContactInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.contact
}

// AppliedPromo returns the accepted promo preview, nil when none is applied.
func (w *Workflow) AppliedPromo() *booking.PromoPreview {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.promo
}

// PromoRejection returns the reason the last promo attempt was refused,
// empty when the last attempt succeeded or none was made.
func (w *Workflow) PromoRejection() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.promoRejection
}

// Card returns the masked card captured at payment, nil before confirmation.
func (w *Workflow) Card() *models.MaskedCard {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.card
}

// Payment returns the gateway result once the flow is confirmed.
func (w *Workflow) Payment() *models.PaymentResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.payment
}

// SubmitPassengerDetails validates every passenger and the contact block and,
// when clean, advances to the summary step. On failure the step does not move
// and the field map describes what to fix.
func (w *Workflow) SubmitPassengerDetails(passengers []models.Passenger, contact models.ContactInfo) (map[string]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return nil, ErrBusy
	}
	if w.step != StepPassengerDetails {
		return nil, ErrInvalidTransition
	}

	errs := make(map[string]string)
	if len(passengers) == 0 {
		errs["passengers"] = "At least one passenger is required"
	}
	for i, p := range passengers {
		for field, msg := range validation.Passenger(p, i) {
			errs[field] = msg
		}
	}
	for field, msg := range validation.Contact(contact) {
		errs[field] = msg
	}
	if len(errs) > 0 {
		return errs, nil
	}

	w.passengers = passengers
	w.contact = contact
	w.step = StepBookingSummary
	return nil, nil
}

// ApplyPromo previews a code against the offer's base price and recomputes
// pricing. User triggered, never automatic. A refused code leaves the full
// price in place and records the rejection reason.
func (w *Workflow) ApplyPromo(ctx context.Context, code string) error {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return ErrBusy
	}
	if w.step != StepBookingSummary {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	w.busy = true
	base := w.details.BasePrice()
	currency := w.details.Currency()
	bookingType := w.bookingType
	w.mu.Unlock()

	preview, err := w.previewer.PreviewPromo(ctx, code, base, bookingType)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.busy = false
	if err != nil {
		return fmt.Errorf("promo preview failed: %w", err)
	}

	if preview.Valid {
		w.promo = preview
		w.promoRejection = ""
		w.pricing = pricing.ComputePricing(base, preview.Discount, currency)
	} else {
		w.promo = nil
		w.promoRejection = preview.Reason
		w.pricing = pricing.ComputePricing(base, 0, currency)
		w.logger.LogPromo("REJECTED", fmt.Sprintf("code %s: %s", code, preview.Reason))
	}
	return nil
}

// RemovePromo clears an applied code and restores the full price.
func (w *Workflow) RemovePromo() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return ErrBusy
	}
	if w.step != StepBookingSummary {
		return ErrInvalidTransition
	}
	w.promo = nil
	w.promoRejection = ""
	w.pricing = pricing.ComputePricing(w.details.BasePrice(), 0, w.details.Currency())
	return nil
}

// ProceedToPayment moves from the summary to the payment step.
func (w *Workflow) ProceedToPayment() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return ErrBusy
	}
	if w.step != StepBookingSummary {
		return ErrInvalidTransition
	}
	w.step = StepPaymentDetails
	return nil
}

// SubmitPayment validates the card locally and, when it passes, charges the
// final amount through the gateway. A gateway failure keeps the step so the
// user can retry; there is no automatic retry. Success is terminal.
func (w *Workflow) SubmitPayment(ctx context.Context, in card.Input) (map[string]string, error) {
	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	if w.step != StepPaymentDetails {
		w.mu.Unlock()
		return nil, ErrInvalidTransition
	}

	masked, fieldErrs := card.Validate(in, time.Now())
	if len(fieldErrs) > 0 {
		w.mu.Unlock()
		return fieldErrs, nil
	}

	w.busy = true
	amount := w.pricing.FinalPrice
	currency := w.pricing.Currency
	w.mu.Unlock()

	result, err := w.processor.ProcessPayment(ctx, *masked, amount, currency)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.busy = false
	if err != nil {
		w.logger.LogPayment("FAILED", "", fmt.Sprintf("gateway call failed, retry allowed: %v", err))
		return nil, fmt.Errorf("payment failed: %w", err)
	}

	w.card = masked
	w.payment = &result
	w.step = StepConfirmed
	w.logger.LogPayment("CHARGED", result.PaymentID, fmt.Sprintf("%.2f %s charged via %s", amount, currency, masked.Brand))
	return nil, nil
}

// Back returns to the previous step. Allowed from the summary and payment
// steps only; captured passengers, contact and promo state are preserved.
func (w *Workflow) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.busy {
		return ErrBusy
	}
	switch w.step {
	case StepBookingSummary:
		w.step = StepPassengerDetails
	case StepPaymentDetails:
		w.step = StepBookingSummary
	default:
		return ErrInvalidTransition
	}
	return nil
}
