package booking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"weyfar-booking/internal/booking"
	"weyfar-booking/internal/booking/db"
	"weyfar-booking/internal/logger"
	"weyfar-booking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateBooking(ctx context.Context, b *models.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockDBLayer) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockDBLayer) UpdateBooking(ctx context.Context, b *models.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockDBLayer) GetBookingsByEmail(ctx context.Context, email string) ([]models.Booking, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

type MockPromoStore struct {
	mock.Mock
}

func (m *MockPromoStore) GetByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PromoCode), args.Error(1)
}

func (m *MockPromoStore) IncrementUsage(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

type MockPaymentGuard struct {
	mock.Mock
}

func (m *MockPaymentGuard) AcquirePayment(ctx context.Context, paymentID, bookingID string) (bool, error) {
	args := m.Called(ctx, paymentID, bookingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentGuard) ReleasePayment(ctx context.Context, paymentID, bookingID string) error {
	args := m.Called(ctx, paymentID, bookingID)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateOrder(ctx context.Context, amount float64, currency, bookingID string) (string, error) {
	args := m.Called(ctx, amount, currency, bookingID)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) VerifyPayment(ctx context.Context, paymentID, orderID, signature string) (bool, error) {
	args := m.Called(ctx, paymentID, orderID, signature)
	return args.Bool(0), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishBookingCreated(b models.Booking) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBookingConfirmed(b models.Booking) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBookingCancelled(b models.Booking) error {
	args := m.Called(b)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendBookingConfirmation(b *models.Booking) error {
	args := m.Called(b)
	return args.Error(0)
}

type testDeps struct {
	db       *MockDBLayer
	promos   *MockPromoStore
	guard    *MockPaymentGuard
	gateway  *MockGateway
	events   *MockEventPublisher
	notifier *MockNotifier
}

func newTestService(t *testing.T) (*booking.Service, *testDeps) {
	t.Helper()
	deps := &testDeps{
		db:       &MockDBLayer{},
		promos:   &MockPromoStore{},
		guard:    &MockPaymentGuard{},
		gateway:  &MockGateway{},
		events:   &MockEventPublisher{},
		notifier: &MockNotifier{},
	}
	svc := booking.NewService(deps.db, deps.promos, deps.guard, deps.gateway, deps.events, deps.notifier, logger.NewLogger())
	return svc, deps
}

func validRequest() models.BookingRequest {
	return models.BookingRequest{
		Type: models.BookingTypeFlight,
		Details: models.BookingDetails{
			Flight: &models.FlightDetails{
				Airline:       "Emirates",
				FlightNumber:  "EK501",
				Origin:        "BOM",
				Destination:   "DXB",
				DepartureTime: time.Now().AddDate(0, 1, 0),
				ArrivalTime:   time.Now().AddDate(0, 1, 0).Add(4 * time.Hour),
				BasePrice:     500,
				Currency:      "USD",
			},
		},
		Passengers: []models.Passenger{
			{
				FirstName:   "Aarav",
				LastName:    "Sharma",
				DateOfBirth: time.Date(1990, 5, 12, 0, 0, 0, 0, time.UTC),
				Gender:      models.GenderMale,
				Nationality: "IN",
			},
		},
		ContactInfo: models.ContactInfo{
			Email: "aarav@example.com",
			Phone: "9876543210",
			Address: models.Address{
				Street:  "12 Marine Drive",
				City:    "Mumbai",
				State:   "MH",
				ZipCode: "400001",
				Country: "IN",
			},
		},
	}
}

func save10() *models.PromoCode {
	return &models.PromoCode{
		ID:            "promo001",
		Code:          "SAVE10",
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: 10,
		IsActive:      true,
	}
}

func TestCreateBooking_WithPromo(t *testing.T) {
	svc, deps := newTestService(t)

	deps.promos.On("GetByCode", mock.Anything, "SAVE10").Return(save10(), nil)
	deps.db.On("CreateBooking", mock.Anything, mock.AnythingOfType("*models.Booking")).Return(nil)
	deps.events.On("PublishBookingCreated", mock.AnythingOfType("models.Booking")).Return(nil)

	req := validRequest()
	req.PromoCode = "SAVE10"

	b, err := svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, b.Status)
	assert.Equal(t, 500.0, b.Pricing.BasePrice)
	assert.Equal(t, 50.0, b.Pricing.Discount)
	assert.Equal(t, 450.0, b.Pricing.FinalPrice)
	assert.Equal(t, "SAVE10", b.PromoCode)
	deps.db.AssertExpectations(t)
	deps.events.AssertExpectations(t)
}

func TestCreateBooking_ExpiredPromoFallsBackToFullPrice(t *testing.T) {
	svc, deps := newTestService(t)

	expired := save10()
	expired.Code = "EXPIRED50"
	expired.DiscountValue = 50
	expired.ValidUntil = time.Now().AddDate(0, 0, -1)

	deps.promos.On("GetByCode", mock.Anything, "EXPIRED50").Return(expired, nil)
	deps.db.On("CreateBooking", mock.Anything, mock.AnythingOfType("*models.Booking")).Return(nil)
	deps.events.On("PublishBookingCreated", mock.AnythingOfType("models.Booking")).Return(nil)

	req := validRequest()
	req.PromoCode = "EXPIRED50"

	b, err := svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.Pricing.Discount)
	assert.Equal(t, 500.0, b.Pricing.FinalPrice)
	assert.Empty(t, b.PromoCode)
}

func TestCreateBooking_MissingPassengerFields(t *testing.T) {
	svc, _ := newTestService(t)

	req := validRequest()
	req.Passengers[0].FirstName = ""

	_, err := svc.CreateBooking(context.Background(), req)
	var verr *booking.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "passengers[0].first_name")
}

func TestCreateBooking_NoPassengers(t *testing.T) {
	svc, _ := newTestService(t)

	req := validRequest()
	req.Passengers = nil

	_, err := svc.CreateBooking(context.Background(), req)
	var verr *booking.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "passengers")
}

func TestCreateBooking_DetailsTypeMismatch(t *testing.T) {
	svc, _ := newTestService(t)

	req := validRequest()
	req.Type = models.BookingTypeHotel // details carries a flight payload

	_, err := svc.CreateBooking(context.Background(), req)
	var verr *booking.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "details")
}

func TestAttachPayment_ConfirmsBookingAndCommitsPromo(t *testing.T) {
	svc, deps := newTestService(t)

	pending := &models.Booking{
		ID:             "bk1",
		Type:           models.BookingTypeFlight,
		Status:         models.BookingStatusPending,
		PromoCode:      "SAVE10",
		PaymentOrderID: "ord_1",
		Pricing:        models.PricingBreakdown{BasePrice: 500, Discount: 50, FinalPrice: 450, Currency: "USD"},
		ContactInfo:    validRequest().ContactInfo,
	}

	deps.db.On("GetBookingByID", mock.Anything, "bk1").Return(pending, nil)
	deps.guard.On("AcquirePayment", mock.Anything, "pay_1", "bk1").Return(true, nil)
	deps.gateway.On("VerifyPayment", mock.Anything, "pay_1", "ord_1", "sig").Return(true, nil)
	deps.db.On("UpdateBooking", mock.Anything, mock.AnythingOfType("*models.Booking")).Return(nil)
	deps.promos.On("IncrementUsage", mock.Anything, "SAVE10").Return(nil)
	deps.events.On("PublishBookingConfirmed", mock.AnythingOfType("models.Booking")).Return(nil)
	deps.notifier.On("SendBookingConfirmation", mock.AnythingOfType("*models.Booking")).Return(nil).Maybe()

	result := models.PaymentResult{PaymentID: "pay_1", OrderID: "ord_1", Signature: "sig", Amount: 450}
	b, err := svc.AttachPayment(context.Background(), "bk1", result)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, b.Status)
	require.NotNil(t, b.Payment)
	assert.Equal(t, "pay_1", b.Payment.PaymentID)
	assert.Equal(t, models.PaymentStatusCompleted, b.Payment.Status)
	deps.promos.AssertCalled(t, "IncrementUsage", mock.Anything, "SAVE10")
}

func TestAttachPayment_SamePaymentTwiceIsNoOp(t *testing.T) {
	svc, deps := newTestService(t)

	confirmed := &models.Booking{
		ID:     "bk1",
		Status: models.BookingStatusConfirmed,
		Payment: &models.Payment{
			PaymentID: "pay_1",
			OrderID:   "ord_1",
			Status:    models.PaymentStatusCompleted,
		},
	}
	deps.db.On("GetBookingByID", mock.Anything, "bk1").Return(confirmed, nil)

	result := models.PaymentResult{PaymentID: "pay_1", OrderID: "ord_1", Signature: "sig"}
	b, err := svc.AttachPayment(context.Background(), "bk1", result)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, b.Status)

	// No update, no second promo commit, no events
	deps.db.AssertNotCalled(t, "UpdateBooking", mock.Anything, mock.Anything)
	deps.promos.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything)
	deps.events.AssertNotCalled(t, "PublishBookingConfirmed", mock.Anything)
}

func TestAttachPayment_DifferentPaymentOnConfirmedBookingRejected(t *testing.T) {
	svc, deps := newTestService(t)

	confirmed := &models.Booking{
		ID:      "bk1",
		Status:  models.BookingStatusConfirmed,
		Payment: &models.Payment{PaymentID: "pay_1"},
	}
	deps.db.On("GetBookingByID", mock.Anything, "bk1").Return(confirmed, nil)

	result := models.PaymentResult{PaymentID: "pay_2", OrderID: "ord_2", Signature: "sig"}
	_, err := svc.AttachPayment(context.Background(), "bk1", result)
	assert.ErrorIs(t, err, booking.ErrPaymentMismatch)
}

func TestAttachPayment_ForeignOrderRejected(t *testing.T) {
	svc, deps := newTestService(t)

	pending := &models.Booking{
		ID:             "bk1",
		Status:         models.BookingStatusPending,
		PaymentOrderID: "ord_expensive",
		Pricing:        models.PricingBreakdown{BasePrice: 5000, FinalPrice: 5000, Currency: "USD"},
	}
	deps.db.On("GetBookingByID", mock.Anything, "bk1").Return(pending, nil)

	// A payment settling a different, cheaper order never confirms the booking
	result := models.PaymentResult{PaymentID: "pay_1", OrderID: "ord_cheap", Signature: "sig", Amount: 1}
	_, err := svc.AttachPayment(context.Background(), "bk1", result)
	assert.ErrorIs(t, err, booking.ErrPaymentOrderMismatch)
	assert.Equal(t, models.BookingStatusPending, pending.Status)

	deps.guard.AssertNotCalled(t, "AcquirePayment", mock.Anything, mock.Anything, mock.Anything)
	deps.gateway.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	deps.db.AssertNotCalled(t, "UpdateBooking", mock.Anything, mock.Anything)
}

func TestAttachPayment_UnderpaidAmountRejected(t *testing.T) {
	svc, deps := newTestService(t)

	pending := &models.Booking{
		ID:             "bk1",
		Status:         models.BookingStatusPending,
		PaymentOrderID: "ord_1",
		Pricing:        models.PricingBreakdown{BasePrice: 500, Discount: 50, FinalPrice: 450, Currency: "USD"},
	}
	deps.db.On("GetBookingByID", mock.Anything, "bk1").Return(pending, nil)

	result := models.PaymentResult{PaymentID: "pay_1", OrderID: "ord_1", Signature: "sig", Amount: 100}
	_, err := svc.AttachPayment(context.Background(), "bk1", result)
	assert.ErrorIs(t, err, booking.ErrPaymentAmountMismatch)
	assert.Equal(t, models.BookingStatusPending, pending.Status)

	deps.db.AssertNotCalled(t, "UpdateBooking", mock.Anything, mock.Anything)
}

func TestAttachPayment_VerificationFailureKeepsBookingPending(t *testing.T) {
	svc, deps := newTestService(t)

	pending := &models.Booking{
		ID:             "bk1",
		Status:         models.BookingStatusPending,
		PaymentOrderID: "ord_1",
		Pricing:        models.PricingBreakdown{BasePrice: 500, FinalPrice: 500, Currency: "USD"},
	}
	deps.db.On("GetBookingByID", mock.Anything, "bk1").Return(pending, nil)
	deps.guard.On("AcquirePayment", mock.Anything, "pay_1", "bk1").Return(true, nil)
	deps.gateway.On("VerifyPayment", mock.Anything, "pay_1", "ord_1", "bad-sig").Return(false, nil)
	deps.guard.On("ReleasePayment", mock.Anything, "pay_1", "bk1").Return(nil)

	result := models.PaymentResult{PaymentID: "pay_1", OrderID: "ord_1", Signature: "bad-sig", Amount: 500}
	_, err := svc.AttachPayment(context.Background(), "bk1", result)
	assert.ErrorIs(t, err, booking.ErrPaymentNotVerified)
	assert.Equal(t, models.BookingStatusPending, pending.Status)

	// Guard released so the user can retry
	deps.guard.AssertCalled(t, "ReleasePayment", mock.Anything, "pay_1", "bk1")
	deps.db.AssertNotCalled(t, "UpdateBooking", mock.Anything, mock.Anything)
}

func TestAttachPayment_GuardHeldCollapsesDuplicateDelivery(t *testing.T) {
	svc, deps := newTestService(t)

	pending := &models.Booking{ID: "bk1", Status: models.BookingStatusPending, PaymentOrderID: "ord_1"}
	confirmed := &models.Booking{
		ID:      "bk1",
		Status:  models.BookingStatusConfirmed,
		Payment: &models.Payment{PaymentID: "pay_1", Status: models.PaymentStatusCompleted},
	}

	deps.db.On("GetBookingByID", mock.Anything, "bk1").Return(pending, nil).Once()
	deps.guard.On("AcquirePayment", mock.Anything, "pay_1", "bk1").Return(false, nil)
	deps.db.On("GetBookingByID", mock.Anything, "bk1").Return(confirmed, nil).Once()

	result := models.PaymentResult{PaymentID: "pay_1", OrderID: "ord_1", Signature: "sig"}
	b, err := svc.AttachPayment(context.Background(), "bk1", result)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusConfirmed, b.Status)
}

func TestCreatePaymentOrder(t *testing.T) {
	svc, deps := newTestService(t)

	pending := &models.Booking{
		ID:      "bk1",
		Status:  models.BookingStatusPending,
		Pricing: models.PricingBreakdown{BasePrice: 500, Discount: 50, FinalPrice: 450, Currency: "USD"},
	}
	deps.db.On("GetBookingByID", mock.Anything, "bk1").Return(pending, nil)
	deps.gateway.On("CreateOrder", mock.Anything, 450.0, "USD", "bk1").Return("ord_99", nil)
	deps.db.On("UpdateBooking", mock.Anything, mock.AnythingOfType("*models.Booking")).Return(nil)

	b, err := svc.CreatePaymentOrder(context.Background(), "bk1")
	require.NoError(t, err)
	assert.Equal(t, "ord_99", b.PaymentOrderID)

	// Second call reuses the stored order
	b, err = svc.CreatePaymentOrder(context.Background(), "bk1")
	require.NoError(t, err)
	assert.Equal(t, "ord_99", b.PaymentOrderID)
	deps.gateway.AssertNumberOfCalls(t, "CreateOrder", 1)
}

func TestCancelBooking(t *testing.T) {
	svc, deps := newTestService(t)

	pending := &models.Booking{ID: "bk1", Status: models.BookingStatusPending}
	deps.db.On("GetBookingByID", mock.Anything, "bk1").Return(pending, nil)
	deps.db.On("UpdateBooking", mock.Anything, mock.AnythingOfType("*models.Booking")).Return(nil)
	deps.events.On("PublishBookingCancelled", mock.AnythingOfType("models.Booking")).Return(nil)

	b, err := svc.CancelBooking(context.Background(), "bk1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, b.Status)
}

func TestCancelBooking_ConfirmedRejected(t *testing.T) {
	svc, deps := newTestService(t)

	confirmed := &models.Booking{ID: "bk1", Status: models.BookingStatusConfirmed}
	deps.db.On("GetBookingByID", mock.Anything, "bk1").Return(confirmed, nil)

	_, err := svc.CancelBooking(context.Background(), "bk1")
	assert.ErrorIs(t, err, booking.ErrInvalidState)
}

func TestGetBooking_NotFound(t *testing.T) {
	svc, deps := newTestService(t)

	deps.db.On("GetBookingByID", mock.Anything, "ghost").Return(nil, db.ErrNotFound)

	_, err := svc.GetBooking(context.Background(), "ghost")
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
}

func TestGetBooking_StorageErrorIsNotNotFound(t *testing.T) {
	svc, deps := newTestService(t)

	deps.db.On("GetBookingByID", mock.Anything, "bk1").Return(nil, errors.New("pq: connection refused"))

	_, err := svc.GetBooking(context.Background(), "bk1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, booking.ErrBookingNotFound)
}

func TestListBookingsByEmail(t *testing.T) {
	svc, deps := newTestService(t)

	stored := []models.Booking{
		{ID: "bk2", Status: models.BookingStatusConfirmed},
		{ID: "bk1", Status: models.BookingStatusCancelled},
	}
	deps.db.On("GetBookingsByEmail", mock.Anything, "aarav@example.com").Return(stored, nil)

	bookings, err := svc.ListBookingsByEmail(context.Background(), "aarav@example.com")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, "bk2", bookings[0].ID)
}

func TestPreviewPromo(t *testing.T) {
	svc, deps := newTestService(t)

	deps.promos.On("GetByCode", mock.Anything, "SAVE10").Return(save10(), nil)

	preview, err := svc.PreviewPromo(context.Background(), "SAVE10", 500, models.BookingTypeFlight)
	require.NoError(t, err)
	assert.True(t, preview.Valid)
	assert.Equal(t, 50.0, preview.Discount)
	assert.Equal(t, 450.0, preview.FinalAmount)
}

func TestPreviewPromo_UnknownCode(t *testing.T) {
	svc, deps := newTestService(t)

	deps.promos.On("GetByCode", mock.Anything, "GHOST").Return(nil, nil)

	preview, err := svc.PreviewPromo(context.Background(), "GHOST", 500, models.BookingTypeFlight)
	require.NoError(t, err)
	assert.False(t, preview.Valid)
	assert.Equal(t, 500.0, preview.FinalAmount)
}
