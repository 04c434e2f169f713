package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"weyfar-booking/internal/booking"
	"weyfar-booking/internal/card"
	"weyfar-booking/internal/logger"
	"weyfar-booking/internal/models"
	"weyfar-booking/internal/utils"

	"github.com/gin-gonic/gin"
)

// BookingService is the slice of the booking service the payment endpoints
// need.
type BookingService interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	CreatePaymentOrder(ctx context.Context, bookingID string) (*models.Booking, error)
	AttachPayment(ctx context.Context, bookingID string, result models.PaymentResult) (*models.Booking, error)
}

type PaymentHandler struct {
	bookingService BookingService
	logger         *logger.Logger
}

func NewPaymentHandler(bookingService BookingService, logger *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.Engine) {
	r.POST("/payment/validate-card", h.ValidateCard)
	r.POST("/payment/order", h.CreateOrder)
	r.POST("/payment/confirm", h.ConfirmPayment)
}

type cardValidationRequest struct {
	Number     string `json:"number" binding:"required"`
	HolderName string `json:"holder_name" binding:"required"`
	CVV        string `json:"cvv" binding:"required"`
	Expiry     string `json:"expiry" binding:"required"`
	Brand      string `json:"brand"`
}

// ValidateCard checks card details locally without creating a charge. Only
// the masked payload ever appears in the response or the logs.
func (h *PaymentHandler) ValidateCard(c *gin.Context) {
	var req cardValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	masked, fieldErrs := card.Validate(card.Input{
		Number:     req.Number,
		HolderName: req.HolderName,
		CVV:        req.CVV,
		Expiry:     req.Expiry,
		Brand:      card.Brand(req.Brand),
	}, time.Now())
	if len(fieldErrs) > 0 {
		c.JSON(http.StatusBadRequest, utils.ValidationErrorResponse("Card validation failed", fieldErrs))
		return
	}

	h.logger.LogPayment("VALIDATE", "", fmt.Sprintf("%s card ending in %s accepted", masked.Brand, masked.Last4))
	c.JSON(http.StatusOK, utils.SuccessResponse("Card is valid", masked))
}

type createOrderRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
}

// CreateOrder opens (or returns the existing) gateway order for a pending
// booking.
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	b, err := h.bookingService.CreatePaymentOrder(c.Request.Context(), req.BookingID)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Booking not found", req.BookingID))
		case errors.Is(err, booking.ErrInvalidState):
			c.JSON(http.StatusConflict, utils.ErrorResponse("Order unavailable", "booking is not pending"))
		default:
			h.logger.Error("PAYMENT", fmt.Sprintf("CreateOrder: %v", err))
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Could not create order", err.Error()))
		}
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Order ready", gin.H{
		"booking_id": b.ID,
		"order_id":   b.PaymentOrderID,
		"amount":     b.Pricing.FinalPrice,
		"currency":   b.Pricing.Currency,
	}))
}

type confirmPaymentRequest struct {
	BookingID string  `json:"booking_id" binding:"required"`
	PaymentID string  `json:"payment_id" binding:"required"`
	OrderID   string  `json:"order_id" binding:"required"`
	Signature string  `json:"signature" binding:"required"`
	Amount    float64 `json:"amount"`
}

// ConfirmPayment attaches a verified gateway payment to its booking.
// Retries with the same payment id are safe.
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	b, err := h.bookingService.AttachPayment(c.Request.Context(), req.BookingID, models.PaymentResult{
		PaymentID: req.PaymentID,
		OrderID:   req.OrderID,
		Signature: req.Signature,
		Amount:    req.Amount,
	})
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Booking not found", req.BookingID))
		case errors.Is(err, booking.ErrPaymentMismatch):
			c.JSON(http.StatusConflict, utils.ErrorResponse("Payment rejected", "booking already confirmed with a different payment"))
		case errors.Is(err, booking.ErrInvalidState):
			c.JSON(http.StatusConflict, utils.ErrorResponse("Payment rejected", "booking is not awaiting payment"))
		case errors.Is(err, booking.ErrPaymentInProgress):
			c.JSON(http.StatusConflict, utils.ErrorResponse("Payment in progress", "this payment is already being processed"))
		case errors.Is(err, booking.ErrPaymentOrderMismatch):
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Payment rejected", "payment does not belong to this booking's payment order"))
		case errors.Is(err, booking.ErrPaymentAmountMismatch):
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Payment rejected", "paid amount does not cover the booking total"))
		case errors.Is(err, booking.ErrPaymentNotVerified):
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Payment rejected", "payment could not be verified"))
		default:
			h.logger.Error("PAYMENT", fmt.Sprintf("ConfirmPayment: %v", err))
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Payment processing failed", err.Error()))
		}
		return
	}

	h.logger.LogPayment("CONFIRMED", req.PaymentID, fmt.Sprintf("booking %s confirmed", b.ID))
	c.JSON(http.StatusOK, utils.SuccessResponse("Payment processed", b))
}
