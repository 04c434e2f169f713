package booking_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"weyfar-booking/internal/booking"
	"weyfar-booking/internal/logger"
	"weyfar-booking/internal/models"
	"weyfar-booking/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Service *booking.Service
	Logger  *logger.Logger
}

func NewHandler(service *booking.Service) *Handler {
	return &Handler{
		Service: service,
		Logger:  logger.NewLogger(),
	}
}

// RegisterRoutes mounts the booking endpoints on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/booking", h.CreateBooking)
	r.Get("/api/booking/{bookingId}", h.GetBooking)
	r.Get("/api/booking/email/{email}", h.ListBookingsByEmail)
	r.Delete("/api/booking/{bookingId}", h.CancelBooking)
	r.Post("/api/booking/validate-promo", h.ValidatePromo)
	r.Post("/api/booking/{bookingId}/payment-order", h.CreatePaymentOrder)
	r.Post("/api/booking/{bookingId}/payment", h.AttachPayment)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body utils.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	h.Logger.Info("API", "CreateBooking: received request")

	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateBooking: failed to decode request body: %v", err))
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	created, err := h.Service.CreateBooking(r.Context(), req)
	if err != nil {
		var verr *booking.ValidationError
		if errors.As(err, &verr) {
			h.Logger.Warn("API", fmt.Sprintf("CreateBooking: validation failed: %v", verr.Fields))
			h.writeJSON(w, http.StatusBadRequest, utils.ValidationErrorResponse("Booking validation failed", verr.Fields))
			return
		}
		h.Logger.Error("API", fmt.Sprintf("CreateBooking: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not create booking", err.Error()))
		return
	}

	h.Logger.Info("API", fmt.Sprintf("CreateBooking: booking %s created", created.ID))
	h.writeJSON(w, http.StatusCreated, utils.SuccessResponse("Booking created", created))
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("GetBooking: bookingId=%s", bookingID))

	b, err := h.Service.GetBooking(r.Context(), bookingID)
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			h.Logger.Warn("API", fmt.Sprintf("GetBooking: %v", err))
			h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Booking not found", bookingID))
			return
		}
		h.Logger.Error("API", fmt.Sprintf("GetBooking: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not retrieve booking", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Booking retrieved", b))
}

// ListBookingsByEmail returns all bookings made with a contact email, newest
// first.
func (h *Handler) ListBookingsByEmail(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	h.Logger.Info("API", fmt.Sprintf("ListBookingsByEmail: email=%s", email))

	bookings, err := h.Service.ListBookingsByEmail(r.Context(), email)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListBookingsByEmail: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not retrieve bookings", err.Error()))
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Bookings retrieved", bookings))
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("CancelBooking: bookingId=%s", bookingID))

	b, err := h.Service.CancelBooking(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Booking not found", bookingID))
		case errors.Is(err, booking.ErrInvalidState):
			h.writeJSON(w, http.StatusConflict, utils.ErrorResponse("Booking cannot be cancelled", "only pending bookings can be cancelled"))
		default:
			h.Logger.Error("API", fmt.Sprintf("CancelBooking: %v", err))
			h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not cancel booking", err.Error()))
		}
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Booking cancelled", b))
}

type validatePromoRequest struct {
	Code   string             `json:"code"`
	Amount float64            `json:"amount"`
	Type   models.BookingType `json:"type"`
}

// ValidatePromo previews a promo code against an order amount. Usage is not
// consumed here; redemption happens when the booking's payment is confirmed.
func (h *Handler) ValidatePromo(w http.ResponseWriter, r *http.Request) {
	var req validatePromoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	if req.Code == "" {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request", "code is required"))
		return
	}
	if req.Amount <= 0 {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request", "amount must be greater than zero"))
		return
	}

	preview, err := h.Service.PreviewPromo(r.Context(), req.Code, req.Amount, req.Type)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ValidatePromo: %v", err))
		h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Promo validation failed", err.Error()))
		return
	}
	if !preview.Valid {
		h.Logger.Warn("API", fmt.Sprintf("ValidatePromo: code=%s rejected reason=%s", preview.Code, preview.Reason))
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse(preview.Message, preview.Reason))
		return
	}

	h.Logger.Info("API", fmt.Sprintf("ValidatePromo: code=%s discount=%.2f", preview.Code, preview.Discount))
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Promo code validated", preview))
}

func (h *Handler) CreatePaymentOrder(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("CreatePaymentOrder: bookingId=%s", bookingID))

	b, err := h.Service.CreatePaymentOrder(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Booking not found", bookingID))
		case errors.Is(err, booking.ErrInvalidState):
			h.writeJSON(w, http.StatusConflict, utils.ErrorResponse("Payment order unavailable", "booking is not pending"))
		default:
			h.Logger.Error("API", fmt.Sprintf("CreatePaymentOrder: %v", err))
			h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not create payment order", err.Error()))
		}
		return
	}

	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Payment order ready", b))
}

func (h *Handler) AttachPayment(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("AttachPayment: bookingId=%s", bookingID))

	var result models.PaymentResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	if result.PaymentID == "" || result.OrderID == "" {
		h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request", "payment_id and order_id are required"))
		return
	}

	b, err := h.Service.AttachPayment(r.Context(), bookingID, result)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			h.writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Booking not found", bookingID))
		case errors.Is(err, booking.ErrPaymentMismatch):
			h.writeJSON(w, http.StatusConflict, utils.ErrorResponse("Payment rejected", "booking already confirmed with a different payment"))
		case errors.Is(err, booking.ErrInvalidState):
			h.writeJSON(w, http.StatusConflict, utils.ErrorResponse("Payment rejected", "booking is not awaiting payment"))
		case errors.Is(err, booking.ErrPaymentInProgress):
			h.writeJSON(w, http.StatusConflict, utils.ErrorResponse("Payment in progress", "this payment is already being processed"))
		case errors.Is(err, booking.ErrPaymentOrderMismatch):
			h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Payment rejected", "payment does not belong to this booking's payment order"))
		case errors.Is(err, booking.ErrPaymentAmountMismatch):
			h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Payment rejected", "paid amount does not cover the booking total"))
		case errors.Is(err, booking.ErrPaymentNotVerified):
			h.writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Payment rejected", "payment could not be verified"))
		default:
			h.Logger.Error("API", fmt.Sprintf("AttachPayment: %v", err))
			h.writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Could not attach payment", err.Error()))
		}
		return
	}

	h.Logger.Info("API", fmt.Sprintf("AttachPayment: booking %s confirmed", b.ID))
	h.writeJSON(w, http.StatusOK, utils.SuccessResponse("Booking confirmed", b))
}
