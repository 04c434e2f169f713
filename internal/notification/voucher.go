package notification

import (
	"encoding/json"

	"weyfar-booking/internal/models"

	"github.com/skip2/go-qrcode"
)

// VoucherPayload is what the QR on a booking voucher encodes. Check-in desks
// scan it to pull up the booking; it carries no payment or card data.
type VoucherPayload struct {
	BookingID string             `json:"booking_id"`
	Reference string             `json:"reference"`
	Type      models.BookingType `json:"type"`
	LeadName  string             `json:"lead_name"`
}

// GenerateVoucherQR renders the booking voucher QR as a 256px PNG.
func GenerateVoucherQR(booking *models.Booking) ([]byte, error) {
	payload := VoucherPayload{
		BookingID: booking.ID,
		Reference: booking.Reference,
		Type:      booking.Type,
	}
	if len(booking.Passengers) > 0 {
		payload.LeadName = booking.Passengers[0].FirstName + " " + booking.Passengers[0].LastName
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(string(data), qrcode.Medium, 256)
}
