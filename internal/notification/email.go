package notification

import (
	"bytes"
	"fmt"
	"strings"

	"weyfar-booking/internal/config"
	"weyfar-booking/internal/logger"
	"weyfar-booking/internal/models"

	"github.com/wneessen/go-mail"
)

// EmailNotifier sends booking confirmations over SMTP with the voucher QR
// attached. Satisfies the booking service's Notifier.
type EmailNotifier struct {
	cfg    config.EmailConfig
	logger *logger.Logger
}

func NewEmailNotifier(cfg config.EmailConfig, log *logger.Logger) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, logger: log}
}

func (n *EmailNotifier) client() (*mail.Client, error) {
	return mail.NewClient(
		n.cfg.SMTPHost,
		mail.WithPort(n.cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.SMTPUsername),
		mail.WithPassword(n.cfg.SMTPPassword),
	)
}

// SendBookingConfirmation emails the contact with the booking summary and the
// scannable voucher.
func (n *EmailNotifier) SendBookingConfirmation(booking *models.Booking) error {
	c, err := n.client()
	if err != nil {
		n.logger.Error("EMAIL", fmt.Sprintf("Could not initialize smtp client: %v", err))
		return err
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(n.cfg.FromName, n.cfg.FromAddress); err != nil {
		return fmt.Errorf("failed to set from address: %w", err)
	}
	if err := msg.To(booking.ContactInfo.Email); err != nil {
		return fmt.Errorf("failed to set to address: %w", err)
	}
	msg.Subject(fmt.Sprintf("Booking confirmed: %s", booking.Reference))
	msg.SetBodyString(mail.TypeTextHTML, confirmationBody(booking))

	qr, err := GenerateVoucherQR(booking)
	if err != nil {
		n.logger.Warn("EMAIL", fmt.Sprintf("Could not generate voucher QR for %s: %v", booking.ID, err))
	} else if err := msg.AttachReader("voucher.png", bytes.NewReader(qr)); err != nil {
		n.logger.Warn("EMAIL", fmt.Sprintf("Could not attach voucher for %s: %v", booking.ID, err))
	}

	if err := c.DialAndSend(msg); err != nil {
		n.logger.Error("EMAIL", fmt.Sprintf("Failed to send confirmation for %s: %v", booking.ID, err))
		return err
	}

	n.logger.Info("EMAIL", fmt.Sprintf("Confirmation sent for booking %s to %s", booking.ID, booking.ContactInfo.Email))
	return nil
}

func confirmationBody(booking *models.Booking) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<h2>Your %s booking is confirmed</h2>", booking.Type))
	b.WriteString(fmt.Sprintf("<p>Reference: <strong>%s</strong></p>", booking.Reference))
	b.WriteString("<ul>")
	for _, p := range booking.Passengers {
		b.WriteString(fmt.Sprintf("<li>%s %s</li>", p.FirstName, p.LastName))
	}
	b.WriteString("</ul>")
	b.WriteString(fmt.Sprintf("<p>Total paid: %.2f %s</p>", booking.Pricing.FinalPrice, booking.Pricing.Currency))
	if booking.Pricing.Discount > 0 {
		b.WriteString(fmt.Sprintf("<p>Promo discount applied: -%.2f (%s)</p>", booking.Pricing.Discount, booking.PromoCode))
	}
	b.WriteString("<p>Your voucher QR is attached. Present it at check-in.</p>")
	return b.String()
}
