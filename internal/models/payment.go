package models

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment is attached to exactly one booking after the gateway confirms
// a successful charge.
type Payment struct {
	PaymentID string        `json:"payment_id"`
	OrderID   string        `json:"order_id"`
	Status    PaymentStatus `json:"status"`
	Amount    float64       `json:"amount"`
	Currency  string        `json:"currency"`
	PaidAt    time.Time     `json:"paid_at"`
}

// PaymentResult is what the gateway callback hands to the booking service.
type PaymentResult struct {
	PaymentID string  `json:"payment_id"`
	OrderID   string  `json:"order_id"`
	Signature string  `json:"signature"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

// MaskedCard is the only card representation that may leave the card
// validator. Full PAN and CVV are never stored, transmitted or logged.
type MaskedCard struct {
	Brand      string `json:"brand"`
	Last4      string `json:"last4"`
	HolderName string `json:"holder_name"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
}
