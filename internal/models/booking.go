package models

import (
	"time"

	"github.com/uptrace/bun"
)

type BookingType string

const (
	BookingTypeFlight BookingType = "flight"
	BookingTypeHotel  BookingType = "hotel"
	BookingTypeCar    BookingType = "car"
	BookingTypeCruise BookingType = "cruise"
)

func (t BookingType) Valid() bool {
	switch t {
	case BookingTypeFlight, BookingTypeHotel, BookingTypeCar, BookingTypeCruise:
		return true
	}
	return false
}

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type Passenger struct {
	FirstName      string    `json:"first_name" validate:"required"`
	LastName       string    `json:"last_name" validate:"required"`
	DateOfBirth    time.Time `json:"date_of_birth" validate:"required"`
	Gender         Gender    `json:"gender" validate:"required,oneof=male female other"`
	Nationality    string    `json:"nationality" validate:"required"`
	PassportNumber string    `json:"passport_number,omitempty"`
}

type Address struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	ZipCode string `json:"zip_code" validate:"required"`
	Country string `json:"country" validate:"required"`
}

type ContactInfo struct {
	Email   string  `json:"email" validate:"required,email"`
	Phone   string  `json:"phone" validate:"required,min=10,max=15"`
	Address Address `json:"address" validate:"required"`
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID             string           `bun:"id,pk" json:"id"`
	Reference      string           `bun:"reference,notnull" json:"reference"`
	Type           BookingType      `bun:"type,notnull" json:"type"`
	Details        BookingDetails   `bun:"details,type:jsonb" json:"details"`
	Passengers     []Passenger      `bun:"passengers,type:jsonb" json:"passengers"`
	ContactInfo    ContactInfo      `bun:"contact_info,type:jsonb" json:"contact_info"`
	Pricing        PricingBreakdown `bun:"pricing,type:jsonb" json:"pricing"`
	PromoCode      string           `bun:"promo_code,nullzero" json:"promo_code,omitempty"`
	PaymentOrderID string           `bun:"payment_order_id,nullzero" json:"payment_order_id,omitempty"`
	Payment        *Payment         `bun:"payment,type:jsonb,nullzero" json:"payment,omitempty"`
	Status         BookingStatus    `bun:"status,notnull" json:"status"`
	CreatedAt      time.Time        `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time        `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// BookingRequest is the POST /api/booking payload.
type BookingRequest struct {
	Type        BookingType    `json:"type"`
	Details     BookingDetails `json:"details"`
	Passengers  []Passenger    `json:"passengers"`
	ContactInfo ContactInfo    `json:"contact_info"`
	PromoCode   string         `json:"promo_code,omitempty"`
}
