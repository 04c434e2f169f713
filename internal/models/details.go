package models

import (
	"errors"
	"time"
)

var ErrDetailsMismatch = errors.New("details payload does not match booking type")

// BookingDetails is the service-specific payload of a booking. Exactly one
// variant must be set, and it must agree with the booking's Type.
type BookingDetails struct {
	Flight *FlightDetails `json:"flight,omitempty"`
	Hotel  *HotelDetails  `json:"hotel,omitempty"`
	Car    *CarDetails    `json:"car,omitempty"`
	Cruise *CruiseDetails `json:"cruise,omitempty"`
}

type FlightDetails struct {
	Airline       string    `json:"airline"`
	FlightNumber  string    `json:"flight_number"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	CabinClass    string    `json:"cabin_class,omitempty"`
	BasePrice     float64   `json:"base_price"`
	Currency      string    `json:"currency,omitempty"`
}

type HotelDetails struct {
	HotelName string    `json:"hotel_name"`
	City      string    `json:"city"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	RoomType  string    `json:"room_type,omitempty"`
	Rooms     int       `json:"rooms"`
	BasePrice float64   `json:"base_price"`
	Currency  string    `json:"currency,omitempty"`
}

type CarDetails struct {
	Provider       string    `json:"provider"`
	VehicleClass   string    `json:"vehicle_class"`
	PickupLocation string    `json:"pickup_location"`
	PickupTime     time.Time `json:"pickup_time"`
	DropoffTime    time.Time `json:"dropoff_time"`
	BasePrice      float64   `json:"base_price"`
	Currency       string    `json:"currency,omitempty"`
}

type CruiseDetails struct {
	CruiseLine    string    `json:"cruise_line"`
	ShipName      string    `json:"ship_name"`
	DeparturePort string    `json:"departure_port"`
	DepartureDate time.Time `json:"departure_date"`
	Nights        int       `json:"nights"`
	CabinType     string    `json:"cabin_type,omitempty"`
	BasePrice     float64   `json:"base_price"`
	Currency      string    `json:"currency,omitempty"`
}

// Validate checks that exactly one variant is set and that it matches the
// declared booking type.
func (d BookingDetails) Validate(t BookingType) error {
	set := 0
	if d.Flight != nil {
		set++
	}
	if d.Hotel != nil {
		set++
	}
	if d.Car != nil {
		set++
	}
	if d.Cruise != nil {
		set++
	}
	if set != 1 {
		return ErrDetailsMismatch
	}

	switch t {
	case BookingTypeFlight:
		if d.Flight == nil {
			return ErrDetailsMismatch
		}
	case BookingTypeHotel:
		if d.Hotel == nil {
			return ErrDetailsMismatch
		}
	case BookingTypeCar:
		if d.Car == nil {
			return ErrDetailsMismatch
		}
	case BookingTypeCruise:
		if d.Cruise == nil {
			return ErrDetailsMismatch
		}
	default:
		return ErrDetailsMismatch
	}
	return nil
}

// BasePrice returns the selected offer's base price, 0 if no variant is set.
func (d BookingDetails) BasePrice() float64 {
	switch {
	case d.Flight != nil:
		return d.Flight.BasePrice
	case d.Hotel != nil:
		return d.Hotel.BasePrice
	case d.Car != nil:
		return d.Car.BasePrice
	case d.Cruise != nil:
		return d.Cruise.BasePrice
	}
	return 0
}

// Currency returns the offer currency, defaulting to USD.
func (d BookingDetails) Currency() string {
	var c string
	switch {
	case d.Flight != nil:
		c = d.Flight.Currency
	case d.Hotel != nil:
		c = d.Hotel.Currency
	case d.Car != nil:
		c = d.Car.Currency
	case d.Cruise != nil:
		c = d.Cruise.Currency
	}
	if c == "" {
		return "USD"
	}
	return c
}
