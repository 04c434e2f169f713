package db

import (
	"context"
	"database/sql"
	"errors"

	"weyfar-booking/internal/models"

	"github.com/uptrace/bun"
)

var ErrNotFound = errors.New("booking not found")

type DB struct {
	Bun *bun.DB
}

// ---------------- BOOKINGS ----------------

// CreateBooking → insert new booking
func (d *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	_, err := d.Bun.NewInsert().Model(booking).Exec(ctx)
	return err
}

// GetBookingByID → fetch one booking by its ID
func (d *DB) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateBooking → update mutable fields
func (d *DB) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	res, err := d.Bun.NewUpdate().
		Model(booking).
		Column("status", "pricing", "promo_code", "payment_order_id", "payment", "updated_at").
		Where("id = ?", booking.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetBookingsByEmail → fetch all bookings for a contact email, newest first
func (d *DB) GetBookingsByEmail(ctx context.Context, email string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("contact_info->>'email' = ?", email).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	return bookings, nil
}
