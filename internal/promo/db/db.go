package db

import (
	"context"
	"database/sql"
	"errors"

	"weyfar-booking/internal/models"
	"weyfar-booking/internal/promo"

	"github.com/uptrace/bun"
)

var (
	ErrPromoNotFound     = errors.New("promo code not found")
	ErrUsageLimitReached = errors.New("promo code usage limit reached")
)

type DB struct {
	Bun *bun.DB
}

// GetByCode fetches an active-or-not promo by its normalized code. Returns
// (nil, nil) when no such code exists so the validator can report NotFound
// instead of a storage error.
func (d *DB) GetByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var p models.PromoCode
	err := d.Bun.NewSelect().
		Model(&p).
		Where("code = ?", promo.NormalizeCode(code)).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// IncrementUsage bumps used_count by one, but only while the usage limit has
// not been reached. The conditional update is a single statement, so two
// concurrent redemptions of the last remaining use cannot both succeed.
func (d *DB) IncrementUsage(ctx context.Context, code string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.PromoCode)(nil)).
		Set("used_count = used_count + 1").
		Where("code = ?", promo.NormalizeCode(code)).
		Where("usage_limit IS NULL OR usage_limit = 0 OR used_count < usage_limit").
		Exec(ctx)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Either the code vanished or the limit was hit between preview and commit
		existing, lookupErr := d.GetByCode(ctx, code)
		if lookupErr != nil {
			return lookupErr
		}
		if existing == nil {
			return ErrPromoNotFound
		}
		return ErrUsageLimitReached
	}
	return nil
}

// Create inserts a promo code. Used by migrations and tests; promo
// administration itself lives outside this service.
func (d *DB) Create(ctx context.Context, p *models.PromoCode) error {
	p.Code = promo.NormalizeCode(p.Code)
	_, err := d.Bun.NewInsert().Model(p).Exec(ctx)
	return err
}
