package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/bilyar/storefront-api/internal/domain"
	"github.com/bilyar/storefront-api/internal/repositories"
)

// SettingsRepository persists the single store settings record in Postgres.
type SettingsRepository struct {
	registry *Registry
}

// Get returns the stored settings, falling back to defaults when no record
// has been written yet.
func (r *SettingsRepository) Get(ctx context.Context) (domain.Settings, error) {
	q := r.registry.querier(ctx)

	var settings domain.Settings
	row := q.QueryRowContext(ctx, `SELECT id, store_name, store_email, store_phone, currency,
		free_shipping_threshold, default_shipping_cost FROM settings WHERE id = 1`)
	err := row.Scan(
		&settings.ID, &settings.StoreName, &settings.StoreEmail, &settings.StorePhone,
		&settings.Currency, &settings.FreeShippingThreshold, &settings.DefaultShippingCost,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.Settings{}, wrapError("settings.get", err)
	}
	return settings, nil
}

// Update upserts the settings record. The record always occupies id 1.
func (r *SettingsRepository) Update(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	q := r.registry.querier(ctx)

	settings.ID = 1
	_, err := q.ExecContext(ctx, `INSERT INTO settings (
			id, store_name, store_email, store_phone, currency, free_shipping_threshold, default_shipping_cost
		) VALUES (1,$1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET
			store_name = EXCLUDED.store_name,
			store_email = EXCLUDED.store_email,
			store_phone = EXCLUDED.store_phone,
			currency = EXCLUDED.currency,
			free_shipping_threshold = EXCLUDED.free_shipping_threshold,
			default_shipping_cost = EXCLUDED.default_shipping_cost`,
		settings.StoreName, settings.StoreEmail, settings.StorePhone, settings.Currency,
		settings.FreeShippingThreshold, settings.DefaultShippingCost,
	)
	if err != nil {
		return domain.Settings{}, wrapError("settings.update", err)
	}
	return settings, nil
}

var _ repositories.SettingsRepository = (*SettingsRepository)(nil)
