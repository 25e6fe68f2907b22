// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"staticpress/internal/models"
)

// SiteSettingStore manages site configuration in the database.
type SiteSettingStore struct {
	db *sql.DB
}

// NewSiteSettingStore returns a new SiteSettingStore backed by the given database.
func NewSiteSettingStore(db *sql.DB) *SiteSettingStore {
	return &SiteSettingStore{db: db}
}

// All returns every setting as a convenience map, plus the latest
// modification time across all rows.
func (s *SiteSettingStore) All(ctx context.Context) (models.SiteSettings, time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value, updated_at FROM site_settings ORDER BY key`)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	var (
		settings = make(models.SiteSettings)
		latest   time.Time
	)
	for rows.Next() {
		var (
			k, v string
			at   time.Time
		)
		if err := rows.Scan(&k, &v, &at); err != nil {
			return nil, time.Time{}, fmt.Errorf("scan setting: %w", err)
		}
		settings[k] = v
		if at.After(latest) {
			latest = at
		}
	}
	return settings, latest, rows.Err()
}

// Settings returns the typed settings singleton.
func (s *SiteSettingStore) Settings(ctx context.Context) (*models.Settings, error) {
	raw, updated, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return models.ParseSettings(raw, updated), nil
}

// Get returns a single setting by key, or the fallback if not found.
func (s *SiteSettingStore) Get(ctx context.Context, key, fallback string) (string, error) {
	var val string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM site_settings WHERE key = $1`, key).Scan(&val)
	if notFound(err) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}
	if val == "" {
		return fallback, nil
	}
	return val, nil
}

// Set upserts a single setting. Creates it if it doesn't exist.
func (s *SiteSettingStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO site_settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, value, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// SetMany updates multiple settings in a single transaction.
func (s *SiteSettingStore) SetMany(ctx context.Context, settings map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO site_settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for k, v := range settings {
		if _, err := stmt.ExecContext(ctx, k, v, now); err != nil {
			return fmt.Errorf("set %s: %w", k, err)
		}
	}

	return tx.Commit()
}

// TouchDeleted records that a publishable entity was deleted at t. The
// value is stored with nanosecond precision; change detection truncates it.
func (s *SiteSettingStore) TouchDeleted(ctx context.Context, t time.Time) error {
	return s.Set(ctx, models.SettingEntityDeletedOn, t.UTC().Format(time.RFC3339Nano))
}
