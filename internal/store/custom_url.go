// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"staticpress/internal/models"
)

// CustomURLStore handles the custom_urls table.
type CustomURLStore struct {
	db *sql.DB
}

// NewCustomURLStore creates a new CustomURLStore with the given database connection.
func NewCustomURLStore(db *sql.DB) *CustomURLStore {
	return &CustomURLStore{db: db}
}

const customURLColumns = `id, path, title, template_name, sitemap, slots, updated_at`

func scanCustomURL(row scanner) (*models.CustomURL, error) {
	var (
		u     models.CustomURL
		slots []byte
	)
	if err := row.Scan(&u.ID, &u.Path, &u.Title, &u.TemplateID, &u.Sitemap, &slots, &u.UpdatedOn); err != nil {
		return nil, err
	}
	if err := decodeJSON(slots, &u.Slots, "slots"); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *CustomURLStore) query(ctx context.Context, where string, args ...any) ([]*models.CustomURL, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+customURLColumns+` FROM custom_urls `+where+` ORDER BY path, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query custom urls: %w", err)
	}
	defer rows.Close()

	var out []*models.CustomURL
	for rows.Next() {
		u, err := scanCustomURL(rows)
		if err != nil {
			return nil, fmt.Errorf("scan custom url: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// List returns every custom URL ordered by path.
func (s *CustomURLStore) List(ctx context.Context) ([]*models.CustomURL, error) {
	return s.query(ctx, "")
}

// FindByIDs batch-loads custom URLs.
func (s *CustomURLStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.CustomURL, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.query(ctx, `WHERE id = ANY($1::uuid[])`, idStrings(ids))
}

// Save inserts or updates a custom URL. A zero ID is assigned.
func (s *CustomURLStore) Save(ctx context.Context, u *models.CustomURL) (*models.CustomURL, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	slots, err := encodeJSON(u.Slots)
	if err != nil {
		return nil, fmt.Errorf("encode slots: %w", err)
	}
	out, err := scanCustomURL(s.db.QueryRowContext(ctx, `
		INSERT INTO custom_urls (id, path, title, template_name, sitemap, slots, updated_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6::jsonb, '{}'), now())
		ON CONFLICT (id) DO UPDATE SET
			path = EXCLUDED.path, title = EXCLUDED.title, template_name = EXCLUDED.template_name,
			sitemap = EXCLUDED.sitemap, slots = EXCLUDED.slots, updated_at = now()
		RETURNING `+customURLColumns,
		u.ID, u.Path, u.Title, u.TemplateID, u.Sitemap, slots,
	))
	if err != nil {
		return nil, fmt.Errorf("save custom url: %w", err)
	}
	return out, nil
}
