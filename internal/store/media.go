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

// MediaStore handles all media-related database operations.
type MediaStore struct {
	db *sql.DB
}

// NewMediaStore creates a new MediaStore with the given database connection.
func NewMediaStore(db *sql.DB) *MediaStore {
	return &MediaStore{db: db}
}

// mediaColumns lists the columns selected in media queries.
const mediaColumns = `id, filename, content_type, size_bytes, s3_key, alt_text,
	width, height, updated_at`

// scanMedia scans a media row from the result set.
func scanMedia(row scanner) (*models.Media, error) {
	var m models.Media
	err := row.Scan(
		&m.ID, &m.Filename, &m.ContentType, &m.SizeBytes, &m.S3Key, &m.AltText,
		&m.Width, &m.Height, &m.UpdatedOn,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new media record and returns it with the generated ID.
func (s *MediaStore) Create(ctx context.Context, m *models.Media) (*models.Media, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	out, err := scanMedia(s.db.QueryRowContext(ctx, `
		INSERT INTO media (id, filename, content_type, size_bytes, s3_key, alt_text, width, height)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+mediaColumns,
		m.ID, m.Filename, m.ContentType, m.SizeBytes, m.S3Key, m.AltText, m.Width, m.Height,
	))
	if err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}
	return out, nil
}

// FindByIDs batch-loads media. Unknown ids are absent from the map.
func (s *MediaStore) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Media, error) {
	out := make(map[uuid.UUID]models.Media, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+mediaColumns+` FROM media WHERE id = ANY($1::uuid[])`, idStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("query media: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		out[m.ID] = *m
	}
	return out, rows.Err()
}

// Delete removes a media record.
func (s *MediaStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM media WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	return nil
}
