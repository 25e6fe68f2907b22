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

// TemplateStore handles all template-related database operations.
type TemplateStore struct {
	db *sql.DB
}

// NewTemplateStore creates a new TemplateStore with the given database connection.
func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

const templateColumns = `id, name, type, html_content, version, updated_at`

func scanTemplate(row scanner) (*models.Template, error) {
	var t models.Template
	if err := row.Scan(&t.ID, &t.Name, &t.Type, &t.HTMLContent, &t.Version, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TemplateStore) query(ctx context.Context, where string, args ...any) ([]*models.Template, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+templateColumns+` FROM templates `+where+` ORDER BY type, name`, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// List returns all templates ordered by type and name.
func (s *TemplateStore) List(ctx context.Context) ([]*models.Template, error) {
	return s.query(ctx, "")
}

// ListPartials returns the partial templates ordered by name.
func (s *TemplateStore) ListPartials(ctx context.Context) ([]*models.Template, error) {
	return s.query(ctx, `WHERE type = $1`, models.TemplateTypePartial)
}

// FindByName retrieves a template by name. Returns nil if not found.
func (s *TemplateStore) FindByName(ctx context.Context, name string) (*models.Template, error) {
	t, err := scanTemplate(s.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM templates WHERE name = $1`, name))
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find template by name: %w", err)
	}
	return t, nil
}

// Create inserts a new template at version 1.
func (s *TemplateStore) Create(ctx context.Context, t *models.Template) (*models.Template, error) {
	if t.Type == "" {
		t.Type = models.TemplateTypePage
	}
	out, err := scanTemplate(s.db.QueryRowContext(ctx, `
		INSERT INTO templates (name, type, html_content, version)
		VALUES ($1, $2, $3, 1)
		RETURNING `+templateColumns,
		t.Name, t.Type, t.HTMLContent,
	))
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return out, nil
}

// Update modifies a template and increments its version, which evicts it
// from the compiled template cache.
func (s *TemplateStore) Update(ctx context.Context, t *models.Template) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE templates SET
			name = $1, html_content = $2, version = version + 1, updated_at = NOW()
		WHERE id = $3
	`, t.Name, t.HTMLContent, t.ID)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return nil
}

// Delete removes a template by ID.
func (s *TemplateStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}
