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

// ChildPageStore handles the child_pages table. Parent is never populated
// here; Records fills it in.
type ChildPageStore struct {
	db *sql.DB
}

// NewChildPageStore creates a new ChildPageStore with the given database connection.
func NewChildPageStore(db *sql.DB) *ChildPageStore {
	return &ChildPageStore{db: db}
}

const childPageColumns = `id, model, page_id, slug, title, excerpt, template_name,
	visible, seq, slots, legacy_url, sitemap, updated_at`

func scanChildPage(row scanner) (*models.ChildPage, error) {
	var (
		c     models.ChildPage
		slots []byte
	)
	err := row.Scan(
		&c.ID, &c.Model, &c.PageID, &c.Slug, &c.Title, &c.Excerpt, &c.TemplateID,
		&c.Visible, &c.Seq, &slots, &c.LegacyURL, &c.Sitemap, &c.UpdatedOn,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(slots, &c.Slots, "slots"); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ChildPageStore) query(ctx context.Context, where string, args ...any) ([]*models.ChildPage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+childPageColumns+` FROM child_pages `+where+` ORDER BY seq, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query child pages: %w", err)
	}
	defer rows.Close()

	var out []*models.ChildPage
	for rows.Next() {
		c, err := scanChildPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child page: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListVisible returns the visible child pages of one model under a page.
func (s *ChildPageStore) ListVisible(ctx context.Context, pageID uuid.UUID, model string) ([]*models.ChildPage, error) {
	return s.query(ctx, `WHERE page_id = $1 AND model = $2 AND visible`, pageID, model)
}

// FindBySlug retrieves a child page by parent and slug, whatever its
// visibility. Returns nil if not found.
func (s *ChildPageStore) FindBySlug(ctx context.Context, pageID uuid.UUID, slug string) (*models.ChildPage, error) {
	c, err := scanChildPage(s.db.QueryRowContext(ctx,
		`SELECT `+childPageColumns+` FROM child_pages WHERE page_id = $1 AND slug = $2`, pageID, slug))
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find child page by slug: %w", err)
	}
	return c, nil
}

// FindByIDs batch-loads child pages of one model.
func (s *ChildPageStore) FindByIDs(ctx context.Context, model string, ids []uuid.UUID) ([]*models.ChildPage, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.query(ctx, `WHERE model = $1 AND id = ANY($2::uuid[])`, model, idStrings(ids))
}

// WithLegacyURL returns the child pages that carry a legacy URL.
func (s *ChildPageStore) WithLegacyURL(ctx context.Context) ([]*models.ChildPage, error) {
	return s.query(ctx, `WHERE legacy_url <> ''`)
}

// Save inserts or updates a child page. A zero ID is assigned.
func (s *ChildPageStore) Save(ctx context.Context, c *models.ChildPage) (*models.ChildPage, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	slots, err := encodeJSON(c.Slots)
	if err != nil {
		return nil, fmt.Errorf("encode slots: %w", err)
	}
	out, err := scanChildPage(s.db.QueryRowContext(ctx, `
		INSERT INTO child_pages (id, model, page_id, slug, title, excerpt, template_name,
			visible, seq, slots, legacy_url, sitemap, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10::jsonb, '{}'), $11, $12, now())
		ON CONFLICT (id) DO UPDATE SET
			model = EXCLUDED.model, page_id = EXCLUDED.page_id, slug = EXCLUDED.slug,
			title = EXCLUDED.title, excerpt = EXCLUDED.excerpt,
			template_name = EXCLUDED.template_name, visible = EXCLUDED.visible,
			seq = EXCLUDED.seq, slots = EXCLUDED.slots, legacy_url = EXCLUDED.legacy_url,
			sitemap = EXCLUDED.sitemap, updated_at = now()
		RETURNING `+childPageColumns,
		c.ID, c.Model, c.PageID, c.Slug, c.Title, c.Excerpt, c.TemplateID,
		c.Visible, c.Seq, slots, c.LegacyURL, c.Sitemap,
	))
	if err != nil {
		return nil, fmt.Errorf("save child page: %w", err)
	}
	return out, nil
}

// Delete removes a child page.
func (s *ChildPageStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM child_pages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete child page: %w", err)
	}
	return nil
}
