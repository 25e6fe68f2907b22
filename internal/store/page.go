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

// PageStore handles the pages table.
type PageStore struct {
	db *sql.DB
}

// NewPageStore creates a new PageStore with the given database connection.
func NewPageStore(db *sql.DB) *PageStore {
	return &PageStore{db: db}
}

const pageColumns = `id, slug, title, nav_title, page_title, excerpt, template_name,
	parent_id, visible, disabled, child_model, paginated, nav, identifier,
	legacy_url, sitemap, seq, slots, nav_image_id, updated_at`

func scanPage(row scanner) (*models.Page, error) {
	var (
		p                 models.Page
		parent, navImage  uuid.NullUUID
		navJSON, slotJSON []byte
	)
	err := row.Scan(
		&p.ID, &p.Slug, &p.Title, &p.NavTitle, &p.PageTitle, &p.Excerpt, &p.TemplateID,
		&parent, &p.Visible, &p.Disabled, &p.ChildModel, &p.Paginated, &navJSON, &p.Identifier,
		&p.LegacyURL, &p.Sitemap, &p.Seq, &slotJSON, &navImage, &p.UpdatedOn,
	)
	if err != nil {
		return nil, err
	}
	p.ParentID = nullable(parent)
	p.NavImageID = nullable(navImage)
	if err := decodeJSON(navJSON, &p.Nav, "nav"); err != nil {
		return nil, err
	}
	if err := decodeJSON(slotJSON, &p.Slots, "slots"); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PageStore) query(ctx context.Context, where string, args ...any) ([]*models.Page, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pageColumns+` FROM pages `+where+` ORDER BY seq, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	var pages []*models.Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// List returns every page ordered by seq, then id.
func (s *PageStore) List(ctx context.Context) ([]*models.Page, error) {
	return s.query(ctx, "")
}

// FindByIDs batch-loads pages.
func (s *PageStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Page, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.query(ctx, `WHERE id = ANY($1::uuid[])`, idStrings(ids))
}

// WithLegacyURL returns the pages that carry a legacy URL.
func (s *PageStore) WithLegacyURL(ctx context.Context) ([]*models.Page, error) {
	return s.query(ctx, `WHERE legacy_url <> ''`)
}

// FindByID retrieves a page by id. Returns nil if not found.
func (s *PageStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Page, error) {
	p, err := scanPage(s.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM pages WHERE id = $1`, id))
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find page by id: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves the first page, in model order, with the given slug.
// Returns nil if not found.
func (s *PageStore) FindBySlug(ctx context.Context, slug string) (*models.Page, error) {
	p, err := scanPage(s.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE slug = $1 ORDER BY seq, id LIMIT 1`, slug))
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find page by slug: %w", err)
	}
	return p, nil
}

// Save inserts or updates a page. A zero ID is assigned; updated_at is set
// by the database.
func (s *PageStore) Save(ctx context.Context, p *models.Page) (*models.Page, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	nav, err := encodeJSON(p.Nav)
	if err != nil {
		return nil, fmt.Errorf("encode nav: %w", err)
	}
	slots, err := encodeJSON(p.Slots)
	if err != nil {
		return nil, fmt.Errorf("encode slots: %w", err)
	}
	out, err := scanPage(s.db.QueryRowContext(ctx, `
		INSERT INTO pages (id, slug, title, nav_title, page_title, excerpt, template_name,
			parent_id, visible, disabled, child_model, paginated, nav, identifier,
			legacy_url, sitemap, seq, slots, nav_image_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			COALESCE($13::jsonb, '[]'), $14, $15, $16, $17, COALESCE($18::jsonb, '{}'), $19, now())
		ON CONFLICT (id) DO UPDATE SET
			slug = EXCLUDED.slug, title = EXCLUDED.title, nav_title = EXCLUDED.nav_title,
			page_title = EXCLUDED.page_title, excerpt = EXCLUDED.excerpt,
			template_name = EXCLUDED.template_name, parent_id = EXCLUDED.parent_id,
			visible = EXCLUDED.visible, disabled = EXCLUDED.disabled,
			child_model = EXCLUDED.child_model, paginated = EXCLUDED.paginated,
			nav = EXCLUDED.nav, identifier = EXCLUDED.identifier,
			legacy_url = EXCLUDED.legacy_url, sitemap = EXCLUDED.sitemap, seq = EXCLUDED.seq,
			slots = EXCLUDED.slots, nav_image_id = EXCLUDED.nav_image_id, updated_at = now()
		RETURNING `+pageColumns,
		p.ID, p.Slug, p.Title, p.NavTitle, p.PageTitle, p.Excerpt, p.TemplateID,
		p.ParentID, p.Visible, p.Disabled, p.ChildModel, p.Paginated, nav, p.Identifier,
		p.LegacyURL, p.Sitemap, p.Seq, slots, p.NavImageID,
	))
	if err != nil {
		return nil, fmt.Errorf("save page: %w", err)
	}
	return out, nil
}

// Delete removes a page. Its child pages stay behind as orphans.
func (s *PageStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	return nil
}
