// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package content defines the record store the publishing pipeline reads
// from. The PostgreSQL implementation lives in internal/store; Memory is an
// in-process implementation used by tests and by fixture-driven runs.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"staticpress/internal/models"
)

// ErrCycle is returned when a page's parent chain loops back on itself.
var ErrCycle = errors.New("page parent chain contains a cycle")

// maxDepth bounds parent-chain walks.
const maxDepth = 64

// Source is the read side of the record store. Lookups that find nothing
// return a nil record and a nil error.
type Source interface {
	// Settings returns the site settings singleton.
	Settings(ctx context.Context) (*models.Settings, error)

	// Pages returns every page ordered by seq, then id. Callers filter on
	// visibility.
	Pages(ctx context.Context) ([]*models.Page, error)
	PageByID(ctx context.Context, id uuid.UUID) (*models.Page, error)
	PageBySlug(ctx context.Context, slug string) (*models.Page, error)

	// ChildPages returns the visible child pages of a page ordered by seq,
	// then id, with Parent populated.
	ChildPages(ctx context.Context, pageID uuid.UUID) ([]*models.ChildPage, error)
	ChildPageBySlug(ctx context.Context, pageID uuid.UUID, slug string) (*models.ChildPage, error)

	// LegacyMatches returns every page and child page whose legacy URL
	// matches url, compared with NormalizeLegacyURL.
	LegacyMatches(ctx context.Context, url string) ([]models.Entity, error)

	// Media batch-loads media by id. Unknown ids are absent from the map.
	Media(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Media, error)

	// Entities batch-loads entities of one type: models.KindPage,
	// models.KindCustom or a child-page model name.
	Entities(ctx context.Context, typ string, ids []uuid.UUID) (map[uuid.UUID]models.Entity, error)

	CustomURLs(ctx context.Context) ([]*models.CustomURL, error)

	// TouchDeleted records that a publishable entity was deleted at t.
	TouchDeleted(ctx context.Context, t time.Time) error
}

// TemplateSource supplies templates to the renderer.
type TemplateSource interface {
	TemplateByName(ctx context.Context, name string) (*models.Template, error)
	Partials(ctx context.Context) ([]*models.Template, error)
	// Templates lists every template, partials included, by name.
	Templates(ctx context.Context) ([]*models.Template, error)
}

// NormalizeLegacyURL makes legacy URL comparison insensitive to a trailing
// slash on the path and to surrounding whitespace.
func NormalizeLegacyURL(raw string) string {
	raw = strings.TrimSpace(raw)
	path, query, hasQuery := strings.Cut(raw, "?")
	path = strings.TrimRight(path, "/")
	if path == "" {
		path = "/"
	}
	if hasQuery {
		return path + "?" + query
	}
	return path
}

// Reachable reports whether p and every ancestor are visible and enabled.
func Reachable(ctx context.Context, src Source, p *models.Page) (bool, error) {
	for depth := 0; p != nil; depth++ {
		if depth > maxDepth {
			return false, fmt.Errorf("page %s: %w", p.ID, ErrCycle)
		}
		if !p.IsPublishable() {
			return false, nil
		}
		if p.ParentID == nil {
			return true, nil
		}
		parent, err := src.PageByID(ctx, *p.ParentID)
		if err != nil {
			return false, fmt.Errorf("load parent of %s: %w", p.Slug, err)
		}
		if parent == nil {
			return false, nil
		}
		p = parent
	}
	return false, nil
}
