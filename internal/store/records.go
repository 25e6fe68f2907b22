// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"staticpress/internal/content"
	"staticpress/internal/models"
)

var (
	_ content.Source         = source{}
	_ content.TemplateSource = source{}
)

// Records is the PostgreSQL-backed record store read by the publishing
// pipeline and the dynamic path.
type Records struct {
	Pages      *PageStore
	ChildPages *ChildPageStore
	Media      *MediaStore
	CustomURLs *CustomURLStore
	Templates  *TemplateStore
	Settings   *SiteSettingStore
	CacheLog   *CacheLogStore
}

// New creates the record store over db.
func New(db *sql.DB) *Records {
	return &Records{
		Pages:      NewPageStore(db),
		ChildPages: NewChildPageStore(db),
		Media:      NewMediaStore(db),
		CustomURLs: NewCustomURLStore(db),
		Templates:  NewTemplateStore(db),
		Settings:   NewSiteSettingStore(db),
		CacheLog:   NewCacheLogStore(db),
	}
}

// Source adapts r to content.Source. The method names of the table stores
// collide with the interface, so the adapter is a separate type.
func (r *Records) Source() content.Source { return source{r} }

// TemplateSource adapts r to content.TemplateSource.
func (r *Records) TemplateSource() content.TemplateSource { return source{r} }

type source struct{ r *Records }

func (s source) Settings(ctx context.Context) (*models.Settings, error) {
	return s.r.Settings.Settings(ctx)
}

func (s source) Pages(ctx context.Context) ([]*models.Page, error) {
	return s.r.Pages.List(ctx)
}

func (s source) PageByID(ctx context.Context, id uuid.UUID) (*models.Page, error) {
	return s.r.Pages.FindByID(ctx, id)
}

func (s source) PageBySlug(ctx context.Context, slug string) (*models.Page, error) {
	return s.r.Pages.FindBySlug(ctx, slug)
}

func (s source) ChildPages(ctx context.Context, pageID uuid.UUID) ([]*models.ChildPage, error) {
	parent, err := s.r.Pages.FindByID(ctx, pageID)
	if err != nil || parent == nil || !parent.HasChildModel() {
		return nil, err
	}
	children, err := s.r.ChildPages.ListVisible(ctx, pageID, parent.ChildModel)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		c.Parent = parent
	}
	return children, nil
}

func (s source) ChildPageBySlug(ctx context.Context, pageID uuid.UUID, slug string) (*models.ChildPage, error) {
	c, err := s.r.ChildPages.FindBySlug(ctx, pageID, slug)
	if err != nil || c == nil {
		return nil, err
	}
	if err := s.attachParents(ctx, []*models.ChildPage{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// attachParents populates Parent with one query per batch.
func (s source) attachParents(ctx context.Context, children []*models.ChildPage) error {
	if len(children) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(children))
	for _, c := range children {
		ids = append(ids, c.PageID)
	}
	parents, err := s.r.Pages.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load parents: %w", err)
	}
	byID := make(map[uuid.UUID]*models.Page, len(parents))
	for _, p := range parents {
		byID[p.ID] = p
	}
	for _, c := range children {
		c.Parent = byID[c.PageID]
	}
	return nil
}

func (s source) LegacyMatches(ctx context.Context, url string) ([]models.Entity, error) {
	want := content.NormalizeLegacyURL(url)
	pages, err := s.r.Pages.WithLegacyURL(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Entity
	for _, p := range pages {
		if content.NormalizeLegacyURL(p.LegacyURL) == want {
			out = append(out, p)
		}
	}

	children, err := s.r.ChildPages.WithLegacyURL(ctx)
	if err != nil {
		return nil, err
	}
	var matched []*models.ChildPage
	for _, c := range children {
		if content.NormalizeLegacyURL(c.LegacyURL) == want {
			matched = append(matched, c)
		}
	}
	if err := s.attachParents(ctx, matched); err != nil {
		return nil, err
	}
	for _, c := range matched {
		out = append(out, c)
	}
	return out, nil
}

func (s source) Media(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Media, error) {
	return s.r.Media.FindByIDs(ctx, ids)
}

func (s source) Entities(ctx context.Context, typ string, ids []uuid.UUID) (map[uuid.UUID]models.Entity, error) {
	out := make(map[uuid.UUID]models.Entity, len(ids))
	switch typ {
	case models.KindPage:
		pages, err := s.r.Pages.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, p := range pages {
			out[p.ID] = p
		}
	case models.KindCustom:
		urls, err := s.r.CustomURLs.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, u := range urls {
			out[u.ID] = u
		}
	default:
		children, err := s.r.ChildPages.FindByIDs(ctx, typ, ids)
		if err != nil {
			return nil, err
		}
		if err := s.attachParents(ctx, children); err != nil {
			return nil, err
		}
		for _, c := range children {
			out[c.ID] = c
		}
	}
	return out, nil
}

func (s source) CustomURLs(ctx context.Context) ([]*models.CustomURL, error) {
	return s.r.CustomURLs.List(ctx)
}

func (s source) TouchDeleted(ctx context.Context, t time.Time) error {
	return s.r.Settings.TouchDeleted(ctx, t)
}

func (s source) TemplateByName(ctx context.Context, name string) (*models.Template, error) {
	return s.r.Templates.FindByName(ctx, name)
}

func (s source) Templates(ctx context.Context) ([]*models.Template, error) {
	return s.r.Templates.List(ctx)
}

func (s source) Partials(ctx context.Context) ([]*models.Template, error) {
	return s.r.Templates.ListPartials(ctx)
}
