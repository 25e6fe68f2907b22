// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package content

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"staticpress/internal/models"
)

// Memory is an in-process record store. It is safe for concurrent use.
// Records are copied on the way in and out, so callers may mutate what
// they get back.
type Memory struct {
	mu        sync.RWMutex
	settings  models.Settings
	pages     map[uuid.UUID]models.Page
	children  map[uuid.UUID]models.ChildPage
	media     map[uuid.UUID]models.Media
	custom    map[uuid.UUID]models.CustomURL
	templates map[string]models.Template
}

// NewMemory returns an empty store with default settings.
func NewMemory() *Memory {
	return &Memory{
		settings:  models.Settings{SiteName: "StaticPress", PagingEnabled: map[string]bool{}},
		pages:     make(map[uuid.UUID]models.Page),
		children:  make(map[uuid.UUID]models.ChildPage),
		media:     make(map[uuid.UUID]models.Media),
		custom:    make(map[uuid.UUID]models.CustomURL),
		templates: make(map[string]models.Template),
	}
}

// SetSettings replaces the settings singleton.
func (m *Memory) SetSettings(s models.Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.PagingEnabled == nil {
		s.PagingEnabled = map[string]bool{}
	}
	m.settings = s
}

// UpdateSettings applies fn to the settings singleton.
func (m *Memory) UpdateSettings(fn func(*models.Settings)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.settings)
}

// PutPage inserts or replaces a page. A zero ID is assigned.
func (m *Memory) PutPage(p models.Page) *models.Page {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.mu.Lock()
	m.pages[p.ID] = p
	m.mu.Unlock()
	return &p
}

// DeletePage removes a page. Its child pages stay behind as orphans.
func (m *Memory) DeletePage(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pages, id)
}

// PutChildPage inserts or replaces a child page. A zero ID is assigned.
func (m *Memory) PutChildPage(c models.ChildPage) *models.ChildPage {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.Parent = nil
	m.mu.Lock()
	m.children[c.ID] = c
	m.mu.Unlock()
	return &c
}

// DeleteChildPage removes a child page.
func (m *Memory) DeleteChildPage(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.children, id)
}

// PutMedia inserts or replaces a media record.
func (m *Memory) PutMedia(md models.Media) *models.Media {
	if md.ID == uuid.Nil {
		md.ID = uuid.New()
	}
	m.mu.Lock()
	m.media[md.ID] = md
	m.mu.Unlock()
	return &md
}

// PutCustomURL inserts or replaces a custom cacheable URL.
func (m *Memory) PutCustomURL(u models.CustomURL) *models.CustomURL {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.mu.Lock()
	m.custom[u.ID] = u
	m.mu.Unlock()
	return &u
}

// PutTemplate inserts or replaces a template by name.
func (m *Memory) PutTemplate(t models.Template) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Type == "" {
		t.Type = models.TemplateTypePage
	}
	m.mu.Lock()
	m.templates[t.Name] = t
	m.mu.Unlock()
}

func (m *Memory) Settings(_ context.Context) (*models.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.settings
	s.PagingEnabled = make(map[string]bool, len(m.settings.PagingEnabled))
	for k, v := range m.settings.PagingEnabled {
		s.PagingEnabled[k] = v
	}
	return &s, nil
}

func (m *Memory) Pages(_ context.Context) ([]*models.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedPages(), nil
}

func (m *Memory) PageByID(_ context.Context, id uuid.UUID) (*models.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pages[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) PageBySlug(_ context.Context, slug string) (*models.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.sortedPages() {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, nil
}

func (m *Memory) ChildPages(_ context.Context, pageID uuid.UUID) ([]*models.ChildPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	parent, ok := m.pages[pageID]
	if !ok {
		return nil, nil
	}
	var out []*models.ChildPage
	for _, c := range m.children {
		if c.PageID != pageID || !c.Visible || c.Model != parent.ChildModel {
			continue
		}
		c.Parent = &parent
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *models.ChildPage) int {
		return cmp.Or(cmp.Compare(a.Seq, b.Seq), cmp.Compare(a.ID.String(), b.ID.String()))
	})
	return out, nil
}

func (m *Memory) ChildPageBySlug(_ context.Context, pageID uuid.UUID, slug string) (*models.ChildPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.children {
		if c.PageID == pageID && c.Slug == slug {
			return m.withParent(c), nil
		}
	}
	return nil, nil
}

// withParent returns a copy of c with Parent set when the parent exists.
// Callers hold m.mu.
func (m *Memory) withParent(c models.ChildPage) *models.ChildPage {
	if p, ok := m.pages[c.PageID]; ok {
		c.Parent = &p
	}
	return &c
}

func (m *Memory) LegacyMatches(_ context.Context, url string) ([]models.Entity, error) {
	want := NormalizeLegacyURL(url)
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Entity
	for _, p := range m.sortedPages() {
		if p.LegacyURL != "" && NormalizeLegacyURL(p.LegacyURL) == want {
			out = append(out, p)
		}
	}
	var children []*models.ChildPage
	for _, c := range m.children {
		if c.LegacyURL != "" && NormalizeLegacyURL(c.LegacyURL) == want {
			children = append(children, m.withParent(c))
		}
	}
	slices.SortFunc(children, func(a, b *models.ChildPage) int {
		return cmp.Or(cmp.Compare(a.Seq, b.Seq), cmp.Compare(a.ID.String(), b.ID.String()))
	})
	for _, c := range children {
		out = append(out, c)
	}
	return out, nil
}

func (m *Memory) sortedPages() []*models.Page {
	out := make([]*models.Page, 0, len(m.pages))
	for _, p := range m.pages {
		out = append(out, &p)
	}
	slices.SortFunc(out, func(a, b *models.Page) int {
		return cmp.Or(cmp.Compare(a.Seq, b.Seq), cmp.Compare(a.ID.String(), b.ID.String()))
	})
	return out
}

func (m *Memory) Media(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Media, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[uuid.UUID]models.Media, len(ids))
	for _, id := range ids {
		if md, ok := m.media[id]; ok {
			out[id] = md
		}
	}
	return out, nil
}

func (m *Memory) Entities(_ context.Context, typ string, ids []uuid.UUID) (map[uuid.UUID]models.Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[uuid.UUID]models.Entity, len(ids))
	for _, id := range ids {
		switch typ {
		case models.KindPage:
			if p, ok := m.pages[id]; ok {
				out[id] = &p
			}
		case models.KindCustom:
			if u, ok := m.custom[id]; ok {
				out[id] = &u
			}
		default:
			if c, ok := m.children[id]; ok && c.Model == typ {
				out[id] = m.withParent(c)
			}
		}
	}
	return out, nil
}

func (m *Memory) CustomURLs(_ context.Context) ([]*models.CustomURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.CustomURL, 0, len(m.custom))
	for _, u := range m.custom {
		out = append(out, &u)
	}
	slices.SortFunc(out, func(a, b *models.CustomURL) int {
		return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.ID.String(), b.ID.String()))
	})
	return out, nil
}

func (m *Memory) TouchDeleted(_ context.Context, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings.EntityDeletedOn = &t
	return nil
}

func (m *Memory) TemplateByName(_ context.Context, name string) (*models.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[name]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *Memory) Templates(_ context.Context) ([]*models.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Template, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, &t)
	}
	slices.SortFunc(out, func(a, b *models.Template) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *Memory) Partials(_ context.Context) ([]*models.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Template
	for _, t := range m.templates {
		if t.Type == models.TemplateTypePartial {
			out = append(out, &t)
		}
	}
	slices.SortFunc(out, func(a, b *models.Template) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}
