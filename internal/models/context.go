// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Well-known template context keys.
const (
	CtxCurrentPage       = "current_page"
	CtxPage              = "page"
	CtxImages            = "images"
	CtxPageLinks         = "page_links"
	CtxSettings          = "settings"
	CtxNav               = "nav"
	CtxActiveNav         = "active_nav"
	CtxPages             = "pages"
	CtxHomepage          = "homepage"
	CtxIsHomepage        = "is_homepage"
	CtxIsContactPage     = "is_contact_page"
	CtxIs404Page         = "is_404_page"
	CtxSlots             = "slots"
	CtxVerboseName       = "verbose_name"
	CtxVerboseNamePlural = "verbose_name_plural"
	CtxPosts             = "posts"
	CtxPaginator         = "paginator"
	CtxPagedPosts        = "paged_posts"
)

// PageContext is everything the resolver learned about one URL. It lives
// for the duration of rendering that URL.
type PageContext struct {
	Current       Entity
	Parent        *Page
	ChildPages    []*ChildPage
	Paginated     bool
	PaginatorPage int
	PaginatorAll  bool
	Images        map[uuid.UUID]Media
	PageLinks     map[string]map[uuid.UUID]Entity

	// Path is the canonical URL the context was resolved for.
	Path string
}

// Page returns the top-level page of the context: the parent for child
// pages, the current page otherwise. Nil for custom URLs.
func (pc *PageContext) Page() *Page {
	if pc.Parent != nil {
		return pc.Parent
	}
	if p, ok := pc.Current.(*Page); ok {
		return p
	}
	return nil
}

// TemplateContext is an insertion-ordered key/value mapping handed to the
// renderer. Order matters for reproducible digests.
type TemplateContext struct {
	keys   []string
	values map[string]any
}

// NewTemplateContext returns an empty template context.
func NewTemplateContext() *TemplateContext {
	return &TemplateContext{values: make(map[string]any)}
}

// Set stores a value. Re-setting an existing key keeps its original position.
func (tc *TemplateContext) Set(key string, value any) {
	if _, ok := tc.values[key]; !ok {
		tc.keys = append(tc.keys, key)
	}
	tc.values[key] = value
}

// Get returns the value stored under key.
func (tc *TemplateContext) Get(key string) (any, bool) {
	v, ok := tc.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (tc *TemplateContext) Keys() []string {
	out := make([]string, len(tc.keys))
	copy(out, tc.keys)
	return out
}

// Map returns a plain map view for template execution. The map is a copy;
// mutating it does not affect the context.
func (tc *TemplateContext) Map() map[string]any {
	m := make(map[string]any, len(tc.keys))
	for _, k := range tc.keys {
		m[k] = tc.values[k]
	}
	return m
}

// Len returns the number of keys.
func (tc *TemplateContext) Len() int {
	return len(tc.keys)
}

// CacheEntry describes one file written under the cache root.
type CacheEntry struct {
	RelPath   string
	Mtime     time.Time
	SizeBytes int64
}
