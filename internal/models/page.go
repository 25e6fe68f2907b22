// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// KindPage is the entity kind reported by pages. Child pages report their
// child-page model name instead (e.g. "BlogPost").
const KindPage = "Page"

// KindCustom is the entity kind reported by custom cacheable URLs.
const KindCustom = "Custom"

// Entity is anything that can be published at a URL: a page, a child page
// or a custom cacheable URL.
type Entity interface {
	EntityID() uuid.UUID
	Kind() string
	DisplayTitle() string
	TemplateName() string
	ContentSlots() map[string]string
	URL(s *Settings) string
	Modified() time.Time
}

// Page is a top-level content page. Its canonical URL is /<slug>/, or /
// when it is the configured homepage.
type Page struct {
	ID         uuid.UUID         `json:"id" toml:"id"`
	Slug       string            `json:"slug" toml:"slug"`
	Title      string            `json:"title" toml:"title"`
	NavTitle   string            `json:"nav_title,omitempty" toml:"nav_title"`
	PageTitle  string            `json:"page_title,omitempty" toml:"page_title"`
	Excerpt    string            `json:"excerpt,omitempty" toml:"excerpt"`
	TemplateID string            `json:"template_id" toml:"template"`
	ParentID   *uuid.UUID        `json:"parent_id,omitempty" toml:"parent_id"`
	Visible    bool              `json:"visible" toml:"visible"`
	Disabled   bool              `json:"disabled" toml:"disabled"`
	ChildModel string            `json:"child_model,omitempty" toml:"child_model"`
	Paginated  bool              `json:"paginated" toml:"paginated"`
	Nav        []string          `json:"nav,omitempty" toml:"nav"`
	Identifier string            `json:"identifier,omitempty" toml:"identifier"`
	LegacyURL  string            `json:"legacy_url,omitempty" toml:"legacy_url"`
	Sitemap    bool              `json:"sitemap" toml:"sitemap"`
	Seq        int               `json:"seq" toml:"seq"`
	Slots      map[string]string `json:"slots,omitempty" toml:"slots"`
	NavImageID *uuid.UUID        `json:"nav_image_id,omitempty" toml:"nav_image_id"`
	UpdatedOn  time.Time         `json:"updated_on" toml:"updated_on"`
}

func (p *Page) EntityID() uuid.UUID { return p.ID }
func (p *Page) Kind() string { return KindPage }
func (p *Page) TemplateName() string { return p.TemplateID }
func (p *Page) ContentSlots() map[string]string { return p.Slots }
func (p *Page) Modified() time.Time { return p.UpdatedOn }

// DisplayTitle returns the page title.
func (p *Page) DisplayTitle() string { return p.Title }

// URL returns the canonical, slash-terminated URL of the page.
func (p *Page) URL(s *Settings) string {
	if s.IsHomepage(p.ID) {
		return "/"
	}
	return "/" + p.Slug + "/"
}

// IsPublishable reports whether the page itself may be rendered. Ancestor
// visibility is checked separately by the callers that know the page tree.
func (p *Page) IsPublishable() bool {
	return p.Visible && !p.Disabled
}

// HasChildModel reports whether the page lists child pages.
func (p *Page) HasChildModel() bool {
	return p.ChildModel != ""
}

// InNav reports whether the page is placed in the given navigation bar.
func (p *Page) InNav(bar string) bool {
	for _, b := range p.Nav {
		if b == bar {
			return true
		}
	}
	return false
}

// ChildPage is an entity nested under a parent page, such as a blog post.
// Parent is populated by the record store and is nil when the parent page
// no longer exists.
type ChildPage struct {
	ID         uuid.UUID         `json:"id" toml:"id"`
	Model      string            `json:"model" toml:"model"`
	PageID     uuid.UUID         `json:"page_id" toml:"page_id"`
	Slug       string            `json:"slug" toml:"slug"`
	Title      string            `json:"title" toml:"title"`
	Excerpt    string            `json:"excerpt,omitempty" toml:"excerpt"`
	TemplateID string            `json:"template_id" toml:"template"`
	Visible    bool              `json:"visible" toml:"visible"`
	Seq        int               `json:"seq" toml:"seq"`
	Slots      map[string]string `json:"slots,omitempty" toml:"slots"`
	LegacyURL  string            `json:"legacy_url,omitempty" toml:"legacy_url"`
	Sitemap    bool              `json:"sitemap" toml:"sitemap"`
	UpdatedOn  time.Time         `json:"updated_on" toml:"updated_on"`

	Parent *Page `json:"-" toml:"-"`
}

func (c *ChildPage) EntityID() uuid.UUID { return c.ID }
func (c *ChildPage) Kind() string { return c.Model }
func (c *ChildPage) DisplayTitle() string { return c.Title }
func (c *ChildPage) TemplateName() string { return c.TemplateID }
func (c *ChildPage) ContentSlots() map[string]string { return c.Slots }
func (c *ChildPage) Modified() time.Time { return c.UpdatedOn }

// URL returns the canonical URL nested under the parent page. Orphans have
// no URL.
func (c *ChildPage) URL(s *Settings) string {
	if c.Parent == nil {
		return ""
	}
	return c.Parent.URL(s) + c.Slug + "/"
}

// CustomURL is a URL served by a custom handler that is still cacheable,
// e.g. a search landing page or a contact-form thank-you page.
type CustomURL struct {
	ID         uuid.UUID         `json:"id" toml:"id"`
	Path       string            `json:"path" toml:"path"`
	Title      string            `json:"title" toml:"title"`
	TemplateID string            `json:"template_id" toml:"template"`
	Sitemap    bool              `json:"sitemap" toml:"sitemap"`
	Slots      map[string]string `json:"slots,omitempty" toml:"slots"`
	UpdatedOn  time.Time         `json:"updated_on" toml:"updated_on"`
}

func (u *CustomURL) EntityID() uuid.UUID { return u.ID }
func (u *CustomURL) Kind() string { return KindCustom }
func (u *CustomURL) DisplayTitle() string { return u.Title }
func (u *CustomURL) TemplateName() string { return u.TemplateID }
func (u *CustomURL) ContentSlots() map[string]string { return u.Slots }
func (u *CustomURL) Modified() time.Time { return u.UpdatedOn }

// URL returns the slash-terminated path of the custom URL.
func (u *CustomURL) URL(_ *Settings) string {
	p := "/" + strings.Trim(u.Path, "/")
	if p == "/" {
		return p
	}
	return p + "/"
}

// SortedSlotNames returns the slot names of an entity in a stable order.
func SortedSlotNames(e Entity) []string {
	slots := e.ContentSlots()
	names := make([]string, 0, len(slots))
	for name := range slots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
