// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package content

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"staticpress/internal/models"
	"staticpress/internal/slug"
)

// fixtureNamespace seeds deterministic ids for fixture records that do not
// declare one, so republishing the same fixture yields the same ids.
var fixtureNamespace = uuid.MustParse("5b0f4c52-5e0c-4f5e-9d55-1c3c2b8f6a10")

// Fixture is the TOML layout of a site description. Pages and child pages
// reference each other by slug; settings reference pages by slug.
type Fixture struct {
	Settings   FixtureSettings    `toml:"settings"`
	Pages      []FixturePage      `toml:"pages"`
	ChildPages []FixtureChildPage `toml:"child_pages"`
	Media      []models.Media     `toml:"media"`
	CustomURLs []models.CustomURL `toml:"custom_urls"`
	Templates  []models.Template  `toml:"templates"`
}

type FixtureSettings struct {
	SiteName        string          `toml:"site_name"`
	Homepage        *string         `toml:"homepage"`
	ContactPage     string          `toml:"contact_page"`
	NotFoundPage    string          `toml:"not_found_page"`
	EnquiryTemplate string          `toml:"enquiry_template"`
	PageSize        int             `toml:"page_size"`
	MaxPageSize     int             `toml:"max_page_size"`
	Paging          map[string]bool `toml:"paging"`
	UpdatedOn       time.Time       `toml:"updated_on"`
	// EntityDeletedOn must be moved by hand when a record is removed from
	// the fixture, so pages that linked to it are re-rendered.
	EntityDeletedOn *time.Time      `toml:"entity_deleted_on"`
}

type FixturePage struct {
	ID         uuid.UUID         `toml:"id"`
	Slug       string            `toml:"slug"`
	Title      string            `toml:"title"`
	NavTitle   string            `toml:"nav_title"`
	PageTitle  string            `toml:"page_title"`
	Excerpt    string            `toml:"excerpt"`
	Template   string            `toml:"template"`
	Parent     string            `toml:"parent"`
	Hidden     bool              `toml:"hidden"`
	Disabled   bool              `toml:"disabled"`
	ChildModel string            `toml:"child_model"`
	Paginated  bool              `toml:"paginated"`
	Nav        []string          `toml:"nav"`
	Identifier string            `toml:"identifier"`
	LegacyURL  string            `toml:"legacy_url"`
	NoSitemap  bool              `toml:"no_sitemap"`
	Seq        int               `toml:"seq"`
	Slots      map[string]string `toml:"slots"`
	NavImage   *uuid.UUID        `toml:"nav_image"`
	UpdatedOn  time.Time         `toml:"updated_on"`
}

type FixtureChildPage struct {
	ID        uuid.UUID         `toml:"id"`
	Page      string            `toml:"page"`
	Slug      string            `toml:"slug"`
	Title     string            `toml:"title"`
	Excerpt   string            `toml:"excerpt"`
	Template  string            `toml:"template"`
	Hidden    bool              `toml:"hidden"`
	Seq       int               `toml:"seq"`
	Slots     map[string]string `toml:"slots"`
	LegacyURL string            `toml:"legacy_url"`
	NoSitemap bool              `toml:"no_sitemap"`
	UpdatedOn time.Time         `toml:"updated_on"`
}

// LoadFixture reads a TOML site description into a new Memory store.
func LoadFixture(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(string(data))
}

// ParseFixture decodes a TOML site description into a new Memory store.
func ParseFixture(data string) (*Memory, error) {
	var f Fixture
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return f.Build()
}

// Build validates the fixture and loads it into a new Memory store.
func (f *Fixture) Build() (*Memory, error) {
	m := NewMemory()
	bySlug := make(map[string]*models.Page, len(f.Pages))

	for _, fp := range f.Pages {
		id := fp.ID
		if id == uuid.Nil {
			id = uuid.NewSHA1(fixtureNamespace, []byte("page:"+fp.Slug))
		}
		if fp.Slug != "" && !slug.Valid(fp.Slug) {
			return nil, fmt.Errorf("fixture: page slug %q is not a slug (try %q)", fp.Slug, slug.Generate(fp.Slug))
		}
		if _, dup := bySlug[fp.Slug]; dup {
			return nil, fmt.Errorf("fixture: duplicate page slug %q", fp.Slug)
		}
		bySlug[fp.Slug] = &models.Page{
			ID:         id,
			Slug:       fp.Slug,
			Title:      fp.Title,
			NavTitle:   fp.NavTitle,
			PageTitle:  fp.PageTitle,
			Excerpt:    fp.Excerpt,
			TemplateID: fp.Template,
			Visible:    !fp.Hidden,
			Disabled:   fp.Disabled,
			ChildModel: fp.ChildModel,
			Paginated:  fp.Paginated,
			Nav:        fp.Nav,
			Identifier: fp.Identifier,
			LegacyURL:  fp.LegacyURL,
			Sitemap:    !fp.NoSitemap,
			Seq:        fp.Seq,
			Slots:      fp.Slots,
			NavImageID: fp.NavImage,
			UpdatedOn:  fp.UpdatedOn,
		}
	}

	for _, fp := range f.Pages {
		if fp.Parent == "" {
			continue
		}
		parent, ok := bySlug[fp.Parent]
		if !ok {
			return nil, fmt.Errorf("fixture: page %q: unknown parent %q", fp.Slug, fp.Parent)
		}
		bySlug[fp.Slug].ParentID = &parent.ID
	}
	for _, p := range bySlug {
		m.PutPage(*p)
	}

	for _, fc := range f.ChildPages {
		parent, ok := bySlug[fc.Page]
		if !ok {
			return nil, fmt.Errorf("fixture: child page %q: unknown page %q", fc.Slug, fc.Page)
		}
		if !parent.HasChildModel() {
			return nil, fmt.Errorf("fixture: child page %q: page %q has no child model", fc.Slug, fc.Page)
		}
		// Child pages may leave the slug to be derived from the title.
		childSlug := fc.Slug
		if childSlug == "" {
			childSlug = slug.Generate(fc.Title)
		}
		if !slug.Valid(childSlug) {
			return nil, fmt.Errorf("fixture: child page %q of %q: invalid slug %q", fc.Title, fc.Page, childSlug)
		}
		id := fc.ID
		if id == uuid.Nil {
			id = uuid.NewSHA1(fixtureNamespace, []byte("child:"+fc.Page+"/"+childSlug))
		}
		m.PutChildPage(models.ChildPage{
			ID:         id,
			Model:      parent.ChildModel,
			PageID:     parent.ID,
			Slug:       childSlug,
			Title:      fc.Title,
			Excerpt:    fc.Excerpt,
			TemplateID: fc.Template,
			Visible:    !fc.Hidden,
			Seq:        fc.Seq,
			Slots:      fc.Slots,
			LegacyURL:  fc.LegacyURL,
			Sitemap:    !fc.NoSitemap,
			UpdatedOn:  fc.UpdatedOn,
		})
	}

	for _, md := range f.Media {
		m.PutMedia(md)
	}
	for _, u := range f.CustomURLs {
		m.PutCustomURL(u)
	}
	for _, t := range f.Templates {
		m.PutTemplate(t)
	}

	s := models.Settings{
		SiteName:        f.Settings.SiteName,
		PageSize:        f.Settings.PageSize,
		MaxPageSize:     f.Settings.MaxPageSize,
		PagingEnabled:   f.Settings.Paging,
		UpdatedOn:       f.Settings.UpdatedOn,
		EntityDeletedOn: f.Settings.EntityDeletedOn,
	}
	if s.SiteName == "" {
		s.SiteName = "StaticPress"
	}
	refs := []settingRef{
		{f.Settings.ContactPage, &s.ContactPageID, "contact_page"},
		{f.Settings.NotFoundPage, &s.NotFoundPageID, "not_found_page"},
		{f.Settings.EnquiryTemplate, &s.EnquiryTemplateID, "enquiry_template"},
	}
	for _, r := range refs {
		if r.slug == "" {
			continue
		}
		if err := r.resolve(bySlug); err != nil {
			return nil, err
		}
	}
	// The homepage may legitimately have an empty slug.
	if f.Settings.Homepage != nil {
		r := settingRef{*f.Settings.Homepage, &s.HomepageID, "homepage"}
		if err := r.resolve(bySlug); err != nil {
			return nil, err
		}
	}
	m.SetSettings(s)

	return m, nil
}

type settingRef struct {
	slug string
	dst  **uuid.UUID
	name string
}

func (r settingRef) resolve(bySlug map[string]*models.Page) error {
	p, ok := bySlug[r.slug]
	if !ok {
		return fmt.Errorf("fixture: settings.%s: unknown page %q", r.name, r.slug)
	}
	id := p.ID
	*r.dst = &id
	return nil
}
