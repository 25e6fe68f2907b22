// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package resolver maps request URLs and entity handles to the page context
// that renders them, or to a redirect or a not-found outcome. The same
// resolver serves the publish walk and the dynamic path, so a URL that
// publishes a file is exactly a URL the dynamic path would render.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"staticpress/internal/cache"
	"staticpress/internal/content"
	"staticpress/internal/models"
	"staticpress/internal/paging"
)

// Resolver resolves URLs against a record store. Settings are memoized in
// the cache context it was created with.
type Resolver struct {
	src  content.Source
	memo *cache.Context
}

// New creates a resolver. A nil memo gets a private one.
func New(src content.Source, memo *cache.Context) *Resolver {
	if memo == nil {
		memo = cache.NewContext()
	}
	return &Resolver{src: src, memo: memo}
}

// Settings returns the memoized site settings.
func (r *Resolver) Settings(ctx context.Context) (*models.Settings, error) {
	return cache.Memo(r.memo, cache.SettingsKey, func() (*models.Settings, error) {
		return r.src.Settings(ctx)
	})
}

// Paginates reports whether a page splits its child-page listing into
// numbered pages.
func Paginates(p *models.Page, s *models.Settings) bool {
	return p.HasChildModel() && (p.Paginated || s.PagingFor(p.ChildModel))
}

// Resolve maps a request URL (path plus optional query) to a Result.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return NotFound{Reason: MalformedURL}, nil
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	settings, err := r.Settings(ctx)
	if err != nil {
		return nil, err
	}

	// Some legacy schemes encode identity in the query of the site root.
	if path == "/" && u.RawQuery != "" {
		if red, err := r.legacy(ctx, settings, "/?"+u.RawQuery, path); err != nil || red != nil {
			return red, err
		}
	}

	res, err := r.resolvePath(ctx, settings, path)
	if err != nil {
		return nil, err
	}
	if nf, ok := res.(NotFound); ok && nf.Reason != HomepageNotDefined {
		candidates := []string{path}
		if u.RawQuery != "" {
			candidates = []string{path + "?" + u.RawQuery, path}
		}
		for _, c := range candidates {
			if red, err := r.legacy(ctx, settings, c, path); err != nil || red != nil {
				return red, err
			}
		}
		return res, nil
	}
	if rv, ok := res.(Resolved); ok && !strings.HasSuffix(path, "/") {
		target := rv.Context.Path
		if u.RawQuery != "" {
			target += "?" + u.RawQuery
		}
		return Redirect{Kind: AppendSlash, URL: target}, nil
	}
	return res, nil
}

// normalizeSlug trims surrounding slashes unless the path is only slashes.
func normalizeSlug(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return ""
	}
	return trimmed
}

func (r *Resolver) resolvePath(ctx context.Context, settings *models.Settings, path string) (Result, error) {
	slug := normalizeSlug(path)
	if slug == "" {
		return r.homepage(ctx, settings, 1, false)
	}

	parts := strings.Split(slug, "/")
	if len(parts) > 2 {
		return NotFound{Reason: TooManyComponents}, nil
	}

	page, err := r.visiblePage(ctx, parts[0])
	if err != nil {
		return nil, err
	}
	if page == nil {
		return r.homepageChild(ctx, settings, parts)
	}
	if settings.IsNotFoundPage(page.ID) {
		return NotFound{Reason: NotFoundPage}, nil
	}

	if len(parts) == 1 {
		if settings.IsHomepage(page.ID) {
			return Redirect{Kind: Canonical, URL: "/"}, nil
		}
		return r.ForPage(ctx, page, 1, false)
	}
	if n, all, ok := paging.ParseComponent(parts[1]); ok {
		return r.paginated(ctx, settings, page, n, all)
	}
	if !page.HasChildModel() {
		return NotFound{Reason: NoChildModel}, nil
	}
	child, err := r.src.ChildPageBySlug(ctx, page.ID, parts[1])
	if err != nil {
		return nil, fmt.Errorf("load child page %s/%s: %w", parts[0], parts[1], err)
	}
	if child == nil || !child.Visible || child.Model != page.ChildModel {
		return NotFound{Reason: NoMatch}, nil
	}
	child.Parent = page
	return r.ForChild(ctx, child)
}

// homepageChild handles single-component URLs that match no page: child
// pages of the homepage and pagination of the homepage listing.
func (r *Resolver) homepageChild(ctx context.Context, settings *models.Settings, parts []string) (Result, error) {
	if len(parts) != 1 || settings == nil || settings.HomepageID == nil {
		return NotFound{Reason: NoMatch}, nil
	}
	home, err := r.src.PageByID(ctx, *settings.HomepageID)
	if err != nil {
		return nil, fmt.Errorf("load homepage: %w", err)
	}
	if home == nil {
		return NotFound{Reason: NoMatch}, nil
	}
	if n, all, ok := paging.ParseComponent(parts[0]); ok {
		return r.paginated(ctx, settings, home, n, all)
	}
	if !home.HasChildModel() {
		return NotFound{Reason: NoMatch}, nil
	}
	child, err := r.src.ChildPageBySlug(ctx, home.ID, parts[0])
	if err != nil {
		return nil, fmt.Errorf("load homepage child %s: %w", parts[0], err)
	}
	if child == nil || !child.Visible || child.Model != home.ChildModel {
		return NotFound{Reason: NoMatch}, nil
	}
	child.Parent = home
	return r.ForChild(ctx, child)
}

func (r *Resolver) paginated(ctx context.Context, settings *models.Settings, page *models.Page, n int, all bool) (Result, error) {
	if n < 1 {
		return NotFound{Reason: PageOutOfRange}, nil
	}
	if n == 1 && !all {
		if !Paginates(page, settings) {
			return NotFound{Reason: PaginationUnsupported}, nil
		}
		return Redirect{Kind: Canonical, URL: page.URL(settings)}, nil
	}
	return r.ForPage(ctx, page, n, all)
}

func (r *Resolver) homepage(ctx context.Context, settings *models.Settings, n int, all bool) (Result, error) {
	if settings == nil || settings.HomepageID == nil {
		return NotFound{Reason: HomepageNotDefined}, nil
	}
	home, err := r.src.PageByID(ctx, *settings.HomepageID)
	if err != nil {
		return nil, fmt.Errorf("load homepage: %w", err)
	}
	if home == nil {
		return NotFound{Reason: HomepageNotDefined}, nil
	}
	return r.ForPage(ctx, home, n, all)
}

// visiblePage returns the page with slug when it and its ancestors are
// visible and enabled.
func (r *Resolver) visiblePage(ctx context.Context, slug string) (*models.Page, error) {
	page, err := r.src.PageBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("load page %s: %w", slug, err)
	}
	if page == nil {
		return nil, nil
	}
	ok, err := content.Reachable(ctx, r.src, page)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return page, nil
}

// ForPage resolves a page handle, optionally at page n of its listing.
func (r *Resolver) ForPage(ctx context.Context, page *models.Page, n int, all bool) (Result, error) {
	settings, err := r.Settings(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := content.Reachable(ctx, r.src, page)
	if err != nil {
		return nil, err
	}
	if !ok {
		return NotFound{Reason: NoMatch}, nil
	}
	if settings.IsNotFoundPage(page.ID) {
		return NotFound{Reason: NotFoundPage}, nil
	}
	return r.pageContext(ctx, settings, page, n, all)
}

// ForNotFoundPage resolves the configured 404 page. It is the only way to
// reach that page.
func (r *Resolver) ForNotFoundPage(ctx context.Context) (Result, error) {
	settings, err := r.Settings(ctx)
	if err != nil {
		return nil, err
	}
	if settings.NotFoundPageID == nil {
		return NotFound{Reason: NoMatch}, nil
	}
	page, err := r.src.PageByID(ctx, *settings.NotFoundPageID)
	if err != nil {
		return nil, fmt.Errorf("load 404 page: %w", err)
	}
	if page == nil || page.Disabled {
		return NotFound{Reason: NoMatch}, nil
	}
	return r.pageContext(ctx, settings, page, 1, false)
}

func (r *Resolver) pageContext(ctx context.Context, settings *models.Settings, page *models.Page, n int, all bool) (Result, error) {
	pc := &models.PageContext{
		Current:       page,
		PaginatorPage: max(n, 1),
		PaginatorAll:  all,
		Path:          page.URL(settings),
	}

	if page.HasChildModel() {
		children, err := r.src.ChildPages(ctx, page.ID)
		if err != nil {
			return nil, fmt.Errorf("load child pages of %s: %w", page.Slug, err)
		}
		pc.ChildPages = children
	}

	paginated := n > 1 || all
	if paginated && !Paginates(page, settings) {
		return NotFound{Reason: PaginationUnsupported}, nil
	}
	if Paginates(page, settings) {
		pc.Paginated = true
		size, maxSize := settings.PageSizes()
		p := paging.New(pc.ChildPages, size, maxSize)
		if n > p.NumPages() {
			return NotFound{Reason: PageOutOfRange}, nil
		}
		pc.Path = paging.URL(pc.Path, n, all)
	}
	return Resolved{Context: pc}, nil
}

// ForChild resolves a child-page handle. The parent must be populated and
// reachable.
func (r *Resolver) ForChild(ctx context.Context, child *models.ChildPage) (Result, error) {
	settings, err := r.Settings(ctx)
	if err != nil {
		return nil, err
	}
	if child.Parent == nil {
		return NotFound{Reason: Orphan}, nil
	}
	if !child.Visible {
		return NotFound{Reason: NoMatch}, nil
	}
	ok, err := content.Reachable(ctx, r.src, child.Parent)
	if err != nil {
		return nil, err
	}
	if !ok {
		return NotFound{Reason: InvisibleParent}, nil
	}
	return Resolved{Context: &models.PageContext{
		Current:       child,
		Parent:        child.Parent,
		PaginatorPage: 1,
		Path:          child.URL(settings),
	}}, nil
}

// ForCustom resolves a custom cacheable URL.
func (r *Resolver) ForCustom(u *models.CustomURL) Result {
	return Resolved{Context: &models.PageContext{
		Current:       u,
		PaginatorPage: 1,
		Path:          u.URL(nil),
	}}
}

// legacy looks for an entity whose legacy URL matches candidate. The 404
// page and the enquiry template page never match. path is the requested
// path; a match pointing back at it is ignored.
func (r *Resolver) legacy(ctx context.Context, settings *models.Settings, candidate, path string) (Result, error) {
	matches, err := r.src.LegacyMatches(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("legacy lookup %s: %w", candidate, err)
	}
	for _, e := range matches {
		if settings.IsNotFoundPage(e.EntityID()) || settings.IsEnquiryTemplate(e.EntityID()) {
			continue
		}
		res, err := r.forEntity(ctx, e)
		if err != nil {
			return nil, err
		}
		rv, ok := res.(Resolved)
		if !ok || rv.Context.Path == path {
			continue
		}
		slog.Debug("legacy url matched", "url", candidate, "target", rv.Context.Path)
		return Redirect{Kind: Legacy, URL: rv.Context.Path}, nil
	}
	return nil, nil
}

func (r *Resolver) forEntity(ctx context.Context, e models.Entity) (Result, error) {
	switch v := e.(type) {
	case *models.Page:
		return r.ForPage(ctx, v, 1, false)
	case *models.ChildPage:
		return r.ForChild(ctx, v)
	case *models.CustomURL:
		return r.ForCustom(v), nil
	}
	return NotFound{Reason: NoMatch}, nil
}
