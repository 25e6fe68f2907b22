// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the dynamic path: it answers the URLs the
// front web server did not find in the cache root by resolving and
// rendering them on demand, with the same resolver and context builder the
// publish run uses.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"staticpress/internal/cache"
	"staticpress/internal/content"
	"staticpress/internal/hooks"
	"staticpress/internal/middleware"
	"staticpress/internal/models"
	"staticpress/internal/resolver"
	"staticpress/internal/tmplctx"
)

// ErrRender marks a page whose template failed to render.
var ErrRender = errors.New("render failed")

// Renderer turns a template context into bytes.
type Renderer interface {
	Render(ctx context.Context, name string, tc *models.TemplateContext) ([]byte, error)
}

// Options holds the optional collaborators of Public. Nil fields are
// skipped.
type Options struct {
	Hooks     *hooks.Registry
	MediaURLs tmplctx.MediaURLs
	PageCache *cache.PageCache
	// Debug enables the welcome page on sites without a homepage.
	Debug bool
}

// Public renders pages of the public site on demand.
type Public struct {
	src       content.Source
	renderer  Renderer
	builder   *tmplctx.Builder
	hooks     *hooks.Registry
	pageCache *cache.PageCache
	debug     bool
}

// NewPublic creates the dynamic page handler.
func NewPublic(src content.Source, renderer Renderer, opts Options) *Public {
	b := tmplctx.New(src, opts.Hooks)
	if opts.MediaURLs != nil {
		b.SetMediaURLs(opts.MediaURLs)
	}
	return &Public{
		src:       src,
		renderer:  renderer,
		builder:   b,
		hooks:     opts.Hooks,
		pageCache: opts.PageCache,
		debug:     opts.Debug,
	}
}

// Page is a response of the dynamic path.
type Page struct {
	Status int
	Header http.Header
	Body   []byte
	// Cached is set when the body came from the page cache.
	Cached bool
}

// Write sends the page to w.
func (pg *Page) Write(w http.ResponseWriter) {
	h := w.Header()
	for k, v := range pg.Header {
		h[k] = v
	}
	w.WriteHeader(pg.Status)
	w.Write(pg.Body)
}

// Serve answers a GET or HEAD request for any public URL.
func (p *Public) Serve(w http.ResponseWriter, r *http.Request) {
	page, err := p.Render(r.Context(), r.URL.RequestURI(), p.Environment(r))
	if err != nil {
		slog.Error("dynamic render failed", "url", r.URL.RequestURI(), "error", err)
		if errors.Is(err, ErrRender) {
			renderFailedPage().Write(w)
			return
		}
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	page.Write(w)
}

// Environment describes the request to hooks. The dynamic path has no
// sessions, so every visitor is anonymous.
func (p *Public) Environment(r *http.Request) hooks.Environment {
	return hooks.Environment{
		Path:    r.URL.Path,
		User:    hooks.AnonymousUser,
		Session: map[string]string{},
		Debug:   p.debug,
	}
}

// Render resolves rawURL (path plus optional query) and renders the
// outcome: a page, a permanent redirect, the 404 page or, in debug mode on
// a site without a homepage, the welcome page.
func (p *Public) Render(ctx context.Context, rawURL string, env hooks.Environment) (*Page, error) {
	memo := cache.NewContext()
	res := resolver.New(p.src, memo)

	result, err := res.Resolve(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rawURL, err)
	}
	switch result := result.(type) {
	case resolver.Redirect:
		slog.Debug("redirect", "url", rawURL, "to", result.URL, "kind", result.Kind)
		return redirectPage(result.URL), nil
	case resolver.NotFound:
		if result.Reason == resolver.HomepageNotDefined && p.debug {
			return welcomePage(), nil
		}
		slog.Debug("not found", "url", rawURL, "reason", result.Reason)
		return p.notFound(ctx, memo, res, env)
	case resolver.Resolved:
		return p.render(ctx, memo, result.Context, env, http.StatusOK)
	}
	return nil, fmt.Errorf("resolve %s: unexpected result %T", rawURL, result)
}

// notFound renders the configured 404 page with status 404, or a plain
// text body when the site has none.
func (p *Public) notFound(ctx context.Context, memo *cache.Context, res *resolver.Resolver, env hooks.Environment) (*Page, error) {
	result, err := res.ForNotFoundPage(ctx)
	if err != nil {
		return nil, err
	}
	if rv, ok := result.(resolver.Resolved); ok {
		return p.render(ctx, memo, rv.Context, env, http.StatusNotFound)
	}
	h := make(http.Header)
	h.Set("Content-Type", "text/plain; charset=utf-8")
	return &Page{Status: http.StatusNotFound, Header: h, Body: []byte("404 page not found\n")}, nil
}

func (p *Public) render(ctx context.Context, memo *cache.Context, pc *models.PageContext, env hooks.Environment, status int) (*Page, error) {
	// Only anonymous renders of real pages are shared between visitors.
	cacheable := status == http.StatusOK && env.User == hooks.AnonymousUser
	if cacheable {
		if body, ok := p.pageCache.Get(ctx, pc.Path); ok {
			pg := htmlPage(status, body)
			pg.Cached = true
			pg.Header.Set(middleware.CacheHeader, "HIT")
			return pg, nil
		}
	}

	env.Path = pc.Path
	out, err := p.builder.Build(ctx, memo, pc, env)
	if err != nil {
		return nil, fmt.Errorf("build context for %s: %w", pc.Path, err)
	}
	if out.Response != nil {
		return hookPage(out.Response), nil
	}

	body, err := p.renderer.Render(ctx, out.Template, out.Context)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRender, pc.Path, err)
	}
	body, err = p.hooks.RenderContent(ctx, env, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRender, pc.Path, err)
	}

	pg := htmlPage(status, body)
	if cacheable && p.pageCache != nil {
		p.pageCache.Set(ctx, pc.Path, body)
		pg.Header.Set(middleware.CacheHeader, "MISS")
	}
	return pg, nil
}

func htmlPage(status int, body []byte) *Page {
	h := make(http.Header)
	h.Set("Content-Type", "text/html; charset=utf-8")
	return &Page{Status: status, Header: h, Body: body}
}

// redirectPage is a permanent redirect. Redirects are never cached, not
// even by the browser, so a later publish can change them.
func redirectPage(url string) *Page {
	h := make(http.Header)
	h.Set("Location", url)
	h.Set("Cache-Control", "no-store")
	h.Set("Content-Type", "text/html; charset=utf-8")
	body := `<a href="` + html.EscapeString(url) + `">Moved Permanently</a>.` + "\n"
	return &Page{Status: http.StatusMovedPermanently, Header: h, Body: []byte(body)}
}

func hookPage(resp *hooks.Response) *Page {
	h := resp.Header.Clone()
	if h == nil {
		h = make(http.Header)
	}
	if resp.ContentType != "" {
		h.Set("Content-Type", resp.ContentType)
	} else if h.Get("Content-Type") == "" {
		h.Set("Content-Type", "text/html; charset=utf-8")
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	return &Page{Status: status, Header: h, Body: resp.Body}
}

func welcomePage() *Page {
	return htmlPage(http.StatusOK, []byte(`<!DOCTYPE html>
<html><head><title>StaticPress</title></head>
<body style="font-family:sans-serif;display:flex;align-items:center;justify-content:center;min-height:100vh;margin:0;background:#f3f4f6">
<div style="text-align:center">
<h1>StaticPress</h1>
<p>Your site is running. No homepage is defined yet: set <code>homepage_id</code> in the site settings.</p>
</div></body></html>`))
}

// renderFailedPage never echoes page content: the template that failed is
// the only thing allowed to escape it.
func renderFailedPage() *Page {
	return htmlPage(http.StatusInternalServerError, []byte(`<!DOCTYPE html>
<html><head><title>Page unavailable</title></head>
<body style="font-family:sans-serif;display:flex;align-items:center;justify-content:center;min-height:100vh;margin:0;background:#f3f4f6">
<div style="text-align:center">
<h1>Page unavailable</h1>
<p>This page could not be rendered. Please check its template.</p>
<a href="/">Go to Homepage</a>
</div></body></html>`))
}
