// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package hooks is the extension point of the publishing pipeline. Sites
// register typed handlers under well-known hook names; the pipeline calls
// them in registration order. A context hook that returns a Response
// short-circuits rendering: the response is served as is on the dynamic
// path and the URL is not cached on publish.
package hooks

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"staticpress/internal/models"
)

// Hook names, for logging.
const (
	OnTemplateContext = "on_template_context"
	OnHomepage        = "on_homepage"
	OnContactPage     = "on_contact_page"
	On404Page         = "on_404_page"
	OnPageIdentifier  = "on_page_identifier_"
	OnCustomSitemap   = "on_custom_sitemap"
	OnRenderContent   = "on_render_content"
)

// AnonymousUser is the user every publish renders as.
const AnonymousUser = "anonymous"

// Environment carries the request-shaped fields renderers and hooks may
// read. Publishing uses PublishEnvironment instead of a real request.
type Environment struct {
	Path       string
	User       string
	Session    map[string]string
	Debug      bool
	Publishing bool
}

// PublishEnvironment returns the environment used to render path while
// publishing: an anonymous user with an empty session.
func PublishEnvironment(path string) Environment {
	return Environment{
		Path:       path,
		User:       AnonymousUser,
		Session:    map[string]string{},
		Publishing: true,
	}
}

// Response is a direct HTTP response produced by a hook.
type Response struct {
	Status      int
	ContentType string
	Header      http.Header
	Body        []byte
}

// Redirect builds a permanent redirect response.
func Redirect(url string) *Response {
	h := make(http.Header)
	h.Set("Location", url)
	return &Response{Status: http.StatusMovedPermanently, Header: h}
}

// ContextHook may modify tc in place. Returning a non-nil Response stops
// the chain.
type ContextHook func(ctx context.Context, env Environment, pc *models.PageContext, tc *models.TemplateContext) (*Response, error)

// SitemapEntry is one <url> of a sitemap.
type SitemapEntry struct {
	Loc      string
	LastMod  time.Time
	Priority float64
}

// SitemapSection is a named group of entries written as sitemap-<name>.xml.
type SitemapSection struct {
	Name    string
	Entries []SitemapEntry
}

// SitemapHook contributes extra sitemap sections.
type SitemapHook func(ctx context.Context) ([]SitemapSection, error)

// ContentHook rewrites rendered content before it is cached or served.
type ContentHook func(ctx context.Context, env Environment, content []byte) ([]byte, error)

// Kinds tells ApplyContext which kind hooks apply to the current page.
type Kinds struct {
	Homepage    bool
	ContactPage bool
	NotFound    bool
	Identifier  string
}

// Registry holds registered hooks. All methods are safe for concurrent
// use, and a nil *Registry runs nothing.
type Registry struct {
	mu              sync.RWMutex
	templateContext []ContextHook
	homepage        []ContextHook
	contactPage     []ContextHook
	notFoundPage    []ContextHook
	identifiers     map[string][]ContextHook
	customSitemap   []SitemapHook
	renderContent   []ContentHook
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{identifiers: make(map[string][]ContextHook)}
}

func (r *Registry) OnTemplateContext(h ContextHook) { r.add(&r.templateContext, h) }
func (r *Registry) OnHomepage(h ContextHook) { r.add(&r.homepage, h) }
func (r *Registry) OnContactPage(h ContextHook) { r.add(&r.contactPage, h) }
func (r *Registry) On404Page(h ContextHook) { r.add(&r.notFoundPage, h) }

// OnPageIdentifier registers h for pages whose identifier is id.
func (r *Registry) OnPageIdentifier(id string, h ContextHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.identifiers[id] = append(r.identifiers[id], h)
}

func (r *Registry) OnCustomSitemap(h SitemapHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customSitemap = append(r.customSitemap, h)
}

func (r *Registry) OnRenderContent(h ContentHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderContent = append(r.renderContent, h)
}

func (r *Registry) add(list *[]ContextHook, h ContextHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*list = append(*list, h)
}

// ApplyContext runs on_template_context, then the kind hooks that apply
// (homepage, contact page, 404 page), then the identifier hooks. The first
// Response returned wins.
func (r *Registry) ApplyContext(ctx context.Context, env Environment, pc *models.PageContext, tc *models.TemplateContext, k Kinds) (*Response, error) {
	if r == nil {
		return nil, nil
	}

	r.mu.RLock()
	type stage struct {
		name  string
		hooks []ContextHook
	}
	stages := []stage{{OnTemplateContext, r.templateContext}}
	if k.Homepage {
		stages = append(stages, stage{OnHomepage, r.homepage})
	}
	if k.ContactPage {
		stages = append(stages, stage{OnContactPage, r.contactPage})
	}
	if k.NotFound {
		stages = append(stages, stage{On404Page, r.notFoundPage})
	}
	if k.Identifier != "" {
		stages = append(stages, stage{OnPageIdentifier + k.Identifier, r.identifiers[k.Identifier]})
	}
	r.mu.RUnlock()

	for _, s := range stages {
		for _, h := range s.hooks {
			resp, err := h(ctx, env, pc, tc)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", s.name, err)
			}
			if resp != nil {
				return resp, nil
			}
		}
	}
	return nil, nil
}

// CustomSitemaps collects the sections contributed by on_custom_sitemap.
func (r *Registry) CustomSitemaps(ctx context.Context) ([]SitemapSection, error) {
	if r == nil {
		return nil, nil
	}
	r.mu.RLock()
	hooks := r.customSitemap
	r.mu.RUnlock()

	var out []SitemapSection
	for _, h := range hooks {
		sections, err := h(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", OnCustomSitemap, err)
		}
		out = append(out, sections...)
	}
	return out, nil
}

// RenderContent passes rendered content through every on_render_content
// hook in order.
func (r *Registry) RenderContent(ctx context.Context, env Environment, content []byte) ([]byte, error) {
	if r == nil {
		return content, nil
	}
	r.mu.RLock()
	hooks := r.renderContent
	r.mu.RUnlock()

	for _, h := range hooks {
		out, err := h(ctx, env, content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", OnRenderContent, err)
		}
		content = out
	}
	return content, nil
}
