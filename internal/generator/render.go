// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"staticpress/internal/cache"
	"staticpress/internal/change"
	"staticpress/internal/hooks"
	"staticpress/internal/models"
	"staticpress/internal/paging"
	"staticpress/internal/resolver"
)

// run is the state of one publish.
type run struct {
	memo     *cache.Context
	resolver *resolver.Resolver
	policy   *change.Policy
	verbose  bool
	seen     map[string]string
	sitemap  *sitemapCollector
	summary  Summary
}

func (g *Generator) newRun(verbose bool) *run {
	memo := cache.NewContext()
	return &run{
		memo:     memo,
		resolver: resolver.New(g.src, memo),
		policy:   change.NewPolicy(g.store),
		verbose:  verbose,
		seen:     make(map[string]string),
		sitemap:  newSitemapCollector(),
	}
}

// RelPath maps a canonical URL to its file under the cache root.
// Directory URLs get an index.html.
func RelPath(url string) string {
	rel := strings.TrimPrefix(url, "/")
	if rel == "" || strings.HasSuffix(rel, "/") {
		rel += "index.html"
	}
	return rel
}

// publish renders one resolved URL into the cache store.
func (g *Generator) publish(ctx context.Context, r *run, pc *models.PageContext) {
	rel := RelPath(pc.Path)
	notFound := false
	if p, ok := pc.Current.(*models.Page); ok {
		settings, err := r.resolver.Settings(ctx)
		if err != nil {
			g.fail(r, pc.Path, err)
			return
		}
		if settings.IsNotFoundPage(p.ID) {
			rel, notFound = NotFoundFile, true
		}
	}

	if first, dup := r.seen[rel]; dup {
		g.fail(r, pc.Path, fmt.Errorf("%w: %s also produced by %s", ErrDuplicatePath, rel, first))
		return
	}

	env := hooks.PublishEnvironment(pc.Path)
	out, err := g.builder.Build(ctx, r.memo, pc, env)
	if err != nil {
		g.fail(r, pc.Path, err)
		return
	}
	if out.Response != nil {
		// Hook-produced responses are served dynamically.
		r.summary.Dynamic++
		slog.Debug("url left dynamic by hook", "path", pc.Path, "status", out.Response.Status)
		return
	}

	decision := r.policy.Check(rel, out.Mtime)
	size, wrote, err := g.write(ctx, rel, decision, out.Template, out.Context, env)
	if err != nil && !decision.Render && errors.Is(err, cache.ErrCacheIO) {
		// The cached copy vanished between the check and the write.
		decision.Render = true
		size, wrote, err = g.write(ctx, rel, decision, out.Template, out.Context, env)
	}
	if err != nil {
		g.fail(r, pc.Path, err)
		return
	}

	r.seen[rel] = pc.Path
	if wrote {
		r.summary.Rendered++
	} else {
		r.summary.Skipped++
	}
	if !notFound && pc.PaginatorPage <= 1 && !pc.PaginatorAll {
		r.sitemap.add(pc, decision.Stamp)
	}

	logFn := slog.Debug
	if r.verbose {
		logFn = slog.Info
	}
	logFn("published", "path", pc.Path, "file", rel, "rendered", wrote, "size", size)
}

func (g *Generator) write(ctx context.Context, rel string, d change.Decision, tmpl string, tc *models.TemplateContext, env hooks.Environment) (int64, bool, error) {
	changed := cache.ChangedNo
	var body []byte
	if d.Render {
		changed = cache.ChangedYes
		out, err := g.renderer.Render(ctx, tmpl, tc)
		if err != nil {
			return 0, false, fmt.Errorf("%w: %v", ErrRender, err)
		}
		body, err = g.opts.Hooks.RenderContent(ctx, env, out)
		if err != nil {
			return 0, false, fmt.Errorf("%w: %v", ErrRender, err)
		}
	}
	stamp := d.Stamp
	return g.store.Add(rel, &stamp, changed, body, true)
}

func (g *Generator) fail(r *run, label string, err error) {
	r.summary.Failed++
	slog.Error("publish url failed", "path", label, "error", err)
}

// numPages returns the number of listing pages of a paginated context.
func numPages(pc *models.PageContext, settings *models.Settings) int {
	size, maxSize := settings.PageSizes()
	return paging.New(pc.ChildPages, size, maxSize).NumPages()
}
