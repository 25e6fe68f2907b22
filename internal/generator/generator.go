// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package generator drives a publish run: it walks every publishable URL,
// builds its template context, decides whether the cached copy is stale,
// renders what changed and records everything in the cache store. It also
// owns the two destructive operations, invalidate and clear.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"staticpress/internal/cache"
	"staticpress/internal/content"
	"staticpress/internal/hooks"
	"staticpress/internal/models"
	"staticpress/internal/resolver"
	"staticpress/internal/tmplctx"
)

var (
	// ErrRender marks a URL whose template failed to render.
	ErrRender = errors.New("render failed")

	// ErrDuplicatePath marks a URL that maps to a relpath already written
	// in the same run.
	ErrDuplicatePath = errors.New("duplicate cache path")
)

// NotFoundFile is the relpath the 404 page is published to.
const NotFoundFile = "404.html"

// Renderer turns a template context into bytes.
type Renderer interface {
	Render(ctx context.Context, name string, tc *models.TemplateContext) ([]byte, error)
}

// Locker serializes publish runs that share a cache root.
type Locker interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// Mirror copies published files to a second location, such as an object
// storage bucket behind a CDN.
type Mirror interface {
	PutFile(ctx context.Context, relpath string, body []byte) error
	DeleteFile(ctx context.Context, relpath string) error
}

// ChangeLog records content changes for auditing.
type ChangeLog interface {
	Log(ctx context.Context, entityType string, entityID uuid.UUID, action string)
}

// Options holds the optional collaborators of a Generator. Nil fields are
// skipped.
type Options struct {
	Hooks     *hooks.Registry
	MediaURLs tmplctx.MediaURLs
	SiteURL   string
	Lock      Locker
	Mirror    Mirror
	Notifier  *cache.Notifier
	PageCache *cache.PageCache
	ChangeLog ChangeLog
	// Origin identifies this host in broadcast change notifications.
	Origin string
}

// Generator publishes a site into a cache store.
type Generator struct {
	src      content.Source
	store    *cache.Store
	renderer Renderer
	builder  *tmplctx.Builder
	opts     Options
	now      func() time.Time
}

// New creates a generator.
func New(src content.Source, store *cache.Store, renderer Renderer, opts Options) *Generator {
	b := tmplctx.New(src, opts.Hooks)
	if opts.MediaURLs != nil {
		b.SetMediaURLs(opts.MediaURLs)
	}
	if opts.Origin == "" {
		opts.Origin, _ = os.Hostname()
	}
	return &Generator{
		src:      src,
		store:    store,
		renderer: renderer,
		builder:  b,
		opts:     opts,
		now:      time.Now,
	}
}

// Summary reports the outcome of a publish run.
type Summary struct {
	Items      int
	TotalBytes int64
	Rendered   int
	Skipped    int
	Dynamic    int
	Failed     int
	Removed    int
	Elapsed    time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("%d files published. %s. %.2fs.", s.Items, humanize.Bytes(uint64(max(s.TotalBytes, 0))), s.Elapsed.Seconds())
}

// Publish renders every publishable URL into the cache store. Failures of
// single URLs are logged and counted; the run continues. The index is
// written only when the run completes, so a cancelled or failed run leaves
// the cache in the "publish required" state.
func (g *Generator) Publish(ctx context.Context, verbose bool) (Summary, error) {
	start := g.now()

	if g.opts.Lock != nil {
		if err := g.opts.Lock.Acquire(ctx); err != nil {
			return Summary{}, err
		}
		defer func() {
			if err := g.opts.Lock.Release(context.WithoutCancel(ctx)); err != nil {
				slog.Warn("publish lock release failed", "error", err)
			}
		}()
	}

	g.store.ClearIndex()
	g.store.Reset()

	r := g.newRun(verbose)
	if err := g.walk(ctx, r); err != nil {
		return r.summary, err
	}
	if err := g.writeSitemaps(ctx, r); err != nil {
		return r.summary, err
	}

	g.store.WriteIndex()
	index := g.store.Index()
	removed, err := g.store.Cleanup(index)
	if err != nil {
		slog.Warn("cache cleanup incomplete", "error", err)
	}

	g.mirror(ctx, removed)
	if g.opts.PageCache != nil {
		g.opts.PageCache.InvalidateAll(ctx)
	}

	r.summary.Items = g.store.Items()
	r.summary.TotalBytes = g.store.TotalSize()
	r.summary.Removed = len(removed)
	r.summary.Elapsed = g.now().Sub(start)
	slog.Info("publish complete",
		"items", r.summary.Items,
		"rendered", r.summary.Rendered,
		"skipped", r.summary.Skipped,
		"failed", r.summary.Failed,
		"removed", len(removed),
		"elapsed", r.summary.Elapsed,
	)
	return r.summary, nil
}

// walk publishes pages, their pagination and child pages, custom URLs and
// the 404 page, in that order.
func (g *Generator) walk(ctx context.Context, r *run) error {
	pages, err := g.src.Pages(ctx)
	if err != nil {
		return fmt.Errorf("load pages: %w", err)
	}

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := r.resolver.ForPage(ctx, page, 1, false)
		if err != nil {
			g.fail(r, page.URL(nil), err)
			continue
		}
		rv, ok := res.(resolver.Resolved)
		if !ok {
			continue
		}
		g.publish(ctx, r, rv.Context)

		if rv.Context.Paginated {
			settings, err := r.resolver.Settings(ctx)
			if err != nil {
				return err
			}
			for n := 2; n <= numPages(rv.Context, settings); n++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				g.publishResult(ctx, r, page.URL(settings), func() (resolver.Result, error) {
					return r.resolver.ForPage(ctx, page, n, false)
				})
			}
		}

		for _, child := range rv.Context.ChildPages {
			if err := ctx.Err(); err != nil {
				return err
			}
			g.publishResult(ctx, r, child.Slug, func() (resolver.Result, error) {
				return r.resolver.ForChild(ctx, child)
			})
		}
	}

	custom, err := g.src.CustomURLs(ctx)
	if err != nil {
		return fmt.Errorf("load custom urls: %w", err)
	}
	for _, u := range custom {
		if err := ctx.Err(); err != nil {
			return err
		}
		rv := r.resolver.ForCustom(u).(resolver.Resolved)
		g.publish(ctx, r, rv.Context)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	g.publishResult(ctx, r, NotFoundFile, func() (resolver.Result, error) {
		return r.resolver.ForNotFoundPage(ctx)
	})
	return nil
}

func (g *Generator) publishResult(ctx context.Context, r *run, label string, resolve func() (resolver.Result, error)) {
	res, err := resolve()
	if err != nil {
		g.fail(r, label, err)
		return
	}
	if rv, ok := res.(resolver.Resolved); ok {
		g.publish(ctx, r, rv.Context)
	}
}

// Invalidate turns every published file into a shadow. Nothing is
// regenerated; the next publish restores unchanged files by rename.
func (g *Generator) Invalidate(ctx context.Context, verbose bool) (int, error) {
	n, err := g.store.Invalidate()
	if g.opts.PageCache != nil {
		g.opts.PageCache.InvalidateAll(ctx)
	}
	if verbose {
		slog.Info("cache invalidated", "root", g.store.Root(), "files", n)
	}
	return n, err
}

// ClearCache deletes every cached file.
func (g *Generator) ClearCache(ctx context.Context, verbose bool) (int, error) {
	n, err := g.store.Clear()
	if g.opts.PageCache != nil {
		g.opts.PageCache.InvalidateAll(ctx)
	}
	if verbose {
		slog.Info("cache cleared", "root", g.store.Root(), "files", n)
	}
	return n, err
}

// ContentChanged reacts to an edit of a publishable record: it records
// deletions, invalidates the cache and tells other hosts. The next publish
// re-renders what the edit affected.
func (g *Generator) ContentChanged(ctx context.Context, model string, id uuid.UUID, deleted bool) error {
	at := g.now()
	action := "update"
	if deleted {
		action = "delete"
		if err := g.src.TouchDeleted(ctx, at); err != nil {
			return fmt.Errorf("record deletion: %w", err)
		}
	}
	if g.opts.ChangeLog != nil {
		g.opts.ChangeLog.Log(ctx, model, id, action)
	}
	if _, err := g.Invalidate(ctx, false); err != nil {
		slog.Warn("invalidate after content change incomplete", "model", model, "error", err)
	}
	if inv, ok := g.renderer.(interface{ InvalidateAllTemplates() }); ok && model == models.KindTemplate {
		inv.InvalidateAllTemplates()
	}
	if g.opts.Notifier != nil {
		c := cache.Change{Model: model, Deleted: deleted, At: at, Origin: g.opts.Origin}
		if err := g.opts.Notifier.Publish(ctx, c); err != nil {
			slog.Warn("content change broadcast failed", "model", model, "error", err)
		}
	}
	return nil
}

// Watch applies content changes broadcast by other hosts to the local
// cache until ctx is done.
func (g *Generator) Watch(ctx context.Context) error {
	if g.opts.Notifier == nil {
		return nil
	}
	return g.opts.Notifier.Subscribe(ctx, func(c cache.Change) {
		if c.Origin == g.opts.Origin {
			return
		}
		slog.Info("remote content change", "model", c.Model, "origin", c.Origin)
		if _, err := g.Invalidate(ctx, false); err != nil {
			slog.Warn("invalidate after remote change incomplete", "error", err)
		}
		if inv, ok := g.renderer.(interface{ InvalidateAllTemplates() }); ok && c.Model == models.KindTemplate {
			inv.InvalidateAllTemplates()
		}
	})
}

// mirror pushes written files to the mirror and deletes the entries cleanup
// removed, shadows included, so a page dropped after an invalidation still
// leaves the mirror.
func (g *Generator) mirror(ctx context.Context, removed []string) {
	if g.opts.Mirror == nil {
		return
	}
	for _, rel := range g.store.Written() {
		body, err := os.ReadFile(g.store.Path(rel))
		if err != nil {
			slog.Warn("mirror read failed", "path", rel, "error", err)
			continue
		}
		if err := g.opts.Mirror.PutFile(ctx, rel, body); err != nil {
			slog.Warn("mirror upload failed", "path", rel, "error", err)
		}
	}
	for _, rel := range removed {
		if err := g.opts.Mirror.DeleteFile(ctx, rel); err != nil {
			slog.Warn("mirror delete failed", "path", rel, "error", err)
		}
	}
}
