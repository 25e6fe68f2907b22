// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package engine renders template contexts into HTML. Templates come from
// the record store as Go html/templates; every page template is compiled
// together with all partial templates so pages can call
// {{template "<partial>" .}}. Compiled templates are cached in memory
// keyed by name and version.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"staticpress/internal/content"
	"staticpress/internal/markdown"
	"staticpress/internal/models"
)

// ErrTemplateNotFound is returned when a page names a template that does
// not exist.
var ErrTemplateNotFound = errors.New("template not found")

// Engine compiles and renders templates from a template source.
type Engine struct {
	templates content.TemplateSource
	cache     *templateCache
	now       func() time.Time
}

// New creates a rendering engine with an empty template cache.
func New(templates content.TemplateSource) *Engine {
	return &Engine{
		templates: templates,
		cache:     newTemplateCache(),
		now:       time.Now,
	}
}

// InvalidateAllTemplates clears the template cache.
func (e *Engine) InvalidateAllTemplates() {
	e.cache.invalidateAll()
}

// Render executes the named page template with the template context.
func (e *Engine) Render(ctx context.Context, name string, tc *models.TemplateContext) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: page has no template", ErrTemplateNotFound)
	}
	page, err := e.templates.TemplateByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", name, err)
	}
	if page == nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	partials, err := e.templates.Partials(ctx)
	if err != nil {
		return nil, fmt.Errorf("load partials: %w", err)
	}

	key := cacheKey{name: page.Name, version: page.Version, partials: signature(partials)}
	compiled := e.cache.get(key)
	if compiled == nil {
		compiled, err = e.compile(page, partials)
		if err != nil {
			return nil, err
		}
		e.cache.put(key, compiled)
	}

	var buf bytes.Buffer
	if err := compiled.Execute(&buf, tc.Map()); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// ValidateTemplate reports whether a template string compiles with the
// engine's function map.
func (e *Engine) ValidateTemplate(htmlContent string) error {
	if _, err := template.New("validate").Funcs(e.funcs()).Parse(htmlContent); err != nil {
		return fmt.Errorf("invalid template syntax: %w", err)
	}
	return nil
}

// Check compiles every stored template and returns the failures joined.
// Page templates are compiled against the partials that parse, so one
// broken partial is reported once. Nothing is cached.
func (e *Engine) Check(ctx context.Context) error {
	all, err := e.templates.Templates(ctx)
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	var errs []error
	var partials, pages []*models.Template
	for _, t := range all {
		if t.Type != models.TemplateTypePartial {
			pages = append(pages, t)
			continue
		}
		if err := e.ValidateTemplate(t.HTMLContent); err != nil {
			errs = append(errs, fmt.Errorf("partial %s: %w", t.Name, err))
			continue
		}
		partials = append(partials, t)
	}
	for _, t := range pages {
		if _, err := e.compile(t, partials); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) compile(page *models.Template, partials []*models.Template) (*template.Template, error) {
	root := template.New(page.Name).Funcs(e.funcs())
	for _, p := range partials {
		if p.Name == page.Name {
			continue
		}
		if _, err := root.New(p.Name).Parse(p.HTMLContent); err != nil {
			return nil, fmt.Errorf("compile partial %s: %w", p.Name, err)
		}
	}
	if _, err := root.Parse(page.HTMLContent); err != nil {
		return nil, fmt.Errorf("compile template %s: %w", page.Name, err)
	}
	return root, nil
}

func (e *Engine) funcs() template.FuncMap {
	return template.FuncMap{
		"markdown": renderMarkdown,
		"safe":     func(s string) template.HTML { return template.HTML(s) },
		"year":     func() int { return e.now().Year() },
		"date": func(layout string, t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(layout)
		},
	}
}

// renderMarkdown converts slot content to HTML. Raw HTML passes through,
// so a conversion failure falls back to the source.
func renderMarkdown(source string) template.HTML {
	out, err := markdown.ToHTML(source)
	if err != nil {
		slog.Warn("markdown conversion failed, using raw slot", "error", err)
		return template.HTML(source)
	}
	return template.HTML(out)
}

// signature identifies a partial set by name and version.
func signature(partials []*models.Template) string {
	parts := make([]string, 0, len(partials))
	for _, p := range partials {
		parts = append(parts, p.Name+"@"+strconv.Itoa(p.Version))
	}
	slices.Sort(parts)
	return strings.Join(parts, ",")
}
