// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package generator

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"staticpress/internal/cache"
	"staticpress/internal/change"
	"staticpress/internal/hooks"
	"staticpress/internal/models"
	"staticpress/internal/slug"
)

const (
	sitemapXMLNS     = "http://www.sitemaps.org/schemas/sitemap/0.9"
	sitemapIndexFile = "sitemap.xml"
	pagesSection     = "pages"
	customSection    = "custom"
)

// sitemapCollector gathers entries per section in publish order.
type sitemapCollector struct {
	order    []string
	sections map[string][]hooks.SitemapEntry
}

func newSitemapCollector() *sitemapCollector {
	return &sitemapCollector{sections: make(map[string][]hooks.SitemapEntry)}
}

func (c *sitemapCollector) add(pc *models.PageContext, lastMod time.Time) {
	var (
		section  string
		priority float64
	)
	switch e := pc.Current.(type) {
	case *models.Page:
		if !e.Sitemap {
			return
		}
		section, priority = pagesSection, 0.8
		if pc.Path == "/" {
			priority = 1.0
		}
	case *models.ChildPage:
		if !e.Sitemap {
			return
		}
		section, priority = SectionName(e.Model), 0.6
	case *models.CustomURL:
		if !e.Sitemap {
			return
		}
		section, priority = customSection, 0.5
	default:
		return
	}
	c.append(section, hooks.SitemapEntry{Loc: pc.Path, LastMod: lastMod, Priority: priority})
}

func (c *sitemapCollector) append(section string, entries ...hooks.SitemapEntry) {
	if _, ok := c.sections[section]; !ok {
		c.order = append(c.order, section)
	}
	c.sections[section] = append(c.sections[section], entries...)
}

// SectionName turns a child-page model name into a sitemap section name:
// "BlogPost" becomes "blog-post".
func SectionName(model string) string {
	return slug.Section(model)
}

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc      string `xml:"loc"`
	LastMod  string `xml:"lastmod,omitempty"`
	Priority string `xml:"priority,omitempty"`
}

type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	XMLNS    string       `xml:"xmlns,attr"`
	Sitemaps []sitemapRef `xml:"sitemap"`
}

type sitemapRef struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// writeSitemaps writes one sitemap-<section>.xml per section, including
// sections contributed by on_custom_sitemap hooks, then the sitemap.xml
// index. Sitemap locations must be absolute, so nothing is written without
// a site URL. A sitemap is rewritten only when its bytes differ from the
// cached copy: a URL can leave a section without moving its lastmod.
func (g *Generator) writeSitemaps(ctx context.Context, r *run) error {
	if g.opts.SiteURL == "" {
		slog.Debug("no site url configured, sitemaps skipped")
		return nil
	}
	custom, err := g.opts.Hooks.CustomSitemaps(ctx)
	if err != nil {
		// A broken hook costs its sections, not the publish.
		g.fail(r, sitemapIndexFile, err)
	}
	for _, s := range custom {
		r.sitemap.append(SectionName(s.Name), s.Entries...)
	}

	index := sitemapIndex{XMLNS: sitemapXMLNS}
	var latest time.Time
	for _, name := range r.sitemap.order {
		entries := r.sitemap.sections[name]
		set := urlset{XMLNS: sitemapXMLNS}
		var sectionMod time.Time
		for _, e := range entries {
			set.URLs = append(set.URLs, sitemapURL{
				Loc:      g.absURL(e.Loc),
				LastMod:  formatLastMod(e.LastMod),
				Priority: formatPriority(e.Priority),
			})
			sectionMod = change.Latest(sectionMod, e.LastMod)
		}
		rel := "sitemap-" + name + ".xml"
		if err := g.writeXML(r, rel, set, sectionMod); err != nil {
			g.fail(r, rel, err)
			continue
		}
		index.Sitemaps = append(index.Sitemaps, sitemapRef{Loc: g.absURL("/" + rel), LastMod: formatLastMod(sectionMod)})
		latest = change.Latest(latest, sectionMod)
	}

	if err := g.writeXML(r, sitemapIndexFile, index, latest); err != nil {
		return fmt.Errorf("write sitemap index: %w", err)
	}
	slog.Debug("sitemaps written", "sections", len(index.Sitemaps))
	return nil
}

func (g *Generator) writeXML(r *run, rel string, v any, mtime time.Time) error {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", rel, err)
	}
	body = append([]byte(xml.Header), body...)
	if first, dup := r.seen[rel]; dup {
		return fmt.Errorf("%w: %s also produced by %s", ErrDuplicatePath, rel, first)
	}
	changed := cache.ChangedYes
	if cached, err := g.store.Read(rel); err == nil && bytes.Equal(cached, body) {
		changed = cache.ChangedNo
	}
	stamp := change.Decide(nil, change.Latest(mtime, time.Unix(0, 0))).Stamp
	if _, _, err := g.store.Add(rel, &stamp, changed, body, false); err != nil {
		return err
	}
	r.seen[rel] = rel
	return nil
}

func (g *Generator) absURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(g.opts.SiteURL, "/") + path
}

func formatLastMod(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatPriority(p float64) string {
	if p <= 0 {
		return ""
	}
	return strconv.FormatFloat(p, 'f', 1, 64)
}
