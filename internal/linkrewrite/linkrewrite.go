// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package linkrewrite is an on_render_content hook that post-processes
// rendered HTML: links to the page being rendered get aria-current, links
// leaving the site get a safe rel, and content images load lazily.
// Elements that already carry the attribute are left untouched.
package linkrewrite

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"staticpress/internal/hooks"
)

const externalRel = "noopener noreferrer"

// Rewriter rewrites links relative to one site.
type Rewriter struct {
	host string
}

// New creates a rewriter for the site at siteURL. Without a site URL only
// scheme-qualified links count as external.
func New(siteURL string) *Rewriter {
	r := &Rewriter{}
	if u, err := url.Parse(siteURL); err == nil {
		r.host = strings.ToLower(u.Host)
	}
	return r
}

// Register installs the rewriter as an on_render_content hook.
func (r *Rewriter) Register(reg *hooks.Registry) {
	reg.OnRenderContent(r.Rewrite)
}

// Rewrite implements hooks.ContentHook. Content that does not parse as HTML
// is returned unchanged.
func (r *Rewriter) Rewrite(_ context.Context, env hooks.Environment, content []byte) ([]byte, error) {
	if !bytes.Contains(content, []byte("<")) {
		return content, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return content, nil
	}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		switch {
		case r.external(href):
			if _, ok := a.Attr("rel"); !ok {
				a.SetAttr("rel", externalRel)
			}
		case env.Path != "" && samePath(href, env.Path):
			if _, ok := a.Attr("aria-current"); !ok {
				a.SetAttr("aria-current", "page")
			}
		}
	})

	doc.Find("main img, article img").Each(func(_ int, img *goquery.Selection) {
		if _, ok := img.Attr("loading"); !ok {
			img.SetAttr("loading", "lazy")
		}
	})

	var out string
	if isDocument(content) {
		out, err = doc.Html()
	} else {
		// Fragments come back wrapped in html/head/body by the parser.
		out, err = doc.Find("body").Html()
	}
	if err != nil {
		return content, nil
	}
	return []byte(out), nil
}

// external reports whether href leaves the site.
func (r *Rewriter) external(href string) bool {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return r.host == "" || !strings.EqualFold(u.Host, r.host)
}

// samePath compares a relative link against the rendered path, ignoring
// the query, the fragment and a missing trailing slash.
func samePath(href, path string) bool {
	u, err := url.Parse(href)
	if err != nil || u.Host != "" || u.Path == "" {
		return false
	}
	return strings.TrimSuffix(u.Path, "/") == strings.TrimSuffix(path, "/")
}

func isDocument(content []byte) bool {
	head := bytes.ToLower(content[:min(len(content), 512)])
	return bytes.Contains(head, []byte("<html")) || bytes.Contains(head, []byte("<!doctype"))
}
