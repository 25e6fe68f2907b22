// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package tmplctx

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"staticpress/internal/cache"
	"staticpress/internal/content"
	"staticpress/internal/hooks"
	"staticpress/internal/models"
	"staticpress/internal/navigation"
	"staticpress/internal/paging"
	"staticpress/internal/resolver"
)

const (
	logoID  = "11111111-1111-1111-1111-111111111111"
	photoID = "22222222-2222-2222-2222-222222222222"
	aboutID = "33333333-3333-3333-3333-333333333333"
)

const site = `
[settings]
homepage = ""
contact_page = "contact"
page_size = 2
updated_on = 2026-01-01T00:00:00Z

[settings.paging]
BlogPost = true

[[pages]]
slug = ""
title = "Home"
template = "home"
nav = ["main"]
seq = 1
updated_on = 2026-02-01T00:00:00Z
slots = { body = "Logo #image[11111111-1111-1111-1111-111111111111] and <img data-media-id=\"22222222-2222-2222-2222-222222222222\"> see #link[Page:33333333-3333-3333-3333-333333333333] or #link[Page:44444444-4444-4444-4444-444444444444]" }

[[pages]]
id = "33333333-3333-3333-3333-333333333333"
slug = "about"
title = "About"
identifier = "about"
nav = ["main", "footer"]
seq = 2
updated_on = 2026-02-02T00:00:00Z

[[pages]]
slug = "contact"
title = "Contact"
nav = ["footer"]
seq = 3
updated_on = 2026-02-03T00:00:00Z

[[pages]]
slug = "blog"
title = "Blog"
child_model = "BlogPost"
nav = ["main"]
seq = 4
updated_on = 2026-02-04T00:00:00Z

[[child_pages]]
page = "blog"
slug = "a"
title = "A"
seq = 1
updated_on = 2026-03-01T00:00:00Z

[[child_pages]]
page = "blog"
slug = "b"
title = "B"
seq = 2
updated_on = 2026-03-02T00:00:00Z

[[child_pages]]
page = "blog"
slug = "c"
title = "C"
seq = 3
updated_on = 2026-03-03T00:00:00Z

[[media]]
id = "11111111-1111-1111-1111-111111111111"
filename = "logo.png"
content_type = "image/png"
s3_key = "media/logo.png"
updated_on = 2026-04-01T00:00:00Z

[[media]]
id = "22222222-2222-2222-2222-222222222222"
filename = "photo.jpg"
content_type = "image/jpeg"
url = "https://cdn.example.com/photo.jpg"
updated_on = 2026-01-15T00:00:00Z
`

type fakeURLs struct{}

func (fakeURLs) FileURL(key string) string { return "https://files.example.com/" + key }

type fixture struct {
	mem  *content.Memory
	memo *cache.Context
	res  *resolver.Resolver
	reg  *hooks.Registry
	b    *Builder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem, err := content.ParseFixture(site)
	if err != nil {
		t.Fatalf("ParseFixture: %v", err)
	}
	memo := cache.NewContext()
	reg := hooks.NewRegistry()
	b := New(mem, reg)
	b.SetMediaURLs(fakeURLs{})
	return &fixture{mem: mem, memo: memo, res: resolver.New(mem, memo), reg: reg, b: b}
}

func (f *fixture) build(t *testing.T, url string) *Output {
	t.Helper()
	ctx := context.Background()
	res, err := f.res.Resolve(ctx, url)
	if err != nil {
		t.Fatalf("Resolve(%q): %v", url, err)
	}
	rv, ok := res.(resolver.Resolved)
	if !ok {
		t.Fatalf("Resolve(%q) = %#v", url, res)
	}
	out, err := f.b.Build(ctx, f.memo, rv.Context, hooks.PublishEnvironment(rv.Context.Path))
	if err != nil {
		t.Fatalf("Build(%q): %v", url, err)
	}
	return out
}

func get[T any](t *testing.T, tc *models.TemplateContext, key string) T {
	t.Helper()
	v, ok := tc.Get(key)
	if !ok {
		t.Fatalf("context has no %q", key)
	}
	out, ok := v.(T)
	if !ok {
		t.Fatalf("context %q is %T", key, v)
	}
	return out
}

func TestBuildHomepage(t *testing.T) {
	f := newFixture(t)
	out := f.build(t, "/")
	tc := out.Context

	if out.Template != "home" {
		t.Errorf("template = %q", out.Template)
	}
	if !get[bool](t, tc, models.CtxIsHomepage) || get[bool](t, tc, models.CtxIsContactPage) {
		t.Error("homepage flags wrong")
	}

	images := get[map[uuid.UUID]models.Media](t, tc, models.CtxImages)
	if len(images) != 2 {
		t.Fatalf("images = %v", images)
	}
	if got := images[uuid.MustParse(logoID)].URL; got != "https://files.example.com/media/logo.png" {
		t.Errorf("logo url = %q", got)
	}
	if got := images[uuid.MustParse(photoID)].URL; got != "https://cdn.example.com/photo.jpg" {
		t.Errorf("photo url = %q", got)
	}

	links := get[map[string]map[uuid.UUID]models.Entity](t, tc, models.CtxPageLinks)
	if len(links[models.KindPage]) != 1 {
		t.Errorf("page links = %v", links)
	}

	slots := get[map[string]string](t, tc, models.CtxSlots)
	want := "Logo https://files.example.com/media/logo.png and <img data-media-id=\"" + photoID + "\"> see /about/ or #"
	if slots["body"] != want {
		t.Errorf("body slot = %q\nwant %q", slots["body"], want)
	}

	// Logo media is the newest input.
	if want := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC); !out.Mtime.Equal(want) {
		t.Errorf("mtime = %v, want %v", out.Mtime, want)
	}

	wantKeys := []string{
		models.CtxCurrentPage, models.CtxPage, models.CtxImages, models.CtxPageLinks,
		models.CtxSettings, models.CtxNav, models.CtxActiveNav, models.CtxPages,
		models.CtxHomepage, models.CtxIsHomepage, models.CtxIsContactPage,
		models.CtxIs404Page, models.CtxSlots,
	}
	keys := tc.Keys()
	if len(keys) != len(wantKeys) {
		t.Fatalf("keys = %v", keys)
	}
	for i := range wantKeys {
		if keys[i] != wantKeys[i] {
			t.Errorf("key %d = %q, want %q", i, keys[i], wantKeys[i])
		}
	}
}

func TestBuildNavigationActive(t *testing.T) {
	f := newFixture(t)

	out := f.build(t, "/about/")
	active := get[*navigation.Node](t, out.Context, models.CtxActiveNav)
	if active == nil || active.Slug != "about" || !active.Active {
		t.Fatalf("active = %+v", active)
	}
	nav := get[map[string][]*navigation.Node](t, out.Context, models.CtxNav)
	if len(nav["main"]) != 3 || len(nav["footer"]) != 2 {
		t.Errorf("nav = main:%d footer:%d", len(nav["main"]), len(nav["footer"]))
	}
	if !nav["footer"][0].Active {
		t.Error("about should be active in the footer bar too")
	}

	// The tree is shared; activating another page clears the previous mark.
	f.build(t, "/contact/")
	if nav["footer"][0].Active || !nav["footer"][1].Active {
		t.Error("activation not moved to contact")
	}
	if f.memo.Len() == 0 {
		t.Error("navigation should be memoized")
	}
}

func TestBuildPaginated(t *testing.T) {
	f := newFixture(t)
	out := f.build(t, "/blog/page-2/")
	tc := out.Context

	pg := get[*paging.Page[*models.ChildPage]](t, tc, models.CtxPaginator)
	if pg.Number != 2 || pg.NumPages != 2 || pg.PreviousURL != "/blog/" {
		t.Errorf("paginator = %+v", pg)
	}
	paged := get[[]*models.ChildPage](t, tc, models.CtxPagedPosts)
	if len(paged) != 1 || paged[0].Slug != "c" {
		t.Errorf("paged posts = %v", paged)
	}
	posts := get[[]*models.ChildPage](t, tc, models.CtxPosts)
	if len(posts) != 3 {
		t.Errorf("posts = %d", len(posts))
	}
	if get[string](t, tc, models.CtxVerboseNamePlural) != "Blog Posts" {
		t.Error("verbose plural wrong")
	}
	// The newest child page drives the listing mtime.
	if want := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC); !out.Mtime.Equal(want) {
		t.Errorf("mtime = %v, want %v", out.Mtime, want)
	}
}

func TestBuildChildPage(t *testing.T) {
	f := newFixture(t)
	out := f.build(t, "/blog/b/")
	if _, ok := out.Context.Get(models.CtxPosts); ok {
		t.Error("child pages should not list posts")
	}
	if get[*models.Page](t, out.Context, models.CtxPage).Slug != "blog" {
		t.Error("page should be the parent")
	}
	if get[string](t, out.Context, models.CtxVerboseName) != "Blog Post" {
		t.Error("verbose name wrong")
	}
}

func TestBuildHooks(t *testing.T) {
	f := newFixture(t)
	var order []string
	record := func(name string) hooks.ContextHook {
		return func(_ context.Context, _ hooks.Environment, _ *models.PageContext, tc *models.TemplateContext) (*hooks.Response, error) {
			order = append(order, name)
			tc.Set(name, true)
			return nil, nil
		}
	}
	f.reg.OnTemplateContext(record("context"))
	f.reg.OnContactPage(record("contact"))
	f.reg.OnPageIdentifier("about", func(context.Context, hooks.Environment, *models.PageContext, *models.TemplateContext) (*hooks.Response, error) {
		order = append(order, "about")
		return hooks.Redirect("/elsewhere/"), nil
	})

	out := f.build(t, "/contact/")
	if _, ok := out.Context.Get("contact"); !ok || out.Response != nil {
		t.Errorf("contact hooks not applied: %v", order)
	}

	order = nil
	out = f.build(t, "/about/")
	if out.Response == nil || out.Response.Status != http.StatusMovedPermanently {
		t.Fatalf("response = %+v", out.Response)
	}
	if len(order) != 2 || order[0] != "context" || order[1] != "about" {
		t.Errorf("order = %v", order)
	}
}

func TestRefs(t *testing.T) {
	slots := []string{
		"#image[" + logoID + "] #image[" + logoID + "] #image[not-a-uuid]",
		`<img data-media-id="` + photoID + `">`,
		"#link[BlogPost:" + aboutID + "] #link[Page:" + aboutID + "] #link[Page:" + aboutID + "]",
	}
	if ids := ImageRefs(slots); len(ids) != 2 {
		t.Errorf("ImageRefs = %v", ids)
	}
	links := LinkRefs(slots)
	if len(links["BlogPost"]) != 1 || len(links["Page"]) != 1 {
		t.Errorf("LinkRefs = %v", links)
	}
}

func TestVerboseName(t *testing.T) {
	tests := []struct{ model, name, plural string }{
		{"BlogPost", "Blog Post", "Blog Posts"},
		{"Story", "Story", "Stories"},
		{"FAQItem", "FAQ Item", "FAQ Items"},
		{"Day", "Day", "Days"},
		{"Box", "Box", "Boxes"},
		{"", "", ""},
	}
	for _, tt := range tests {
		if got := VerboseName(tt.model); got != tt.name {
			t.Errorf("VerboseName(%q) = %q, want %q", tt.model, got, tt.name)
		}
		if got := VerboseNamePlural(tt.model); got != tt.plural {
			t.Errorf("VerboseNamePlural(%q) = %q, want %q", tt.model, got, tt.plural)
		}
	}
}
