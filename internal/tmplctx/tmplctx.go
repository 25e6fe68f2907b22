// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package tmplctx turns a resolved page context into the template context
// handed to the renderer, and computes the effective modification time of
// everything the rendered output depends on.
package tmplctx

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"staticpress/internal/cache"
	"staticpress/internal/change"
	"staticpress/internal/content"
	"staticpress/internal/hooks"
	"staticpress/internal/models"
	"staticpress/internal/navigation"
	"staticpress/internal/paging"
)

var (
	imageTokenRe = regexp.MustCompile(`#image\[([0-9a-fA-F-]{36})\]`)
	mediaAttrRe  = regexp.MustCompile(`data-media-id="([0-9a-fA-F-]{36})"`)
	linkTokenRe  = regexp.MustCompile(`#link\[([A-Za-z][A-Za-z0-9_]*):([0-9a-fA-F-]{36})\]`)
)

// MediaURLs maps a media storage key to its public URL.
type MediaURLs interface {
	FileURL(key string) string
}

// Builder builds template contexts. It is safe for concurrent use as long
// as each goroutine brings its own cache context.
type Builder struct {
	src   content.Source
	hooks *hooks.Registry
	urls  MediaURLs
}

// New creates a builder. reg may be nil.
func New(src content.Source, reg *hooks.Registry) *Builder {
	return &Builder{src: src, hooks: reg}
}

// SetMediaURLs makes the builder fill in media URLs from object storage.
func (b *Builder) SetMediaURLs(u MediaURLs) {
	b.urls = u
}

// Output is the result of Build. When a hook short-circuits, Response is
// set and Context must not be rendered.
type Output struct {
	Context  *models.TemplateContext
	Response *hooks.Response
	Template string
	Mtime    time.Time
}

// Build composes the template context for pc. Settings, the page list and
// the navigation tree are memoized in memo.
func (b *Builder) Build(ctx context.Context, memo *cache.Context, pc *models.PageContext, env hooks.Environment) (*Output, error) {
	settings, err := cache.Memo(memo, cache.SettingsKey, func() (*models.Settings, error) {
		return b.src.Settings(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	slots := collectSlots(pc)

	if err := b.loadImages(ctx, pc, slots); err != nil {
		return nil, err
	}
	if err := b.loadLinks(ctx, pc, slots); err != nil {
		return nil, err
	}

	tree, err := b.Navigation(ctx, memo, settings)
	if err != nil {
		return nil, err
	}
	var active *navigation.Node
	if page := pc.Page(); page != nil {
		active = tree.Activate(page.ID)
	} else {
		tree.Activate(uuid.Nil)
	}

	home, err := b.homepage(ctx, memo, settings)
	if err != nil {
		return nil, err
	}

	tc := models.NewTemplateContext()
	tc.Set(models.CtxCurrentPage, pc.Current)
	tc.Set(models.CtxPage, pc.Page())
	tc.Set(models.CtxImages, pc.Images)
	tc.Set(models.CtxPageLinks, pc.PageLinks)
	tc.Set(models.CtxSettings, settings)
	tc.Set(models.CtxNav, tree.ByBar)
	tc.Set(models.CtxActiveNav, active)
	tc.Set(models.CtxPages, tree.Pages)
	tc.Set(models.CtxHomepage, home)

	var kinds hooks.Kinds
	if p, ok := pc.Current.(*models.Page); ok {
		kinds = hooks.Kinds{
			Homepage:    settings.IsHomepage(p.ID),
			ContactPage: settings.IsContactPage(p.ID),
			NotFound:    settings.IsNotFoundPage(p.ID),
			Identifier:  p.Identifier,
		}
	}
	tc.Set(models.CtxIsHomepage, kinds.Homepage)
	tc.Set(models.CtxIsContactPage, kinds.ContactPage)
	tc.Set(models.CtxIs404Page, kinds.NotFound)
	tc.Set(models.CtxSlots, b.expandSlots(pc, settings))

	if page := pc.Page(); page != nil && page.HasChildModel() {
		tc.Set(models.CtxVerboseName, VerboseName(page.ChildModel))
		tc.Set(models.CtxVerboseNamePlural, VerboseNamePlural(page.ChildModel))
		if _, isChild := pc.Current.(*models.ChildPage); !isChild {
			tc.Set(models.CtxPosts, pc.ChildPages)
		}
	}

	if pc.Paginated {
		size, maxSize := settings.PageSizes()
		base := pc.Page().URL(settings)
		pg, err := paging.New(pc.ChildPages, size, maxSize).Page(pc.PaginatorPage, pc.PaginatorAll, base)
		if err != nil {
			return nil, fmt.Errorf("paginate %s: %w", pc.Path, err)
		}
		tc.Set(models.CtxPaginator, pg)
		tc.Set(models.CtxPagedPosts, pg.Items)
	}

	resp, err := b.hooks.ApplyContext(ctx, env, pc, tc, kinds)
	if err != nil {
		return nil, err
	}

	return &Output{
		Context:  tc,
		Response: resp,
		Template: pc.Current.TemplateName(),
		Mtime:    change.Effective(mtimeInputs(pc, settings, tree)),
	}, nil
}

// Navigation returns the memoized navigation tree. The memo key carries a
// fingerprint of the page set, so an edit between two calls on the same
// memo builds a fresh tree.
func (b *Builder) Navigation(ctx context.Context, memo *cache.Context, settings *models.Settings) (*navigation.Tree, error) {
	pages, err := cache.Memo(memo, "pages", func() ([]*models.Page, error) {
		return b.src.Pages(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("load pages: %w", err)
	}

	key := "nav:" + navigation.Fingerprint(pages)
	return cache.Memo(memo, key, func() (*navigation.Tree, error) {
		aggregated := make(map[uuid.UUID][]*models.ChildPage)
		var imageIDs []uuid.UUID
		for _, p := range pages {
			if p.HasChildModel() && p.IsPublishable() {
				children, err := b.src.ChildPages(ctx, p.ID)
				if err != nil {
					return nil, fmt.Errorf("load child pages of %s: %w", p.Slug, err)
				}
				aggregated[p.ID] = children
			}
			if p.NavImageID != nil {
				imageIDs = append(imageIDs, *p.NavImageID)
			}
		}
		images, err := b.media(ctx, imageIDs)
		if err != nil {
			return nil, err
		}
		tree := navigation.Build(navigation.Inputs{
			Pages:      pages,
			Settings:   settings,
			Aggregated: aggregated,
			Images:     images,
		})
		slog.Debug("navigation built", "pages", len(tree.Pages), "bars", len(tree.ByBar))
		return tree, nil
	})
}

func (b *Builder) homepage(ctx context.Context, memo *cache.Context, settings *models.Settings) (*models.Page, error) {
	return cache.Memo(memo, "homepage", func() (*models.Page, error) {
		if settings.HomepageID == nil {
			return nil, nil
		}
		p, err := b.src.PageByID(ctx, *settings.HomepageID)
		if err != nil {
			return nil, fmt.Errorf("load homepage: %w", err)
		}
		return p, nil
	})
}

// collectSlots returns the slot contents the page depends on: the current
// entity and, for child pages, the parent.
func collectSlots(pc *models.PageContext) []string {
	var out []string
	add := func(e models.Entity) {
		for _, name := range models.SortedSlotNames(e) {
			out = append(out, e.ContentSlots()[name])
		}
	}
	add(pc.Current)
	if pc.Parent != nil {
		add(pc.Parent)
	}
	return out
}

// ImageRefs returns the media ids referenced by slots, in first-seen order.
func ImageRefs(slots []string) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, s := range slots {
		for _, re := range []*regexp.Regexp{imageTokenRe, mediaAttrRe} {
			for _, m := range re.FindAllStringSubmatch(s, -1) {
				id, err := uuid.Parse(m[1])
				if err != nil || seen[id] {
					continue
				}
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// LinkRefs returns the entity ids referenced by #link tokens, grouped by
// entity type.
func LinkRefs(slots []string) map[string][]uuid.UUID {
	out := make(map[string][]uuid.UUID)
	for _, s := range slots {
		for _, m := range linkTokenRe.FindAllStringSubmatch(s, -1) {
			id, err := uuid.Parse(m[2])
			if err != nil || slices.Contains(out[m[1]], id) {
				continue
			}
			out[m[1]] = append(out[m[1]], id)
		}
	}
	return out
}

func (b *Builder) loadImages(ctx context.Context, pc *models.PageContext, slots []string) error {
	images, err := b.media(ctx, ImageRefs(slots))
	if err != nil {
		return err
	}
	pc.Images = images
	return nil
}

func (b *Builder) media(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Media, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]models.Media{}, nil
	}
	images, err := b.src.Media(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load media: %w", err)
	}
	if b.urls != nil {
		for id, m := range images {
			if m.URL == "" && m.S3Key != "" {
				m.URL = b.urls.FileURL(m.S3Key)
				images[id] = m
			}
		}
	}
	return images, nil
}

func (b *Builder) loadLinks(ctx context.Context, pc *models.PageContext, slots []string) error {
	refs := LinkRefs(slots)
	pc.PageLinks = make(map[string]map[uuid.UUID]models.Entity, len(refs))
	for typ, ids := range refs {
		entities, err := b.src.Entities(ctx, typ, ids)
		if err != nil {
			return fmt.Errorf("load %s links: %w", typ, err)
		}
		pc.PageLinks[typ] = entities
	}
	return nil
}

// expandSlots replaces #image and #link tokens in the current entity's
// slots with URLs. Unknown images expand to nothing and unknown links to
// "#".
func (b *Builder) expandSlots(pc *models.PageContext, settings *models.Settings) map[string]string {
	raw := pc.Current.ContentSlots()
	out := make(map[string]string, len(raw))
	for name, s := range raw {
		s = imageTokenRe.ReplaceAllStringFunc(s, func(tok string) string {
			id, err := uuid.Parse(imageTokenRe.FindStringSubmatch(tok)[1])
			if err != nil {
				return ""
			}
			return pc.Images[id].URL
		})
		s = linkTokenRe.ReplaceAllStringFunc(s, func(tok string) string {
			m := linkTokenRe.FindStringSubmatch(tok)
			id, err := uuid.Parse(m[2])
			if err != nil {
				return "#"
			}
			e, ok := pc.PageLinks[m[1]][id]
			if !ok {
				return "#"
			}
			if u := e.URL(settings); u != "" {
				return u
			}
			return "#"
		})
		out[name] = s
	}
	return out
}

func mtimeInputs(pc *models.PageContext, settings *models.Settings, tree *navigation.Tree) change.Inputs {
	in := change.Inputs{
		Current:    pc.Current.Modified(),
		Settings:   settings.UpdatedOn,
		Navigation: tree.Mtime,
	}
	if pc.Parent != nil {
		in.Parent = pc.Parent.UpdatedOn
	}
	if settings.EntityDeletedOn != nil {
		in.Deleted = *settings.EntityDeletedOn
	}
	for _, m := range pc.Images {
		in.Media = append(in.Media, m.UpdatedOn)
	}
	for _, byID := range pc.PageLinks {
		for _, e := range byID {
			in.Links = append(in.Links, e.Modified())
		}
	}
	for _, c := range pc.ChildPages {
		in.Links = append(in.Links, c.UpdatedOn)
	}
	return in
}

// VerboseName turns a model name such as "BlogPost" into "Blog Post".
func VerboseName(model string) string {
	var sb strings.Builder
	runes := []rune(model)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && (unicode.IsLower(runes[i-1]) || i+1 < len(runes) && unicode.IsLower(runes[i+1])) {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// VerboseNamePlural is the English plural of VerboseName.
func VerboseNamePlural(model string) string {
	name := VerboseName(model)
	lower := strings.ToLower(name)
	switch {
	case name == "":
		return ""
	case strings.HasSuffix(lower, "y") && len(lower) > 1 && !strings.ContainsRune("aeiou", rune(lower[len(lower)-2])):
		return name[:len(name)-1] + "ies"
	case strings.HasSuffix(lower, "s"), strings.HasSuffix(lower, "x"),
		strings.HasSuffix(lower, "ch"), strings.HasSuffix(lower, "sh"):
		return name + "es"
	}
	return name + "s"
}
