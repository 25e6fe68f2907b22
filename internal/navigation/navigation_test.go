// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package navigation

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"staticpress/internal/models"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type site struct {
	pages    []*models.Page
	bySlug   map[string]*models.Page
	settings *models.Settings
}

func (s *site) add(slug string, seq int, parent string, nav ...string) *models.Page {
	p := &models.Page{
		ID:        uuid.New(),
		Slug:      slug,
		Title:     "Title " + slug,
		Visible:   true,
		Seq:       seq,
		Nav:       nav,
		UpdatedOn: t0,
	}
	if parent != "" {
		p.ParentID = &s.bySlug[parent].ID
	}
	s.pages = append(s.pages, p)
	s.bySlug[slug] = p
	return p
}

func newSite() *site {
	s := &site{bySlug: map[string]*models.Page{}, settings: &models.Settings{}}
	home := s.add("home", 0, "", "main")
	s.settings.HomepageID = &home.ID
	s.add("about", 2, "", "main", "footer")
	s.add("team", 1, "about", "main")
	s.add("history", 2, "about", "main")
	s.add("legal", 5, "", "footer")
	return s
}

func labels(nodes []*Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Slug)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuildGroupsByBar(t *testing.T) {
	s := newSite()
	tree := Build(Inputs{Pages: s.pages, Settings: s.settings})

	if got := labels(tree.ByBar["main"]); !equal(got, []string{"home", "about"}) {
		t.Errorf("main roots = %v", got)
	}
	about := tree.ByBar["main"][1]
	if got := labels(about.Children); !equal(got, []string{"team", "history"}) {
		t.Errorf("about children = %v", got)
	}
	if got := labels(tree.ByBar["footer"]); !equal(got, []string{"about", "legal"}) {
		t.Errorf("footer roots = %v", got)
	}
	if len(tree.ByBar["footer"][0].Children) != 0 {
		t.Error("children not in the footer bar must not appear under it")
	}
	if tree.ByBar["main"][0].URL != "/" {
		t.Errorf("homepage URL = %q", tree.ByBar["main"][0].URL)
	}
	if about.Children[0].Depth != 1 {
		t.Errorf("depth = %d", about.Children[0].Depth)
	}
	if len(tree.Pages) != 5 {
		t.Errorf("flat pages = %d", len(tree.Pages))
	}
}

func TestBuildPrevNext(t *testing.T) {
	s := newSite()
	tree := Build(Inputs{Pages: s.pages, Settings: s.settings})

	main := tree.ByBar["main"]
	if main[0].Prev != nil || main[0].Next != main[1] {
		t.Error("root level prev/next wrong")
	}
	team, history := main[1].Children[0], main[1].Children[1]
	if team.Next != history || history.Prev != team || history.Next != nil {
		t.Error("child level prev/next wrong")
	}
}

func TestBuildHiddenAncestorHidesSubtree(t *testing.T) {
	s := newSite()
	s.bySlug["about"].Disabled = true
	s.bySlug["team"].UpdatedOn = t0.Add(time.Hour)

	tree := Build(Inputs{Pages: s.pages, Settings: s.settings})
	if got := labels(tree.ByBar["main"]); !equal(got, []string{"home"}) {
		t.Errorf("main = %v", got)
	}
	if tree.Node(s.bySlug["team"].ID) != nil {
		t.Error("team must be hidden with its parent")
	}
	if !tree.Mtime.Equal(t0.Add(time.Hour)) {
		t.Errorf("Mtime must include hidden pages, got %v", tree.Mtime)
	}
}

func TestBuildIdentifiedPagesOutsideBars(t *testing.T) {
	s := newSite()
	contact := s.add("contact", 9, "")
	contact.Identifier = "contact"

	tree := Build(Inputs{Pages: s.pages, Settings: s.settings})
	n := tree.Identified["contact"]
	if n == nil || n.URL != "/contact/" {
		t.Fatalf("identified node = %+v", n)
	}
}

func TestActivateOverlay(t *testing.T) {
	s := newSite()
	tree := Build(Inputs{Pages: s.pages, Settings: s.settings})

	active := tree.Activate(s.bySlug["team"].ID)
	if active == nil || !active.Active {
		t.Fatal("active node not marked")
	}
	main := tree.ByBar["main"]
	about, team := main[1], main[1].Children[0]
	if !team.Active || !about.ActiveChild || about.Active {
		t.Error("bar tree not marked along the active path")
	}
	if main[0].Active || main[0].ActiveChild {
		t.Error("unrelated node marked")
	}

	tree.Activate(s.bySlug["home"].ID)
	if team.Active || about.ActiveChild {
		t.Error("previous activation not cleared")
	}
	if !main[0].Active {
		t.Error("home not active")
	}

	if tree.Activate(uuid.New()) != nil {
		t.Error("unknown id must return nil")
	}
	if main[0].Active {
		t.Error("activation not cleared for unknown id")
	}
}

func TestBuildMtimeIncludesAggregatedAndImages(t *testing.T) {
	s := newSite()
	img := models.Media{ID: uuid.New(), UpdatedOn: t0.Add(2 * time.Hour)}
	s.bySlug["about"].NavImageID = &img.ID
	child := &models.ChildPage{ID: uuid.New(), UpdatedOn: t0.Add(3 * time.Hour)}

	tree := Build(Inputs{
		Pages:      s.pages,
		Settings:   s.settings,
		Images:     map[uuid.UUID]models.Media{img.ID: img},
		Aggregated: map[uuid.UUID][]*models.ChildPage{s.bySlug["about"].ID: {child}},
	})
	if !tree.Mtime.Equal(t0.Add(3 * time.Hour)) {
		t.Errorf("Mtime = %v", tree.Mtime)
	}
	about := tree.Node(s.bySlug["about"].ID)
	if about.NavImage == nil || about.NavImage.ID != img.ID {
		t.Error("nav image not attached")
	}
	if len(about.AggregatedPages) != 1 {
		t.Error("aggregated pages not attached")
	}
}

func TestFingerprint(t *testing.T) {
	s := newSite()
	a := Fingerprint(s.pages)
	if a != Fingerprint(s.pages) {
		t.Error("fingerprint not stable")
	}
	s.bySlug["legal"].UpdatedOn = t0.Add(time.Minute)
	if a == Fingerprint(s.pages) {
		t.Error("fingerprint must change with updated_on")
	}
}

func TestLabel(t *testing.T) {
	n := &Node{Title: "About us"}
	if n.Label() != "About us" {
		t.Error("fallback to title")
	}
	n.NavTitle = "About"
	if n.Label() != "About" {
		t.Error("nav title preferred")
	}
}

func TestBuildMtimeIgnoresPagesOutsideNavigation(t *testing.T) {
	s := newSite()
	orphan := s.add("landing", 9, "")
	orphan.UpdatedOn = t0.Add(5 * time.Hour)

	tree := Build(Inputs{Pages: s.pages, Settings: s.settings})
	if !tree.Mtime.Equal(t0) {
		t.Errorf("Mtime = %v, want %v", tree.Mtime, t0)
	}
	if tree.Node(orphan.ID) == nil {
		t.Error("pages outside bars still belong to the full tree")
	}
}
