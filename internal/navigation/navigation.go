// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package navigation builds the navigation trees rendered into every page.
// A tree is built once per publish and shared by every URL; the active
// page is marked per URL by Activate, which only touches the nodes on the
// path from the active page to its root.
package navigation

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"staticpress/internal/models"
)

// Node is one entry in a navigation tree.
type Node struct {
	ID          uuid.UUID
	Identifier  string
	Title       string
	Slug        string
	PageTitle   string
	NavTitle    string
	URL         string
	Excerpt     string
	Active      bool
	ActiveChild bool
	Depth       int

	Children        []*Node
	AggregatedPages []*models.ChildPage
	NavImage        *models.Media

	Parent *Node
	Prev   *Node
	Next   *Node
}

// Label returns the navigation title, falling back to the page title.
func (n *Node) Label() string {
	if n.NavTitle != "" {
		return n.NavTitle
	}
	return n.Title
}

// Tree is the navigation of the whole site.
type Tree struct {
	// ByBar holds the root nodes of each navigation bar.
	ByBar map[string][]*Node
	// Roots holds the root nodes of the full page tree, bars aside.
	Roots []*Node
	// Pages lists every visible page in model order.
	Pages []*Node
	// Identified maps page identifiers to their node in the full tree.
	Identified map[string]*Node
	// Mtime is the latest modification among the navigable pages, their
	// aggregated child pages and nav images, hidden pages included so that
	// hiding a page still moves it.
	Mtime time.Time

	byID    map[uuid.UUID][]*Node
	full    map[uuid.UUID]*Node
	touched []*Node
}

// Inputs are the records a tree is built from.
type Inputs struct {
	// Pages is every page, visible or not.
	Pages    []*models.Page
	Settings *models.Settings
	// Aggregated lists child pages shown under a navigation entry, keyed
	// by page id.
	Aggregated map[uuid.UUID][]*models.ChildPage
	// Images holds navigation images keyed by media id.
	Images map[uuid.UUID]models.Media
}

// Build constructs the navigation tree. Pages are visible when they and
// all their ancestors are visible and enabled.
func Build(in Inputs) *Tree {
	t := &Tree{
		ByBar:      make(map[string][]*Node),
		Identified: make(map[string]*Node),
		byID:       make(map[uuid.UUID][]*Node),
		full:       make(map[uuid.UUID]*Node),
	}

	byID := make(map[uuid.UUID]*models.Page, len(in.Pages))
	for _, p := range in.Pages {
		byID[p.ID] = p
		if !navigable(p) {
			continue
		}
		t.Mtime = latest(t.Mtime, p.UpdatedOn)
		for _, c := range in.Aggregated[p.ID] {
			t.Mtime = latest(t.Mtime, c.UpdatedOn)
		}
	}

	visible := make([]*models.Page, 0, len(in.Pages))
	for _, p := range in.Pages {
		if isVisible(p, byID) {
			visible = append(visible, p)
		}
	}
	slices.SortStableFunc(visible, func(a, b *models.Page) int {
		return cmp.Or(cmp.Compare(a.Seq, b.Seq), cmp.Compare(a.ID.String(), b.ID.String()))
	})

	newNode := func(p *models.Page) *Node {
		n := &Node{
			ID:              p.ID,
			Identifier:      p.Identifier,
			Title:           p.Title,
			Slug:            p.Slug,
			PageTitle:       p.PageTitle,
			NavTitle:        p.NavTitle,
			URL:             p.URL(in.Settings),
			Excerpt:         p.Excerpt,
			AggregatedPages: in.Aggregated[p.ID],
		}
		if p.NavImageID != nil {
			if img, ok := in.Images[*p.NavImageID]; ok {
				n.NavImage = &img
				if navigable(p) {
					t.Mtime = latest(t.Mtime, img.UpdatedOn)
				}
			}
		}
		t.byID[p.ID] = append(t.byID[p.ID], n)
		return n
	}

	// Full tree.
	for _, p := range visible {
		n := newNode(p)
		t.full[p.ID] = n
		t.Pages = append(t.Pages, n)
		if p.Identifier != "" {
			t.Identified[p.Identifier] = n
		}
	}
	t.Roots = link(visible, t.full)

	// One tree per bar.
	bars := make(map[string]bool)
	for _, p := range visible {
		for _, bar := range p.Nav {
			bars[bar] = true
		}
	}
	for bar := range bars {
		nodes := make(map[uuid.UUID]*Node)
		var members []*models.Page
		for _, p := range visible {
			if p.InNav(bar) {
				nodes[p.ID] = newNode(p)
				members = append(members, p)
			}
		}
		t.ByBar[bar] = link(members, nodes)
	}

	return t
}

// link wires parent/child pointers among nodes and returns the roots.
// A page whose parent is not a member becomes a root.
func link(members []*models.Page, nodes map[uuid.UUID]*Node) []*Node {
	var roots []*Node
	for _, p := range members {
		n := nodes[p.ID]
		if p.ParentID != nil {
			if parent, ok := nodes[*p.ParentID]; ok {
				n.Parent = parent
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	setDepth(roots, 0)
	linkSiblings(roots)
	return roots
}

func setDepth(nodes []*Node, depth int) {
	for _, n := range nodes {
		n.Depth = depth
		setDepth(n.Children, depth+1)
	}
}

// linkSiblings injects prev/next pointers at every level.
func linkSiblings(nodes []*Node) {
	for i, n := range nodes {
		n.Prev, n.Next = nil, nil
		if i > 0 {
			n.Prev = nodes[i-1]
		}
		if i < len(nodes)-1 {
			n.Next = nodes[i+1]
		}
		linkSiblings(n.Children)
	}
}

func isVisible(p *models.Page, byID map[uuid.UUID]*models.Page) bool {
	seen := make(map[uuid.UUID]bool)
	for p != nil {
		if seen[p.ID] || !p.IsPublishable() {
			return false
		}
		seen[p.ID] = true
		if p.ParentID == nil {
			return true
		}
		p = byID[*p.ParentID]
	}
	return false
}

// Activate marks id as the active page, clearing the previous activation.
// It returns the active node of the full tree, or nil when id is not a
// visible page. A tree must not be activated concurrently.
func (t *Tree) Activate(id uuid.UUID) *Node {
	for _, n := range t.touched {
		n.Active = false
		n.ActiveChild = false
	}
	t.touched = t.touched[:0]

	for _, n := range t.byID[id] {
		n.Active = true
		t.touched = append(t.touched, n)
		for p := n.Parent; p != nil; p = p.Parent {
			p.ActiveChild = true
			t.touched = append(t.touched, p)
		}
	}
	return t.full[id]
}

// Node returns the full-tree node of a page.
func (t *Tree) Node(id uuid.UUID) *Node {
	return t.full[id]
}

// Fingerprint identifies a page set for memoization: two page sets with the
// same ids, parents, placement and modification times build the same tree.
func Fingerprint(pages []*models.Page) string {
	h := sha256.New()
	for _, p := range pages {
		h.Write(p.ID[:])
		if p.ParentID != nil {
			h.Write(p.ParentID[:])
		}
		h.Write([]byte(strconv.FormatInt(p.UpdatedOn.UnixNano(), 10)))
		h.Write([]byte(strconv.FormatBool(p.IsPublishable())))
		for _, bar := range p.Nav {
			h.Write([]byte(bar))
			h.Write([]byte{0})
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// navigable reports whether a page shows up in navigation: it is placed
// in a bar or carries an identifier.
func navigable(p *models.Page) bool {
	return len(p.Nav) > 0 || p.Identifier != ""
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
