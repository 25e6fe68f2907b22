// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package paging slices child-page listings into numbered pages and builds
// the URLs that address them: page 1 lives at the listing's own URL, page N
// at <base>page-N/ and the all-records view at <base>all-page-1/.
package paging

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrInvalidPage is returned for page numbers below 1 or past the last page.
var ErrInvalidPage = errors.New("invalid page number")

var componentRe = regexp.MustCompile(`^(all-)?page-(\d+)$`)

// ParseComponent recognizes a pagination path component. ok is false when
// the component is not one; n may still be 0 for "page-0".
func ParseComponent(s string) (n int, all bool, ok bool) {
	m := componentRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		// Too many digits to be a real page.
		return 0, m[1] != "", true
	}
	return n, m[1] != "", true
}

// URL returns the URL of page n of the listing at base, which must end in
// a slash.
func URL(base string, n int, all bool) string {
	if all {
		return base + "all-page-" + strconv.Itoa(max(n, 1)) + "/"
	}
	if n <= 1 {
		return base
	}
	return base + "page-" + strconv.Itoa(n) + "/"
}

// Paginator splits items into pages of a fixed size.
type Paginator[T any] struct {
	items []T
	size  int
}

// New creates a paginator. size is clamped to [1, maxSize].
func New[T any](items []T, size, maxSize int) *Paginator[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	size = min(max(size, 1), maxSize)
	return &Paginator[T]{items: items, size: size}
}

// Size returns the effective page size.
func (p *Paginator[T]) Size() int { return p.size }

// Count returns the number of items.
func (p *Paginator[T]) Count() int { return len(p.items) }

// NumPages returns the number of pages, at least 1.
func (p *Paginator[T]) NumPages() int {
	if len(p.items) == 0 {
		return 1
	}
	return (len(p.items) + p.size - 1) / p.size
}

// Page is one slice of a listing, shaped for templates.
type Page[T any] struct {
	Number      int
	NumPages    int
	All         bool
	Items       []T
	HasNext     bool
	HasPrevious bool
	NextURL     string
	PreviousURL string
	Links       []Link
}

// Link addresses one page of a listing.
type Link struct {
	Number  int
	URL     string
	Current bool
}

// Page returns page n, or every item when all is set. base is the URL of
// the listing.
func (p *Paginator[T]) Page(n int, all bool, base string) (*Page[T], error) {
	num := p.NumPages()
	if n < 1 || n > num {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidPage, n, num)
	}

	pg := &Page[T]{Number: n, NumPages: num, All: all}
	if all {
		pg.Items = p.items
	} else {
		start := (n - 1) * p.size
		end := min(start+p.size, len(p.items))
		pg.Items = p.items[start:end]
		pg.HasPrevious = n > 1
		pg.HasNext = n < num
		if pg.HasPrevious {
			pg.PreviousURL = URL(base, n-1, false)
		}
		if pg.HasNext {
			pg.NextURL = URL(base, n+1, false)
		}
	}
	for i := 1; i <= num; i++ {
		pg.Links = append(pg.Links, Link{Number: i, URL: URL(base, i, false), Current: !all && i == n})
	}
	return pg, nil
}
