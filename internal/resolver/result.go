// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package resolver

import "staticpress/internal/models"

// Result is one of Resolved, Redirect or NotFound.
type Result interface {
	result()
}

// Resolved carries the page context of a URL that renders content.
type Resolved struct {
	Context *models.PageContext
}

// RedirectKind tells why a redirect was produced.
type RedirectKind int

const (
	// AppendSlash redirects a content URL to its slash-terminated form.
	AppendSlash RedirectKind = iota
	// Legacy redirects a historical URL to the entity that replaced it.
	Legacy
	// Canonical redirects an alias, such as page-1, to the canonical URL.
	Canonical
)

func (k RedirectKind) String() string {
	switch k {
	case AppendSlash:
		return "append-slash"
	case Legacy:
		return "legacy"
	case Canonical:
		return "canonical"
	}
	return "unknown"
}

// Redirect is a permanent redirect. It is never cached.
type Redirect struct {
	Kind RedirectKind
	URL  string
}

// Reason tells why a URL did not resolve.
type Reason int

const (
	NoMatch Reason = iota
	HomepageNotDefined
	TooManyComponents
	NotFoundPage
	NoChildModel
	InvisibleParent
	Orphan
	PaginationUnsupported
	PageOutOfRange
	MalformedURL
)

var reasonNames = map[Reason]string{
	NoMatch:               "no matching page",
	HomepageNotDefined:    "homepage not defined",
	TooManyComponents:     "too many path components",
	NotFoundPage:          "the 404 page is not addressable",
	NoChildModel:          "page has no child pages",
	InvisibleParent:       "parent page is not visible",
	Orphan:                "child page has no parent",
	PaginationUnsupported: "page is not paginated",
	PageOutOfRange:        "page number out of range",
	MalformedURL:          "malformed url",
}

func (r Reason) String() string {
	if s, ok := reasonNames[r]; ok {
		return s
	}
	return "unknown"
}

// NotFound means nothing renders at the URL.
type NotFound struct {
	Reason Reason
}

func (Resolved) result() {}
func (Redirect) result() {}
func (NotFound) result() {}
