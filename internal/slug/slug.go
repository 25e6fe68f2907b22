// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns titles and model names into URL path components.
package slug

import (
	"strings"
	"unicode"
)

// Generate creates a URL-friendly slug: ASCII letters and digits are kept
// lowercased, runs of whitespace and hyphens become a single hyphen, and
// everything else is dropped.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	var sb strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if hyphen && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			hyphen = false
			sb.WriteRune(r)
		case r == '-', unicode.IsSpace(r):
			hyphen = true
		}
	}
	return sb.String()
}

// Section turns a model or section name into a slug, splitting CamelCase
// words first: "BlogPost" → "blog-post", "FAQEntry" → "faq-entry".
func Section(name string) string {
	var sb strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && (unicode.IsLower(runes[i-1]) || i+1 < len(runes) && unicode.IsLower(runes[i+1])) {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
	}
	return Generate(sb.String())
}

// Valid reports whether s is a non-empty slug Generate would return
// unchanged.
func Valid(s string) bool {
	return s != "" && Generate(s) == s
}
