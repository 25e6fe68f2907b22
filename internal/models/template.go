// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// KindTemplate is the model name reported in change notifications for
// template edits.
const KindTemplate = "Template"

// TemplateType categorizes templates by their role in page composition.
type TemplateType string

const (
	// TemplateTypePage renders a full page or child page.
	TemplateTypePage TemplateType = "page"
	// TemplateTypePartial is parsed into every page template so pages can
	// call {{template "<name>" .}}.
	TemplateTypePartial TemplateType = "partial"
)

// Template is a named Go html/template stored alongside the content. Pages
// reference templates by Name.
type Template struct {
	ID          uuid.UUID    `json:"id" toml:"id"`
	Name        string       `json:"name" toml:"name"`
	Type        TemplateType `json:"type" toml:"type"`
	HTMLContent string       `json:"html_content" toml:"html"`
	Version     int          `json:"version" toml:"version"`
	UpdatedAt   time.Time    `json:"updated_at" toml:"updated_at"`
}
