// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Media represents an image or document referenced from content slots.
// The file itself lives in object storage; URL is filled in by the
// template context builder when storage is configured.
type Media struct {
	ID          uuid.UUID `json:"id" toml:"id"`
	Filename    string    `json:"filename" toml:"filename"`
	ContentType string    `json:"content_type" toml:"content_type"`
	SizeBytes   int64     `json:"size_bytes" toml:"size_bytes"`
	S3Key       string    `json:"s3_key" toml:"s3_key"`
	AltText     string    `json:"alt_text,omitempty" toml:"alt_text"`
	Width       int       `json:"width" toml:"width"`
	Height      int       `json:"height" toml:"height"`
	UpdatedOn   time.Time `json:"updated_on" toml:"updated_on"`

	URL string `json:"url,omitempty" toml:"url"`
}

// IsImage returns true if the media item is an image type.
func (m *Media) IsImage() bool {
	return strings.HasPrefix(m.ContentType, "image/")
}
