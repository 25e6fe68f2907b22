// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Well-known keys in the site_settings table.
const (
	SettingSiteName        = "site_name"
	SettingHomepage        = "homepage_id"
	SettingContactPage     = "contact_page_id"
	SettingNotFoundPage    = "not_found_page_id"
	SettingEnquiryTemplate = "enquiry_template_id"
	SettingEntityDeletedOn = "entity_deleted_on"
	SettingPageSize        = "page_size"
	SettingMaxPageSize     = "max_page_size"
	SettingPagingPrefix    = "paging:"
	DefaultPageSize        = 10
	DefaultMaxPageSize     = 100
)

// SiteSetting represents a single configuration key-value pair.
type SiteSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SiteSettings is a convenience map for accessing settings by key.
type SiteSettings map[string]string

// Get returns the value for a key, or the fallback if the key doesn't exist.
func (s SiteSettings) Get(key, fallback string) string {
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Settings is the typed view over the site_settings rows used by the
// publishing pipeline.
type Settings struct {
	SiteName          string          `toml:"site_name"`
	HomepageID        *uuid.UUID      `toml:"homepage_id"`
	ContactPageID     *uuid.UUID      `toml:"contact_page_id"`
	NotFoundPageID    *uuid.UUID      `toml:"not_found_page_id"`
	EnquiryTemplateID *uuid.UUID      `toml:"enquiry_template_id"`
	EntityDeletedOn   *time.Time      `toml:"entity_deleted_on"`
	PageSize          int             `toml:"page_size"`
	MaxPageSize       int             `toml:"max_page_size"`
	PagingEnabled     map[string]bool `toml:"paging"`
	UpdatedOn         time.Time       `toml:"updated_on"`
}

// ParseSettings converts raw key/value rows into Settings. Unknown keys are
// ignored and malformed values fall back to their zero value.
func ParseSettings(raw SiteSettings, updatedOn time.Time) *Settings {
	s := &Settings{
		SiteName:      raw.Get(SettingSiteName, "StaticPress"),
		PagingEnabled: make(map[string]bool),
		UpdatedOn:     updatedOn,
	}
	s.HomepageID = parseUUID(raw[SettingHomepage])
	s.ContactPageID = parseUUID(raw[SettingContactPage])
	s.NotFoundPageID = parseUUID(raw[SettingNotFoundPage])
	s.EnquiryTemplateID = parseUUID(raw[SettingEnquiryTemplate])
	if v := raw[SettingEntityDeletedOn]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			s.EntityDeletedOn = &t
		}
	}
	s.PageSize, _ = strconv.Atoi(raw[SettingPageSize])
	s.MaxPageSize, _ = strconv.Atoi(raw[SettingMaxPageSize])
	for k, v := range raw {
		if model, ok := strings.CutPrefix(k, SettingPagingPrefix); ok {
			s.PagingEnabled[model] = v == "true" || v == "1"
		}
	}
	return s
}

func parseUUID(v string) *uuid.UUID {
	if v == "" {
		return nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil
	}
	return &id
}

// IsHomepage reports whether id is the configured homepage.
func (s *Settings) IsHomepage(id uuid.UUID) bool {
	return s != nil && s.HomepageID != nil && *s.HomepageID == id
}

// IsContactPage reports whether id is the configured contact page.
func (s *Settings) IsContactPage(id uuid.UUID) bool {
	return s != nil && s.ContactPageID != nil && *s.ContactPageID == id
}

// IsNotFoundPage reports whether id is the configured 404 page.
func (s *Settings) IsNotFoundPage(id uuid.UUID) bool {
	return s != nil && s.NotFoundPageID != nil && *s.NotFoundPageID == id
}

// IsEnquiryTemplate reports whether id is the configured enquiry template page.
func (s *Settings) IsEnquiryTemplate(id uuid.UUID) bool {
	return s != nil && s.EnquiryTemplateID != nil && *s.EnquiryTemplateID == id
}

// PagingFor reports whether paging is enabled for a child-page model.
func (s *Settings) PagingFor(model string) bool {
	if s == nil || s.PagingEnabled == nil {
		return false
	}
	return s.PagingEnabled[model]
}

// PageSizes returns the effective page size and its upper bound.
func (s *Settings) PageSizes() (size, maxSize int) {
	size, maxSize = DefaultPageSize, DefaultMaxPageSize
	if s == nil {
		return size, maxSize
	}
	if s.MaxPageSize > 0 {
		maxSize = s.MaxPageSize
	}
	if s.PageSize > 0 {
		size = s.PageSize
	}
	if size > maxSize {
		size = maxSize
	}
	return size, maxSize
}
