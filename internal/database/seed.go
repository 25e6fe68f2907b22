// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

const seedTemplate = `<!doctype html>
<html>
<head><title>{{.settings.SiteName}} | {{.current_page.Title}}</title></head>
<body>
<nav>{{range index .nav "main"}}<a href="{{.URL}}"{{if .Active}} aria-current="page"{{end}}>{{.Label}}</a> {{end}}</nav>
<main>{{markdown (index .slots "body")}}</main>
</body>
</html>`

// Seed creates a starter site when the record store has no pages: a page
// template and a homepage wired into the settings. An existing site is left
// alone.
func Seed(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages").Scan(&count); err != nil {
		return fmt.Errorf("seed check pages: %w", err)
	}
	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO templates (name, type, html_content)
		VALUES ('page', 'page', $1)
		ON CONFLICT (name) DO NOTHING
	`, seedTemplate); err != nil {
		return fmt.Errorf("seed insert template: %w", err)
	}

	home := uuid.New()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO pages (id, slug, title, template_name, visible, nav, slots)
		VALUES ($1, '', 'Home', 'page', TRUE, '["main"]', '{"body": "Welcome."}')
	`, home); err != nil {
		return fmt.Errorf("seed insert homepage: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO site_settings (key, value, updated_at)
		VALUES ('homepage_id', $1, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, home.String()); err != nil {
		return fmt.Errorf("seed homepage setting: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}
	slog.Info("database seeded with starter site", "homepage", home)
	return nil
}
