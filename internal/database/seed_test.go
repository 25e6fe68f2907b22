// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"testing"
)

func TestSeedIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := Connect(ctx, testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Seed only writes into an empty site, so calling it twice is safe even
	// when other packages share the database.
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	var pages int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages").Scan(&pages); err != nil {
		t.Fatalf("count pages: %v", err)
	}
	if pages < 1 {
		t.Errorf("expected at least 1 page, got %d", pages)
	}

	var home string
	if err := db.QueryRowContext(ctx, "SELECT value FROM site_settings WHERE key = 'homepage_id'").Scan(&home); err != nil {
		t.Fatalf("homepage setting: %v", err)
	}
	if home == "" {
		t.Error("homepage_id should be set")
	}
}
