// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"staticpress/internal/store"
)

// errFixtureDeleted is returned for deletions on fixture sites: the bumped
// entity_deleted_on would die with the process, so the next publish would
// restore pages that still link to the deleted record.
var errFixtureDeleted = errors.New("deletions cannot be recorded on a fixture; remove the record and set entity_deleted_on in the fixture, or run clearcache")

func newChangedCommand(o *rootOptions) *cobra.Command {
	var deleted bool
	cmd := &cobra.Command{
		Use:   "changed <model> <id>",
		Short: "Report an edit made outside staticpress",
		Long: `Changed tells staticpress that a record was created, edited or deleted by
another tool. It logs the change, invalidates the cache root and broadcasts
the change to other hosts. The next publish re-renders what it affected.
Hiding a page is reported as a deletion. Deletions need the database: a
fixture is reloaded on every run, so it must carry entity_deleted_on itself.`,
		Example: `  staticpress changed Page 7d3c1b9e-8a0f-4e55-9c39-3f0d0c2b9b11
  staticpress changed BlogPost 0b6f... --deleted
  staticpress changed Template 5a1e...`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[1], err)
			}
			if deleted && o.fixture != "" {
				return errFixtureDeleted
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, o)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Generator().ContentChanged(ctx, args[0], id, deleted); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s recorded, cache invalidated.\n", args[0], id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&deleted, "deleted", "d", false, "The record was deleted or hidden")
	return cmd
}

func newHistoryCommand(o *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent content changes that invalidated the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.fixture != "" {
				return errors.New("history needs the database; fixtures keep no change log")
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, o)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.records.CacheLog.RecentEntries(ctx, limit)
			if err != nil {
				return err
			}
			writeHistory(cmd.OutOrStdout(), entries, time.Now())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

func writeHistory(w io.Writer, entries []store.CacheLogEntry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No content changes recorded.")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"When", "Action", "Model", "ID"})
	for _, e := range entries {
		t.AppendRow(table.Row{humanize.RelTime(e.InvalidatedAt, now, "ago", "from now"), e.Action, e.EntityType, e.EntityID})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
