// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInvalidateCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate",
		Short: "Mark every published file stale without deleting it",
		Long: `Invalidate hides every published file from the front web server, so
requests fall through to the dynamic path, while keeping a copy the next
publish restores when the page did not change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, o)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Generator().Invalidate(ctx, o.verbose)
			if err != nil {
				return fmt.Errorf("invalidate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d files invalidated.\n", n)
			return nil
		},
	}
}

func newClearCacheCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clearcache",
		Short: "Delete every file in the cache root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, o)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Generator().ClearCache(ctx, o.verbose)
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d files deleted.\n", n)
			return nil
		},
	}
}
