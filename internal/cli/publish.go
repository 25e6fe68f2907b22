// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPublishCommand(o *rootOptions) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Render every publishable URL into the cache root",
		Long: `Publish walks every page, listing page, child page, custom URL and the 404
page, renders what changed since the last publish and restores the rest.
Files that no longer belong to the site are removed once the run completes.`,
		Example: `  staticpress publish
  staticpress publish -f site.toml --cache-root ./public -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, o)
			if err != nil {
				return err
			}
			defer a.Close()

			sum, err := a.Generator().Publish(ctx, o.verbose)
			if err != nil {
				return fmt.Errorf("publish: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), sum.String())
			if strict && sum.Failed > 0 {
				return fmt.Errorf("publish: %d urls failed", sum.Failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when any URL fails to render")
	return cmd
}
