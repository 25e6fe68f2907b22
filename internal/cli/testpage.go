// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cli

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/spf13/cobra"

	"staticpress/internal/hooks"
)

func newTestPageCommand(o *rootOptions) *cobra.Command {
	var headers bool
	cmd := &cobra.Command{
		Use:   "testpage <url>",
		Short: "Render one URL to stdout without touching the cache",
		Example: `  staticpress testpage /blog/
  staticpress testpage --headers /about-us.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, o)
			if err != nil {
				return err
			}
			defer a.Close()

			// Bypass the page cache so the output is always a fresh render.
			a.pageCache = nil
			env := hooks.Environment{
				Path:    args[0],
				User:    hooks.AnonymousUser,
				Session: map[string]string{},
				Debug:   a.cfg.Debug,
			}
			page, err := a.Public().Render(ctx, args[0], env)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if headers {
				fmt.Fprintf(out, "%d %s\n", page.Status, http.StatusText(page.Status))
				keys := make([]string, 0, len(page.Header))
				for k := range page.Header {
					keys = append(keys, k)
				}
				slices.Sort(keys)
				for _, k := range keys {
					for _, v := range page.Header[k] {
						fmt.Fprintf(out, "%s: %s\n", k, v)
					}
				}
				fmt.Fprintln(out)
			}
			_, err = out.Write(page.Body)
			return err
		},
	}
	cmd.Flags().BoolVarP(&headers, "headers", "H", false, "Print the status line and headers before the body")
	return cmd
}
