// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"staticpress/internal/middleware"
	"staticpress/internal/router"
)

// shutdownTimeout bounds how long in-flight renders may take once the
// server is asked to stop.
const shutdownTimeout = 30 * time.Second

func newServeCommand(o *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve URLs missing from the cache root by rendering them on demand",
		Long: `Serve runs the dynamic path behind the front web server. It answers the
URLs the cache root has no file for: unpublished or invalidated pages,
append-slash and legacy redirects, and the 404 page. It also applies
content changes broadcast by other hosts to the local cache root.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, o)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Addr()
			}
			budget := middleware.NewRenderBudget(a.cfg.RateLimit, a.cfg.RateLimitWindow)

			srv := &http.Server{
				Addr:         addr,
				Handler:      router.New(a.Public(), budget),
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  120 * time.Second,
			}

			watchCtx, stopWatch := context.WithCancel(ctx)
			defer stopWatch()
			go func() {
				if err := a.Generator().Watch(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
					slog.Warn("change watcher stopped", "error", err)
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				slog.Info("server starting", "addr", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				slog.Info("shutdown signal received")
			}

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			slog.Info("server stopped gracefully")
			return nil
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default: APP_HOST:APP_PORT)")
	return cmd
}
