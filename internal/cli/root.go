// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package cli implements the staticpress command line: publishing the site
// into the cache root, invalidating and clearing it, serving the dynamic
// path and rendering single URLs for debugging.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"staticpress/internal/config"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	fixture    string
	cacheRoot  string
	verbose    bool

	cfg *config.Config
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "staticpress",
		Short: "Publish a CMS site as static files",
		Long: `StaticPress renders every page of a site into static HTML files under a
cache root that a front web server serves directly. Unchanged pages are kept
between publishes; URLs missing from the cache root are rendered on demand by
the serve command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd.ErrOrStderr(), opts.verbose)
			return opts.load()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "TOML config file (default: $"+config.ConfigEnv+")")
	cmd.PersistentFlags().StringVarP(&opts.fixture, "fixture", "f", "", "Read site content from a TOML fixture instead of the database")
	cmd.PersistentFlags().StringVar(&opts.cacheRoot, "cache-root", "", "Override the cache root directory")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")

	cmd.AddCommand(
		newPublishCommand(opts),
		newInvalidateCommand(opts),
		newClearCacheCommand(opts),
		newServeCommand(opts),
		newTestPageCommand(opts),
		newChangedCommand(opts),
		newHistoryCommand(opts),
	)
	return cmd
}

// Execute runs the command line until ctx is cancelled.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (o *rootOptions) load() error {
	if o.configPath != "" {
		if err := os.Setenv(config.ConfigEnv, o.configPath); err != nil {
			return err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if o.cacheRoot != "" {
		cfg.CacheRoot = o.cacheRoot
	}
	o.cfg = cfg
	slog.Debug("configuration loaded", "env", cfg.Env, "cache_root", cfg.CacheRoot, "fixture", o.fixture)
	return nil
}

// setupLogging routes slog through a charmbracelet/log handler.
func setupLogging(w io.Writer, verbose bool) {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	slog.SetDefault(slog.New(logger))
}
