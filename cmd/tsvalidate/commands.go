// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tsvalidator/cmd/tsvalidate/config"
	"github.com/AleutianAI/tsvalidator/pkg/logging"
	"github.com/AleutianAI/tsvalidator/services/tsvalidator/cache"
	"github.com/AleutianAI/tsvalidator/services/tsvalidator/validate"
)

// app holds state shared by subcommands after the root pre-run.
type app struct {
	// global flags
	configPath string
	logLevel   string
	logJSON    bool
	noCache    bool

	cfg    config.Config
	logger *logging.Logger
	store  *cache.ResultStore
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "tsvalidate",
		Short: "Validate TypeScript snippets",
		Long: `tsvalidate decides whether a TypeScript snippet is valid on its own.

A snippet is either a declaration or statement list, or a bare type
expression such as "string | number". Syntax errors and genuine semantic
errors reject the snippet; diagnostics caused only by missing surrounding
context, like unresolved names or modules, are ignored.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default $TSVALIDATOR_CONFIG or ~/.tsvalidator/tsvalidate.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&a.logJSON, "log-json", false, "write logs as JSON")
	flags.BoolVar(&a.noCache, "no-cache", false, "bypass the result cache")

	rootCmd.AddCommand(
		newCheckCmd(a),
		newBatchCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
		newCacheCmd(a),
	)
	return rootCmd
}

// setup loads configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return usageError(err)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if cmd.Flags().Changed("log-json") {
		cfg.Logging.JSON = a.logJSON
	}
	if a.noCache {
		cfg.Cache.Enabled = false
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return usageError(err)
	}
	logger, err := logging.New(logging.Config{
		Level:   level,
		JSON:    cfg.Logging.JSON,
		LogDir:  cfg.Logging.LogDir,
		Service: "tsvalidate",
		Output:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return usageError(err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// run wraps a subcommand so that teardown happens even when it fails.
func (a *app) run(fn func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if cerr := a.teardown(); err == nil {
				err = cerr
			}
		}()
		return fn(cmd, args)
	}
}

func (a *app) teardown() error {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("closing result cache failed", "error", err)
		}
		a.store = nil
	}
	if a.logger == nil {
		return nil
	}
	return a.logger.Close()
}

// newValidator builds a Validator from the loaded config. A cache that
// cannot be opened is logged and skipped.
func (a *app) newValidator(opts ...validate.Option) *validate.Validator {
	base := []validate.Option{validate.WithLogger(a.logger.Slog())}
	if a.cfg.Cache.Enabled {
		store, err := a.openStore()
		if err != nil {
			a.logger.Warn("result cache unavailable", "error", err)
		} else {
			base = append(base, validate.WithCache(store))
		}
	}
	return validate.NewFromConfig(a.cfg.Validator, append(base, opts...)...)
}

// openStore opens the result cache once per process.
func (a *app) openStore() (*cache.ResultStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	cfg := cache.DefaultConfig()
	cfg.Dir = expandHome(a.cfg.Cache.Dir)
	cfg.TTL = a.cfg.Cache.TTL
	cfg.Logger = a.logger.Slog()

	store, err := cache.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open result cache: %w", err)
	}
	a.store = store
	return store, nil
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
