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
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tsvalidator/pkg/ux"
)

func newWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <file>...",
		Short: "Revalidate snippet files whenever they change",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, files []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, a, files, debounce)
		}),
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 100*time.Millisecond, "delay before revalidating after a change")
	return cmd
}

// runWatch validates every file once, then again after each change, until
// ctx is done.
func runWatch(ctx context.Context, cmd *cobra.Command, a *app, files []string, debounce time.Duration) error {
	v := a.newValidator()
	p := ux.NewPrinter(cmd.OutOrStdout())

	names := make(map[string]string, len(files))
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return usageError(err)
		}
		names[abs] = file
	}

	var mu sync.Mutex
	check := func(path string) {
		name := names[path]
		data, err := os.ReadFile(path)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			p.Status(ux.IconWarning, name, err.Error())
			return
		}
		printResult(p, name, v.Validate(ctx, string(data)))
	}

	for _, file := range files {
		abs, _ := filepath.Abs(file)
		check(abs)
	}

	w, err := newFileWatcher(files, debounce, check)
	if err != nil {
		return usageError(err)
	}
	a.logger.Info("watching files", "count", len(files))
	return w.run(ctx)
}
