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
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tsvalidator/pkg/ux"
)

type batchOptions struct {
	concurrency int
	jsonOutput  bool
}

func newBatchCmd(a *app) *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch <file>...",
		Short: "Validate many snippet files concurrently",
		Long: `Validate each file as an independent snippet. Results are reported in
argument order. A fault while checking one file never affects another.`,
		Args: cobra.MinimumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, a, opts, args)
		}),
	}

	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", runtime.GOMAXPROCS(0), "maximum snippets validated at once")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print results as a JSON array")
	return cmd
}

func runBatch(cmd *cobra.Command, a *app, opts *batchOptions, files []string) error {
	if opts.concurrency < 1 {
		return usageError(fmt.Errorf("--concurrency must be at least 1, got %d", opts.concurrency))
	}

	texts := make([]string, len(files))
	for i, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return usageError(fmt.Errorf("read %s: %w", file, err))
		}
		texts[i] = string(data)
	}

	results := a.newValidator().ValidateBatch(cmd.Context(), texts, opts.concurrency)

	accepted := 0
	for _, r := range results {
		if r.Accepted {
			accepted++
		}
	}
	rejected := len(results) - accepted
	a.logger.Debug("batch finished", "files", len(files), "accepted", accepted, "rejected", rejected)

	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		report := make([]fileResult, len(results))
		for i, r := range results {
			report[i] = fileResult{File: files[i], Result: r}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return usageError(err)
		}
	} else {
		p := ux.NewPrinter(out)
		for i, r := range results {
			printResult(p, files[i], r)
		}
		p.Summary(accepted, rejected, len(results))
	}

	if rejected > 0 {
		return errRejected
	}
	return nil
}
