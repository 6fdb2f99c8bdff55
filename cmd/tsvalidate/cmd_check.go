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
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tsvalidator/pkg/ux"
	"github.com/AleutianAI/tsvalidator/services/tsvalidator/validate"
)

// fileResult is one line of --json output.
type fileResult struct {
	File string `json:"file"`
	validate.Result
}

type checkOptions struct {
	source     string
	echo       bool
	jsonOutput bool
	noSemantic bool
}

func newCheckCmd(a *app) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [file|-]",
		Short: "Validate one snippet from a file, stdin, or --source",
		Example: `  tsvalidate check snippet.ts
  echo 'string | number' | tsvalidate check
  tsvalidate check -s 'interface A { b: string }' --echo`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, a, opts, args)
		}),
	}

	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "snippet text instead of a file")
	cmd.Flags().BoolVar(&opts.echo, "echo", false, "print the accepted snippet verbatim to stdout")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&opts.noSemantic, "no-semantic", false, "skip the semantic pass")
	cmd.MarkFlagsMutuallyExclusive("echo", "json")
	return cmd
}

func runCheck(cmd *cobra.Command, a *app, opts *checkOptions, args []string) error {
	name, text, err := readSnippet(cmd, opts, args)
	if err != nil {
		return usageError(err)
	}

	var vopts []validate.Option
	if opts.noSemantic {
		vopts = append(vopts, validate.WithSemanticCheck(false))
	}
	result := a.newValidator(vopts...).Validate(cmd.Context(), text)
	a.logger.Debug("check finished", "file", name, "kind", string(result.Kind))

	out := cmd.OutOrStdout()
	switch {
	case opts.jsonOutput:
		enc := json.NewEncoder(out)
		if err := enc.Encode(fileResult{File: name, Result: result}); err != nil {
			return usageError(err)
		}
	case opts.echo:
		if result.Accepted {
			fmt.Fprint(out, result.Source)
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), result.Error)
		}
	default:
		printResult(ux.NewPrinter(out), name, result)
	}

	if !result.Accepted {
		return errRejected
	}
	return nil
}

// readSnippet resolves the input: --source, a file argument, or stdin.
func readSnippet(cmd *cobra.Command, opts *checkOptions, args []string) (name, text string, err error) {
	if cmd.Flags().Changed("source") {
		if len(args) > 0 {
			return "", "", fmt.Errorf("--source cannot be combined with a file argument")
		}
		return "<source>", opts.source, nil
	}
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return "<stdin>", string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return args[0], string(data), nil
}

// printResult renders one result as a status line.
func printResult(p *ux.Printer, name string, r validate.Result) {
	switch {
	case r.Kind == validate.KindBenignSemanticFault:
		p.Status(ux.IconWarning, name, "accepted, semantic checker unavailable")
	case r.Accepted:
		p.Status(ux.IconSuccess, name, "")
	default:
		p.Status(ux.IconError, name, r.Error)
	}
}
