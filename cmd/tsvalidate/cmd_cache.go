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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/tsvalidator/pkg/ux"
)

func newCacheCmd(a *app) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the result cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Print the number of cached results",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return usageError(err)
			}
			n, err := store.Len()
			if err != nil {
				return usageError(err)
			}
			ux.NewPrinter(cmd.OutOrStdout()).Status(ux.IconArrow, expandHome(a.cfg.Cache.Dir), fmt.Sprintf("%d entries", n))
			return nil
		}),
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete every cached result",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return usageError(err)
			}
			if err := store.Purge(); err != nil {
				return usageError(err)
			}
			ux.NewPrinter(cmd.OutOrStdout()).Status(ux.IconSuccess, expandHome(a.cfg.Cache.Dir), "purged")
			return nil
		}),
	})

	return cacheCmd
}
