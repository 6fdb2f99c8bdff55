// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validate

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// ValidateBatch validates every text concurrently and returns the results
// in input order. At most limit validations run at once; limit <= 0 means
// no bound. Each element is an independent validation.
func (v *Validator) ValidateBatch(ctx context.Context, texts []string, limit int) []Result {
	results := make([]Result, len(texts))
	if len(texts) == 0 {
		return results
	}

	g, gCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, text := range texts {
		g.Go(func() error {
			results[i] = v.Validate(gCtx, text)
			return nil // Rejections are results, not errors
		})
	}
	_ = g.Wait()

	v.logger.Debug("batch validated",
		slog.Int("count", len(texts)),
		slog.Int("limit", limit),
	)
	return results
}
