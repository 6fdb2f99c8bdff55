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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// cacheKeyVersion changes whenever the pipeline can produce a different
// result for the same input and options.
const cacheKeyVersion = "v2"

// ResultCache stores results keyed by CacheKey.
//
// Implementations must be safe for concurrent use. Get misses and Put
// failures are not errors; the validator just recomputes.
type ResultCache interface {
	Get(ctx context.Context, key string) (Result, bool)
	Put(ctx context.Context, key string, r Result)
}

// cacheKey hashes text together with every option that affects the result.
func (v *Validator) cacheKey(text string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|%d|%d|%t|%s\x00",
		cacheKeyVersion,
		v.cfg.MaxInputSize,
		v.cfg.ParseTimeout,
		v.cfg.MaxErrors,
		v.cfg.MaxDepth,
		v.semantic,
		v.parser.Language(),
	)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// cacheable excludes outcomes that depend on engine health rather than input.
func cacheable(kind Kind) bool {
	switch kind {
	case KindEngineFault, KindBenignSemanticFault:
		return false
	default:
		return true
	}
}
