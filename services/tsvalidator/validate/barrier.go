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
	"fmt"
	"runtime"
)

// stackBufSize bounds the captured stack of a recovered panic.
const stackBufSize = 4096

// FaultError is a panic recovered at an engine call site.
type FaultError struct {
	// Stage names the engine that panicked ("parser" or "semantic").
	Stage string

	// Value is the recovered panic value.
	Value any

	// Stack is the goroutine stack at the time of recovery.
	Stack []byte
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("%s engine panic: %v", e.Stage, e.Value)
}

// protect runs fn and converts a panic into a *FaultError. Nothing the engine
// does escapes the call, and no state is shared with other calls.
func protect[T any](stage string, fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, stackBufSize)
			n := runtime.Stack(buf, false)
			var zero T
			result = zero
			err = &FaultError{Stage: stage, Value: r, Stack: buf[:n]}
		}
	}()
	return fn()
}
