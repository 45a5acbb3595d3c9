// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: display/errors.go
// Summary: Error taxonomy for the display pipeline.

package display

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange reports buffer or reflow access with an invalid
	// index. This is a caller programming error; indices are never clamped.
	ErrIndexOutOfRange = errors.New("display: index out of range")

	// ErrNotFound reports a point query for a physical row that no reflow
	// entry currently covers. This is expected transiently while a resize
	// is in flight; callers retry once the reflow completes.
	ErrNotFound = errors.New("display: no row index entry covers row")

	// ErrReflowInconsistency reports a post-recompute row-count mismatch.
	// The reflow must never produce overlapping or gapped spans; seeing
	// this error means the span arithmetic is broken.
	ErrReflowInconsistency = errors.New("display: reflow row count mismatch")
)

// indexErr wraps ErrIndexOutOfRange with the failing operation and bounds.
func indexErr(op string, i, n int) error {
	return fmt.Errorf("%s: index %d, length %d: %w", op, i, n, ErrIndexOutOfRange)
}
