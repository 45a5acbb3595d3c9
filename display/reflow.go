// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: display/reflow.go
// Summary: ReflowIndex maps logical lines to contiguous physical-row spans.
//
// Architecture:
//
//	ReflowIndex is index-parallel to the ScrollbackBuffer: position i in
//	the index IS logical line i. Each entry records the inclusive span
//	[StartIndex, EndIndex] of physical rows the line occupies at the
//	current width. Retained entries partition [0, RowCount()) exactly:
//	StartIndex(i+1) == EndIndex(i)+1, no gap, no overlap.
//
//	ChangeLineLength is the full O(n) recompute run after a width change.
//	Point updates (Push, AddRowToLine, SetLineLength) keep the partition
//	intact between recomputes without a full pass.
//
//	Span arithmetic, fixed here once: a line covering sigLen significant
//	cells at width w occupies rows = max(1, ceil(sigLen/w)) rows, and
//	EndIndex = StartIndex + rows - 1.

package display

import (
	"fmt"
	"log"
	"sort"
)

// RowIndex records the physical-row span a logical line currently
// occupies. CachedLength optionally holds precise significant-length
// samples observed since the last reflow; the newest sample takes
// priority over recomputing the length from raw cell content, and the
// reflow that consumes the samples discards them.
type RowIndex struct {
	LineIndex    int
	StartIndex   int
	EndIndex     int
	CachedLength []int
}

// Rows returns the number of physical rows in the span.
func (r RowIndex) Rows() int {
	return r.EndIndex - r.StartIndex + 1
}

// Contains reports whether the span covers the given physical row.
func (r RowIndex) Contains(row int) bool {
	return row >= r.StartIndex && row <= r.EndIndex
}

// ReflowIndex maintains the logical-line to physical-row mapping.
// Not safe for concurrent use; owned by one terminal session alongside
// its ScrollbackBuffer.
type ReflowIndex struct {
	entries []RowIndex

	// totalRows caches the span sum so RowCount is O(1). Every mutation
	// keeps it in sync; ChangeLineLength re-derives and cross-checks it.
	totalRows int

	// debugLog is an optional logging hook.
	debugLog func(format string, args ...interface{})
}

// NewReflowIndex creates an empty reflow index.
func NewReflowIndex() *ReflowIndex {
	return &ReflowIndex{entries: make([]RowIndex, 0)}
}

// SetDebugLog installs an optional debug logging function.
func (ri *ReflowIndex) SetDebugLog(fn func(format string, args ...interface{})) {
	ri.debugLog = fn
}

// Len returns the number of tracked entries.
func (ri *ReflowIndex) Len() int {
	return len(ri.entries)
}

// RowCount returns the number of physical rows currently addressed: the
// sum of all span sizes.
func (ri *ReflowIndex) RowCount() int {
	return ri.totalRows
}

// Push appends the entry for a newly pushed logical line: LineIndex one
// past the previous entry's, a single-row span immediately following the
// previous span, pending the next reflow.
func (ri *ReflowIndex) Push(line *Line) {
	_ = line // content is sampled later via SetLineLength or reflow

	entry := RowIndex{}
	if n := len(ri.entries); n > 0 {
		prev := ri.entries[n-1]
		entry.LineIndex = prev.LineIndex + 1
		entry.StartIndex = prev.EndIndex + 1
	}
	entry.EndIndex = entry.StartIndex
	ri.entries = append(ri.entries, entry)
	ri.totalRows++
}

// Pop removes the newest entry.
func (ri *ReflowIndex) Pop() error {
	n := len(ri.entries)
	if n == 0 {
		return indexErr("ReflowIndex.Pop", 0, 0)
	}
	ri.totalRows -= ri.entries[n-1].Rows()
	ri.entries = ri.entries[:n-1]
	return nil
}

// TrimStart drops the oldest count entries and rebases the remaining
// spans so the first retained entry starts at physical row 0.
func (ri *ReflowIndex) TrimStart(count int) error {
	if count < 0 || count > len(ri.entries) {
		return indexErr("ReflowIndex.TrimStart", count, len(ri.entries))
	}
	if count == 0 {
		return nil
	}

	dropped := 0
	for i := 0; i < count; i++ {
		dropped += ri.entries[i].Rows()
	}

	remaining := len(ri.entries) - count
	copy(ri.entries, ri.entries[count:])
	ri.entries = ri.entries[:remaining]

	for i := range ri.entries {
		ri.entries[i].StartIndex -= dropped
		ri.entries[i].EndIndex -= dropped
	}
	ri.totalRows -= dropped
	return nil
}

// GetRow returns the entry for the logical line at position i.
func (ri *ReflowIndex) GetRow(i int) (RowIndex, error) {
	if i < 0 || i >= len(ri.entries) {
		return RowIndex{}, indexErr("ReflowIndex.GetRow", i, len(ri.entries))
	}
	return ri.entries[i], nil
}

// GetRowIndex returns the entry whose span contains the given physical
// row, plus its logical position. Fails with ErrNotFound when no span
// covers the row; this is expected transiently while a resize is in
// flight, and callers treat it as a retry condition.
func (ri *ReflowIndex) GetRowIndex(row int) (RowIndex, int, error) {
	if row < 0 || row >= ri.totalRows || len(ri.entries) == 0 {
		return RowIndex{}, 0, fmt.Errorf("row %d of %d: %w", row, ri.totalRows, ErrNotFound)
	}

	// Spans are sorted and contiguous, so binary search on EndIndex finds
	// the one candidate in O(log n).
	i := sort.Search(len(ri.entries), func(j int) bool {
		return ri.entries[j].EndIndex >= row
	})
	if i >= len(ri.entries) || !ri.entries[i].Contains(row) {
		return RowIndex{}, 0, fmt.Errorf("row %d of %d: %w", row, ri.totalRows, ErrNotFound)
	}
	return ri.entries[i], i, nil
}

// RelativeCharPosition maps a column within a physical row back to the
// character offset inside the unwrapped logical line covering that row:
// (row - span.StartIndex) * width + charIndex. Returns the offset and the
// logical position of the covering line.
func (ri *ReflowIndex) RelativeCharPosition(row, charIndex, width int) (offset, logical int, err error) {
	entry, pos, err := ri.GetRowIndex(row)
	if err != nil {
		return 0, 0, err
	}
	if width <= 0 {
		width = DefaultWidth
	}
	return (row-entry.StartIndex)*width + charIndex, pos, nil
}

// AddRowToLine grows the line covering the given physical row by one row
// and shifts every later span by +1 to keep the partition contiguous.
// Used for incremental single-row growth without a full recompute.
func (ri *ReflowIndex) AddRowToLine(row int) error {
	_, pos, err := ri.GetRowIndex(row)
	if err != nil {
		return err
	}

	ri.entries[pos].EndIndex++
	for i := pos + 1; i < len(ri.entries); i++ {
		ri.entries[i].StartIndex++
		ri.entries[i].EndIndex++
	}
	ri.totalRows++
	return nil
}

// SetLineLength records a precise significant-length sample for the line
// at logical position i. Samples accumulate until the next full reflow
// consumes them; the newest sample reflects the last edit and wins.
func (ri *ReflowIndex) SetLineLength(i, length, width int) error {
	if i < 0 || i >= len(ri.entries) {
		return indexErr("ReflowIndex.SetLineLength", i, len(ri.entries))
	}
	if length < 1 {
		length = 1
	}
	ri.entries[i].CachedLength = append(ri.entries[i].CachedLength, length)
	if ri.debugLog != nil {
		ri.debugLog("Reflow: line %d length sample %d (%d rows at width %d)",
			ri.entries[i].LineIndex, length, rowsFor(length, width), width)
	}
	return nil
}

// rowsFor computes the physical rows a line of sigLen cells occupies at
// the given width: max(1, ceil(sigLen/width)).
func rowsFor(sigLen, width int) int {
	if width <= 0 {
		width = DefaultWidth
	}
	rows := (sigLen + width - 1) / width
	if rows < 1 {
		rows = 1
	}
	return rows
}

// ChangeLineLength fully recomputes every span for the given width.
//
// For each retained logical line the significant length is the newest
// cached sample when any exist, else the live content length with
// trailing blanks stripped (minimum one cell). The consuming recompute
// discards the samples: each one measured the stored content at write
// time, so the next recompute reads the live content and lays out
// identically — lines that shrank shrink their spans too. Entries beyond
// the live buffer (orphaned mid-trim) keep their row count but shift to
// stay contiguous.
//
// Returns ErrReflowInconsistency if the resulting spans fail to partition
// [0, RowCount()) exactly; that signals an arithmetic bug, never a caller
// error. The caller must not mutate the buffer while this runs.
func (ri *ReflowIndex) ChangeLineLength(buf *ScrollbackBuffer, width int) error {
	if width <= 0 {
		width = DefaultWidth
	}

	live := 0
	if buf != nil {
		live = buf.Len()
	}

	expected := 0
	next := 0
	for i := range ri.entries {
		e := &ri.entries[i]

		var rows int
		if i < live {
			var sig int
			if len(e.CachedLength) > 0 {
				sig = e.CachedLength[len(e.CachedLength)-1]
				e.CachedLength = nil
			} else {
				line, err := buf.Get(i)
				if err != nil {
					return fmt.Errorf("reflow at line %d: %w", i, err)
				}
				sig = line.SignificantLength()
			}
			rows = rowsFor(sig, width)
		} else {
			// Orphaned entry: no live line to measure, keep its row count.
			rows = e.Rows()
		}

		e.StartIndex = next
		e.EndIndex = next + rows - 1
		next += rows
		expected += rows
	}
	ri.totalRows = next

	if err := ri.checkPartition(expected); err != nil {
		log.Printf("Reflow: recompute at width %d inconsistent: %v", width, err)
		return err
	}
	return nil
}

// checkPartition verifies the partition invariant: adjacent spans with no
// gap or overlap, starting at row 0, summing to expected rows.
func (ri *ReflowIndex) checkPartition(expected int) error {
	sum := 0
	prevEnd := -1
	for i, e := range ri.entries {
		if e.StartIndex != prevEnd+1 || e.EndIndex < e.StartIndex {
			return fmt.Errorf("span %d [%d,%d] after row %d: %w",
				i, e.StartIndex, e.EndIndex, prevEnd, ErrReflowInconsistency)
		}
		sum += e.Rows()
		prevEnd = e.EndIndex
	}
	if sum != expected || sum != ri.totalRows {
		return fmt.Errorf("span sum %d, expected %d, cached %d: %w",
			sum, expected, ri.totalRows, ErrReflowInconsistency)
	}
	return nil
}
