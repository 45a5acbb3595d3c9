// Copyright 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package display

import (
	"errors"
	"strings"
	"testing"
)

// setupReflow builds a buffer and index in lockstep from line lengths.
func setupReflow(t *testing.T, lengths []int) (*ScrollbackBuffer, *ReflowIndex) {
	t.Helper()
	buf := NewScrollbackBuffer(len(lengths) + 8)
	ri := NewReflowIndex()
	for _, n := range lengths {
		line := lineOf(strings.Repeat("x", n))
		buf.Push(line)
		ri.Push(line)
	}
	return buf, ri
}

// checkInvariants verifies the partition invariant: spans start at 0,
// adjacent with no gap or overlap, summing to RowCount.
func checkInvariants(t *testing.T, ri *ReflowIndex) {
	t.Helper()
	prevEnd := -1
	sum := 0
	for i := 0; i < ri.Len(); i++ {
		e, err := ri.GetRow(i)
		if err != nil {
			t.Fatalf("GetRow(%d): %v", i, err)
		}
		if e.StartIndex != prevEnd+1 {
			t.Fatalf("entry %d: StartIndex %d, previous EndIndex %d (gap or overlap)",
				i, e.StartIndex, prevEnd)
		}
		if e.EndIndex < e.StartIndex {
			t.Fatalf("entry %d: inverted span [%d,%d]", i, e.StartIndex, e.EndIndex)
		}
		sum += e.Rows()
		prevEnd = e.EndIndex
	}
	if sum != ri.RowCount() {
		t.Fatalf("span sum %d != RowCount %d", sum, ri.RowCount())
	}
}

func TestReflowIndex_PushChain(t *testing.T) {
	_, ri := setupReflow(t, []int{5, 5, 5})

	for i := 0; i < 3; i++ {
		e, err := ri.GetRow(i)
		if err != nil {
			t.Fatalf("GetRow(%d): %v", i, err)
		}
		if e.LineIndex != i {
			t.Errorf("entry %d: LineIndex %d", i, e.LineIndex)
		}
		if e.StartIndex != i || e.EndIndex != i {
			t.Errorf("entry %d: span [%d,%d], expected [%d,%d]", i, e.StartIndex, e.EndIndex, i, i)
		}
	}
	if ri.RowCount() != 3 {
		t.Errorf("expected RowCount 3, got %d", ri.RowCount())
	}
}

func TestReflowIndex_ChangeLineLength(t *testing.T) {
	buf, ri := setupReflow(t, []int{25, 5, 10})
	if err := ri.ChangeLineLength(buf, 10); err != nil {
		t.Fatalf("ChangeLineLength: %v", err)
	}

	// 25 cells at width 10 = 3 rows, 5 = 1 row, 10 = 1 row.
	wantSpans := [][2]int{{0, 2}, {3, 3}, {4, 4}}
	for i, want := range wantSpans {
		e, _ := ri.GetRow(i)
		if e.StartIndex != want[0] || e.EndIndex != want[1] {
			t.Errorf("entry %d: span [%d,%d], expected [%d,%d]",
				i, e.StartIndex, e.EndIndex, want[0], want[1])
		}
	}
	if ri.RowCount() != 5 {
		t.Errorf("expected RowCount 5, got %d", ri.RowCount())
	}
	checkInvariants(t, ri)
}

func TestReflowIndex_ChangeLineLengthIdempotent(t *testing.T) {
	buf, ri := setupReflow(t, []int{25, 1, 80, 3, 160})
	ri.SetLineLength(1, 15, 10)
	ri.SetLineLength(1, 7, 10)

	if err := ri.ChangeLineLength(buf, 10); err != nil {
		t.Fatalf("first reflow: %v", err)
	}
	first := make([]RowIndex, ri.Len())
	for i := range first {
		first[i], _ = ri.GetRow(i)
	}

	if err := ri.ChangeLineLength(buf, 10); err != nil {
		t.Fatalf("second reflow: %v", err)
	}
	for i := range first {
		e, _ := ri.GetRow(i)
		if e.StartIndex != first[i].StartIndex || e.EndIndex != first[i].EndIndex {
			t.Errorf("entry %d changed between identical reflows: [%d,%d] -> [%d,%d]",
				i, first[i].StartIndex, first[i].EndIndex, e.StartIndex, e.EndIndex)
		}
	}
}

func TestReflowIndex_PartitionProperty(t *testing.T) {
	vectors := [][]int{
		{1},
		{0, 0, 0},
		{80, 80, 80},
		{1, 200, 1, 199, 2},
		{7, 13, 81, 160, 1, 40, 239},
		{500},
	}
	for _, w := range []int{1, 2, 3, 7, 10, 80, 100} {
		for vi, lengths := range vectors {
			buf, ri := setupReflow(t, lengths)
			if err := ri.ChangeLineLength(buf, w); err != nil {
				t.Fatalf("vector %d width %d: %v", vi, w, err)
			}
			checkInvariants(t, ri)

			// RowCount must equal the sum of ceil(max(len,1)/width).
			want := 0
			for _, n := range lengths {
				sig := n
				if sig < 1 {
					sig = 1
				}
				want += (sig + w - 1) / w
			}
			if ri.RowCount() != want {
				t.Errorf("vector %d width %d: RowCount %d, expected %d",
					vi, w, ri.RowCount(), want)
			}
		}
	}
}

func TestReflowIndex_GetRowIndexCoverage(t *testing.T) {
	buf, ri := setupReflow(t, []int{25, 5, 10})
	if err := ri.ChangeLineLength(buf, 10); err != nil {
		t.Fatalf("ChangeLineLength: %v", err)
	}

	for r := 0; r < ri.RowCount(); r++ {
		e, _, err := ri.GetRowIndex(r)
		if err != nil {
			t.Fatalf("GetRowIndex(%d): %v", r, err)
		}
		if !e.Contains(r) {
			t.Errorf("row %d: returned span [%d,%d] does not contain it",
				r, e.StartIndex, e.EndIndex)
		}
	}

	for _, r := range []int{-1, ri.RowCount(), ri.RowCount() + 10} {
		if _, _, err := ri.GetRowIndex(r); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetRowIndex(%d): expected ErrNotFound, got %v", r, err)
		}
	}
}

func TestReflowIndex_AddRowToLine(t *testing.T) {
	buf, ri := setupReflow(t, []int{5, 5, 5})
	if err := ri.ChangeLineLength(buf, 10); err != nil {
		t.Fatalf("ChangeLineLength: %v", err)
	}

	if err := ri.AddRowToLine(0); err != nil {
		t.Fatalf("AddRowToLine: %v", err)
	}

	e0, _ := ri.GetRow(0)
	if e0.StartIndex != 0 || e0.EndIndex != 1 {
		t.Errorf("entry 0: span [%d,%d], expected [0,1]", e0.StartIndex, e0.EndIndex)
	}
	e1, _ := ri.GetRow(1)
	if e1.StartIndex != 2 {
		t.Errorf("entry 1: StartIndex %d, expected 2 after shift", e1.StartIndex)
	}
	if ri.RowCount() != 4 {
		t.Errorf("expected RowCount 4, got %d", ri.RowCount())
	}
	checkInvariants(t, ri)
}

func TestReflowIndex_AddRowToLineUncoveredRow(t *testing.T) {
	_, ri := setupReflow(t, []int{5})
	if err := ri.AddRowToLine(7); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReflowIndex_NewestSampleWinsOverContent(t *testing.T) {
	buf, ri := setupReflow(t, []int{5})

	// Two samples before the reflow; the newest one decides the span,
	// even when an earlier sample was larger.
	ri.SetLineLength(0, 25, 10)
	ri.SetLineLength(0, 12, 10)

	if err := ri.ChangeLineLength(buf, 10); err != nil {
		t.Fatalf("ChangeLineLength: %v", err)
	}
	e, _ := ri.GetRow(0)
	if e.Rows() != 2 {
		t.Errorf("expected 2 rows from newest sample 12, got %d", e.Rows())
	}
	if len(e.CachedLength) != 0 {
		t.Errorf("expected samples consumed by the reflow, got %v", e.CachedLength)
	}
}

func TestReflowIndex_ShrunkLineReclaimsRows(t *testing.T) {
	buf, ri := setupReflow(t, []int{25, 1})
	if err := ri.ChangeLineLength(buf, 10); err != nil {
		t.Fatalf("initial reflow: %v", err)
	}
	if ri.RowCount() != 4 {
		t.Fatalf("expected 4 rows before shrink, got %d", ri.RowCount())
	}

	// Truncate the long line to 5 cells; its span must drop to one row.
	if err := buf.Set(0, lineOf("xxxxx")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ri.SetLineLength(0, 5, 10)
	if err := ri.ChangeLineLength(buf, 10); err != nil {
		t.Fatalf("reflow after shrink: %v", err)
	}
	e, _ := ri.GetRow(0)
	if e.Rows() != 1 {
		t.Errorf("expected 1 row after shrink, got %d", e.Rows())
	}
	if ri.RowCount() != 2 {
		t.Errorf("expected RowCount 2 after shrink, got %d", ri.RowCount())
	}
	checkInvariants(t, ri)

	// A second recompute reads the live content and lays out identically.
	if err := ri.ChangeLineLength(buf, 10); err != nil {
		t.Fatalf("repeat reflow: %v", err)
	}
	if ri.RowCount() != 2 {
		t.Errorf("repeat reflow changed RowCount to %d", ri.RowCount())
	}
}

func TestReflowIndex_TrimStartRebases(t *testing.T) {
	buf, ri := setupReflow(t, []int{25, 5, 10})
	if err := ri.ChangeLineLength(buf, 10); err != nil {
		t.Fatalf("ChangeLineLength: %v", err)
	}

	buf.TrimStart(1)
	if err := ri.TrimStart(1); err != nil {
		t.Fatalf("TrimStart: %v", err)
	}

	e, _ := ri.GetRow(0)
	if e.StartIndex != 0 {
		t.Errorf("expected first span to rebase to 0, got %d", e.StartIndex)
	}
	if ri.RowCount() != 2 {
		t.Errorf("expected RowCount 2, got %d", ri.RowCount())
	}
	checkInvariants(t, ri)
}

func TestReflowIndex_OrphanedEntriesKeepRowCount(t *testing.T) {
	buf, ri := setupReflow(t, []int{25, 5})
	if err := ri.ChangeLineLength(buf, 10); err != nil {
		t.Fatalf("ChangeLineLength: %v", err)
	}

	// Trim the buffer but not the index: entry 1 becomes orphaned at
	// position 1 while only one live line remains.
	buf.TrimStart(1)
	if err := ri.ChangeLineLength(buf, 10); err != nil {
		t.Fatalf("reflow with orphan: %v", err)
	}

	// Position 0 now measures the surviving 5-cell line (1 row); the
	// orphaned entry keeps its previous single row and stays contiguous.
	e0, _ := ri.GetRow(0)
	e1, _ := ri.GetRow(1)
	if e0.Rows() != 1 {
		t.Errorf("live entry: expected 1 row, got %d", e0.Rows())
	}
	if e1.Rows() != 1 || e1.StartIndex != e0.EndIndex+1 {
		t.Errorf("orphaned entry: span [%d,%d] after [%d,%d]",
			e1.StartIndex, e1.EndIndex, e0.StartIndex, e0.EndIndex)
	}
	checkInvariants(t, ri)
}

func TestReflowIndex_RelativeCharPosition(t *testing.T) {
	buf, ri := setupReflow(t, []int{25})
	if err := ri.ChangeLineLength(buf, 10); err != nil {
		t.Fatalf("ChangeLineLength: %v", err)
	}

	// Row 2, column 3 of a 25-cell line wrapped at 10 is offset 23.
	off, logical, err := ri.RelativeCharPosition(2, 3, 10)
	if err != nil {
		t.Fatalf("RelativeCharPosition: %v", err)
	}
	if off != 23 || logical != 0 {
		t.Errorf("expected offset 23 line 0, got offset %d line %d", off, logical)
	}

	if _, _, err := ri.RelativeCharPosition(99, 0, 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReflowIndex_PopRemovesNewest(t *testing.T) {
	buf, ri := setupReflow(t, []int{25, 5})
	if err := ri.ChangeLineLength(buf, 10); err != nil {
		t.Fatalf("ChangeLineLength: %v", err)
	}

	if err := ri.Pop(); err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if ri.Len() != 1 || ri.RowCount() != 3 {
		t.Errorf("expected 1 entry, 3 rows; got %d entries, %d rows", ri.Len(), ri.RowCount())
	}

	ri.Pop()
	if err := ri.Pop(); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Pop on empty: expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestReflowIndex_WideContentLengths(t *testing.T) {
	// Wide runes occupy two cells each; the reflow only sees cell counts.
	buf := NewScrollbackBuffer(4)
	ri := NewReflowIndex()
	line := NewLineFromString("你好世界你好", DefaultAttr) // 6 runes, 12 cells
	buf.Push(line)
	ri.Push(line)

	if err := ri.ChangeLineLength(buf, 10); err != nil {
		t.Fatalf("ChangeLineLength: %v", err)
	}
	e, _ := ri.GetRow(0)
	if e.Rows() != 2 {
		t.Errorf("expected 12 cells at width 10 to span 2 rows, got %d", e.Rows())
	}
}
