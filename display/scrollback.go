// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: display/scrollback.go
// Summary: ScrollbackBuffer stores logical lines in a bounded ring.
//
// Architecture:
//
//	ScrollbackBuffer is a bounded circular sequence of logical lines.
//	ringHead points at the oldest retained line; origin is the logical
//	index that line had when it was pushed, so eviction shifts the
//	addressing origin instead of invalidating it.
//
//	All positional operations validate their indices against the current
//	length and fail with ErrIndexOutOfRange; indices are never clamped.

package display

// ScrollbackBuffer is a bounded circular store of logical lines.
// Capacity is fixed at construction; pushing past it evicts the oldest
// line and advances the origin. Not safe for concurrent use; a buffer is
// exclusively owned by one terminal session.
type ScrollbackBuffer struct {
	lines    []*Line
	ringHead int
	ringSize int

	// origin is the logical index of the line at ringHead. It only grows,
	// tracking how many lines have been evicted over the session.
	origin int64
}

// NewScrollbackBuffer creates a buffer holding at most maxLines lines.
// A non-positive maxLines falls back to DefaultMaxLines.
func NewScrollbackBuffer(maxLines int) *ScrollbackBuffer {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &ScrollbackBuffer{
		lines: make([]*Line, maxLines),
	}
}

// ringIdx maps a position in [0, ringSize) to a slot in the ring.
func (b *ScrollbackBuffer) ringIdx(i int) int {
	return (b.ringHead + i) % len(b.lines)
}

// Len returns the number of retained lines.
func (b *ScrollbackBuffer) Len() int {
	return b.ringSize
}

// MaxLines returns the buffer capacity.
func (b *ScrollbackBuffer) MaxLines() int {
	return len(b.lines)
}

// Origin returns the logical index of the oldest retained line.
func (b *ScrollbackBuffer) Origin() int64 {
	return b.origin
}

// Get returns the line at position i.
func (b *ScrollbackBuffer) Get(i int) (*Line, error) {
	if i < 0 || i >= b.ringSize {
		return nil, indexErr("Get", i, b.ringSize)
	}
	return b.lines[b.ringIdx(i)], nil
}

// Set replaces the line at position i.
func (b *ScrollbackBuffer) Set(i int, v *Line) error {
	if i < 0 || i >= b.ringSize {
		return indexErr("Set", i, b.ringSize)
	}
	b.lines[b.ringIdx(i)] = v
	return nil
}

// Push appends a line. At capacity the oldest line is evicted and the
// origin advances; the return value reports whether that happened.
func (b *ScrollbackBuffer) Push(v *Line) bool {
	evicted := false
	if b.ringSize == len(b.lines) {
		b.lines[b.ringHead] = nil
		b.ringHead = (b.ringHead + 1) % len(b.lines)
		b.ringSize--
		b.origin++
		evicted = true
	}
	b.lines[b.ringIdx(b.ringSize)] = v
	b.ringSize++
	return evicted
}

// Pop removes and returns the newest line.
func (b *ScrollbackBuffer) Pop() (*Line, error) {
	if b.ringSize == 0 {
		return nil, indexErr("Pop", 0, 0)
	}
	idx := b.ringIdx(b.ringSize - 1)
	v := b.lines[idx]
	b.lines[idx] = nil
	b.ringSize--
	return v, nil
}

// TrimStart drops the oldest count lines, advancing the origin.
func (b *ScrollbackBuffer) TrimStart(count int) error {
	if count < 0 || count > b.ringSize {
		return indexErr("TrimStart", count, b.ringSize)
	}
	for i := 0; i < count; i++ {
		b.lines[b.ringIdx(i)] = nil
	}
	b.ringHead = (b.ringHead + count) % len(b.lines)
	b.ringSize -= count
	b.origin += int64(count)
	return nil
}

// Splice removes deleteCount lines starting at start and inserts items in
// their place, preserving the relative order of untouched lines. Used for
// scroll-region insert/delete. If the result exceeds capacity the oldest
// lines are evicted first.
func (b *ScrollbackBuffer) Splice(start, deleteCount int, items ...*Line) error {
	if start < 0 || start > b.ringSize {
		return indexErr("Splice", start, b.ringSize)
	}
	if deleteCount < 0 || start+deleteCount > b.ringSize {
		return indexErr("Splice", start+deleteCount, b.ringSize)
	}

	// Linearize, splice, rebuild. Splices are rare (scroll-region edits)
	// so the O(n) rebuild is acceptable.
	flat := make([]*Line, 0, b.ringSize-deleteCount+len(items))
	for i := 0; i < start; i++ {
		flat = append(flat, b.lines[b.ringIdx(i)])
	}
	flat = append(flat, items...)
	for i := start + deleteCount; i < b.ringSize; i++ {
		flat = append(flat, b.lines[b.ringIdx(i)])
	}

	if excess := len(flat) - len(b.lines); excess > 0 {
		flat = flat[excess:]
		b.origin += int64(excess)
	}

	clear(b.lines)
	copy(b.lines, flat)
	b.ringHead = 0
	b.ringSize = len(flat)
	return nil
}

// ShiftElements moves the contiguous block [start, start+count) by offset.
// The destination must lie within the current length. Vacated positions
// keep their previous contents; the caller overwrites them as part of the
// in-region insert/delete it is performing.
func (b *ScrollbackBuffer) ShiftElements(start, count, offset int) error {
	if count < 0 {
		return indexErr("ShiftElements", count, b.ringSize)
	}
	if start < 0 || start+count > b.ringSize {
		return indexErr("ShiftElements", start, b.ringSize)
	}
	dst := start + offset
	if dst < 0 || dst+count > b.ringSize {
		return indexErr("ShiftElements", dst, b.ringSize)
	}
	if count == 0 || offset == 0 {
		return nil
	}

	if offset > 0 {
		// Copy backwards so overlapping moves don't clobber the source.
		for i := count - 1; i >= 0; i-- {
			b.lines[b.ringIdx(dst+i)] = b.lines[b.ringIdx(start+i)]
		}
	} else {
		for i := 0; i < count; i++ {
			b.lines[b.ringIdx(dst+i)] = b.lines[b.ringIdx(start+i)]
		}
	}
	return nil
}

// SetMaxLines changes the capacity. Shrinking truncates from the oldest
// end before reallocating the ring.
func (b *ScrollbackBuffer) SetMaxLines(maxLines int) {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	if maxLines == len(b.lines) {
		return
	}

	if b.ringSize > maxLines {
		// Ignore the error: the trim count is derived from ringSize.
		_ = b.TrimStart(b.ringSize - maxLines)
	}

	next := make([]*Line, maxLines)
	for i := 0; i < b.ringSize; i++ {
		next[i] = b.lines[b.ringIdx(i)]
	}
	b.lines = next
	b.ringHead = 0
}
