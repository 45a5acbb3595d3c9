// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: display/scheduler.go
// Summary: RenderScheduler coalesces dirty-row ranges into batched repaints.
//
// Architecture:
//
//	QueueRefresh accumulates inclusive DirtyRange entries and arms at most
//	one pending frame. When the frame fires, the scheduler first honors
//	backpressure: while the pending-write backlog is non-empty and fewer
//	than MaxSkippedFrames consecutive frames were skipped, it re-arms and
//	skips painting so content drains before repainting. Otherwise the
//	queued ranges merge into a single refresh: more than CoalesceLimit
//	ranges collapse to a full-viewport repaint (merge cost exceeds
//	benefit), else the hull [min(starts), max(ends)].
//
//	Dispatch is strictly serial. A frame runs to completion before the
//	next is considered; QueueRefresh during an in-flight refresh only
//	feeds the frame after it. A panic inside a refresh never crosses the
//	frame boundary: it degrades to a queued full-viewport repaint.

package display

import (
	"log"
	"time"
)

const (
	// MaxSkippedFrames bounds consecutive backpressure skips so a busy
	// writer cannot starve painting forever.
	MaxSkippedFrames = 5

	// CoalesceLimit is the queued-range count above which merging
	// degenerates to a full-viewport repaint.
	CoalesceLimit = 4

	// DefaultFrameInterval paces the cooperative frame loop.
	DefaultFrameInterval = 16 * time.Millisecond
)

// DirtyRange is an inclusive physical-row range pending repaint.
type DirtyRange struct {
	Start, End int
}

// PaintSink consumes merged refreshes. Refresh receives the inclusive row
// range and one run slice per row in that range; a nil row slice means
// the row is transiently unaddressable (resize in flight) and should be
// left as-is. The sink is never invoked concurrently with itself.
type PaintSink interface {
	Refresh(start, end int, rows [][]Run)
}

// RenderScheduler batches dirty-row notifications into repaint frames.
// Execution is single-threaded cooperative: the scheduler itself holds no
// lock, the owning Pipeline serializes every entry point.
type RenderScheduler struct {
	// rowCount reports the current viewport row count for full repaints.
	rowCount func() int

	// backlog reports the pending-write backlog size; nil disables
	// backpressure.
	backlog func() int

	// render composites the merged range into per-row runs.
	render func(start, end int) [][]Run

	sink PaintSink

	queue      []DirtyRange
	frameArmed bool
	skipped    int

	frameInterval time.Duration
}

// NewRenderScheduler creates a scheduler. rowCount and render must be
// non-nil; backlog may be nil when no backpressure source exists.
func NewRenderScheduler(rowCount func() int, render func(start, end int) [][]Run) *RenderScheduler {
	return &RenderScheduler{
		rowCount:      rowCount,
		render:        render,
		frameInterval: DefaultFrameInterval,
	}
}

// AttachSink sets the paint sink receiving merged refreshes.
func (s *RenderScheduler) AttachSink(sink PaintSink) {
	s.sink = sink
}

// SetBacklogProbe installs the pending-write backlog probe driving
// backpressure skips.
func (s *RenderScheduler) SetBacklogProbe(fn func() int) {
	s.backlog = fn
}

// SetFrameInterval overrides the cooperative frame pacing.
func (s *RenderScheduler) SetFrameInterval(d time.Duration) {
	if d > 0 {
		s.frameInterval = d
	}
}

// QueueRefresh appends an inclusive dirty range and arms a frame if none
// is pending. Arming is idempotent across repeated calls before the frame
// fires. Safe to call during an in-progress refresh; the range feeds the
// next frame.
func (s *RenderScheduler) QueueRefresh(start, end int) {
	if end < start {
		start, end = end, start
	}
	s.queue = append(s.queue, DirtyRange{Start: start, End: end})
	s.frameArmed = true
}

// QueueFullRefresh queues a repaint of the whole viewport.
func (s *RenderScheduler) QueueFullRefresh() {
	rows := s.rowCount()
	if rows < 1 {
		rows = 1
	}
	s.QueueRefresh(0, rows-1)
}

// Pending returns the number of queued dirty ranges.
func (s *RenderScheduler) Pending() int {
	return len(s.queue)
}

// SkippedFrames returns the current consecutive skip count.
func (s *RenderScheduler) SkippedFrames() int {
	return s.skipped
}

// mergeRange collapses the queue into one inclusive range.
func (s *RenderScheduler) mergeRange() (int, int) {
	if len(s.queue) > CoalesceLimit {
		rows := s.rowCount()
		if rows < 1 {
			rows = 1
		}
		return 0, rows - 1
	}
	start, end := s.queue[0].Start, s.queue[0].End
	for _, r := range s.queue[1:] {
		if r.Start < start {
			start = r.Start
		}
		if r.End > end {
			end = r.End
		}
	}
	return start, end
}

// FireFrame runs one frame callback. It reports whether a refresh was
// dispatched; false means the frame was unarmed or skipped for
// backpressure. The frame loop and tests drive this directly; no two
// invocations run concurrently.
func (s *RenderScheduler) FireFrame() bool {
	if !s.frameArmed {
		return false
	}

	if s.backlog != nil && s.backlog() > 0 && s.skipped < MaxSkippedFrames {
		// Drain incoming content before repainting; stay armed.
		s.skipped++
		return false
	}
	s.skipped = 0

	start, end := s.mergeRange()
	s.queue = s.queue[:0]
	s.frameArmed = false

	s.dispatch(start, end)
	return true
}

// dispatch composites and delivers one merged refresh. An inconsistency
// mid-frame (panic in compositing or the sink) degrades to a queued
// full-viewport repaint instead of propagating across the frame boundary.
func (s *RenderScheduler) dispatch(start, end int) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Scheduler: refresh [%d,%d] failed: %v; queueing full repaint", start, end, r)
			s.QueueFullRefresh()
		}
	}()

	rows := s.render(start, end)
	if s.sink != nil {
		s.sink.Refresh(start, end, rows)
	}
}
