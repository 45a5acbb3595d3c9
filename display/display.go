// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: display/display.go
// Summary: Pipeline wires scrollback, reflow, scheduling and compositing.
//
// Architecture:
//
//	┌────────────────────────────────────────────┐
//	│   input-handling collaborator (external)   │
//	│  line writes · cursor moves · resizes      │
//	└────────────────────┬───────────────────────┘
//	                     ▼
//	   ScrollbackBuffer ⇄ ReflowIndex (lockstep)
//	                     │ dirty rows
//	                     ▼
//	   RenderScheduler ── merge/skip ──► Compositor
//	                     │ styled runs
//	                     ▼
//	   PaintSink (external: tcellsink, tests, …)
//
// The pipeline owns one session's state exclusively and serializes every
// entry point; no component below it takes a lock of its own.

package display

import (
	"errors"
	"log"
	"sync"
	"time"
)

// Default values for pipeline configuration.
const (
	// DefaultWidth is the fallback column width when none is specified.
	DefaultWidth = 80

	// DefaultRows is the fallback viewport height.
	DefaultRows = 24

	// DefaultMaxLines is the default scrollback capacity in logical lines.
	DefaultMaxLines = 5000
)

// PipelineConfig holds construction parameters for a Pipeline.
type PipelineConfig struct {
	Width         int
	Rows          int
	MaxLines      int
	FrameInterval time.Duration

	// Caps carries the session capability probe; zero value means
	// DefaultCapabilities.
	Caps Capabilities
}

// DefaultPipelineConfig returns sensible defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Width:         DefaultWidth,
		Rows:          DefaultRows,
		MaxLines:      DefaultMaxLines,
		FrameInterval: DefaultFrameInterval,
		Caps:          DefaultCapabilities(),
	}
}

// Pipeline is one terminal session's display pipeline: a scrollback
// buffer of logical lines, the reflow index mapping them to physical
// rows, a render scheduler coalescing repaints, and the compositor
// producing styled runs for the attached paint sink.
type Pipeline struct {
	mu sync.Mutex

	buf    *ScrollbackBuffer
	reflow *ReflowIndex
	sched  *RenderScheduler
	comp   *Compositor

	width    int
	viewRows int
	cursor   Cursor

	// backlog is the pending-write count reported by the feeding
	// collaborator; the scheduler's backpressure probe reads it.
	backlog int
}

// NewPipeline creates a pipeline from the given configuration.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Rows <= 0 {
		cfg.Rows = DefaultRows
	}
	if cfg.MaxLines <= 0 {
		cfg.MaxLines = DefaultMaxLines
	}
	if cfg.Caps == (Capabilities{}) {
		cfg.Caps = DefaultCapabilities()
	}

	p := &Pipeline{
		buf:      NewScrollbackBuffer(cfg.MaxLines),
		reflow:   NewReflowIndex(),
		comp:     NewCompositor(cfg.Caps),
		width:    cfg.Width,
		viewRows: cfg.Rows,
	}

	p.sched = NewRenderScheduler(p.rowCountLocked, p.renderRangeLocked)
	p.sched.SetBacklogProbe(func() int { return p.backlog })
	if cfg.FrameInterval > 0 {
		p.sched.SetFrameInterval(cfg.FrameInterval)
	}
	return p
}

// AttachSink registers the paint sink receiving merged refreshes. The
// sink is never invoked concurrently with itself.
func (p *Pipeline) AttachSink(sink PaintSink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sched.AttachSink(sink)
}

// Width returns the current column width.
func (p *Pipeline) Width() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width
}

// RowCount returns the number of physical rows currently addressed.
func (p *Pipeline) RowCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reflow.RowCount()
}

func (p *Pipeline) rowCountLocked() int {
	return p.reflow.RowCount()
}

// Lines returns the number of retained logical lines.
func (p *Pipeline) Lines() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Len()
}

// ReportBacklog records the pending-write backlog size from the feeding
// collaborator. The scheduler skips frames while it is non-zero.
func (p *Pipeline) ReportBacklog(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n < 0 {
		n = 0
	}
	p.backlog = n
}

// Append pushes a new logical line, keeping buffer and reflow index in
// lockstep (including eviction), and queues its row for repaint.
func (p *Pipeline) Append(line *Line) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.buf.Push(line) {
		// Oldest line evicted; drop its reflow entry too.
		if err := p.reflow.TrimStart(1); err != nil {
			log.Printf("Pipeline: lockstep trim failed: %v", err)
		}
	}
	p.reflow.Push(line)

	if entry, err := p.reflow.GetRow(p.reflow.Len() - 1); err == nil {
		p.sched.QueueRefresh(entry.StartIndex, entry.EndIndex)
	}
}

// LineWritten handles a content-write notification from the input
// collaborator: new content for line i, the cursor after the write, and
// the column width in effect. Unknown indices one past the end append.
// Single-row growth is absorbed incrementally; anything larger falls back
// to a full reflow.
func (p *Pipeline) LineWritten(i int, line *Line, cur Cursor, width int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if width <= 0 {
		width = p.width
	}
	if width != p.width {
		if err := p.resizeLocked(width, p.viewRows); err != nil {
			return err
		}
	}

	switch {
	case i == p.buf.Len():
		if p.buf.Push(line) {
			if err := p.reflow.TrimStart(1); err != nil {
				return err
			}
			i--
		}
		p.reflow.Push(line)
	default:
		if err := p.buf.Set(i, line); err != nil {
			return err
		}
	}

	sig := line.SignificantLength()
	if err := p.reflow.SetLineLength(i, sig, width); err != nil {
		return err
	}

	entry, err := p.reflow.GetRow(i)
	if err != nil {
		return err
	}
	had := entry.Rows()

	want := rowsFor(sig, width)
	switch {
	case want == had+1:
		if err := p.reflow.AddRowToLine(entry.StartIndex); err != nil {
			return err
		}
	case want > had+1 || want < had:
		if err := p.reflow.ChangeLineLength(p.buf, width); err != nil {
			p.sched.QueueFullRefresh()
			return err
		}
	}

	p.cursor = cur

	entry, err = p.reflow.GetRow(i)
	if err != nil {
		return err
	}
	if want != had {
		// The line grew or shrank, shifting every later span; repaint
		// through the last addressed row.
		p.sched.QueueRefresh(entry.StartIndex, p.reflow.RowCount()-1)
	} else {
		p.sched.QueueRefresh(entry.StartIndex, entry.EndIndex)
	}
	return nil
}

// SetCursor moves the session cursor, repainting the rows it leaves and
// enters.
func (p *Pipeline) SetCursor(cur Cursor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	old := p.cursor
	p.cursor = cur
	if old.Visible {
		p.sched.QueueRefresh(old.Y, old.Y)
	}
	if cur.Visible {
		p.sched.QueueRefresh(cur.Y, cur.Y)
	}
}

// Resize changes the column width and viewport height, recomputing the
// full reflow layout and queueing a full repaint. A reflow inconsistency
// is surfaced to the caller after degrading to a full repaint.
func (p *Pipeline) Resize(width, rows int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resizeLocked(width, rows)
}

func (p *Pipeline) resizeLocked(width, rows int) error {
	if width > 0 {
		p.width = width
	}
	if rows > 0 {
		p.viewRows = rows
	}

	err := p.reflow.ChangeLineLength(p.buf, p.width)
	p.sched.QueueFullRefresh()
	if err != nil {
		log.Printf("Pipeline: reflow to width %d failed: %v", p.width, err)
	}
	return err
}

// SaveHistory persists the current scrollback snapshot to the store.
func (p *Pipeline) SaveHistory(store *HistoryStore) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return store.Save(p.buf)
}

// RestoreHistory appends a previously saved snapshot, oldest first. Call
// it on an empty pipeline before the session starts writing.
func (p *Pipeline) RestoreHistory(store *HistoryStore) error {
	p.mu.Lock()
	max := p.buf.MaxLines()
	p.mu.Unlock()

	buf, err := store.Load(max)
	if err != nil {
		return err
	}
	for i := 0; i < buf.Len(); i++ {
		line, err := buf.Get(i)
		if err != nil {
			return err
		}
		p.Append(line)
	}
	return nil
}

// QueueRefresh forwards an explicit dirty-range notification from the
// input collaborator.
func (p *Pipeline) QueueRefresh(start, end int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sched.QueueRefresh(start, end)
}

// FireFrame runs one scheduler frame; it reports whether a refresh was
// dispatched.
func (p *Pipeline) FireFrame() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sched.FireFrame()
}

// Run drives the frame loop until stop closes. The ticker lives here
// rather than in the scheduler because every FireFrame must run under
// the pipeline mutex.
func (p *Pipeline) Run(stop <-chan struct{}) {
	interval := p.sched.frameInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.FireFrame()
		}
	}
}

// renderRangeLocked composites the merged range into per-row runs. Rows
// no reflow entry covers yet (resize in flight) come back nil; the sink
// leaves them as-is and the follow-up reflow repaints them.
func (p *Pipeline) renderRangeLocked(start, end int) [][]Run {
	out := make([][]Run, 0, end-start+1)

	for row := start; row <= end; {
		entry, pos, err := p.reflow.GetRowIndex(row)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				log.Printf("Pipeline: render row %d: %v", row, err)
			}
			out = append(out, nil)
			row++
			continue
		}

		line, err := p.buf.Get(pos)
		if err != nil || line == nil {
			out = append(out, nil)
			row++
			continue
		}

		lineRows := p.comp.CompositeLine(line.Cells, p.width, entry.StartIndex, p.cursor)
		for ; row <= entry.EndIndex && row <= end; row++ {
			ri := row - entry.StartIndex
			if ri < len(lineRows) {
				out = append(out, lineRows[ri])
			} else {
				out = append(out, nil)
			}
		}
	}
	return out
}
