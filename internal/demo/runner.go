// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/demo/runner.go
// Summary: Hosts a shell on a pty and renders it through the display
// pipeline onto a local tcell screen. Ctrl-Q detaches.

package demo

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/creack/pty"
	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/texelflow/display"
	"github.com/framegrace/texelflow/tcellsink"
)

// Options configures a demo session.
type Options struct {
	Shell          string
	MaxLines       int
	FrameInterval  time.Duration
	BoldIsBright   bool
	HistoryEnabled bool
	HistoryPath    string
}

var screenFactory = tcell.NewScreen

// SetScreenFactory overrides the screen factory used by Run. Passing nil
// restores the default.
func SetScreenFactory(factory func() (tcell.Screen, error)) {
	if factory == nil {
		screenFactory = tcell.NewScreen
		return
	}
	screenFactory = factory
}

// Run executes one pty-backed session until the shell exits or the user
// presses Ctrl-Q.
func Run(opts Options) error {
	screen, err := screenFactory()
	if err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen init: %w", err)
	}
	defer screen.Fini()
	screen.Clear()

	width, height := screen.Size()

	caps := display.DetectCapabilities()
	caps.Width, caps.Height = width, height
	if !opts.BoldIsBright {
		caps.BoldIsBright = false
	}

	cfg := display.DefaultPipelineConfig()
	cfg.Width = width
	cfg.Rows = height
	cfg.Caps = caps
	if opts.MaxLines > 0 {
		cfg.MaxLines = opts.MaxLines
	}
	if opts.FrameInterval > 0 {
		cfg.FrameInterval = opts.FrameInterval
	}

	pipeline := display.NewPipeline(cfg)
	sink := tcellsink.NewScreenSink(screen)
	pipeline.AttachSink(sink)

	var store *display.HistoryStore
	if opts.HistoryEnabled {
		store, err = display.OpenHistoryStore(opts.HistoryPath)
		if err != nil {
			log.Printf("Demo: history disabled: %v", err)
		} else {
			defer store.Close()
			if err := pipeline.RestoreHistory(store); err != nil {
				log.Printf("Demo: history restore failed: %v", err)
			}
			sink.FollowTail(pipeline.RowCount())
		}
	}

	cmd := exec.Command(opts.Shell)
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"COLUMNS="+strconv.Itoa(width),
		"LINES="+strconv.Itoa(height),
	)
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("start pty for %q: %w", opts.Shell, err)
	}
	defer ptmx.Close()
	defer func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	}()
	pty.Setsize(ptmx, &pty.Winsize{Rows: uint16(height), Cols: uint16(width)})

	feed := NewLineFeed(pipeline)

	stop := make(chan struct{})
	defer close(stop)
	go pipeline.Run(stop)

	shellDone := make(chan struct{})
	go func() {
		defer close(shellDone)
		buf := make([]byte, 4096)
		for {
			n, err := ptmx.Read(buf)
			if n > 0 {
				pipeline.ReportBacklog(n)
				feed.Feed(buf[:n])
				pipeline.ReportBacklog(0)
				sink.FollowTail(pipeline.RowCount())
			}
			if err != nil {
				return
			}
		}
	}()

	go func() {
		<-shellDone
		screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	for {
		select {
		case <-shellDone:
			return saveHistory(pipeline, store)
		default:
		}

		switch ev := screen.PollEvent().(type) {
		case *tcell.EventInterrupt:
			// Shell exit lands here; the loop head notices.
		case *tcell.EventResize:
			w, h := ev.Size()
			if err := pipeline.Resize(w, h); err != nil {
				log.Printf("Demo: resize to %dx%d: %v", w, h, err)
			}
			pty.Setsize(ptmx, &pty.Winsize{Rows: uint16(h), Cols: uint16(w)})
			sink.FollowTail(pipeline.RowCount())
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlQ {
				return saveHistory(pipeline, store)
			}
			if b := keyBytes(ev); len(b) > 0 {
				ptmx.Write(b)
			}
		case nil:
			return saveHistory(pipeline, store)
		}
	}
}

func saveHistory(p *display.Pipeline, store *display.HistoryStore) error {
	if store == nil {
		return nil
	}
	if err := p.SaveHistory(store); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// keyBytes translates a key event into the byte sequence the shell
// expects on its pty.
func keyBytes(ev *tcell.EventKey) []byte {
	switch key := ev.Key(); key {
	case tcell.KeyRune:
		return []byte(string(ev.Rune()))
	case tcell.KeyEnter:
		return []byte{'\r'}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return []byte{0x7f}
	case tcell.KeyTab:
		return []byte{'\t'}
	case tcell.KeyEsc:
		return []byte{0x1b}
	case tcell.KeyUp:
		return []byte{0x1b, '[', 'A'}
	case tcell.KeyDown:
		return []byte{0x1b, '[', 'B'}
	case tcell.KeyRight:
		return []byte{0x1b, '[', 'C'}
	case tcell.KeyLeft:
		return []byte{0x1b, '[', 'D'}
	default:
		if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
			return []byte{byte(key)}
		}
	}
	return nil
}
