package main

import (
	"flag"
	"log"

	"github.com/framegrace/texelflow/config"
	"github.com/framegrace/texelflow/internal/demo"
)

func main() {
	shell := flag.String("shell", "", "shell command to host (defaults to $SHELL)")
	history := flag.Bool("history", false, "persist and restore scrollback history")
	flag.Parse()

	settings := config.Display()
	if *shell != "" {
		settings.Shell = *shell
	}
	if *history {
		settings.HistoryEnabled = true
	}

	err := demo.Run(demo.Options{
		Shell:          settings.Shell,
		MaxLines:       settings.MaxLines,
		FrameInterval:  settings.FrameInterval,
		BoldIsBright:   settings.BoldIsBright,
		HistoryEnabled: settings.HistoryEnabled,
		HistoryPath:    settings.HistoryPath,
	})
	if err != nil {
		log.Fatalf("texelflow-demo: %v", err)
	}
}
