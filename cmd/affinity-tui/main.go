package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/handiism/affinity/internal/config"
	"github.com/handiism/affinity/internal/logging"
	"github.com/handiism/affinity/internal/tui"
)

func main() {
	var (
		libraryFlag = flag.String("library", "", "Music directory (overrides config)")
		configFlag  = flag.String("config", config.DefaultPath(), "Path to config file")
		logFlag     = flag.String("log", "", "Write logs to this file")
	)
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *libraryFlag != "" {
		settings.LibraryPath = *libraryFlag
	}

	// The terminal belongs to the UI; logs only go to a file.
	var out io.Writer = io.Discard
	if *logFlag != "" {
		f, err := os.OpenFile(*logFlag, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	log := logging.New(logging.Config{
		Level:     settings.LogLevel,
		Format:    settings.LogFormat,
		Timestamp: true,
		Output:    out,
	})

	if err := tui.Run(settings, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
