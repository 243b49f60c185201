package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/handiism/affinity/internal/audio"
	"github.com/handiism/affinity/internal/config"
	ioutils "github.com/handiism/affinity/internal/io"
	"github.com/handiism/affinity/internal/library"
	"github.com/handiism/affinity/internal/logging"
	"github.com/handiism/affinity/internal/model"
	"github.com/handiism/affinity/internal/shuffle"
)

func main() {
	// Command line flags
	var (
		libraryFlag  = flag.String("library", "", "Music directory (overrides config)")
		configFlag   = flag.String("config", config.DefaultPath(), "Path to config file")
		nextFlag     = flag.Int("next", -1, "Number of upcoming tracks to print (default from config)")
		playlistFlag = flag.String("playlist", "", "Write the upcoming tracks to this playlist file")
		formatFlag   = flag.String("format", "", "Playlist format: m3u, pls, wpl, zpl (overrides config)")
		writeIDsFlag = flag.Bool("write-ids", false, "Store assigned track ids in MP3 tags")
		verboseFlag  = flag.Bool("verbose", false, "Show verbose output")
	)

	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Apply flags
	if *libraryFlag != "" {
		settings.LibraryPath = *libraryFlag
	}
	if *nextFlag >= 0 {
		settings.QueueLength = *nextFlag
	}
	if *formatFlag != "" {
		settings.PlaylistFormat = *formatFlag
	}
	if *writeIDsFlag {
		settings.WriteTrackIDs = true
	}
	if *verboseFlag {
		settings.LogLevel = "debug"
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid settings: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Config{
		Level:     settings.LogLevel,
		Format:    settings.LogFormat,
		Timestamp: true,
		Output:    os.Stderr,
	})

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		cancel()
	}()

	lib, err := library.Open(ctx, settings,
		library.WithLogger(log),
		library.WithEvents(func(event library.Event) {
			if event.Level == library.LevelVerbose && !*verboseFlag {
				return
			}
			fmt.Println(prefix(event.Level) + event.Message)
		}))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening library: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("♪ affinity")
	fmt.Println("────────────────────────────────────────")
	fmt.Println()

	sel := shuffle.NewSelector(lib,
		shuffle.WithUniform(!settings.RatingsEnabled),
		shuffle.WithLogger(log))
	queue, err := sel.Queue(ctx, nil, settings.QueueLength)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nCancelled.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error picking tracks: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	for i, t := range queue {
		fmt.Printf("%3d. %s\n", i+1, t)
	}

	if *playlistFlag != "" {
		path, err := writePlaylist(ctx, settings, *playlistFlag, queue)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing playlist: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nPlaylist written to %s\n", path)
	}

	// Ids assigned this run and derived defaults are kept for next time.
	if err := lib.Flush(context.Background()); err != nil {
		os.Exit(1)
	}
}

func prefix(level library.Level) string {
	switch level {
	case library.LevelError:
		return "✗ "
	case library.LevelWarning:
		return "! "
	case library.LevelSuccess:
		return "✓ "
	case library.LevelInfo:
		return "› "
	default:
		return "  "
	}
}

// writePlaylist stores queue next to the library so relative track paths
// resolve. name gets the format's extension if it has none.
func writePlaylist(ctx context.Context, settings *config.Settings, name string, queue []*model.Track) (string, error) {
	format := settings.Format()
	base := ioutils.SanitizeFileName(filepath.Base(name))
	if filepath.Ext(base) == "" {
		base += format.Extension()
	}
	path := filepath.Join(settings.LibraryPath, base)

	content := audio.NewPlaylistCreator(format, settings.M3UExtended).CreatePlaylist("affinity", queue)
	return path, ioutils.WriteFile(ctx, ioutils.Default, path, []byte(content))
}
