package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/affinity/internal/audio"
	"github.com/handiism/affinity/internal/model"
)

// scan walks the root level by level. Each directory is read by its own
// coordinator task, at most l.concurrency at a time.
func (l *Library) scan(ctx context.Context) {
	level := []string{"."}
	for len(level) > 0 {
		var (
			mu   sync.Mutex
			next []string
		)

		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(l.concurrency)
		for _, dir := range level {
			l.coord.Begin()
			g.Go(func() error {
				defer l.coord.Done()
				if err := ctx.Err(); err != nil {
					return err
				}
				subdirs := l.scanDir(ctx, dir)
				mu.Lock()
				next = append(next, subdirs...)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			l.emit(Event{Message: fmt.Sprintf("Scan cancelled: %v", err), Level: LevelWarning})
			return
		}
		level = next
	}

	dirs, files := l.Progress()
	l.emit(Event{
		Message: fmt.Sprintf("Loaded %d tracks from %d directories (%d files)", l.Len(), dirs, files),
		Level:   LevelSuccess,
	})
}

// scanDir registers the playable files of dir and returns its
// subdirectories.
func (l *Library) scanDir(ctx context.Context, dir string) []string {
	entries, err := fs.ReadDir(l.fsys, dir)
	if err != nil {
		l.emit(Event{Message: fmt.Sprintf("Error reading directory %s: %v", dir, err), Level: LevelWarning})
	}
	l.directories.Add(1)
	l.emit(Event{Message: fmt.Sprintf("Scanning %s", dir), Level: LevelVerbose})

	var subdirs []string
	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil
		}
		name := path.Join(dir, entry.Name())
		switch {
		case entry.IsDir():
			subdirs = append(subdirs, name)
		case entry.Type().IsRegular() && l.playable(name):
			l.load(name)
		}
	}
	return subdirs
}

func (l *Library) load(name string) {
	l.scanned.Add(1)

	f, err := l.fsys.Open(name)
	if err != nil {
		l.emit(Event{Message: fmt.Sprintf("Error opening %s: %v", name, err), Level: LevelWarning})
		return
	}
	tags, err := l.tags.ReadTags(f)
	f.Close()
	if err != nil {
		l.emit(Event{Message: fmt.Sprintf("Skipping %s: %v", name, err), Level: LevelWarning})
		return
	}

	t, err := l.Register(name, tags)
	if err != nil {
		l.emit(Event{Message: fmt.Sprintf("Skipping %s: %v", name, err), Level: LevelWarning})
		return
	}
	l.log.Trace().Int("id", t.ID()).Str("path", name).Msg("registered track")
}

func (l *Library) writeID(t *model.Track) {
	full := filepath.Join(l.root, filepath.FromSlash(t.Path))
	err := l.ids.WriteID(full, t.ID())
	switch {
	case errors.Is(err, audio.ErrNotTaggable):
		l.emit(Event{Message: fmt.Sprintf("Not writing id to %s: %v", t.Path, err), Level: LevelVerbose})
	case err != nil:
		l.emit(Event{Message: fmt.Sprintf("Error tagging %s: %v", t.Path, err), Level: LevelWarning})
	}
}
