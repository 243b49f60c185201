package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/handiism/affinity/internal/audio"
	"github.com/handiism/affinity/internal/config"
	ioutils "github.com/handiism/affinity/internal/io"
	"github.com/handiism/affinity/internal/load"
	"github.com/handiism/affinity/internal/model"
	"github.com/handiism/affinity/internal/rating"
	"github.com/handiism/affinity/internal/ratings"
	"github.com/handiism/affinity/internal/sparse"
)

// ErrIDsExhausted is returned by Register when the id counter has passed
// model.MaxID.
var ErrIDsExhausted = errors.New("track ids exhausted")

// TagReader reads the metadata of an audio file.
type TagReader interface {
	ReadTags(r io.Reader) (model.Tags, error)
}

// IDWriter persists a track id into an audio file.
type IDWriter interface {
	WriteID(path string, id int) error
}

// Library is the registry of all tracks below one root directory.
type Library struct {
	root           string
	fsys           fs.FS
	playable       func(name string) bool
	tags           TagReader
	ids            IDWriter
	concurrency    int
	ratingsEnabled bool

	tracks *sparse.Store[*model.Track]
	lines  *sparse.Store[[]byte]
	lastID atomic.Int64

	engine *rating.Engine
	coord  *load.Coordinator
	store  *ratings.Store
	source ratings.Source

	directories atomic.Int32
	scanned     atomic.Int32

	viewsMu   sync.Mutex
	views     map[int]View
	nextView  int
	refresher *load.Refresher

	flights singleflight.Group

	storeOpts []ratings.Option
	onEvent   func(Event)
	log       zerolog.Logger
}

// Option configures a Library.
type Option func(*Library)

// WithFS scans fsys instead of the root directory on disk.
func WithFS(fsys fs.FS) Option {
	return func(l *Library) {
		l.fsys = fsys
	}
}

// WithFileSystem sets the file system the ratings file is accessed through.
func WithFileSystem(fsys ioutils.FileSystem) Option {
	return func(l *Library) {
		l.storeOpts = append(l.storeOpts, ratings.WithFileSystem(fsys))
	}
}

// WithTagReader replaces the ID3 tag reader.
func WithTagReader(r TagReader) Option {
	return func(l *Library) {
		l.tags = r
	}
}

// WithIDWriter enables writing assigned ids back to the files.
func WithIDWriter(w IDWriter) Option {
	return func(l *Library) {
		l.ids = w
	}
}

// WithEvents sets the callback receiving progress and error events.
func WithEvents(fn func(Event)) Option {
	return func(l *Library) {
		l.onEvent = fn
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Library) {
		l.log = log
	}
}

// Open creates the Library for settings.LibraryPath, reads its ratings file
// and starts scanning in the background. Use Await to wait for the scan.
func Open(ctx context.Context, settings *config.Settings, opts ...Option) (*Library, error) {
	l := &Library{
		root:           settings.LibraryPath,
		playable:       audio.Playable(settings.Extensions),
		tags:           audio.TagReader{},
		concurrency:    max(1, settings.ScanConcurrency),
		ratingsEnabled: settings.RatingsEnabled,
		tracks:         sparse.New[*model.Track](),
		lines:          sparse.New[[]byte](),
		coord:          load.NewCoordinator(),
		views:          make(map[int]View),
		log:            zerolog.Nop(),
	}
	if settings.WriteTrackIDs {
		l.ids = audio.NewTagger()
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.With().Str("component", "library").Logger()

	if l.fsys == nil {
		info, err := os.Stat(l.root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, &fs.PathError{Op: "open", Path: l.root, Err: fs.ErrInvalid}
		}
		l.fsys = os.DirFS(l.root)
	}

	l.engine = rating.NewEngine(l.subject, rating.WithLogger(l.log))
	l.store = ratings.NewStore(l.root, append([]ratings.Option{ratings.WithLogger(l.log)}, l.storeOpts...)...)
	l.refresher = load.NewRefresher(l.coord, l.populateViews)

	l.lastID.Store(-1)
	if l.ratingsEnabled {
		l.readRatings()
	}

	l.coord.Go(func() {
		l.scan(ctx)
		l.refresher.Request()
	})
	return l, nil
}

func (l *Library) readRatings() {
	snap, src := l.store.Read()
	l.source = src
	l.lastID.Store(int64(snap.LastID))
	for id, line := range snap.Lines {
		l.lines.Set(id, line)
	}
	if src == ratings.SourceBackup {
		l.emit(Event{Message: "Ratings file was damaged, restored the backup", Level: LevelWarning})
	}
	l.log.Debug().Stringer("source", src).Int("lines", len(snap.Lines)).Msg("ratings loaded")
}

func (l *Library) subject(id int) (rating.Subject, bool) {
	t, ok := l.tracks.Get(id)
	if !ok {
		return nil, false
	}
	return t, true
}

// Root returns the library directory.
func (l *Library) Root() string {
	return l.root
}

// Engine returns the rating engine of the library.
func (l *Library) Engine() *rating.Engine {
	return l.engine
}

// Coordinator returns the coordinator tracking the background scan.
func (l *Library) Coordinator() *load.Coordinator {
	return l.coord
}

// RatingsEnabled reports whether ratings are read, learned and written.
func (l *Library) RatingsEnabled() bool {
	return l.ratingsEnabled
}

// Source tells where the ratings were read from.
func (l *Library) Source() ratings.Source {
	return l.source
}

// Await blocks until the library has finished loading or ctx is done.
func (l *Library) Await(ctx context.Context) error {
	return l.coord.Await(ctx)
}

// Progress returns the number of directories and files scanned so far.
func (l *Library) Progress() (directories, files int) {
	return int(l.directories.Load()), int(l.scanned.Load())
}

// NextID hands out a fresh track id.
func (l *Library) NextID() int {
	return int(l.lastID.Add(1))
}

// raiseLastID makes sure the counter never hands out id.
func (l *Library) raiseLastID(id int) {
	for {
		cur := l.lastID.Load()
		if int64(id) <= cur || l.lastID.CompareAndSwap(cur, int64(id)) {
			return
		}
	}
}

// Len returns the number of registered tracks.
func (l *Library) Len() int {
	return l.tracks.TrueSize()
}

// Track returns the track with the given id.
func (l *Library) Track(id int) (*model.Track, bool) {
	return l.tracks.Get(id)
}

// Tracks returns all registered tracks in id order.
func (l *Library) Tracks() []*model.Track {
	return l.tracks.Values()
}

// Find returns the tracks whose file name or tags contain filter, ignoring
// case.
func (l *Library) Find(filter string) []*model.Track {
	var out []*model.Track
	l.tracks.ForEach(func(_ int, t *model.Track) {
		if t.Matches(filter) {
			out = append(out, t)
		}
	})
	return out
}

// Register adds the file at path (slash-separated, relative to the root)
// with the given tags and returns the new track.
//
// A persisted id that is free is kept. Taken or out-of-range ids are
// replaced by a fresh one; ErrIDsExhausted is returned once no fresh id is
// left.
func (l *Library) Register(path string, tags model.Tags) (*model.Track, error) {
	switch {
	case model.ValidID(tags.ID):
		l.raiseLastID(tags.ID)
		if t, ok := l.claim(tags.ID, path, tags); ok {
			return t, nil
		}
		l.emit(Event{Message: "Duplicate track id in " + path + ", assigning a new one", Level: LevelWarning})
	case tags.ID != model.NoID:
		l.emit(Event{Message: fmt.Sprintf("Invalid track id %d in %s, assigning a new one", tags.ID, path), Level: LevelWarning})
	}

	for {
		id := l.NextID()
		if !model.ValidID(id) {
			return nil, fmt.Errorf("registering %s: %w", path, ErrIDsExhausted)
		}
		t, ok := l.claim(id, path, tags)
		if !ok {
			continue
		}
		if l.ids != nil {
			l.writeID(t)
		}
		return t, nil
	}
}

// claim publishes a track under id unless the id is taken. The persisted
// ratings are attached before the track becomes visible.
func (l *Library) claim(id int, path string, tags model.Tags) (*model.Track, bool) {
	tags.ID = id
	t := model.NewTrack(id, path, tags)
	line, _ := l.lines.Get(id)
	l.engine.Attach(t, line)
	if !l.tracks.SetIfAbsent(id, t) {
		return nil, false
	}
	return t, true
}
