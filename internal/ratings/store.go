package ratings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	ioutils "github.com/handiism/affinity/internal/io"
)

const (
	// FileName is the primary ratings file in the library root.
	FileName = ".ratings"

	// BackupSuffix is appended to FileName for the previous version.
	BackupSuffix = ".bak"
)

// Source tells where a snapshot was read from.
type Source int

const (
	SourceNone Source = iota
	SourcePrimary
	SourceBackup
)

func (s Source) String() string {
	switch s {
	case SourcePrimary:
		return "primary"
	case SourceBackup:
		return "backup"
	default:
		return "none"
	}
}

// Store reads and writes the ratings file of one library root.
type Store struct {
	fs      ioutils.FileSystem
	primary string
	backup  string
	log     zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithFileSystem replaces ioutils.Default.
func WithFileSystem(fsys ioutils.FileSystem) Option {
	return func(s *Store) {
		s.fs = fsys
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// NewStore creates a Store for the ratings files under root.
func NewStore(root string, opts ...Option) *Store {
	primary := filepath.Join(root, FileName)
	s := &Store{
		fs:      ioutils.Default,
		primary: primary,
		backup:  primary + BackupSuffix,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the primary file path.
func (s *Store) Path() string {
	return s.primary
}

// BackupPath returns the backup file path.
func (s *Store) BackupPath() string {
	return s.backup
}

// Read loads the primary file, falling back to the backup and then to an
// empty snapshot. Failures are logged, never returned.
func (s *Store) Read() (Snapshot, Source) {
	for _, c := range []struct {
		path string
		src  Source
	}{
		{s.primary, SourcePrimary},
		{s.backup, SourceBackup},
	} {
		snap, err := s.readFile(c.path)
		if err == nil {
			s.log.Debug().Str("path", c.path).Int("lines", len(snap.Lines)).Int32("last_id", snap.LastID).Msg("read ratings")
			return snap, c.src
		}
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Debug().Str("path", c.path).Msg("ratings file missing")
			continue
		}
		s.log.Warn().Err(err).Str("path", c.path).Msg("unreadable ratings file")
	}
	return Empty(), SourceNone
}

func (s *Store) readFile(path string) (Snapshot, error) {
	f, err := s.fs.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()
	return Decode(f)
}

// Write rotates the current primary file to the backup path and writes
// snap as the new primary. If Write fails after the rotation, the backup
// still holds the previous version.
//
// A primary left unreadable by an earlier failed write is not rotated, so
// it can never replace a good backup.
func (s *Store) Write(snap Snapshot) error {
	if ioutils.Exists(s.fs, s.primary) {
		if err := s.rotate(); err != nil {
			return err
		}
	}

	f, err := s.fs.OpenFile(s.primary, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", s.primary, err)
	}
	if err := Encode(f, snap); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", s.primary, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing %s: %w", s.primary, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", s.primary, err)
	}

	s.log.Info().Str("path", s.primary).Int("lines", len(snap.Lines)).Msg("ratings written")
	return nil
}

func (s *Store) rotate() error {
	if _, err := s.readFile(s.primary); err != nil {
		s.log.Warn().Err(err).Str("path", s.primary).Msg("keeping backup, primary is unreadable")
		return nil
	}
	if err := s.fs.Remove(s.backup); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", s.backup, err)
	}
	if err := s.fs.Rename(s.primary, s.backup); err != nil {
		return fmt.Errorf("rotating %s: %w", s.primary, err)
	}
	return nil
}
