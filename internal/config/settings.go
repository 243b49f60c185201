package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	ioutils "github.com/handiism/affinity/internal/io"
	"github.com/handiism/affinity/internal/model"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "AFFINITY_"

// sliceKeys are parsed from comma-separated strings when set from the
// environment.
var sliceKeys = []string{"extensions"}

// Settings holds all configuration options.
type Settings struct {
	// Library settings
	LibraryPath     string   `koanf:"library_path"`
	Extensions      []string `koanf:"extensions"`
	ScanConcurrency int      `koanf:"scan_concurrency"`

	// Rating settings
	RatingsEnabled bool `koanf:"ratings_enabled"`
	WriteTrackIDs  bool `koanf:"write_track_ids"`

	// Queue and playlist settings
	QueueLength    int    `koanf:"queue_length"`
	PlaylistFormat string `koanf:"playlist_format"` // m3u, pls, wpl, zpl
	M3UExtended    bool   `koanf:"m3u_extended"`

	// Logging settings
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"` // console, json
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		LibraryPath:     filepath.Join(homeDir, "Music"),
		Extensions:      []string{"mp3", "m4a", "wav", "flac", "ogg"},
		ScanConcurrency: 8,

		RatingsEnabled: true,
		WriteTrackIDs:  false,

		QueueLength:    10,
		PlaylistFormat: "m3u",
		M3UExtended:    true,

		LogLevel:  "info",
		LogFormat: "console",
	}
}

// DefaultPath returns the settings file in the user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "affinity", "config.yaml")
}

// Load reads settings from a YAML file and the environment on top of the
// defaults. A missing file is not an error; an empty path skips the file.
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultSettings(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := k.Unmarshal("", settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

// envTransformFunc maps AFFINITY_QUEUE_LENGTH to queue_length.
func envTransformFunc(key string) string {
	return strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
}

// processSliceFields converts comma-separated env values to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		s, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(key, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

// Validate checks value ranges.
func (s *Settings) Validate() error {
	var errs []error
	if s.LibraryPath == "" {
		errs = append(errs, errors.New("library_path must not be empty"))
	}
	if s.ScanConcurrency < 1 {
		errs = append(errs, fmt.Errorf("scan_concurrency must be at least 1, got %d", s.ScanConcurrency))
	}
	if s.QueueLength < 0 {
		errs = append(errs, fmt.Errorf("queue_length must not be negative, got %d", s.QueueLength))
	}
	if _, err := model.ParsePlaylistFormat(s.PlaylistFormat); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Format returns the configured playlist format.
func (s *Settings) Format() model.PlaylistFormat {
	pf, _ := model.ParsePlaylistFormat(s.PlaylistFormat)
	return pf
}

// Save writes settings to a YAML file.
func (s *Settings) Save(path string) error {
	if err := ioutils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(s, "koanf"), nil); err != nil {
		return err
	}
	data, err := k.Marshal(yaml.Parser())
	if err != nil {
		return err
	}

	return ioutils.WriteFile(context.Background(), ioutils.Default, path, data)
}
