package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/affinity/internal/model"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.True(t, s.RatingsEnabled)
	assert.False(t, s.WriteTrackIDs)
	assert.Equal(t, 8, s.ScanConcurrency)
	assert.Equal(t, 10, s.QueueLength)
	assert.Equal(t, model.PlaylistFormatM3U, s.Format())
	assert.NoError(t, s.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultSettings(), s)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "library_path: /srv/music\nqueue_length: 25\nplaylist_format: pls\nextensions:\n  - mp3\n  - opus\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/music", s.LibraryPath)
	assert.Equal(t, 25, s.QueueLength)
	assert.Equal(t, model.PlaylistFormatPLS, s.Format())
	assert.Equal(t, []string{"mp3", "opus"}, s.Extensions)
	// untouched keys keep their default
	assert.True(t, s.RatingsEnabled)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("queue_length: 25\n"), 0644))

	t.Setenv("AFFINITY_QUEUE_LENGTH", "3")
	t.Setenv("AFFINITY_RATINGS_ENABLED", "false")
	t.Setenv("AFFINITY_EXTENSIONS", "flac, ogg")

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, s.QueueLength)
	assert.False(t, s.RatingsEnabled)
	assert.Equal(t, []string{"flac", "ogg"}, s.Extensions)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero concurrency", "scan_concurrency: 0\n"},
		{"negative queue", "queue_length: -1\n"},
		{"unknown playlist format", "playlist_format: xspf\n"},
		{"empty library", "library_path: \"\"\n"},
		{"malformed yaml", "queue_length: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSettings_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	s := DefaultSettings()
	s.LibraryPath = "/music"
	s.WriteTrackIDs = true
	s.Extensions = []string{"mp3"}
	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}
