package model

import (
	"math"
	"path"
	"strings"

	"github.com/handiism/affinity/internal/rating"
)

// NoID marks tags that carry no persisted track id.
const NoID = -1

// MaxID is the highest track id. The ratings file stores ids as int32.
const MaxID = math.MaxInt32

// ValidID reports whether id can identify a track.
func ValidID(id int) bool {
	return id >= 0 && id <= MaxID
}

// Tags holds the static metadata read from an audio file.
type Tags struct {
	// ID is the track id persisted in the file, or NoID.
	ID int

	Artist string
	Title  string
	Album  string
	Genre  string
	BPM    string
}

// Track represents a single file of the library.
type Track struct {
	id int

	// Path is the slash-separated path relative to the library root.
	Path string

	// Tags is the metadata read when the track was registered.
	Tags Tags

	ratings *rating.Vector
}

// NewTrack creates a Track with an empty rating vector.
func NewTrack(id int, path string, tags Tags) *Track {
	return &Track{
		id:      id,
		Path:    path,
		Tags:    tags,
		ratings: rating.NewVector(id),
	}
}

// ID returns the track id.
func (t *Track) ID() int {
	return t.id
}

// Ratings returns the track's rating vector.
func (t *Track) Ratings() *rating.Vector {
	return t.ratings
}

func (t *Track) Artist() string { return t.Tags.Artist }
func (t *Track) Album() string  { return t.Tags.Album }
func (t *Track) Genre() string  { return t.Tags.Genre }

// Title returns the title tag, or the file name without extension.
func (t *Track) Title() string {
	if t.Tags.Title != "" {
		return t.Tags.Title
	}
	return t.baseName()
}

// Name returns the file name including extension.
func (t *Track) Name() string {
	return path.Base(t.Path)
}

func (t *Track) baseName() string {
	name := t.Name()
	return strings.TrimSuffix(name, path.Ext(name))
}

// String returns "artist - title" when both tags are present, otherwise
// the file name without extension.
func (t *Track) String() string {
	if t.Tags.Artist != "" && t.Tags.Title != "" {
		return t.Tags.Artist + " - " + t.Tags.Title
	}
	return t.baseName()
}

// Matches reports whether filter occurs, ignoring case, in the file name
// or any of the artist, title, album and genre tags.
func (t *Track) Matches(filter string) bool {
	filter = strings.ToLower(filter)
	for _, field := range []string{t.Name(), t.Tags.Artist, t.Tags.Title, t.Tags.Album, t.Tags.Genre} {
		if field != "" && strings.Contains(strings.ToLower(field), filter) {
			return true
		}
	}
	return false
}
