package audio

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/bogem/id3v2"

	"github.com/handiism/affinity/internal/model"
)

// IDFrameDescription is the description of the TXXX frame holding the
// persisted track id.
const IDFrameDescription = "AFFINITY_ID"

const userTextFrameID = "TXXX"

// ErrNotTaggable is returned when writing tags to a file type whose
// container is not ID3.
var ErrNotTaggable = errors.New("file type does not carry ID3 tags")

// DefaultExtensions lists the file types considered playable.
var DefaultExtensions = []string{"mp3", "m4a", "wav", "flac", "ogg"}

// Playable returns a predicate accepting file names whose extension is in
// exts, ignoring case. An empty exts means DefaultExtensions.
func Playable(exts []string) func(name string) bool {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return func(name string) bool {
		return allowed[strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))]
	}
}

// TagReader reads ID3v2 metadata.
type TagReader struct{}

// ReadTags parses the ID3v2 tag at the start of r. A stream without a tag
// yields empty Tags with ID set to model.NoID.
func (TagReader) ReadTags(r io.Reader) (model.Tags, error) {
	tags := model.Tags{ID: model.NoID}

	tag, err := id3v2.ParseReader(r, id3v2.Options{Parse: true})
	if err != nil {
		return tags, fmt.Errorf("parsing id3 tag: %w", err)
	}
	defer tag.Close()

	tags.Artist = tag.Artist()
	tags.Title = tag.Title()
	tags.Album = tag.Album()
	tags.Genre = tag.Genre()
	tags.BPM = tag.GetTextFrame("TBPM").Text
	if id, ok := trackID(tag); ok {
		tags.ID = id
	}
	return tags, nil
}

func trackID(tag *id3v2.Tag) (int, bool) {
	for _, f := range tag.GetFrames(userTextFrameID) {
		udtf, ok := f.(id3v2.UserDefinedTextFrame)
		if !ok || udtf.Description != IDFrameDescription {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(udtf.Value))
		if err != nil || !model.ValidID(id) {
			return 0, false
		}
		return id, true
	}
	return 0, false
}

// Tagger writes the persisted track id into MP3 files.
type Tagger struct{}

// NewTagger creates a Tagger.
func NewTagger() *Tagger {
	return &Tagger{}
}

// WriteID stores id in the TXXX:AFFINITY_ID frame of the file at
// filePath, keeping every other user text frame.
func (t *Tagger) WriteID(filePath string, id int) error {
	if !strings.EqualFold(path.Ext(filePath), ".mp3") {
		return ErrNotTaggable
	}

	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	var keep []id3v2.UserDefinedTextFrame
	for _, f := range tag.GetFrames(userTextFrameID) {
		if udtf, ok := f.(id3v2.UserDefinedTextFrame); ok && udtf.Description != IDFrameDescription {
			keep = append(keep, udtf)
		}
	}
	tag.DeleteFrames(userTextFrameID)
	for _, f := range keep {
		tag.AddUserDefinedTextFrame(f)
	}
	tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
		Encoding:    id3v2.EncodingUTF8,
		Description: IDFrameDescription,
		Value:       strconv.Itoa(id),
	})

	return tag.Save()
}
