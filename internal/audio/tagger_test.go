package audio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/affinity/internal/model"
)

func newTag(artist, title string) *id3v2.Tag {
	tag := id3v2.NewEmptyTag()
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetArtist(artist)
	tag.SetTitle(title)
	tag.SetAlbum("Moon Safari")
	tag.SetGenre("Electronic")
	tag.AddTextFrame("TBPM", id3v2.EncodingUTF8, "98")
	return tag
}

func writeMP3(t *testing.T, tag *id3v2.Tag) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := tag.WriteTo(&buf)
	require.NoError(t, err)
	buf.Write(bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x00}, 64))

	path := filepath.Join(t.TempDir(), "track.mp3")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestPlayable(t *testing.T) {
	tests := []struct {
		name string
		exts []string
		file string
		want bool
	}{
		{"mp3", nil, "a/b.mp3", true},
		{"upper case", nil, "B.FLAC", true},
		{"ogg", nil, "x.ogg", true},
		{"cover art", nil, "cover.jpg", false},
		{"no extension", nil, "README", false},
		{"custom list", []string{".opus"}, "x.opus", true},
		{"custom list excludes default", []string{"opus"}, "x.mp3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Playable(tt.exts)(tt.file))
		})
	}
}

func TestTagReader_ReadTags(t *testing.T) {
	tag := newTag("Air", "Sexy Boy")
	tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
		Encoding:    id3v2.EncodingUTF8,
		Description: IDFrameDescription,
		Value:       "17",
	})
	var buf bytes.Buffer
	_, err := tag.WriteTo(&buf)
	require.NoError(t, err)

	tags, err := TagReader{}.ReadTags(&buf)
	require.NoError(t, err)

	assert.Equal(t, model.Tags{
		ID:     17,
		Artist: "Air",
		Title:  "Sexy Boy",
		Album:  "Moon Safari",
		Genre:  "Electronic",
		BPM:    "98",
	}, tags)
}

func TestTagReader_NoTag(t *testing.T) {
	tags, err := TagReader{}.ReadTags(bytes.NewReader(bytes.Repeat([]byte{0xFF}, 64)))
	require.NoError(t, err)

	assert.Equal(t, model.NoID, tags.ID)
	assert.Empty(t, tags.Artist)
}

func TestTagReader_InvalidID(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"not a number", "not a number"},
		{"negative", "-3"},
		{"above int32", "2147483648"},
		{"above uint32", "8589934592"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag := newTag("Air", "Sexy Boy")
			tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
				Encoding:    id3v2.EncodingUTF8,
				Description: IDFrameDescription,
				Value:       tt.value,
			})
			var buf bytes.Buffer
			_, err := tag.WriteTo(&buf)
			require.NoError(t, err)

			tags, err := TagReader{}.ReadTags(&buf)
			require.NoError(t, err)
			assert.Equal(t, model.NoID, tags.ID)
		})
	}
}

func TestTagger_WriteID(t *testing.T) {
	tag := newTag("Air", "Sexy Boy")
	tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
		Encoding:    id3v2.EncodingUTF8,
		Description: "REPLAYGAIN_TRACK_GAIN",
		Value:       "-6.2 dB",
	})
	path := writeMP3(t, tag)

	tagger := NewTagger()
	require.NoError(t, tagger.WriteID(path, 5))
	// A second write replaces the frame instead of adding another.
	require.NoError(t, tagger.WriteID(path, 9))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	tags, err := TagReader{}.ReadTags(f)
	require.NoError(t, err)
	assert.Equal(t, 9, tags.ID)
	assert.Equal(t, "Air", tags.Artist)

	reopened, err := id3v2.Open(path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer reopened.Close()
	var descriptions []string
	for _, f := range reopened.GetFrames(userTextFrameID) {
		descriptions = append(descriptions, f.(id3v2.UserDefinedTextFrame).Description)
	}
	assert.ElementsMatch(t, []string{"REPLAYGAIN_TRACK_GAIN", IDFrameDescription}, descriptions)
}

func TestTagger_WriteIDRejectsNonMP3(t *testing.T) {
	err := NewTagger().WriteID(filepath.Join(t.TempDir(), "a.flac"), 1)
	assert.ErrorIs(t, err, ErrNotTaggable)
}
