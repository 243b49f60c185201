// Package audio provides the audio-file collaborators of the library:
// tag reading, track-id tagging, playability checks and playlist export.
//
// # ID3 Tags
//
// TagReader extracts the metadata the rating heuristics compare:
//
//	tags, err := audio.TagReader{}.ReadTags(f)
//	// tags.Artist, tags.Album, tags.Genre, tags.Title, tags.ID
//
// A track id persisted in a TXXX:AFFINITY_ID frame is recovered as
// tags.ID so ratings follow a file across runs. Tagger writes that frame:
//
//	err := audio.NewTagger().WriteID("/music/a.mp3", 42)
//
// Files without an ID3v2 tag read as empty tags.
//
// # Playlist Export
//
//	creator := audio.NewPlaylistCreator(model.PlaylistFormatM3U, true)
//	content := creator.CreatePlaylist("Up next", tracks)
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
//   - WPL (Windows Media Player)
//   - ZPL (Zune Media Player)
package audio
