// Package model defines the data structures shared across the library,
// rating and playback packages.
//
// # Track
//
// Track is one playable file of the library. Its id is stable for the
// lifetime of a run; it is persisted in the file's tags when tagging is
// enabled, which makes it stable across runs too:
//
//	track := model.NewTrack(7, "Air/Moon Safari/01 La Femme d'Argent.mp3", tags)
//	fmt.Println(track) // "Air - La Femme d'Argent"
//
// Every track owns a rating.Vector with its learned affinity towards other
// tracks.
//
// # Playlist Formats
//
// PlaylistFormat selects how an upcoming queue is exported:
//
//	format, _ := model.ParsePlaylistFormat("pls")
//	format.Extension() // ".pls"
package model
