// Package library owns the track registry of one music directory and ties
// together scanning, rating state and the ratings file.
//
// A Library is opened for a root directory. Opening reads the ratings file
// and starts scanning in the background; every directory is one task of
// the load coordinator:
//
//	lib, err := library.Open(ctx, settings, library.WithEvents(func(e library.Event) {
//	    fmt.Println(e.Message)
//	}))
//	if err != nil {
//	    return err
//	}
//	defer lib.Flush(context.Background())
//
// # Track IDs
//
// Every track has a permanent integer id indexing its ratings. An id stored
// in the file's tags is reused when it is free; otherwise the next id of
// the library counter is assigned and, if enabled, written back to the tag
// so ratings survive renames.
//
// # Views
//
// Consumers interested in the full track list subscribe a View. It is
// populated right away when loading has finished, else once it does:
//
//	release := lib.Subscribe(library.ViewFunc(func(tracks []*model.Track) {
//	    // redraw
//	}))
//	defer release()
package library
