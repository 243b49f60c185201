// Package playback turns listening behaviour into rating feedback.
//
// When a track ends, History records how much of it was heard and
// whether it was skipped, and updates the ratings: the track's own rating,
// and the rating from each of the last ten played tracks towards it. Older
// entries count less, their influence halving after Persistence.
//
// Session drives a player: it keeps the current and upcoming track and
// asks the selector for a new upcoming track after each feedback.
//
//	s := playback.NewSession(lib.Engine(), shuffle.NewSelector(lib))
//	current, err := s.Start(ctx)
//	...
//	current, err = s.Advance(ctx, 0.95, false)
package playback
