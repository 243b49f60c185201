package library

import (
	"context"
	"fmt"
	"math"

	"github.com/handiism/affinity/internal/ratings"
)

// Flush waits for loading to finish and writes the ratings of every track
// to the ratings file. Lines of ids that were not loaded this session are
// written back unchanged. Concurrent calls share one write.
//
// A failed write is reported as an error event and returned; the ratings
// in memory are unaffected, so Flush can be retried.
func (l *Library) Flush(ctx context.Context) error {
	if !l.ratingsEnabled {
		return nil
	}
	_, err, _ := l.flights.Do("flush", func() (any, error) {
		return nil, l.flush(ctx)
	})
	return err
}

func (l *Library) flush(ctx context.Context) error {
	if err := l.Await(ctx); err != nil {
		return err
	}

	snap := l.Snapshot()
	if err := l.store.Write(snap); err != nil {
		l.emit(Event{Message: fmt.Sprintf("Error writing ratings: %v", err), Level: LevelError})
		return err
	}
	l.emit(Event{Message: fmt.Sprintf("Ratings written to %s", l.store.Path()), Level: LevelSuccess})
	return nil
}

// Snapshot encodes the current rating state.
func (l *Library) Snapshot() ratings.Snapshot {
	n := max(l.tracks.Len(), l.lines.Len())
	snap := ratings.Snapshot{
		LastID: int32(min(l.lastID.Load(), math.MaxInt32)),
		Lines:  make([][]byte, n),
	}
	for id := range n {
		if t, ok := l.tracks.Get(id); ok {
			snap.Lines[id] = l.engine.Encode(t)
		} else {
			snap.Lines[id], _ = l.lines.Get(id)
		}
	}
	return snap
}
