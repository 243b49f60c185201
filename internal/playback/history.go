package playback

import (
	"sync"
	"time"

	"github.com/handiism/affinity/internal/model"
	"github.com/handiism/affinity/internal/rating"
)

const (
	// HistorySize is the number of played tracks that influence ratings.
	HistorySize = 10

	// Persistence is the time after which an entry's influence is halved.
	Persistence = 400 * time.Second
)

// Multiplier converts how a track ended into a feedback factor: 1 for a
// track heard to the end, negative for a track skipped early.
func Multiplier(played float64, skipped bool) float64 {
	switch {
	case played > 0.9:
		return 1
	case skipped:
		return played - 0.6
	default:
		return played/2 - 0.2
	}
}

// Entry is one played track.
type Entry struct {
	Track      *model.Track
	At         time.Time
	Multiplier float64
}

// Influence returns the weight of e at time now, decaying with age.
func (e Entry) Influence(now time.Time) float64 {
	p := Persistence.Seconds()
	elapsed := max(0, now.Sub(e.At).Seconds())
	return p / (elapsed + p) * e.Multiplier
}

// History is a ring of recently played tracks. It is safe for concurrent
// use.
type History struct {
	engine *rating.Engine
	now    func() time.Time

	mu      sync.Mutex
	entries [HistorySize]*Entry
	cursor  int
}

// NewHistory creates an empty History updating ratings through engine.
func NewHistory(engine *rating.Engine, now func() time.Time) *History {
	if now == nil {
		now = time.Now
	}
	return &History{engine: engine, now: now}
}

// Record applies the feedback for track and adds it to the history.
//
// The self rating of track moves by its multiplier m. For every earlier
// entry h the rating h→track moves by h.Influence·m, and track→h by half
// of that. A track is never held twice; replaying it replaces the older
// entry.
func (h *History) Record(track *model.Track, played float64, skipped bool) Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	m := Multiplier(played, skipped)

	h.engine.UpdateSelf(track, m)
	for i, e := range h.entries {
		if e == nil {
			continue
		}
		if e.Track.ID() == track.ID() {
			h.entries[i] = nil
			continue
		}
		h.engine.Update(e.Track, track, e.Influence(now)*m)
	}

	entry := Entry{Track: track, At: now, Multiplier: m}
	h.entries[h.cursor] = &entry
	h.cursor = (h.cursor + 1) % HistorySize
	return entry
}

// Entries returns the held entries, most recent first.
func (h *History) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Entry, 0, HistorySize)
	for i := range HistorySize {
		idx := (h.cursor - 1 - i + HistorySize) % HistorySize
		if e := h.entries[idx]; e != nil {
			out = append(out, *e)
		}
	}
	return out
}
