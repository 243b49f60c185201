package playback

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/affinity/internal/model"
	"github.com/handiism/affinity/internal/rating"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTracks(n int) ([]*model.Track, *rating.Engine) {
	tracks := make([]*model.Track, n)
	for i := range tracks {
		tracks[i] = model.NewTrack(i, strconv.Itoa(i)+".mp3", model.Tags{ID: i, Artist: "artist " + strconv.Itoa(i)})
	}
	engine := rating.NewEngine(func(id int) (rating.Subject, bool) {
		if id < 0 || id >= len(tracks) {
			return nil, false
		}
		return tracks[id], true
	})
	return tracks, engine
}

func TestMultiplier(t *testing.T) {
	tests := []struct {
		name    string
		played  float64
		skipped bool
		want    float64
	}{
		{"finished", 1, false, 1},
		{"almost finished and skipped", 0.95, true, 1},
		{"skipped early", 0.1, true, -0.5},
		{"skipped halfway", 0.5, true, -0.1},
		{"stopped halfway", 0.5, false, 0.05},
		{"stopped immediately", 0, false, -0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Multiplier(tt.played, tt.skipped), 1e-9)
		})
	}
}

func TestEntry_Influence(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := Entry{At: at, Multiplier: 0.8}

	assert.InDelta(t, 0.8, e.Influence(at), 1e-9)
	assert.InDelta(t, 0.4, e.Influence(at.Add(Persistence)), 1e-9)
	assert.InDelta(t, 0.2, e.Influence(at.Add(3*Persistence)), 1e-9)
	assert.InDelta(t, 0.8, e.Influence(at.Add(-time.Minute)), 1e-9, "clock going backwards")
}

func TestHistory_Record(t *testing.T) {
	tracks, engine := newTracks(2)
	a, b := tracks[0], tracks[1]
	c := &clock{t: time.Unix(1_000_000, 0)}
	h := NewHistory(engine, c.now)

	h.Record(a, 1, false)
	assert.Equal(t, 6.9375, engine.SelfRating(a))

	c.advance(Persistence)
	h.Record(b, 1, false)

	assert.Equal(t, 6.9375, engine.SelfRating(b))
	// influence of a has halved: a→b moves by 0.5, b→a by 0.25, both damped
	assert.Equal(t, 6.46875, engine.Rating(a, b))
	assert.Equal(t, 6.234375, engine.Rating(b, a))
}

func TestHistory_SkipLowersRatings(t *testing.T) {
	tracks, engine := newTracks(2)
	h := NewHistory(engine, nil)

	h.Record(tracks[0], 1, false)
	h.Record(tracks[1], 0.1, true)

	assert.Less(t, engine.SelfRating(tracks[1]), rating.Base)
	assert.Less(t, engine.Rating(tracks[0], tracks[1]), rating.Base)
}

func TestHistory_RingAndDuplicates(t *testing.T) {
	tracks, engine := newTracks(HistorySize + 3)
	h := NewHistory(engine, nil)

	for _, tr := range tracks {
		h.Record(tr, 1, false)
	}
	entries := h.Entries()
	require.Len(t, entries, HistorySize)
	assert.Equal(t, tracks[len(tracks)-1], entries[0].Track, "most recent first")
	assert.Equal(t, tracks[3], entries[HistorySize-1].Track)

	h.Record(tracks[5], 1, false)
	entries = h.Entries()
	assert.Len(t, entries, HistorySize-1, "the replayed and the oldest entry are gone")
	count := 0
	for _, e := range entries {
		if e.Track == tracks[5] {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, tracks[5], entries[0].Track)
}

type scriptedSelector struct {
	picks       []*model.Track
	calls       []*model.Track
	invalidated int
	err         error
}

func (s *scriptedSelector) Next(_ context.Context, current *model.Track) (*model.Track, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.calls = append(s.calls, current)
	t := s.picks[0]
	s.picks = s.picks[1:]
	return t, nil
}

func (s *scriptedSelector) Invalidate() { s.invalidated++ }

func TestSession_StartAndAdvance(t *testing.T) {
	tracks, engine := newTracks(4)
	sel := &scriptedSelector{picks: []*model.Track{tracks[0], tracks[1], tracks[2]}}
	s := NewSession(engine, sel)
	ctx := context.Background()

	current, err := s.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, tracks[0], current)
	assert.Equal(t, tracks[1], s.Upcoming())

	current, err = s.Advance(ctx, 1, false)
	require.NoError(t, err)
	assert.Equal(t, tracks[1], current)
	assert.Equal(t, tracks[2], s.Upcoming())
	assert.Equal(t, 1, sel.invalidated)
	assert.Equal(t, []*model.Track{nil, tracks[0], tracks[1]}, sel.calls)

	entries := s.History().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, tracks[0], entries[0].Track)
	assert.Equal(t, 6.9375, engine.SelfRating(tracks[0]))
}

func TestSession_FeedbackDisabled(t *testing.T) {
	tracks, engine := newTracks(3)
	sel := &scriptedSelector{picks: []*model.Track{tracks[0], tracks[1], tracks[2]}}
	s := NewSession(engine, sel, WithFeedback(false))
	ctx := context.Background()

	_, err := s.Start(ctx)
	require.NoError(t, err)
	_, err = s.Advance(ctx, 1, false)
	require.NoError(t, err)

	assert.Empty(t, s.History().Entries())
	assert.Equal(t, 0, sel.invalidated)
	assert.Equal(t, rating.Base, engine.SelfRating(tracks[0]))
}

func TestSession_StartError(t *testing.T) {
	_, engine := newTracks(0)
	errEmpty := errors.New("empty")
	s := NewSession(engine, &scriptedSelector{err: errEmpty})

	_, err := s.Start(context.Background())
	assert.ErrorIs(t, err, errEmpty)
	assert.Nil(t, s.Current())
}
