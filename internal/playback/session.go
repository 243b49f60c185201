package playback

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/handiism/affinity/internal/model"
	"github.com/handiism/affinity/internal/rating"
)

// Selector draws the track to play after current.
type Selector interface {
	Next(ctx context.Context, current *model.Track) (*model.Track, error)
	Invalidate()
}

// Session keeps the current and upcoming track of a player.
type Session struct {
	sel      Selector
	history  *History
	feedback bool
	log      zerolog.Logger

	mu       sync.Mutex
	current  *model.Track
	upcoming *model.Track
}

// Option configures a Session.
type Option func(*sessionConfig)

type sessionConfig struct {
	now      func() time.Time
	feedback bool
	log      zerolog.Logger
}

// WithClock sets the time source of the history.
func WithClock(now func() time.Time) Option {
	return func(c *sessionConfig) {
		c.now = now
	}
}

// WithFeedback turns rating updates on or off. Default on.
func WithFeedback(enabled bool) Option {
	return func(c *sessionConfig) {
		c.feedback = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *sessionConfig) {
		c.log = l
	}
}

// NewSession creates a Session.
func NewSession(engine *rating.Engine, sel Selector, opts ...Option) *Session {
	cfg := sessionConfig{feedback: true, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Session{
		sel:      sel,
		history:  NewHistory(engine, cfg.now),
		feedback: cfg.feedback,
		log:      cfg.log,
	}
}

// Start picks the first track and the one after it.
func (s *Session) Start(ctx context.Context) (*model.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.sel.Next(ctx, nil)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.sel.Next(ctx, current)
	if err != nil {
		return nil, err
	}
	s.current, s.upcoming = current, upcoming
	return current, nil
}

// Advance ends the current track, records how it was played and moves on
// to the upcoming one. played is the fraction heard, in [0, 1].
func (s *Session) Advance(ctx context.Context, played float64, skipped bool) (*model.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && s.feedback {
		e := s.history.Record(s.current, played, skipped)
		s.sel.Invalidate()
		s.log.Debug().Int("id", e.Track.ID()).Float64("multiplier", e.Multiplier).Msg("recorded feedback")
	}

	next := s.upcoming
	if next == nil {
		var err error
		if next, err = s.sel.Next(ctx, s.current); err != nil {
			return nil, err
		}
	}
	upcoming, err := s.sel.Next(ctx, next)
	if err != nil {
		return nil, err
	}
	s.current, s.upcoming = next, upcoming
	return next, nil
}

// Current returns the playing track, or nil before Start.
func (s *Session) Current() *model.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Upcoming returns the track that Advance will move to.
func (s *Session) Upcoming() *model.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upcoming
}

// History returns the feedback history.
func (s *Session) History() *History {
	return s.history
}
