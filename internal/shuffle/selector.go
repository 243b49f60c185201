package shuffle

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog"

	"github.com/handiism/affinity/internal/model"
	"github.com/handiism/affinity/internal/rating"
)

// ErrEmptyLibrary is returned when there is no track to choose from.
var ErrEmptyLibrary = errors.New("shuffle: library has no tracks")

// Library is the part of the track registry the selector samples.
type Library interface {
	// Await blocks until loading has finished.
	Await(ctx context.Context) error
	Tracks() []*model.Track
	Engine() *rating.Engine
}

// Selector draws next tracks. It is safe for concurrent use.
type Selector struct {
	lib     Library
	uniform bool
	log     zerolog.Logger

	mu       sync.Mutex
	rng      *rand.Rand
	dist     Distribution[*model.Track]
	built    bool
	builtFor int
}

// Option configures a Selector.
type Option func(*Selector)

// WithRand sets the random source, for reproducible draws.
func WithRand(r *rand.Rand) Option {
	return func(s *Selector) {
		s.rng = r
	}
}

// WithUniform makes every track equally likely, ignoring ratings.
func WithUniform(uniform bool) Option {
	return func(s *Selector) {
		s.uniform = uniform
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Selector) {
		s.log = l
	}
}

// NewSelector creates a Selector over lib.
func NewSelector(lib Library, opts ...Option) *Selector {
	s := &Selector{
		lib:      lib,
		log:      zerolog.Nop(),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		builtFor: model.NoID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Weight returns the sampling weight of track while current is playing.
// current may be nil.
func Weight(e *rating.Engine, current, track *model.Track) float64 {
	r := e.SelfRating(track)
	if current != nil {
		r += e.Rating(current, track)
	}
	return math.Ldexp(1, int(math.Floor(r)))
}

// Next waits for loading to finish and draws the track to play after
// current, which may be nil.
func (s *Selector) Next(ctx context.Context, current *model.Track) (*model.Track, error) {
	if err := s.lib.Await(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next(current)
}

// Queue draws n tracks in a row, each conditioned on the one before it.
func (s *Selector) Queue(ctx context.Context, current *model.Track, n int) ([]*model.Track, error) {
	if err := s.lib.Await(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := make([]*model.Track, 0, n)
	for range n {
		t, err := s.next(current)
		if err != nil {
			return queue, err
		}
		queue = append(queue, t)
		current = t
	}
	return queue, nil
}

// Invalidate forces the next draw to rebuild the weight table, for use
// after ratings or the registry changed.
func (s *Selector) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.built = false
}

// next must be called with mu held.
func (s *Selector) next(current *model.Track) (*model.Track, error) {
	id := model.NoID
	if current != nil {
		id = current.ID()
	}
	if !s.built || s.builtFor != id {
		s.rebuild(current)
	}
	t, ok := s.dist.Pick(s.rng.Float64())
	if !ok {
		return nil, ErrEmptyLibrary
	}
	return t, nil
}

func (s *Selector) rebuild(current *model.Track) {
	s.dist.Reset()
	e := s.lib.Engine()
	for _, t := range s.lib.Tracks() {
		w := 1.0
		if !s.uniform {
			w = Weight(e, current, t)
		}
		s.dist.Add(t, w)
	}
	// An empty table is not cached so tracks registered later are seen.
	s.built = s.dist.Len() > 0
	if current != nil {
		s.builtFor = current.ID()
	} else {
		s.builtFor = model.NoID
	}
	s.log.Debug().Int("current", s.builtFor).Int("tracks", s.dist.Len()).Float64("total", s.dist.Total()).Msg("rebuilt weight table")
}
