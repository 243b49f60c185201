package rating

import (
	"math"

	"github.com/rs/zerolog"
)

const (
	// Base is the rating of a pair no heuristic matched.
	Base = 6.0

	// Center is the midpoint of the rating domain, where feedback has full
	// effect.
	Center = 8.0

	// Max is the exclusive upper bound of the rating domain [0, Max).
	Max = 16.0

	// MaxDelta bounds a single feedback step. Any |delta| below 4 keeps a
	// rating inside the domain.
	MaxDelta = 4 - 0x1p-10
)

// Subject is a track that can be rated.
type Subject interface {
	Tags
	ID() int
	Ratings() *Vector
}

// Lookup resolves a track id to a loaded Subject.
type Lookup func(id int) (Subject, bool)

// Engine derives, reads and updates pairwise ratings.
type Engine struct {
	lookup   Lookup
	matchers []Matcher
	log      zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMatchers replaces DefaultMatchers.
func WithMatchers(m []Matcher) Option {
	return func(e *Engine) {
		e.matchers = m
	}
}

// WithLogger sets the logger used for tracing derived defaults.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// NewEngine creates an Engine that resolves counterparts through lookup.
func NewEngine(lookup Lookup, opts ...Option) *Engine {
	e := &Engine{
		lookup:   lookup,
		matchers: DefaultMatchers,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Damping returns the scale applied to feedback at rating f: 1 at Center,
// falling parabolically to 0 at 0 and Max.
func Damping(f float64) float64 {
	t := f/Center - 1
	return max(0, 1-t*t)
}

// Edit applies one damped feedback step to rating f.
//
// Starting strictly inside (0, Max) the result stays strictly inside.
// Values on or outside the boundary do not move.
func Edit(f, delta float64) float64 {
	if f <= 0 || f >= Max {
		return f
	}
	delta = max(-MaxDelta, min(MaxDelta, delta))
	next := f + Damping(f)*delta
	switch {
	case next <= 0:
		return math.Nextafter(0, 1)
	case next >= Max:
		return math.Nextafter(Max, 0)
	}
	return next
}

// Quantize encodes a rating as one byte, 1/16 per step.
func Quantize(r float64) byte {
	q := math.Round(r * 16)
	switch {
	case q < 0:
		return 0
	case q > math.MaxUint8:
		return math.MaxUint8
	}
	return byte(q)
}

// Dequantize decodes a persisted rating byte.
func Dequantize(b byte) float64 {
	return float64(b) / 16
}

// SelfRating returns how much s is liked on its own. Unrated tracks start
// at Base.
func (e *Engine) SelfRating(s Subject) float64 {
	v := s.Ratings()
	v.mu.Lock()
	defer v.mu.Unlock()
	if r, ok := v.values.Get(s.ID()); ok {
		return r
	}
	v.values.Set(s.ID(), Base)
	return Base
}

// Rating returns the rating from a towards b, deriving and caching a
// default for pairs that were never rated.
func (e *Engine) Rating(a, b Subject) float64 {
	if a.ID() == b.ID() {
		return e.SelfRating(a)
	}
	if r, ok := a.Ratings().Get(b.ID()); ok {
		return r
	}
	return e.derive(a, b)
}

// RatingTo is Rating for a counterpart known only by id. Counterparts that
// are not loaded read as Base and nothing is cached.
func (e *Engine) RatingTo(a Subject, id int) float64 {
	if id == a.ID() {
		return e.SelfRating(a)
	}
	if r, ok := a.Ratings().Get(id); ok {
		return r
	}
	if b, ok := e.lookup(id); ok {
		return e.derive(a, b)
	}
	return Base
}

// derive computes the default for (a, b) once and caches it on both sides.
// Both vectors are locked in id order.
func (e *Engine) derive(a, b Subject) float64 {
	va, vb := a.Ratings(), b.Ratings()
	first, second := va, vb
	if b.ID() < a.ID() {
		first, second = vb, va
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	if r, ok := va.values.Get(b.ID()); ok {
		return r
	}
	r := Derive(e.matchers, a, b)
	va.values.Set(b.ID(), r)
	if !vb.values.Has(a.ID()) {
		vb.values.Set(a.ID(), r)
	}
	e.log.Trace().Int("a", a.ID()).Int("b", b.ID()).Float64("rating", r).Msg("derived default rating")
	return r
}

// UpdateSelf applies feedback to the self rating of s.
func (e *Engine) UpdateSelf(s Subject, delta float64) {
	e.SelfRating(s)
	e.edit(s, s.ID(), delta)
}

// Update applies feedback to the pair: delta to self→other and half of it
// to other→self.
func (e *Engine) Update(self, other Subject, delta float64) {
	if self.ID() == other.ID() {
		e.UpdateSelf(self, delta)
		return
	}
	e.Rating(self, other)
	e.edit(self, other.ID(), delta)
	e.Rating(other, self)
	e.edit(other, self.ID(), delta/2)
}

// edit requires the entry to exist already.
func (e *Engine) edit(s Subject, id int, delta float64) {
	v := s.Ratings()
	v.mu.Lock()
	defer v.mu.Unlock()
	f, _ := v.values.Get(id)
	v.values.Set(id, Edit(f, delta))
}

// Attach loads a persisted line into the vector of s. The self rating is
// set to Base when the line does not cover it.
func (e *Engine) Attach(s Subject, line []byte) {
	v := s.Ratings()
	v.mu.Lock()
	defer v.mu.Unlock()
	v.load(line)
	if !v.values.Has(s.ID()) {
		v.values.Set(s.ID(), Base)
	}
}

// Encode serializes the vector of s as one byte per counterpart id from 0
// to the highest rated id. Gaps are filled with the rating a read would
// return.
func (e *Engine) Encode(s Subject) []byte {
	n := s.Ratings().Len()
	out := make([]byte, n)
	for i := range n {
		out[i] = Quantize(e.RatingTo(s, i))
	}
	return out
}
