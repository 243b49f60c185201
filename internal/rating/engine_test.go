package rating

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testTrack struct {
	id                   int
	artist, album, genre string
	vec                  *Vector
}

func (t *testTrack) ID() int          { return t.id }
func (t *testTrack) Ratings() *Vector { return t.vec }
func (t *testTrack) Artist() string   { return t.artist }
func (t *testTrack) Album() string    { return t.album }
func (t *testTrack) Genre() string    { return t.genre }

func newTrack(id int, artist, album, genre string) *testTrack {
	return &testTrack{id: id, artist: artist, album: album, genre: genre, vec: NewVector(id)}
}

func lookupOf(tracks ...*testTrack) Lookup {
	byID := make(map[int]*testTrack, len(tracks))
	for _, t := range tracks {
		byID[t.id] = t
	}
	return func(id int) (Subject, bool) {
		t, ok := byID[id]
		if !ok {
			return nil, false
		}
		return t, true
	}
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name string
		a, b *testTrack
		want float64
	}{
		{"nothing shared", newTrack(0, "A", "X", "rock"), newTrack(1, "B", "Y", "jazz"), 6},
		{"genre only", newTrack(0, "A", "X", "Rock"), newTrack(1, "B", "Y", "rock"), 7},
		{"same artist", newTrack(0, "Air", "X", ""), newTrack(1, "Air", "Y", ""), 8},
		{"featuring", newTrack(0, "Air", "X", ""), newTrack(1, "Air feat. Beck", "Y", ""), 7},
		{"artist case differs", newTrack(0, "air", "X", ""), newTrack(1, "AIR", "Y", ""), 7},
		{"everything", newTrack(0, "Air", "Moon", "pop"), newTrack(1, "Air", "Moon", "pop"), 10},
		{"empty tags", newTrack(0, "", "", ""), newTrack(1, "", "", ""), 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Derive(DefaultMatchers, tt.a, tt.b))
			assert.Equal(t, tt.want, Derive(DefaultMatchers, tt.b, tt.a))
		})
	}
}

func TestEngine_DefaultIsSymmetricAndCached(t *testing.T) {
	a := newTrack(0, "Air", "Moon", "pop")
	b := newTrack(5, "Air", "Talkie", "pop")

	calls := 0
	counting := []Matcher{{
		Name:  "count",
		Bonus: 1,
		Match: func(x, y Tags) bool {
			calls++
			return DefaultMatchers[0].Match(x, y)
		},
	}}
	e := NewEngine(lookupOf(a, b), WithMatchers(counting))

	ab := e.Rating(a, b)
	assert.Equal(t, 7.0, ab)
	assert.Equal(t, 1, calls)

	ba := e.Rating(b, a)
	assert.Equal(t, ab, ba)

	cachedAB, ok := a.vec.Get(5)
	require.True(t, ok)
	assert.Equal(t, ab, cachedAB)
	cachedBA, ok := b.vec.Get(0)
	require.True(t, ok)
	assert.Equal(t, ab, cachedBA)

	e.Rating(a, b)
	e.Rating(b, a)
	assert.Equal(t, 1, calls, "cached defaults must not be recomputed")
}

func TestEngine_DefaultKeepsExplicitReverse(t *testing.T) {
	a := newTrack(0, "A", "", "")
	b := newTrack(1, "A", "", "")
	e := NewEngine(lookupOf(a, b))

	e.Attach(b, []byte{160, 96})
	assert.Equal(t, 8.0, e.Rating(a, b))

	r, _ := b.vec.Get(0)
	assert.Equal(t, 10.0, r)
}

func TestEngine_SelfRating(t *testing.T) {
	a := newTrack(3, "A", "B", "C")
	e := NewEngine(lookupOf(a))

	assert.Equal(t, Base, e.SelfRating(a))
	assert.Equal(t, Base, e.Rating(a, a))

	e.UpdateSelf(a, 1)
	assert.Greater(t, e.SelfRating(a), Base)
}

func TestDamping(t *testing.T) {
	assert.Equal(t, 1.0, Damping(Center))
	assert.Equal(t, 0.0, Damping(0))
	assert.Equal(t, 0.0, Damping(Max))

	for f := 0.01; f < Max; f += 0.01 {
		d := Damping(f)
		assert.Greater(t, d, 0.0, "f=%v", f)
		assert.LessOrEqual(t, d, 1.0, "f=%v", f)
	}
}

func TestEdit_StaysInsideDomain(t *testing.T) {
	starts := []float64{0.0625, 1, 6, 8, 12, 15.9375}
	deltas := []float64{MaxDelta, -MaxDelta, 1, -1, 0.5, 10, -10}

	for _, start := range starts {
		for _, delta := range deltas {
			f := start
			for range 10_000 {
				f = Edit(f, delta)
				require.Greater(t, f, 0.0, "start=%v delta=%v", start, delta)
				require.Less(t, f, Max, "start=%v delta=%v", start, delta)
			}
		}
	}
}

func TestEdit_Formula(t *testing.T) {
	assert.Equal(t, 9.0, Edit(8, 1))
	assert.Equal(t, 7.0, Edit(8, -1))
	// t = 0.5, scale = 0.75
	assert.InDelta(t, 12.75, Edit(12, 1), 1e-12)
	assert.Equal(t, 11.0, Edit(8, 3))
	assert.Equal(t, 8+MaxDelta, Edit(8, 10), "delta is clamped")
	// boundary values do not move
	assert.Equal(t, 0.0, Edit(0, 1))
	assert.Equal(t, Max, Edit(Max, -1))
}

func TestEngine_UpdateHalvesReverse(t *testing.T) {
	starts := [][2]float64{{8, 8}, {3, 12}, {15, 1}, {6.5, 9.25}}
	deltas := []float64{1, -1, 0.4, -1.7}

	for _, s := range starts {
		for _, delta := range deltas {
			a := newTrack(0, "", "", "")
			b := newTrack(1, "", "", "")
			e := NewEngine(lookupOf(a, b))
			a.vec.values.Set(1, s[0])
			b.vec.values.Set(0, s[1])

			e.Update(a, b, delta)

			ab, _ := a.vec.Get(1)
			ba, _ := b.vec.Get(0)
			assert.Equal(t, Edit(s[0], delta), ab)
			assert.Equal(t, Edit(s[1], delta/2), ba)
		}
	}
}

func TestEngine_UpdateDerivesFirst(t *testing.T) {
	a := newTrack(0, "Air", "", "")
	b := newTrack(1, "Air", "", "")
	e := NewEngine(lookupOf(a, b))

	e.Update(a, b, 1)

	ab, _ := a.vec.Get(1)
	ba, _ := b.vec.Get(0)
	assert.Equal(t, Edit(8, 1), ab)
	assert.Equal(t, Edit(8, 0.5), ba)
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		in   float64
		want byte
	}{
		{0, 0},
		{6, 96},
		{8.03125, 129},
		{15.9375, 255},
		{15.99, 255},
		{-1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Quantize(tt.in), "Quantize(%v)", tt.in)
	}

	for b := range 256 {
		assert.Equal(t, byte(b), Quantize(Dequantize(byte(b))))
	}
}

func TestEngine_AttachAndEncode(t *testing.T) {
	a := newTrack(2, "A", "", "")
	b := newTrack(0, "B", "", "")
	e := NewEngine(lookupOf(a, b))

	line := []byte{100, 33, 200, 7}
	e.Attach(a, line)
	assert.Equal(t, line, e.Encode(a))

	fresh := newTrack(3, "C", "", "")
	e.Attach(fresh, nil)
	assert.Equal(t, Base, e.SelfRating(fresh))
	encoded := e.Encode(fresh)
	require.Len(t, encoded, 4)
	assert.Equal(t, Quantize(Base), encoded[3])
	// id 1 is not loaded, so nothing gets cached for it
	_, ok := fresh.vec.Get(1)
	assert.False(t, ok)
}

func TestEngine_ConcurrentUpdates(t *testing.T) {
	a := newTrack(0, "", "", "")
	b := newTrack(1, "", "", "")
	e := NewEngine(lookupOf(a, b))

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				e.Update(a, b, 0.01)
				e.Update(b, a, -0.01)
			}
		}()
	}
	wg.Wait()

	ab, ok := a.vec.Get(1)
	require.True(t, ok)
	assert.False(t, math.IsNaN(ab))
	assert.Greater(t, ab, 0.0)
	assert.Less(t, ab, Max)
}
