package rating

import (
	"sync"

	"github.com/handiism/affinity/internal/sparse"
)

// Vector holds one track's directional ratings towards other tracks,
// indexed by the other track's id.
//
// Entries are filled lazily: either from the persisted ratings file, by
// feedback, or by caching a derived default on first read. The mutex
// serializes every read-modify-write so that a default is cached once and
// concurrent feedback is never lost.
type Vector struct {
	mu     sync.Mutex
	owner  int
	values *sparse.Store[float64]
}

// NewVector creates an empty vector owned by the track with the given id.
func NewVector(owner int) *Vector {
	return &Vector{
		owner:  owner,
		values: sparse.New[float64](),
	}
}

// Owner returns the id of the track this vector belongs to.
func (v *Vector) Owner() int {
	return v.owner
}

// Get returns the explicit rating towards id, if any.
func (v *Vector) Get(id int) (float64, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.values.Get(id)
}

// Len returns one past the highest id this vector holds a rating for.
func (v *Vector) Len() int {
	return v.values.Len()
}

// Explicit returns the number of entries held, observed or cached.
func (v *Vector) Explicit() int {
	return v.values.TrueSize()
}

// load replaces entries with decoded persisted values. The caller holds mu.
func (v *Vector) load(line []byte) {
	for i, b := range line {
		v.values.Set(i, Dequantize(b))
	}
}
