package sparse

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"reflect"
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrPermanentSlot is returned by every removal operation. Once a slot holds
// an element it keeps one for the lifetime of the store.
var ErrPermanentSlot = fmt.Errorf("sparse: slots are permanent: %w", errors.ErrUnsupported)

// initialCapacity mirrors the size of a small library so the first few
// hundred registrations never reallocate.
const initialCapacity = 256

// Store is an indexed container whose reads never fail.
//
// Absent slots read as the zero value (or the configured default), the
// logical length is one past the highest occupied index, and occupied
// slots can be replaced but never emptied again. Store is safe for
// concurrent use.
type Store[E any] struct {
	mu       sync.RWMutex
	items    []E
	occupied *roaring.Bitmap
	size     int
	def      E
}

// Option configures a Store.
type Option[E any] func(*Store[E])

// WithDefault sets the value returned by GetOrDefault for absent slots.
func WithDefault[E any](v E) Option[E] {
	return func(s *Store[E]) {
		s.def = v
	}
}

// WithCapacity preallocates backing storage for n slots.
func WithCapacity[E any](n int) Option[E] {
	return func(s *Store[E]) {
		if n > cap(s.items) {
			s.items = make([]E, 0, n)
		}
	}
}

// New creates an empty Store.
func New[E any](opts ...Option[E]) *Store[E] {
	s := &Store[E]{
		items:    make([]E, 0, initialCapacity),
		occupied: roaring.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the element at index i and whether the slot is occupied.
// Any index, including negative ones, is accepted.
func (s *Store[E]) Get(i int) (E, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(i)
}

func (s *Store[E]) get(i int) (E, bool) {
	if i < 0 || i >= s.size || !s.occupied.Contains(uint32(i)) {
		var zero E
		return zero, false
	}
	return s.items[i], true
}

// GetOrDefault returns the element at index i, or the store default when
// the slot is empty.
func (s *Store[E]) GetOrDefault(i int) E {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.get(i); ok {
		return v
	}
	return s.def
}

// Has reports whether slot i is occupied.
func (s *Store[E]) Has(i int) bool {
	_, ok := s.Get(i)
	return ok
}

// Set stores v at index i, growing the store as needed.
//
// Nil values and indexes outside [0, MaxUint32] are ignored and Set
// returns false.
func (s *Store[E]) Set(i int, v E) bool {
	if !valid(i) || isNil(v) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(i, v)
	return true
}

// SetIfAbsent stores v at index i only if the slot is empty. It reports
// whether v was stored.
func (s *Store[E]) SetIfAbsent(i int, v E) bool {
	if !valid(i) || isNil(v) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.occupied.Contains(uint32(i)) {
		return false
	}
	s.put(i, v)
	return true
}

// Add appends v at the next logical position and returns its index, or -1
// if v is nil.
func (s *Store[E]) Add(v E) int {
	if isNil(v) {
		return -1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.size
	s.put(i, v)
	return i
}

// put must be called with mu held.
func (s *Store[E]) put(i int, v E) {
	if i >= len(s.items) {
		s.items = slices.Grow(s.items, i+1-len(s.items))[:i+1]
	}
	s.items[i] = v
	s.occupied.Add(uint32(i))
	s.size = int(s.occupied.Maximum()) + 1
}

// Len returns one past the highest occupied index, or 0 for an empty store.
func (s *Store[E]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// TrueSize returns the number of occupied slots. It never decreases.
func (s *Store[E]) TrueSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int(s.occupied.GetCardinality())
}

// All iterates over occupied slots in increasing index order. Slots filled
// after iteration started are not visited.
func (s *Store[E]) All() iter.Seq2[int, E] {
	return func(yield func(int, E) bool) {
		s.mu.RLock()
		it := s.occupied.Clone().Iterator()
		s.mu.RUnlock()

		for it.HasNext() {
			i := int(it.Next())
			v, _ := s.Get(i)
			if !yield(i, v) {
				return
			}
		}
	}
}

// ForEach calls fn for every occupied slot in increasing index order while
// holding the read lock once for the whole pass. fn must not write to s.
func (s *Store[E]) ForEach(fn func(i int, v E)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it := s.occupied.Iterator()
	for it.HasNext() {
		i := int(it.Next())
		fn(i, s.items[i])
	}
}

// Values returns the occupied elements in index order.
func (s *Store[E]) Values() []E {
	out := make([]E, 0, s.TrueSize())
	s.ForEach(func(_ int, v E) {
		out = append(out, v)
	})
	return out
}

// Remove always fails with ErrPermanentSlot.
func (s *Store[E]) Remove(int) error {
	return ErrPermanentSlot
}

// RemoveAll always fails with ErrPermanentSlot.
func (s *Store[E]) RemoveAll(...E) error {
	return ErrPermanentSlot
}

// RetainAll always fails with ErrPermanentSlot.
func (s *Store[E]) RetainAll(...E) error {
	return ErrPermanentSlot
}

func valid(i int) bool {
	return i >= 0 && uint64(i) <= math.MaxUint32
}

func isNil[E any](v E) bool {
	rv := reflect.ValueOf(any(v))
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
