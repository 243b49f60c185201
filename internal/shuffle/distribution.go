package shuffle

import "sort"

// Distribution is a cumulative weight table for sampling items with
// probability proportional to their weight. It is not safe for concurrent
// use.
type Distribution[T any] struct {
	items []T
	cum   []float64
}

// Add appends item with the given weight. Non-positive weights are ignored.
func (d *Distribution[T]) Add(item T, weight float64) {
	if !(weight > 0) {
		return
	}
	d.items = append(d.items, item)
	d.cum = append(d.cum, d.Total()+weight)
}

// Total returns the sum of all weights.
func (d *Distribution[T]) Total() float64 {
	if len(d.cum) == 0 {
		return 0
	}
	return d.cum[len(d.cum)-1]
}

// Len returns the number of items.
func (d *Distribution[T]) Len() int {
	return len(d.items)
}

// Reset removes all items, keeping the allocated storage.
func (d *Distribution[T]) Reset() {
	clear(d.items)
	d.items = d.items[:0]
	d.cum = d.cum[:0]
}

// Pick returns the item whose cumulative range contains r, where r is a
// uniform value in [0, 1). It returns false for an empty distribution.
func (d *Distribution[T]) Pick(r float64) (T, bool) {
	if len(d.items) == 0 {
		var zero T
		return zero, false
	}
	x := r * d.Total()
	i := sort.Search(len(d.cum), func(i int) bool { return d.cum[i] > x })
	if i == len(d.cum) {
		i--
	}
	return d.items[i], true
}
