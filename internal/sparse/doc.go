// Package sparse provides Store, an indexed container for permanent identity
// slots.
//
// A Store behaves like a slice that never panics on access: reading an index
// that was never written yields the zero value, writing past the end pads
// the gap with empty slots, and once a slot is occupied it stays occupied.
// Track ids are never reused within a run, which is why removal is not
// supported:
//
//	tracks := sparse.New[*model.Track]()
//	tracks.Set(42, track)
//	tracks.Len()      // 43
//	tracks.TrueSize() // 1
//	tracks.Get(7)     // nil, false
//
// Iteration visits occupied slots only, in increasing index order:
//
//	for id, t := range tracks.All() {
//	    fmt.Println(id, t)
//	}
package sparse
