package load

import (
	"context"
	"sync"
	"sync/atomic"
)

// Coordinator counts in-flight loading tasks and exposes a barrier that
// opens whenever the count drops to zero.
type Coordinator struct {
	mu     sync.Mutex
	active int
	// idle is closed while active == 0 and replaced when work starts.
	idle chan struct{}
}

// NewCoordinator returns a quiescent Coordinator.
func NewCoordinator() *Coordinator {
	idle := make(chan struct{})
	close(idle)
	return &Coordinator{idle: idle}
}

// Begin registers a task. Every Begin must be paired with one Done.
func (c *Coordinator) Begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == 0 {
		c.idle = make(chan struct{})
	}
	c.active++
}

// Done marks a task as finished.
func (c *Coordinator) Done() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == 0 {
		panic("load: Done called without matching Begin")
	}
	c.active--
	if c.active == 0 {
		close(c.idle)
	}
}

// Go runs fn in a new goroutine as a tracked task.
func (c *Coordinator) Go(fn func()) {
	c.Begin()
	go func() {
		defer c.Done()
		fn()
	}()
}

// Active returns the number of in-flight tasks.
func (c *Coordinator) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Quiescent reports whether no task is in flight.
func (c *Coordinator) Quiescent() bool {
	return c.Active() == 0
}

// Await blocks until no task is in flight or ctx is done.
func (c *Coordinator) Await(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresher runs fn after the coordinator becomes quiescent. Requests made
// while a run is pending are folded into it.
type Refresher struct {
	c       *Coordinator
	fn      func()
	pending atomic.Bool
}

// NewRefresher creates a Refresher for fn.
func NewRefresher(c *Coordinator, fn func()) *Refresher {
	return &Refresher{c: c, fn: fn}
}

// Request schedules a run and reports whether a new one was scheduled. It
// returns false when a run is already pending.
func (r *Refresher) Request() bool {
	if !r.pending.CompareAndSwap(false, true) {
		return false
	}
	go r.run()
	return true
}

// Pending reports whether a run is scheduled but has not started.
func (r *Refresher) Pending() bool {
	return r.pending.Load()
}

func (r *Refresher) run() {
	_ = r.c.Await(context.Background())
	// Clear before running so changes made during fn trigger another pass.
	r.pending.Store(false)
	r.fn()
}
