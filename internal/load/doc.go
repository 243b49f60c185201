// Package load tracks background loading work and lets callers wait until
// all of it has finished.
//
// A Coordinator counts in-flight tasks. Scanning a library directory is one
// task; readers that must see a complete library (next-track selection,
// writing ratings) wait on the quiescence barrier first:
//
//	c := load.NewCoordinator()
//	c.Go(func() { scan(dir) })
//	if err := c.Await(ctx); err != nil {
//	    return err
//	}
//
// A Refresher runs a function once the coordinator is quiescent and folds
// concurrent requests into a single pending run.
package load
