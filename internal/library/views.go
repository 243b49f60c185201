package library

import (
	"sync"

	"github.com/handiism/affinity/internal/model"
)

// View is a consumer of the full track list.
type View interface {
	Populate(tracks []*model.Track)
}

// ViewFunc adapts a function to View.
type ViewFunc func(tracks []*model.Track)

// Populate calls f(tracks).
func (f ViewFunc) Populate(tracks []*model.Track) {
	f(tracks)
}

// Subscribe registers v and returns a function that unregisters it. v is
// populated immediately when loading has finished; otherwise a refresh of
// all views is scheduled for when it does.
func (l *Library) Subscribe(v View) (release func()) {
	l.viewsMu.Lock()
	key := l.nextView
	l.nextView++
	l.views[key] = v
	l.viewsMu.Unlock()

	if l.coord.Quiescent() {
		v.Populate(l.Tracks())
	} else {
		l.refresher.Request()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.viewsMu.Lock()
			delete(l.views, key)
			l.viewsMu.Unlock()
		})
	}
}

// Refresh schedules populating every view once loading has finished.
// Concurrent calls are folded into one refresh.
func (l *Library) Refresh() {
	l.refresher.Request()
}

func (l *Library) populateViews() {
	l.viewsMu.Lock()
	views := make([]View, 0, len(l.views))
	for _, v := range l.views {
		views = append(views, v)
	}
	l.viewsMu.Unlock()

	tracks := l.Tracks()
	l.log.Debug().Int("views", len(views)).Int("tracks", len(tracks)).Msg("populating views")
	for _, v := range views {
		v.Populate(tracks)
	}
}
