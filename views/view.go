package views

import (
	"context"
	"sync"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"github.com/psn/readiness-tui/widgets"
)

// View is a tab of the app.
type View interface {
	vxfw.Widget
	vxfw.EventHandler
	Load(ctx context.Context) error
	Loaded() bool
	Stale() bool
}

// Poster posts events to the vaxis loop. It also satisfies
// dashboard.Router and dashboard.Notifier so chart clicks can report
// through the loop. A nil Poster drops events.
type Poster func(vaxis.Event)

// Post sends ev if p is set.
func (p Poster) Post(ev vaxis.Event) {
	if p != nil {
		p(ev)
	}
}

// OpenForm posts OpenRecord.
func (p Poster) OpenForm(doctype, name string) {
	p.Post(OpenRecord{Doctype: doctype, Name: name})
}

// Notify posts a Notice.
func (p Poster) Notify(msg string) {
	p.Post(Notice{Text: msg})
}

// freshness tracks load state. mu also guards the embedding view's data,
// which is written by Load on a background goroutine and read by Draw.
type freshness struct {
	mu       sync.Mutex
	loaded   bool
	loadedAt time.Time
	staleTTL time.Duration
}

// Loaded reports whether data has been successfully fetched.
func (f *freshness) Loaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

// Stale reports whether the cached data is older than the configured TTL.
func (f *freshness) Stale() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loaded {
		return true
	}
	return time.Since(f.loadedAt) > f.staleTTL
}

// markLoaded must be called with mu held.
func (f *freshness) markLoaded() {
	f.loaded = true
	f.loadedAt = time.Now()
}

// taskSegments builds the stacked task status bar segments in
// pending, in progress, completed, delayed order.
func taskSegments(pending, inProgress, completed, delayed int) []widgets.Segment {
	return []widgets.Segment{
		{Value: float64(pending), Color: statusColors[0]},
		{Value: float64(inProgress), Color: statusColors[1]},
		{Value: float64(completed), Color: statusColors[2]},
		{Value: float64(delayed), Color: statusColors[3]},
	}
}

var statusColors = [4]vaxis.Color{
	vaxis.IndexColor(4), // pending: blue
	vaxis.IndexColor(3), // in progress: yellow
	vaxis.IndexColor(2), // completed: green
	vaxis.IndexColor(1), // delayed: red
}
