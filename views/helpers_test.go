package views_test

import (
	"sync"
	"testing"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"github.com/psn/readiness-tui/views"
)

const testStaleTTL = 30 * time.Second

func testDrawContext(w, h uint16) vxfw.DrawContext {
	return vxfw.DrawContext{
		Max: vxfw.Size{Width: w, Height: h},
		Min: vxfw.Size{},
		Characters: func(s string) []vaxis.Character {
			chars := make([]vaxis.Character, 0, len(s))
			for _, r := range s {
				chars = append(chars, vaxis.Character{Grapheme: string(r), Width: 1})
			}
			return chars
		},
	}
}

// recorder collects events posted by a view.
type recorder struct {
	mu     sync.Mutex
	events []vaxis.Event
	ch     chan vaxis.Event
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan vaxis.Event, 64)}
}

func (r *recorder) poster() views.Poster {
	return func(ev vaxis.Event) {
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
		r.ch <- ev
	}
}

func (r *recorder) all() []vaxis.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]vaxis.Event, len(r.events))
	copy(out, r.events)
	return out
}

// waitFor blocks until an event matching fn is posted.
func (r *recorder) waitFor(t *testing.T, fn func(vaxis.Event) bool) vaxis.Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-r.ch:
			if fn(ev) {
				return ev
			}
		case <-timeout:
			t.Fatal("timed out waiting for event")
			return nil
		}
	}
}

func isActionDone(ev vaxis.Event) bool {
	_, ok := ev.(views.ActionDone)
	return ok
}

func isOpenRecord(ev vaxis.Event) bool {
	_, ok := ev.(views.OpenRecord)
	return ok
}
