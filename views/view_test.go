package views_test

import (
	"testing"

	"git.sr.ht/~rockorager/vaxis"
	"github.com/psn/readiness-tui/views"
)

func TestPoster_Nil(t *testing.T) {
	var p views.Poster
	// Should not panic
	p.Post(views.Notice{Text: "x"})
	p.OpenForm("Event Readiness", "EVR-0001")
	p.Notify("x")
}

func TestPoster_OpenFormAndNotify(t *testing.T) {
	var got []vaxis.Event
	p := views.Poster(func(ev vaxis.Event) { got = append(got, ev) })

	p.OpenForm("Event Readiness", "EVR-0001")
	p.Notify("Event not found: Expo")

	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if rec, ok := got[0].(views.OpenRecord); !ok || rec.Doctype != "Event Readiness" || rec.Name != "EVR-0001" {
		t.Errorf("unexpected first event %#v", got[0])
	}
	if n, ok := got[1].(views.Notice); !ok || n.Text != "Event not found: Expo" || n.Err {
		t.Errorf("unexpected second event %#v", got[1])
	}
}
