package views_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"github.com/psn/readiness-tui/dashboard"
	"github.com/psn/readiness-tui/readiness"
	"github.com/psn/readiness-tui/views"
)

var calendarNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.Local)

type calendarCall struct {
	start, end time.Time
}

func calendarEvents(calls *[]calendarCall, mu *sync.Mutex) *readiness.MockEventService {
	return &readiness.MockEventService{
		CalendarEventsFunc: func(ctx context.Context, start, end time.Time, fieldMap map[string]any) ([]map[string]any, error) {
			mu.Lock()
			*calls = append(*calls, calendarCall{start, end})
			mu.Unlock()
			if start.Month() != time.October {
				return nil, nil
			}
			return []map[string]any{
				{"name": "EVR-0002", "event_name": "Summit", "event_date": "2026-10-30"},
				{"name": "EVR-0001", "event_name": "Expo", "event_date": "2026-10-20", "custom_event_end_date": "2026-10-22"},
			}, nil
		},
	}
}

func newCalendarView(svc readiness.EventServiceAPI, rec *recorder) *views.CalendarView {
	var post views.Poster
	if rec != nil {
		post = rec.poster()
	}
	return views.NewCalendarView(views.CalendarViewParams{
		Settings:  dashboard.EventReadinessCalendar,
		Events:    svc,
		StaleTTL:  testStaleTTL,
		PostEvent: post,
		Now:       func() time.Time { return calendarNow },
	})
}

func TestCalendarView_Load(t *testing.T) {
	var mu sync.Mutex
	var calls []calendarCall
	cv := newCalendarView(calendarEvents(&calls, &mu), nil)

	if err := cv.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	wantStart := time.Date(2026, 10, 1, 0, 0, 0, 0, time.Local)
	wantEnd := time.Date(2026, 10, 31, 0, 0, 0, 0, time.Local)
	if !calls[0].start.Equal(wantStart) || !calls[0].end.Equal(wantEnd) {
		t.Errorf("unexpected range %s - %s", calls[0].start, calls[0].end)
	}

	entries := cv.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "EVR-0001" || !entries[0].AllDay {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
	if !cv.Loaded() {
		t.Error("expected Loaded()=true after Load()")
	}
}

func TestCalendarView_Load_Error(t *testing.T) {
	svc := &readiness.MockEventService{
		CalendarEventsFunc: func(ctx context.Context, start, end time.Time, fieldMap map[string]any) ([]map[string]any, error) {
			return nil, context.DeadlineExceeded
		},
	}
	cv := newCalendarView(svc, nil)

	if err := cv.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if cv.Loaded() {
		t.Error("expected Loaded()=false after failed Load()")
	}
}

func TestCalendarView_MonthNavigation(t *testing.T) {
	var mu sync.Mutex
	var calls []calendarCall
	rec := newRecorder()
	cv := newCalendarView(calendarEvents(&calls, &mu), rec)
	_ = cv.Load(context.Background())

	cmd, err := cv.HandleEvent(vaxis.Key{Keycode: 'l'}, vxfw.EventPhase(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd == nil {
		t.Error("expected l to be consumed")
	}
	if got := cv.Month(); got.Month() != time.November || got.Year() != 2026 {
		t.Errorf("expected November 2026, got %s", got)
	}
	if cv.Loaded() {
		t.Error("expected month change to drop loaded data")
	}
	reload, ok := rec.all()[0].(views.Reload)
	if !ok || reload.View != views.View(cv) {
		t.Errorf("expected Reload for this view, got %#v", rec.all()[0])
	}

	_, _ = cv.HandleEvent(vaxis.Key{Keycode: 'h'}, vxfw.EventPhase(0))
	_, _ = cv.HandleEvent(vaxis.Key{Keycode: 'h'}, vxfw.EventPhase(0))
	if got := cv.Month(); got.Month() != time.September {
		t.Errorf("expected September, got %s", got)
	}

	_, _ = cv.HandleEvent(vaxis.Key{Keycode: 't'}, vxfw.EventPhase(0))
	if got := cv.Month(); got.Month() != time.October {
		t.Errorf("expected t to return to October, got %s", got)
	}

	_ = cv.Load(context.Background())
	if cv.ItemCount() != 2 {
		t.Errorf("expected 2 entries after reload, got %d", cv.ItemCount())
	}
}

func TestCalendarView_Enter_OpensSelected(t *testing.T) {
	var mu sync.Mutex
	var calls []calendarCall
	rec := newRecorder()
	cv := newCalendarView(calendarEvents(&calls, &mu), rec)
	_ = cv.Load(context.Background())

	_, _ = cv.HandleEvent(vaxis.Key{Keycode: 'j'}, vxfw.EventPhase(0))
	cmd, err := cv.HandleEvent(vaxis.Key{Keycode: vaxis.KeyEnter}, vxfw.EventPhase(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd == nil {
		t.Error("expected Enter to be consumed")
	}

	events := rec.all()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	open, ok := events[0].(views.OpenRecord)
	if !ok || open.Doctype != readiness.DoctypeEventReadiness || open.Name != "EVR-0002" {
		t.Errorf("unexpected event %#v", events[0])
	}
}

func TestCalendarView_Enter_NothingSelected(t *testing.T) {
	rec := newRecorder()
	cv := newCalendarView(&readiness.MockEventService{}, rec)
	_ = cv.Load(context.Background())

	_, _ = cv.HandleEvent(vaxis.Key{Keycode: vaxis.KeyEnter}, vxfw.EventPhase(0))
	if events := rec.all(); len(events) != 0 {
		t.Errorf("expected no events for an empty month, got %v", events)
	}
}

func TestCalendarView_Draw(t *testing.T) {
	var mu sync.Mutex
	var calls []calendarCall
	cv := newCalendarView(calendarEvents(&calls, &mu), nil)

	if _, err := cv.Draw(testDrawContext(80, 24)); err != nil {
		t.Fatalf("unexpected error drawing before load: %v", err)
	}

	_ = cv.Load(context.Background())
	s, err := cv.Draw(testDrawContext(80, 24))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Size.Width != 80 || s.Size.Height != 24 {
		t.Errorf("unexpected size %dx%d", s.Size.Width, s.Size.Height)
	}
	if _, err := cv.Draw(testDrawContext(40, 6)); err != nil {
		t.Fatalf("unexpected error on a short terminal: %v", err)
	}
}

func TestCalendarView_Draw_EmptyMonth(t *testing.T) {
	cv := newCalendarView(&readiness.MockEventService{}, nil)
	_ = cv.Load(context.Background())

	if _, err := cv.Draw(testDrawContext(80, 24)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
