package dashboard

import (
	"fmt"
	"sort"
	"time"

	"github.com/psn/readiness-tui/readiness"
)

// FieldMap names the record fields a calendar reads.
type FieldMap struct {
	Start  string
	End    string
	Title  string
	ID     string
	AllDay bool // forces every event to be all-day
}

// Args encodes the map the way frappe.desk.calendar.get_events expects.
func (m FieldMap) Args() map[string]any {
	allDay := 0
	if m.AllDay {
		allDay = 1
	}
	return map[string]any{
		"start":  m.Start,
		"end":    m.End,
		"title":  m.Title,
		"id":     m.ID,
		"allDay": allDay,
	}
}

// CalendarEvent is one entry on the calendar.
type CalendarEvent struct {
	ID     string
	Title  string
	Start  time.Time
	End    time.Time
	AllDay bool
}

// Covers reports whether the event falls on day (compared by date).
func (e CalendarEvent) Covers(day time.Time) bool {
	d := dateOf(day)
	return !d.Before(dateOf(e.Start)) && !d.After(dateOf(e.End))
}

var dateLayouts = []string{time.DateOnly, time.DateTime, "2006-01-02 15:04:05.999999", time.RFC3339}

// Map builds a CalendarEvent from a raw record. Missing fields stay zero;
// a missing or unreadable end falls back to the start.
func (m FieldMap) Map(record map[string]any) CalendarEvent {
	ev := CalendarEvent{
		ID:     stringField(record, m.ID),
		Title:  stringField(record, m.Title),
		Start:  timeField(record, m.Start),
		End:    timeField(record, m.End),
		AllDay: m.AllDay,
	}
	if ev.End.IsZero() || ev.End.Before(ev.Start) {
		ev.End = ev.Start
	}
	return ev
}

// MapAll maps records and orders them by start, then title.
func (m FieldMap) MapAll(records []map[string]any) []CalendarEvent {
	events := make([]CalendarEvent, 0, len(records))
	for _, r := range records {
		events = append(events, m.Map(r))
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].Title < events[j].Title
	})
	return events
}

func stringField(record map[string]any, key string) string {
	v, ok := record[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func timeField(record map[string]any, key string) time.Time {
	s := stringField(record, key)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// CalendarOptions are display options for a calendar.
type CalendarOptions struct {
	AllDaySlot bool
	Views      []string // header views, e.g. month, agendaWeek, agendaDay
}

// CalendarSettings are the calendar customizations for a doctype.
type CalendarSettings struct {
	Doctype         string
	FieldMap        FieldMap
	Options         CalendarOptions
	GetEventsMethod string
}

// EventReadinessCalendar maps Event Readiness onto the calendar.
var EventReadinessCalendar = CalendarSettings{
	Doctype: readiness.DoctypeEventReadiness,
	FieldMap: FieldMap{
		Start:  "event_date",
		End:    "custom_event_end_date",
		Title:  "event_name",
		ID:     "name",
		AllDay: true,
	},
	Options: CalendarOptions{
		AllDaySlot: false,
		Views:      []string{"month", "agendaWeek", "agendaDay"},
	},
	GetEventsMethod: readiness.MethodCalendarEvents,
}

// MonthRange returns the first and last day of ref's month.
func MonthRange(ref time.Time) (time.Time, time.Time) {
	y, m, _ := ref.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.Local)
	return first, first.AddDate(0, 1, -1)
}
