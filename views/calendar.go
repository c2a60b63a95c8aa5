package views

import (
	"context"
	"fmt"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"github.com/psn/readiness-tui/dashboard"
	"github.com/psn/readiness-tui/readiness"
	"github.com/psn/readiness-tui/widgets"
)

// CalendarViewParams holds configuration for creating a CalendarView.
type CalendarViewParams struct {
	Settings  dashboard.CalendarSettings
	Events    readiness.EventServiceAPI
	StaleTTL  time.Duration
	PostEvent Poster

	// Now defaults to time.Now.
	Now func() time.Time
}

// CalendarView shows one month of Event Readiness records: a month grid
// with marked days and an agenda below it.
type CalendarView struct {
	freshness

	settings dashboard.CalendarSettings
	events   readiness.EventServiceAPI
	post     Poster
	now      func() time.Time

	month   time.Time // first day of the shown month
	entries []dashboard.CalendarEvent
	agenda  *widgets.Table
}

// NewCalendarView creates a CalendarView showing the current month.
func NewCalendarView(p CalendarViewParams) *CalendarView {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	cv := &CalendarView{
		settings: p.Settings,
		events:   p.Events,
		post:     p.PostEvent,
		now:      now,
		agenda: &widgets.Table{
			Columns: []widgets.TableColumn{
				{Width: 10},
				{Width: 10},
				{Width: 40},
			},
			Header:     []string{"START", "END", "EVENT"},
			Gap:        2,
			Selectable: true,
		},
	}
	cv.staleTTL = p.StaleTTL
	cv.month, _ = dashboard.MonthRange(now())
	return cv
}

// Month returns the first day of the shown month.
func (cv *CalendarView) Month() time.Time {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	return cv.month
}

// Load fetches the events overlapping the shown month.
func (cv *CalendarView) Load(ctx context.Context) error {
	cv.mu.Lock()
	start, end := dashboard.MonthRange(cv.month)
	cv.mu.Unlock()

	records, err := cv.events.CalendarEvents(ctx, start, end, cv.settings.FieldMap.Args())
	if err != nil {
		return err
	}
	entries := cv.settings.FieldMap.MapAll(records)

	cv.mu.Lock()
	defer cv.mu.Unlock()
	if first, _ := dashboard.MonthRange(start); !first.Equal(cv.month) {
		// the month changed while loading; a newer load is on its way
		return nil
	}
	cv.entries = entries
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.Start.Format(time.DateOnly), e.End.Format(time.DateOnly), e.Title}
	}
	cv.agenda.Rows = rows
	cv.agenda.SetCursor(cv.agenda.Cursor())
	cv.markLoaded()
	return nil
}

// Entries returns the events of the shown month.
func (cv *CalendarView) Entries() []dashboard.CalendarEvent {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	return cv.entries
}

// ItemCount returns the number of events in the shown month.
func (cv *CalendarView) ItemCount() int {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	return len(cv.entries)
}

// ShiftMonth moves the shown month by n months and marks the data stale.
func (cv *CalendarView) ShiftMonth(n int) {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	cv.month = cv.month.AddDate(0, n, 0)
	cv.afterMonthChange()
}

// Today shows the current month.
func (cv *CalendarView) Today() {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	cv.month, _ = dashboard.MonthRange(cv.now())
	cv.afterMonthChange()
}

func (cv *CalendarView) afterMonthChange() {
	cv.loaded = false
	cv.entries = nil
	cv.agenda.Rows = nil
	cv.agenda.SetCursor(0)
}

// Selected returns the highlighted agenda entry.
func (cv *CalendarView) Selected() (dashboard.CalendarEvent, bool) {
	cv.mu.Lock()
	defer cv.mu.Unlock()
	i := cv.agenda.Cursor()
	if i < 0 || i >= len(cv.entries) {
		return dashboard.CalendarEvent{}, false
	}
	return cv.entries[i], true
}

// Draw renders the month grid followed by the agenda.
func (cv *CalendarView) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	cv.mu.Lock()
	defer cv.mu.Unlock()

	if !cv.loaded {
		return drawLoadingState(ctx, cv)
	}

	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, cv)
	err := drawLine(ctx, &s, 0,
		vaxis.Segment{Text: cv.month.Format("January 2006"), Style: boldStyle},
		vaxis.Segment{Text: fmt.Sprintf("  %d events   h prev  l next  t today", len(cv.entries)), Style: dimStyle},
	)
	if err != nil {
		return vxfw.Surface{}, err
	}

	row := 2
	if err := drawLine(ctx, &s, row, vaxis.Segment{Text: " Mo  Tu  We  Th  Fr  Sa  Su", Style: dimStyle}); err != nil {
		return vxfw.Surface{}, err
	}
	row++

	_, last := dashboard.MonthRange(cv.month)
	today := cv.now()
	// Monday-first column of day 1
	col := (int(cv.month.Weekday()) + 6) % 7
	var segs []vaxis.Segment
	for i := 0; i < col; i++ {
		segs = append(segs, vaxis.Segment{Text: "    "})
	}
	for d := cv.month; !d.After(last); d = d.AddDate(0, 0, 1) {
		style := vaxis.Style{}
		for _, e := range cv.entries {
			if e.Covers(d) {
				style = vaxis.Style{Foreground: vaxis.IndexColor(2), Attribute: vaxis.AttrBold}
				break
			}
		}
		if sameDay(d, today) {
			style.Attribute |= vaxis.AttrReverse
		}
		segs = append(segs, vaxis.Segment{Text: " "}, vaxis.Segment{Text: fmt.Sprintf("%2d", d.Day()), Style: style}, vaxis.Segment{Text: " "})
		col++
		if col == 7 {
			if err := drawLine(ctx, &s, row, segs...); err != nil {
				return vxfw.Surface{}, err
			}
			row++
			segs = nil
			col = 0
		}
	}
	if len(segs) > 0 {
		if err := drawLine(ctx, &s, row, segs...); err != nil {
			return vxfw.Surface{}, err
		}
		row++
	}
	row++

	if row < int(ctx.Max.Height) {
		if len(cv.entries) == 0 {
			if err := drawLine(ctx, &s, row, vaxis.Segment{Text: "No events this month.", Style: dimStyle}); err != nil {
				return vxfw.Surface{}, err
			}
			return s, nil
		}
		agendaSurf, err := cv.agenda.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: ctx.Max.Height - uint16(row)}))
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, row, agendaSurf)
	}
	return s, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// HandleEvent handles month navigation and opens the selected entry on
// Enter. Month changes ask the app for a reload.
func (cv *CalendarView) HandleEvent(ev vaxis.Event, phase vxfw.EventPhase) (vxfw.Command, error) {
	key, ok := ev.(vaxis.Key)
	if !ok {
		return nil, nil
	}
	switch {
	case key.Matches('h'), key.Matches(vaxis.KeyLeft):
		cv.ShiftMonth(-1)
	case key.Matches('l'), key.Matches(vaxis.KeyRight):
		cv.ShiftMonth(1)
	case key.Matches('t'):
		cv.Today()
	case key.Matches(vaxis.KeyEnter):
		if e, ok := cv.Selected(); ok && e.ID != "" {
			cv.post.OpenForm(cv.settings.Doctype, e.ID)
		}
		return vxfw.ConsumeAndRedraw(), nil
	default:
		cv.mu.Lock()
		defer cv.mu.Unlock()
		return cv.agenda.HandleEvent(ev, phase)
	}
	cv.post.Post(Reload{View: cv})
	return vxfw.ConsumeAndRedraw(), nil
}
