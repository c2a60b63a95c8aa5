package views

import (
	"fmt"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"github.com/dustin/go-humanize"
	"github.com/psn/readiness-tui/readiness"
	"github.com/psn/readiness-tui/widgets"
)

// EventView is the read-only form of one Event Readiness record, opened
// from a chart click or the calendar.
type EventView struct {
	name  string
	event *readiness.Event
	now   func() time.Time
}

// NewEventView creates a form for the record called name. It shows a
// loading state until SetEvent is called.
func NewEventView(name string) *EventView {
	return &EventView{name: name, now: time.Now}
}

// Name returns the record name.
func (ev *EventView) Name() string {
	return ev.name
}

// SetEvent fills the form.
func (ev *EventView) SetEvent(e *readiness.Event) {
	ev.event = e
}

// Loaded reports whether the document has arrived.
func (ev *EventView) Loaded() bool {
	return ev.event != nil
}

// Draw renders the form fields.
func (ev *EventView) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	if ev.event == nil {
		return drawMessage(ctx, ev, "Loading "+ev.name+"...")
	}
	e := ev.event
	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, ev)

	title := e.EventName
	if title == "" {
		title = e.Name
	}
	err := drawLine(ctx, &s, 0,
		vaxis.Segment{Text: readiness.DoctypeEventReadiness + " / ", Style: dimStyle},
		vaxis.Segment{Text: title, Style: boldStyle},
		vaxis.Segment{Text: "   esc back", Style: dimStyle},
	)
	if err != nil {
		return vxfw.Surface{}, err
	}

	fields := [][2]string{
		{"Name", e.Name},
		{"Event Date", ev.formatDate(e.EventDate)},
		{"End Date", ev.formatDate(e.EndDate)},
		{"Default Tasks", yesNo(e.UseDefaultTasks != 0)},
		{"Task Generation", orDash(e.GenerationState)},
		{"Tasks", fmt.Sprintf("%s total, %s completed, %s pending, %s in progress, %s delayed",
			humanize.Comma(int64(e.TotalTasks)), humanize.Comma(int64(e.CompletedTasks)),
			humanize.Comma(int64(e.PendingTasks)), humanize.Comma(int64(e.InProgressTasks)),
			humanize.Comma(int64(e.DelayedTasks)))},
		{"Last Modified", ev.formatDate(e.Modified)},
	}
	row := 2
	for _, f := range fields {
		err := drawLine(ctx, &s, row,
			vaxis.Segment{Text: fmt.Sprintf("%-16s", f[0]), Style: dimStyle},
			vaxis.Segment{Text: f[1]},
		)
		if err != nil {
			return vxfw.Surface{}, err
		}
		row++
	}
	row++

	if row < int(ctx.Max.Height) {
		gauge := &widgets.BarGauge{
			Label:      "Readiness",
			LabelWidth: 15,
			Value:      e.EventReadiness,
			Suffix:     fmt.Sprintf("%d/%d tasks", e.CompletedTasks, e.TotalTasks),
			BarWidth:   30,
		}
		gs, err := gauge.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, row, gs)
		row++
	}
	if row < int(ctx.Max.Height) && int(ctx.Max.Width) > 16 {
		if err := drawLine(ctx, &s, row, vaxis.Segment{Text: fmt.Sprintf("%-16s", "Task Status"), Style: dimStyle}); err != nil {
			return vxfw.Surface{}, err
		}
		bar := &widgets.SegmentBar{
			Width:    30,
			Segments: taskSegments(e.PendingTasks, e.InProgressTasks, e.CompletedTasks, e.DelayedTasks),
		}
		bs, err := bar.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width - 16, Height: 1}))
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(16, row, bs)
	}
	return s, nil
}

// formatDate renders a server date with a relative hint, e.g.
// "2026-11-02 (2 weeks from now)". Unparsable values are shown as-is.
func (ev *EventView) formatDate(v string) string {
	if v == "" {
		return "-"
	}
	for _, layout := range []string{time.DateOnly, time.DateTime, "2006-01-02 15:04:05.999999"} {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return fmt.Sprintf("%s (%s)", v, humanize.RelTime(t, ev.now(), "ago", "from now"))
		}
	}
	return v
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// HandleEvent does nothing; the app closes the form on Esc.
func (ev *EventView) HandleEvent(vaxis.Event, vxfw.EventPhase) (vxfw.Command, error) {
	return nil, nil
}
