package views

import (
	"context"
	"fmt"
	"sort"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"github.com/dustin/go-humanize"
	"github.com/psn/readiness-tui/dashboard"
	"github.com/psn/readiness-tui/readiness"
	"github.com/psn/readiness-tui/widgets"
	"golang.org/x/sync/errgroup"
)

// upcomingWindow is how far ahead the stats page lists upcoming events.
const upcomingWindow = 30 * 24 * time.Hour

// StatsViewParams holds configuration for creating a StatsView.
type StatsViewParams struct {
	Page      dashboard.Page
	Events    readiness.EventServiceAPI
	Calendar  dashboard.CalendarSettings
	StaleTTL  time.Duration
	PostEvent Poster

	// Now defaults to time.Now.
	Now func() time.Time
}

// StatsView is the event dashboard page: readiness per event, task status
// comparison and the events coming up next.
type StatsView struct {
	freshness

	page     dashboard.Page
	events   readiness.EventServiceAPI
	calendar dashboard.CalendarSettings
	post     Poster
	nav      *dashboard.Navigator
	now      func() time.Time

	stats     []readiness.DashboardStat
	readiness dashboard.ChartData
	status    dashboard.ChartData
	upcoming  []dashboard.CalendarEvent

	chart *widgets.BarChart
	trend *widgets.Sparkline
}

// NewStatsView creates a StatsView backed by the given params.
func NewStatsView(p StatsViewParams) *StatsView {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	sv := &StatsView{
		page:     p.Page,
		events:   p.Events,
		calendar: p.Calendar,
		post:     p.PostEvent,
		now:      now,
		chart:    widgets.NewBarChart(24),
		trend:    widgets.NewSparkline(nil),
	}
	sv.staleTTL = p.StaleTTL
	sv.nav = &dashboard.Navigator{
		Lookup:       p.Events,
		Router:       p.PostEvent,
		Notifier:     p.PostEvent,
		ShowNotFound: p.Page.ShowNotFound,
	}
	return sv
}

// Load fetches dashboard stats and upcoming calendar entries in parallel.
// Only the stats are required; a calendar failure leaves the upcoming list
// empty and posts an error Notice.
func (sv *StatsView) Load(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	var stats []readiness.DashboardStat
	var upcoming []dashboard.CalendarEvent
	var calendarErr error

	g.Go(func() error {
		s, err := sv.events.DashboardStats(gctx)
		if err != nil {
			return err
		}
		stats = s
		return nil
	})

	g.Go(func() error {
		start := sv.now()
		records, err := sv.events.CalendarEvents(gctx, start, start.Add(upcomingWindow), sv.calendar.FieldMap.Args())
		if err != nil {
			calendarErr = err
			return nil
		}
		upcoming = sv.calendar.FieldMap.MapAll(records)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if calendarErr != nil {
		sv.post.Post(Notice{Text: fmt.Sprintf("upcoming events: %v", calendarErr), Err: true})
	}

	readinessChart := dashboard.ReadinessChart(stats)
	statusChart := dashboard.TaskStatusChart(stats)
	suffixes := make([]string, len(stats))
	for i, s := range stats {
		suffixes[i] = fmt.Sprintf("%d/%d tasks", s.CompletedTasks, s.TotalTasks)
	}

	sv.mu.Lock()
	defer sv.mu.Unlock()
	sv.stats = stats
	sv.readiness = readinessChart
	sv.status = statusChart
	sv.upcoming = upcoming
	sv.chart.SetData(readinessChart.Labels, readinessChart.Series(dashboard.SeriesReadiness), suffixes)
	sv.trend.Set(readinessChart.Series(dashboard.SeriesReadiness))
	sv.markLoaded()
	return nil
}

// Charts returns the readiness and task status charts.
func (sv *StatsView) Charts() (dashboard.ChartData, dashboard.ChartData) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return sv.readiness, sv.status
}

// Upcoming returns the calendar entries of the next 30 days.
func (sv *StatsView) Upcoming() []dashboard.CalendarEvent {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return sv.upcoming
}

// ItemCount returns the number of events.
func (sv *StatsView) ItemCount() int {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return len(sv.stats)
}

// Activate clicks the selected readiness bar. Before the first load it
// does nothing.
func (sv *StatsView) Activate(ctx context.Context) (dashboard.Outcome, error) {
	sv.mu.Lock()
	if !sv.loaded {
		sv.mu.Unlock()
		return dashboard.OutcomeIgnored, nil
	}
	label, ok := sv.chart.Selected()
	sv.mu.Unlock()
	if !ok {
		return dashboard.OutcomeIgnored, nil
	}
	return sv.nav.HandleClick(ctx, dashboard.ClickEvent{
		DataPoint: &dashboard.ChartPoint{Name: label},
	})
}

// Draw lays out the summary line, both charts and the upcoming list.
func (sv *StatsView) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	sv.mu.Lock()
	defer sv.mu.Unlock()

	if !sv.loaded {
		return drawLoadingState(ctx, sv)
	}
	if len(sv.stats) == 0 {
		return drawMessage(ctx, sv, "No events yet.")
	}

	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, sv)
	height := int(ctx.Max.Height)

	var total, delayed int
	for _, st := range sv.stats {
		total += st.TotalTasks
		delayed += st.DelayedTasks
	}
	row := 0
	err := drawLine(ctx, &s, row,
		vaxis.Segment{Text: sv.page.Title, Style: boldStyle},
		vaxis.Segment{Text: fmt.Sprintf("  %s events, %s tasks, %s delayed",
			humanize.Comma(int64(len(sv.stats))), humanize.Comma(int64(total)), humanize.Comma(int64(delayed))),
			Style: dimStyle},
	)
	if err != nil {
		return vxfw.Surface{}, err
	}
	row += 2

	// Event Readiness %
	if err := drawLine(ctx, &s, row, vaxis.Segment{Text: "Event Readiness %", Style: boldStyle}); err != nil {
		return vxfw.Surface{}, err
	}
	row++
	if row < height {
		trendSurf, err := sv.trend.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, row, trendSurf)
		row++
	}
	barRows := min(len(sv.stats), max((height-row)/3, 1))
	if row+barRows <= height {
		chartSurf, err := sv.chart.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: uint16(barRows)}))
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, row, chartSurf)
		row += barRows
	}
	row++

	// Task Status Comparison
	if err := sv.drawStatus(ctx, &s, &row); err != nil {
		return vxfw.Surface{}, err
	}
	row++

	// Upcoming
	if err := sv.drawUpcoming(ctx, &s, &row); err != nil {
		return vxfw.Surface{}, err
	}
	return s, nil
}

func (sv *StatsView) drawStatus(ctx vxfw.DrawContext, s *vxfw.Surface, row *int) error {
	height := int(ctx.Max.Height)
	legend := []vaxis.Segment{{Text: "Task Status Comparison  ", Style: boldStyle}}
	for i, ds := range sv.status.Datasets {
		legend = append(legend,
			vaxis.Segment{Text: "■ ", Style: vaxis.Style{Foreground: statusColors[i%len(statusColors)]}},
			vaxis.Segment{Text: ds.Name + "  ", Style: dimStyle},
		)
	}
	if err := drawLine(ctx, s, *row, legend...); err != nil {
		return err
	}
	*row++

	labelWidth := 4
	for _, l := range sv.status.Labels {
		labelWidth = max(labelWidth, min(len([]rune(l)), 24))
	}
	barWidth := 30
	cursor := sv.chart.Cursor()
	for i, st := range sv.stats {
		if *row >= height {
			break
		}
		style := vaxis.Style{}
		if i == cursor {
			style.Attribute = vaxis.AttrReverse
		}
		if err := drawLine(ctx, s, *row, vaxis.Segment{Text: fmt.Sprintf("%-*.*s", labelWidth, labelWidth, st.EventName), Style: style}); err != nil {
			return err
		}
		bar := &widgets.SegmentBar{
			Width:    barWidth,
			Segments: taskSegments(st.PendingTasks, st.InProgressTasks, st.CompletedTasks, st.DelayedTasks),
		}
		if int(ctx.Max.Width) > labelWidth+1 {
			barSurf, err := bar.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width - uint16(labelWidth+1), Height: 1}))
			if err != nil {
				return err
			}
			s.AddChild(labelWidth+1, *row, barSurf)
		}
		counts := fmt.Sprintf("%d/%d/%d/%d", st.PendingTasks, st.InProgressTasks, st.CompletedTasks, st.DelayedTasks)
		col := labelWidth + 1 + barWidth + 2
		if col < int(ctx.Max.Width) {
			countSurf, err := newText(counts, dimStyle).Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width - uint16(col), Height: 1}))
			if err != nil {
				return err
			}
			s.AddChild(col, *row, countSurf)
		}
		*row++
	}
	return nil
}

func (sv *StatsView) drawUpcoming(ctx vxfw.DrawContext, s *vxfw.Surface, row *int) error {
	if err := drawLine(ctx, s, *row, vaxis.Segment{Text: "Upcoming", Style: boldStyle}); err != nil {
		return err
	}
	*row++
	if len(sv.upcoming) == 0 {
		return drawLine(ctx, s, *row, vaxis.Segment{Text: "Nothing in the next 30 days.", Style: dimStyle})
	}

	upcoming := make([]dashboard.CalendarEvent, len(sv.upcoming))
	copy(upcoming, sv.upcoming)
	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].Start.Before(upcoming[j].Start) })

	for _, ev := range upcoming {
		if *row >= int(ctx.Max.Height) {
			break
		}
		when := humanize.RelTime(ev.Start, sv.now(), "ago", "from now")
		err := drawLine(ctx, s, *row,
			vaxis.Segment{Text: ev.Start.Format("Mon 02 Jan") + "  "},
			vaxis.Segment{Text: ev.Title, Style: boldStyle},
			vaxis.Segment{Text: "  " + when, Style: dimStyle},
		)
		if err != nil {
			return err
		}
		*row++
	}
	return nil
}

// HandleEvent moves the event selection and opens it on Enter.
func (sv *StatsView) HandleEvent(ev vaxis.Event, phase vxfw.EventPhase) (vxfw.Command, error) {
	key, ok := ev.(vaxis.Key)
	if !ok {
		return nil, nil
	}
	if key.Matches(vaxis.KeyEnter) {
		go func() {
			if _, err := sv.Activate(context.Background()); err != nil {
				sv.post.Post(Notice{Text: err.Error(), Err: true})
			}
		}()
		return vxfw.ConsumeAndRedraw(), nil
	}

	sv.mu.Lock()
	defer sv.mu.Unlock()
	return sv.chart.HandleEvent(ev, phase)
}
