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

// ProgressViewParams holds configuration for creating a ProgressView.
type ProgressViewParams struct {
	Page      dashboard.Page
	Source    dashboard.ChartSource
	Events    readiness.EventServiceAPI
	StaleTTL  time.Duration
	PostEvent Poster
}

// ProgressView draws a chart source as readiness bars. Enter on a bar
// opens the matching Event Readiness record.
type ProgressView struct {
	freshness

	page   dashboard.Page
	source dashboard.ChartSource
	events readiness.EventServiceAPI
	post   Poster
	nav    *dashboard.Navigator

	data  dashboard.ChartData
	chart *widgets.BarChart
	trend *widgets.Sparkline
}

// NewProgressView creates a ProgressView backed by the given params.
func NewProgressView(p ProgressViewParams) *ProgressView {
	pv := &ProgressView{
		page:   p.Page,
		source: p.Source,
		events: p.Events,
		post:   p.PostEvent,
		chart:  widgets.NewBarChart(30),
		trend:  widgets.NewSparkline(nil),
	}
	pv.staleTTL = p.StaleTTL
	pv.nav = &dashboard.Navigator{
		Lookup:       p.Events,
		Router:       p.PostEvent,
		Notifier:     p.PostEvent,
		ShowNotFound: p.Page.ShowNotFound,
	}
	return pv
}

// Load builds the chart from its source.
func (pv *ProgressView) Load(ctx context.Context) error {
	data, err := pv.source.Build(ctx, pv.events)
	if err != nil {
		return fmt.Errorf("%s: %w", pv.source.Name, err)
	}

	pv.mu.Lock()
	defer pv.mu.Unlock()
	values := data.Series(dashboard.SeriesReadiness)
	pv.data = data
	pv.chart.SetData(data.Labels, values, nil)
	pv.trend.Set(values)
	pv.markLoaded()
	return nil
}

// Data returns the last loaded chart.
func (pv *ProgressView) Data() dashboard.ChartData {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	return pv.data
}

// ItemCount returns the number of bars.
func (pv *ProgressView) ItemCount() int {
	pv.mu.Lock()
	defer pv.mu.Unlock()
	return pv.chart.Len()
}

// Activate clicks the selected bar. Before the first load it does nothing.
func (pv *ProgressView) Activate(ctx context.Context) (dashboard.Outcome, error) {
	pv.mu.Lock()
	if !pv.loaded {
		pv.mu.Unlock()
		return dashboard.OutcomeIgnored, nil
	}
	label, ok := pv.chart.Selected()
	pv.mu.Unlock()
	if !ok {
		return dashboard.OutcomeIgnored, nil
	}
	return pv.nav.HandleClick(ctx, dashboard.ClickEvent{
		Point: &dashboard.ChartPoint{Label: label},
	})
}

// Draw renders the title, the readiness trend and the bars.
func (pv *ProgressView) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	pv.mu.Lock()
	defer pv.mu.Unlock()

	if !pv.loaded {
		return drawLoadingState(ctx, pv)
	}
	if pv.data.Empty() {
		return drawMessage(ctx, pv, "No events yet.")
	}

	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, pv)

	var sum float64
	values := pv.data.Series(dashboard.SeriesReadiness)
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))
	err := drawLine(ctx, &s, 0,
		vaxis.Segment{Text: pv.source.Name, Style: boldStyle},
		vaxis.Segment{Text: fmt.Sprintf("  %d events, avg %.1f%%", len(values), avg), Style: dimStyle},
	)
	if err != nil {
		return vxfw.Surface{}, err
	}

	if ctx.Max.Height > 1 {
		trendSurf, err := pv.trend.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, 1, trendSurf)
	}

	if ctx.Max.Height > 3 {
		chartCtx := ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: ctx.Max.Height - 3})
		chartSurf, err := pv.chart.Draw(chartCtx)
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, 3, chartSurf)
	}

	return s, nil
}

// HandleEvent moves the bar selection and opens the selected event on Enter.
func (pv *ProgressView) HandleEvent(ev vaxis.Event, phase vxfw.EventPhase) (vxfw.Command, error) {
	key, ok := ev.(vaxis.Key)
	if !ok {
		return nil, nil
	}
	if key.Matches(vaxis.KeyEnter) {
		go func() {
			if _, err := pv.Activate(context.Background()); err != nil {
				pv.post.Post(Notice{Text: err.Error(), Err: true})
			}
		}()
		return vxfw.ConsumeAndRedraw(), nil
	}

	pv.mu.Lock()
	defer pv.mu.Unlock()
	return pv.chart.HandleEvent(ev, phase)
}
