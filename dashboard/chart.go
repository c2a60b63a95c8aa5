// Package dashboard holds the client-side pieces of the Event Readiness
// dashboard: chart adapters, click-to-navigate, calendar mapping, list
// actions and the table that registers them.
package dashboard

import (
	"context"

	"github.com/psn/readiness-tui/readiness"
)

// ChartType tags how a chart is drawn.
type ChartType string

const (
	ChartBar     ChartType = "bar"
	ChartStacked ChartType = "stacked"
)

// Dataset is one named series of values, aligned with ChartData.Labels.
type Dataset struct {
	Name   string
	Values []float64
}

// ChartData is a chart-ready structure of parallel labels and values.
type ChartData struct {
	Labels   []string
	Datasets []Dataset
	Type     ChartType
}

// Empty reports whether the chart has no labels.
func (c ChartData) Empty() bool {
	return len(c.Labels) == 0
}

// Series returns the named dataset's values, or nil.
func (c ChartData) Series(name string) []float64 {
	for _, ds := range c.Datasets {
		if ds.Name == name {
			return ds.Values
		}
	}
	return nil
}

// Dataset names.
const (
	SeriesReadiness  = "Readiness %"
	SeriesPending    = "Pending"
	SeriesInProgress = "In Progress"
	SeriesCompleted  = "Completed"
	SeriesDelayed    = "Delayed"
)

// ProgressChart maps readiness records to a bar chart, keeping input
// order. Label i always belongs to value i.
func ProgressChart(records []readiness.ProgressRecord) ChartData {
	labels := make([]string, len(records))
	values := make([]float64, len(records))
	for i, r := range records {
		labels[i] = r.EventName
		values[i] = r.Progress
	}
	return ChartData{
		Labels:   labels,
		Datasets: []Dataset{{Name: SeriesReadiness, Values: values}},
		Type:     ChartBar,
	}
}

// ReadinessChart is the "Event Readiness %" chart of the stats page.
func ReadinessChart(stats []readiness.DashboardStat) ChartData {
	labels := make([]string, len(stats))
	values := make([]float64, len(stats))
	for i, s := range stats {
		labels[i] = s.EventName
		values[i] = s.EventReadiness
	}
	return ChartData{
		Labels:   labels,
		Datasets: []Dataset{{Name: SeriesReadiness, Values: values}},
		Type:     ChartBar,
	}
}

// TaskStatusChart is the "Task Status Comparison" chart: one dataset per
// task status, one label per event.
func TaskStatusChart(stats []readiness.DashboardStat) ChartData {
	labels := make([]string, len(stats))
	pending := make([]float64, len(stats))
	inProgress := make([]float64, len(stats))
	completed := make([]float64, len(stats))
	delayed := make([]float64, len(stats))
	for i, s := range stats {
		labels[i] = s.EventName
		pending[i] = float64(s.PendingTasks)
		inProgress[i] = float64(s.InProgressTasks)
		completed[i] = float64(s.CompletedTasks)
		delayed[i] = float64(s.DelayedTasks)
	}
	return ChartData{
		Labels: labels,
		Datasets: []Dataset{
			{Name: SeriesPending, Values: pending},
			{Name: SeriesInProgress, Values: inProgress},
			{Name: SeriesCompleted, Values: completed},
			{Name: SeriesDelayed, Values: delayed},
		},
		Type: ChartStacked,
	}
}

// ChartSource supplies a report chart with data.
type ChartSource struct {
	Name   string
	Method string
	Build  func(ctx context.Context, svc readiness.EventServiceAPI) (ChartData, error)
}

// ProgressChartSource is the "Event Readiness Progress Chart Source" report.
var ProgressChartSource = ChartSource{
	Name:   "Event Readiness Progress Chart Source",
	Method: readiness.MethodEventProgress,
	Build: func(ctx context.Context, svc readiness.EventServiceAPI) (ChartData, error) {
		records, err := svc.Progress(ctx)
		if err != nil {
			return ChartData{}, err
		}
		return ProgressChart(records), nil
	},
}
