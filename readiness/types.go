// Package readiness wraps the Event Readiness app's server methods in
// typed services.
package readiness

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
)

// Caller invokes a whitelisted server method. *frappe.Client satisfies it.
type Caller interface {
	Call(ctx context.Context, method string, args any, out any) error
}

// Doctypes used by the dashboard.
const (
	DoctypeEventReadiness = "Event Readiness"
	DoctypeUserSectorKPI  = "User Sector KPI"
)

// ProgressRecord pairs an event with its readiness percentage.
type ProgressRecord struct {
	EventName string  `json:"event_name"`
	Progress  float64 `json:"progress"`
}

// DashboardStat is one event's task counters as returned by
// get_event_dashboard_stats.
type DashboardStat struct {
	Name            string  `json:"name"`
	EventName       string  `json:"event_name"`
	EventReadiness  float64 `json:"event_readiness"`
	TotalTasks      int     `json:"total_tasks"`
	CompletedTasks  int     `json:"completed_tasks"`
	PendingTasks    int     `json:"pending_tasks"`
	InProgressTasks int     `json:"custom_in_progress_tasks"`
	DelayedTasks    int     `json:"delayed_tasks"`
}

// Event is an Event Readiness document.
type Event struct {
	Name            string  `json:"name"`
	EventName       string  `json:"event_name"`
	EventDate       string  `json:"event_date"`
	EndDate         string  `json:"custom_event_end_date"`
	EventReadiness  float64 `json:"event_readiness"`
	TotalTasks      int     `json:"total_tasks"`
	CompletedTasks  int     `json:"completed_tasks"`
	PendingTasks    int     `json:"pending_tasks"`
	InProgressTasks int     `json:"custom_in_progress_tasks"`
	DelayedTasks    int     `json:"delayed_tasks"`
	UseDefaultTasks int     `json:"use_default_tasks"`
	GenerationState string  `json:"custom_tasks_generation_status"`
	Modified        string  `json:"modified"`
}

// KPIRecord is a User Sector KPI row.
type KPIRecord struct {
	Name              string  `json:"name"`
	User              string  `json:"user"`
	Sector            string  `json:"sector"`
	SectorLead        int     `json:"custom_is_sector_lead"`
	TotalTasks        int     `json:"total_tasks"`
	CompletedTasks    int     `json:"completed_tasks"`
	PendingTasks      int     `json:"pending_tasks"`
	DelayedTasks      int     `json:"delayed_tasks"`
	AvgCompletionTime float64 `json:"avg_completion_time"`
	KPIScore          float64 `json:"kpi_score"`
}

// IsSectorLead reports whether the user leads the sector.
func (k KPIRecord) IsSectorLead() bool {
	return k.SectorLead != 0
}

// UnmarshalJSON decodes leniently: numeric strings count as numbers and a
// malformed record decodes to zero values instead of failing the list.
func (r *ProgressRecord) UnmarshalJSON(b []byte) error {
	var raw struct {
		EventName text   `json:"event_name"`
		Progress  number `json:"progress"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		*r = ProgressRecord{}
		return nil
	}
	*r = ProgressRecord{EventName: string(raw.EventName), Progress: float64(raw.Progress)}
	return nil
}

// UnmarshalJSON decodes leniently, like ProgressRecord.
func (d *DashboardStat) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name            text   `json:"name"`
		EventName       text   `json:"event_name"`
		EventReadiness  number `json:"event_readiness"`
		TotalTasks      number `json:"total_tasks"`
		CompletedTasks  number `json:"completed_tasks"`
		PendingTasks    number `json:"pending_tasks"`
		InProgressTasks number `json:"custom_in_progress_tasks"`
		DelayedTasks    number `json:"delayed_tasks"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		*d = DashboardStat{}
		return nil
	}
	*d = DashboardStat{
		Name:            string(raw.Name),
		EventName:       string(raw.EventName),
		EventReadiness:  float64(raw.EventReadiness),
		TotalTasks:      int(raw.TotalTasks),
		CompletedTasks:  int(raw.CompletedTasks),
		PendingTasks:    int(raw.PendingTasks),
		InProgressTasks: int(raw.InProgressTasks),
		DelayedTasks:    int(raw.DelayedTasks),
	}
	return nil
}

// number accepts a JSON number or a numeric string. Anything else is 0.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	*n = 0
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	switch x := v.(type) {
	case float64:
		*n = number(x)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			*n = number(f)
		}
	}
	return nil
}

// text accepts a JSON string, number or bool. null is "".
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	*t = ""
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	switch x := v.(type) {
	case string:
		*t = text(x)
	case float64:
		*t = text(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		*t = text(strconv.FormatBool(x))
	}
	return nil
}

// SyncResult is what sync_user_sector_kpi reports.
type SyncResult struct {
	Status  string `json:"status"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
	Message string `json:"message"`
}
