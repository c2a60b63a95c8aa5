package readiness

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/psn/readiness-tui/frappe"
)

// Server methods of the Event Readiness app.
const (
	MethodEventProgress       = "psn_custom_rdb_app.psn_readiness_dashboard.event_logic.get_event_progress"
	MethodEventDashboardStats = "psn_custom_rdb_app.psn_readiness_dashboard.event_logic.get_event_dashboard_stats"
	MethodSyncUserSectorKPI   = "psn_custom_rdb_app.psn_readiness_dashboard.doctype.user_sector_kpi.user_sector_kpi.sync_user_sector_kpi"
	MethodRecalculateKPI      = "psn_custom_rdb_app.psn_readiness_dashboard.doctype.user_sector_kpi.user_sector_kpi.recalculate_kpi_scores"
	MethodWhoAmI              = "psn_custom_rdb_app.api.whoami"
	MethodCalendarEvents      = "frappe.desk.calendar.get_events"
)

// EventServiceAPI reads Event Readiness data.
type EventServiceAPI interface {
	Progress(ctx context.Context) ([]ProgressRecord, error)
	DashboardStats(ctx context.Context) ([]DashboardStat, error)
	FindEventByName(ctx context.Context, eventName string) (string, error)
	Get(ctx context.Context, name string) (*Event, error)
	CalendarEvents(ctx context.Context, start, end time.Time, fieldMap map[string]any) ([]map[string]any, error)
}

// KPIServiceAPI reads User Sector KPI records. The sync and recalculate
// list actions go through dashboard.RunAction instead.
type KPIServiceAPI interface {
	List(ctx context.Context) ([]KPIRecord, error)
}

// SessionServiceAPI describes the authenticated session.
type SessionServiceAPI interface {
	WhoAmI(ctx context.Context) (string, error)
}

// EventService implements EventServiceAPI over a Caller.
type EventService struct {
	c Caller
}

// NewEventService creates an EventService.
func NewEventService(c Caller) *EventService {
	return &EventService{c: c}
}

// Progress returns readiness per event in server order.
func (s *EventService) Progress(ctx context.Context) ([]ProgressRecord, error) {
	var out []ProgressRecord
	if err := s.c.Call(ctx, MethodEventProgress, nil, &out); err != nil {
		return nil, fmt.Errorf("get_event_progress: %w", err)
	}
	return out, nil
}

// DashboardStats returns task counters per event in creation order.
func (s *EventService) DashboardStats(ctx context.Context) ([]DashboardStat, error) {
	var out []DashboardStat
	if err := s.c.Call(ctx, MethodEventDashboardStats, nil, &out); err != nil {
		return nil, fmt.Errorf("get_event_dashboard_stats: %w", err)
	}
	return out, nil
}

// FindEventByName resolves an event_name to its record name. No match
// yields "" and a nil error.
func (s *EventService) FindEventByName(ctx context.Context, eventName string) (string, error) {
	name, err := frappe.GetValue(ctx, s.c, DoctypeEventReadiness, frappe.Filters{"event_name": eventName}, "name")
	if err != nil {
		return "", fmt.Errorf("get_value %s: %w", DoctypeEventReadiness, err)
	}
	return name, nil
}

// Get loads one Event Readiness document.
func (s *EventService) Get(ctx context.Context, name string) (*Event, error) {
	var ev Event
	if err := frappe.GetDoc(ctx, s.c, DoctypeEventReadiness, name, &ev); err != nil {
		return nil, fmt.Errorf("get %s %s: %w", DoctypeEventReadiness, name, err)
	}
	return &ev, nil
}

// CalendarEvents returns raw Event Readiness records overlapping
// [start, end], selected server-side with fieldMap. The server parses
// field_map itself, so it travels as a JSON string.
func (s *EventService) CalendarEvents(ctx context.Context, start, end time.Time, fieldMap map[string]any) ([]map[string]any, error) {
	encoded, err := json.Marshal(fieldMap)
	if err != nil {
		return nil, fmt.Errorf("encoding field_map: %w", err)
	}
	var out []map[string]any
	err = s.c.Call(ctx, MethodCalendarEvents, map[string]any{
		"doctype":   DoctypeEventReadiness,
		"start":     start.Format(time.DateOnly),
		"end":       end.Format(time.DateOnly),
		"field_map": string(encoded),
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("calendar.get_events: %w", err)
	}
	return out, nil
}

// KPIService implements KPIServiceAPI over a Caller.
type KPIService struct {
	c Caller
}

// NewKPIService creates a KPIService.
func NewKPIService(c Caller) *KPIService {
	return &KPIService{c: c}
}

var kpiFields = []string{
	"name", "user", "sector", "custom_is_sector_lead",
	"total_tasks", "completed_tasks", "pending_tasks", "delayed_tasks",
	"avg_completion_time", "kpi_score",
}

// List returns all KPI records ordered by sector then user.
func (s *KPIService) List(ctx context.Context) ([]KPIRecord, error) {
	var out []KPIRecord
	err := frappe.GetList(ctx, s.c, frappe.ListQuery{
		Doctype: DoctypeUserSectorKPI,
		Fields:  kpiFields,
		OrderBy: "sector asc, user asc",
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("get_list %s: %w", DoctypeUserSectorKPI, err)
	}
	return out, nil
}

// SessionService implements SessionServiceAPI over a Caller.
type SessionService struct {
	c Caller
}

// NewSessionService creates a SessionService.
func NewSessionService(c Caller) *SessionService {
	return &SessionService{c: c}
}

// WhoAmI returns the logged-in user.
func (s *SessionService) WhoAmI(ctx context.Context) (string, error) {
	var user string
	if err := s.c.Call(ctx, MethodWhoAmI, nil, &user); err != nil {
		return "", fmt.Errorf("whoami: %w", err)
	}
	return user, nil
}
