package readiness_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/psn/readiness-tui/frappe"
	"github.com/psn/readiness-tui/frappe/frappetest"
	"github.com/psn/readiness-tui/readiness"
)

func newSite(t *testing.T) (*frappetest.Server, *frappe.Client) {
	t.Helper()
	srv := frappetest.NewServer()
	t.Cleanup(srv.Close)
	c, err := frappe.NewClient(frappe.Config{URL: srv.URL, APIKey: "k", APISecret: "s"}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return srv, c
}

func TestEventService_Progress(t *testing.T) {
	srv, c := newSite(t)
	srv.Reply(readiness.MethodEventProgress, []map[string]any{
		{"event_name": "Conf A", "progress": 80},
		{"event_name": "Conf B", "progress": 45.5},
	})

	records, err := readiness.NewEventService(c).Progress(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].EventName != "Conf A" || records[0].Progress != 80 {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].Progress != 45.5 {
		t.Errorf("expected progress 45.5, got %v", records[1].Progress)
	}
}

func TestEventService_Progress_EmptyMessage(t *testing.T) {
	srv, c := newSite(t)
	srv.Reply(readiness.MethodEventProgress, nil)

	records, err := readiness.NewEventService(c).Progress(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestEventService_Progress_LenientRecords(t *testing.T) {
	srv, c := newSite(t)
	srv.Reply(readiness.MethodEventProgress, []any{
		map[string]any{"event_name": "Conf A", "progress": 80},
		map[string]any{"event_name": "Conf B", "progress": " 45 "},
		map[string]any{"event_name": nil, "progress": "n/a"},
		"not a record",
		map[string]any{"event_name": 2025, "progress": nil},
	})

	records, err := readiness.NewEventService(c).Progress(context.Background())
	if err != nil {
		t.Fatalf("one malformed record must not fail the list: %v", err)
	}
	want := []readiness.ProgressRecord{
		{EventName: "Conf A", Progress: 80},
		{EventName: "Conf B", Progress: 45},
		{},
		{},
		{EventName: "2025"},
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("record %d: expected %+v, got %+v", i, want[i], records[i])
		}
	}
}

func TestEventService_Progress_Error(t *testing.T) {
	_, c := newSite(t)

	_, err := readiness.NewEventService(c).Progress(context.Background())
	if err == nil {
		t.Fatal("expected error for unregistered method")
	}
	if !errors.Is(err, frappe.ErrNotFound) {
		t.Errorf("expected ErrNotFound in chain, got %v", err)
	}
}

func TestEventService_DashboardStats(t *testing.T) {
	srv, c := newSite(t)
	srv.Reply(readiness.MethodEventDashboardStats, []map[string]any{
		{
			"name": "EVR-0001", "event_name": "Conf A", "event_readiness": 50,
			"total_tasks": 4, "completed_tasks": 2, "pending_tasks": 1,
			"custom_in_progress_tasks": 1, "delayed_tasks": 0,
		},
	})

	stats, err := readiness.NewEventService(c).DashboardStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("expected 1 stat, got %d", len(stats))
	}
	if stats[0].InProgressTasks != 1 {
		t.Errorf("expected custom_in_progress_tasks decoded, got %+v", stats[0])
	}
}

func TestEventService_DashboardStats_LenientRecords(t *testing.T) {
	srv, c := newSite(t)
	srv.Reply(readiness.MethodEventDashboardStats, []any{
		map[string]any{
			"name": "EVR-0001", "event_name": "Conf A", "event_readiness": "50.5",
			"total_tasks": "4", "completed_tasks": 2, "pending_tasks": nil,
			"custom_in_progress_tasks": "", "delayed_tasks": 1,
		},
		[]any{"garbage"},
	})

	stats, err := readiness.NewEventService(c).DashboardStats(context.Background())
	if err != nil {
		t.Fatalf("one malformed record must not fail the list: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 stats, got %d", len(stats))
	}
	want := readiness.DashboardStat{
		Name: "EVR-0001", EventName: "Conf A", EventReadiness: 50.5,
		TotalTasks: 4, CompletedTasks: 2, DelayedTasks: 1,
	}
	if stats[0] != want {
		t.Errorf("expected %+v, got %+v", want, stats[0])
	}
	if stats[1] != (readiness.DashboardStat{}) {
		t.Errorf("expected zero stat for malformed record, got %+v", stats[1])
	}
}

func TestEventService_FindEventByName(t *testing.T) {
	srv, c := newSite(t)
	srv.Handle(frappe.MethodGetValue, func(args map[string]any) frappetest.Response {
		filters, _ := args["filters"].(map[string]any)
		if filters["event_name"] == "Conf A" {
			return frappetest.Response{Message: map[string]any{"name": "EVR-0001"}}
		}
		return frappetest.Response{}
	})
	svc := readiness.NewEventService(c)

	name, err := svc.FindEventByName(context.Background(), "Conf A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "EVR-0001" {
		t.Errorf("expected EVR-0001, got %q", name)
	}

	name, err = svc.FindEventByName(context.Background(), "Unknown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "" {
		t.Errorf("expected empty name for no match, got %q", name)
	}

	calls := srv.CallsTo(frappe.MethodGetValue)
	if len(calls) != 2 {
		t.Fatalf("expected 2 lookups, got %d", len(calls))
	}
	if calls[0].Args["doctype"] != readiness.DoctypeEventReadiness || calls[0].Args["fieldname"] != "name" {
		t.Errorf("unexpected lookup args: %v", calls[0].Args)
	}
}

func TestEventService_Get(t *testing.T) {
	srv, c := newSite(t)
	srv.Handle(frappe.MethodGetDoc, func(args map[string]any) frappetest.Response {
		return frappetest.Response{Message: map[string]any{
			"name": args["name"], "event_name": "Conf A", "event_date": "2025-03-01", "event_readiness": 75,
		}}
	})

	ev, err := readiness.NewEventService(c).Get(context.Background(), "EVR-0001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Name != "EVR-0001" || ev.EventDate != "2025-03-01" || ev.EventReadiness != 75 {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestEventService_Get_NotFound(t *testing.T) {
	srv, c := newSite(t)
	srv.Handle(frappe.MethodGetDoc, func(map[string]any) frappetest.Response {
		return frappetest.Response{Status: http.StatusNotFound, Error: map[string]any{"exc_type": "DoesNotExistError"}}
	})

	_, err := readiness.NewEventService(c).Get(context.Background(), "EVR-9999")
	if !errors.Is(err, frappe.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEventService_CalendarEvents(t *testing.T) {
	srv, c := newSite(t)
	srv.Reply(readiness.MethodCalendarEvents, []map[string]any{
		{"name": "EVR-0001", "event_name": "Conf A", "event_date": "2025-03-01"},
	})

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	rows, err := readiness.NewEventService(c).CalendarEvents(context.Background(), start, end, map[string]any{"start": "event_date"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	calls := srv.CallsTo(readiness.MethodCalendarEvents)
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Args["start"] != "2025-03-01" || calls[0].Args["end"] != "2025-03-31" {
		t.Errorf("unexpected range args: %v", calls[0].Args)
	}

	encoded, ok := calls[0].Args["field_map"].(string)
	if !ok {
		t.Fatalf("expected field_map sent as a JSON string, got %T", calls[0].Args["field_map"])
	}
	var fieldMap map[string]any
	if err := json.Unmarshal([]byte(encoded), &fieldMap); err != nil {
		t.Fatalf("field_map is not valid JSON: %v", err)
	}
	if fieldMap["start"] != "event_date" {
		t.Errorf("unexpected field_map: %v", fieldMap)
	}
}

func TestKPIService_List(t *testing.T) {
	srv, c := newSite(t)
	srv.Reply(frappe.MethodGetList, []map[string]any{
		{"name": "KPI-1", "user": "a@example.com", "sector": "Logistics", "custom_is_sector_lead": 1, "kpi_score": 3},
		{"name": "KPI-2", "user": "b@example.com", "sector": "Logistics", "custom_is_sector_lead": 0, "kpi_score": -2},
	})

	rows, err := readiness.NewKPIService(c).List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !rows[0].IsSectorLead() || rows[1].IsSectorLead() {
		t.Errorf("unexpected lead flags: %+v", rows)
	}
	if rows[1].KPIScore != -2 {
		t.Errorf("expected score -2, got %v", rows[1].KPIScore)
	}
	calls := srv.CallsTo(frappe.MethodGetList)
	if len(calls) != 1 || calls[0].Args["doctype"] != readiness.DoctypeUserSectorKPI {
		t.Fatalf("unexpected list call: %+v", calls)
	}
	if calls[0].Args["order_by"] != "sector asc, user asc" {
		t.Errorf("unexpected order_by: %v", calls[0].Args["order_by"])
	}
	if calls[0].Args["limit_page_length"] != float64(0) {
		t.Errorf("expected unlimited page length, got %v", calls[0].Args["limit_page_length"])
	}
	if _, ok := calls[0].Args["filters"]; ok {
		t.Errorf("expected no filters, got %v", calls[0].Args["filters"])
	}
}

func TestSessionService_WhoAmI(t *testing.T) {
	srv, c := newSite(t)
	srv.Reply(readiness.MethodWhoAmI, "lead@example.com")

	user, err := readiness.NewSessionService(c).WhoAmI(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != "lead@example.com" {
		t.Errorf("expected lead@example.com, got %q", user)
	}
}
