package readiness

import (
	"context"
	"sync"
	"time"
)

// MockEventService is a test double for EventServiceAPI. Unset funcs
// return zero values and a nil error.
type MockEventService struct {
	ProgressFunc        func(ctx context.Context) ([]ProgressRecord, error)
	DashboardStatsFunc  func(ctx context.Context) ([]DashboardStat, error)
	FindEventByNameFunc func(ctx context.Context, eventName string) (string, error)
	GetFunc             func(ctx context.Context, name string) (*Event, error)
	CalendarEventsFunc  func(ctx context.Context, start, end time.Time, fieldMap map[string]any) ([]map[string]any, error)
}

func (m *MockEventService) Progress(ctx context.Context) ([]ProgressRecord, error) {
	if m.ProgressFunc != nil {
		return m.ProgressFunc(ctx)
	}
	return nil, nil
}

func (m *MockEventService) DashboardStats(ctx context.Context) ([]DashboardStat, error) {
	if m.DashboardStatsFunc != nil {
		return m.DashboardStatsFunc(ctx)
	}
	return nil, nil
}

func (m *MockEventService) FindEventByName(ctx context.Context, eventName string) (string, error) {
	if m.FindEventByNameFunc != nil {
		return m.FindEventByNameFunc(ctx, eventName)
	}
	return "", nil
}

func (m *MockEventService) Get(ctx context.Context, name string) (*Event, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, name)
	}
	return &Event{Name: name}, nil
}

func (m *MockEventService) CalendarEvents(ctx context.Context, start, end time.Time, fieldMap map[string]any) ([]map[string]any, error) {
	if m.CalendarEventsFunc != nil {
		return m.CalendarEventsFunc(ctx, start, end, fieldMap)
	}
	return nil, nil
}

// MockKPIService is a test double for KPIServiceAPI.
type MockKPIService struct {
	ListFunc func(ctx context.Context) ([]KPIRecord, error)
}

func (m *MockKPIService) List(ctx context.Context) ([]KPIRecord, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

// MockSessionService is a test double for SessionServiceAPI.
type MockSessionService struct {
	WhoAmIFunc func(ctx context.Context) (string, error)
}

func (m *MockSessionService) WhoAmI(ctx context.Context) (string, error) {
	if m.WhoAmIFunc != nil {
		return m.WhoAmIFunc(ctx)
	}
	return "Administrator", nil
}

// MockCaller is a test double for Caller that records every call.
type MockCaller struct {
	CallFunc func(ctx context.Context, method string, args any, out any) error

	mu    sync.Mutex
	calls []string
}

func (m *MockCaller) Call(ctx context.Context, method string, args any, out any) error {
	m.mu.Lock()
	m.calls = append(m.calls, method)
	m.mu.Unlock()
	if m.CallFunc != nil {
		return m.CallFunc(ctx, method, args, out)
	}
	return nil
}

// Calls returns the methods called so far, in order.
func (m *MockCaller) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
