package internal

import "github.com/psn/readiness-tui/readiness"

// Services holds the readiness service interfaces for one Frappe site.
type Services struct {
	Events  readiness.EventServiceAPI
	KPIs    readiness.KPIServiceAPI
	Session readiness.SessionServiceAPI

	// Caller runs list actions that have no typed wrapper.
	Caller readiness.Caller
}

// NewServices builds the full service set over a single RPC caller.
func NewServices(c readiness.Caller) *Services {
	return &Services{
		Events:  readiness.NewEventService(c),
		KPIs:    readiness.NewKPIService(c),
		Session: readiness.NewSessionService(c),
		Caller:  c,
	}
}
