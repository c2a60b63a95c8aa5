package views

import (
	"encoding/json"

	"github.com/psn/readiness-tui/readiness"
)

// ViewLoaded is a custom vaxis event posted when a view finishes loading data.
// It is sent from background goroutines via PostEvent to notify the UI, and
// is the point after which a chart accepts clicks.
type ViewLoaded struct {
	Tab int
	Err error
}

// Notice is a one-line message for the status bar.
type Notice struct {
	Text string
	Err  bool
}

// OpenRecord asks the app to open a record's form.
type OpenRecord struct {
	Doctype string
	Name    string
}

// RecordLoaded carries the document requested by OpenRecord.
type RecordLoaded struct {
	Name  string
	Event *readiness.Event
	Err   error
}

// Frozen is posted when a list action starts; the UI blocks input and
// shows Message until Unfrozen arrives.
type Frozen struct {
	Message string
}

// Unfrozen ends a Frozen period.
type Unfrozen struct{}

// Reload asks the app to reload View in the background.
type Reload struct {
	View View
}

// ActionDone is posted after a list action returns.
type ActionDone struct {
	Label string
	Reply json.RawMessage
	Err   error
}
