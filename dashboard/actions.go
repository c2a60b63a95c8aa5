package dashboard

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/psn/readiness-tui/readiness"
)

// ListAction is a menu command on a list view that runs one server method.
type ListAction struct {
	Label          string
	Key            rune // shortcut in the terminal UI
	Method         string
	FreezeMessage  string
	SuccessMessage string
	RefreshList    bool
}

// ListSettings are the customizations registered for a doctype's list.
type ListSettings struct {
	Doctype   string
	MenuItems []ListAction
}

// Action returns the menu item bound to key.
func (s ListSettings) Action(key rune) (ListAction, bool) {
	for _, a := range s.MenuItems {
		if a.Key == key {
			return a, true
		}
	}
	return ListAction{}, false
}

// ListUI is the list view an action reports back to.
type ListUI interface {
	Freeze(msg string)
	Unfreeze()
	Notify(msg string)
	Refresh()
}

// RunAction freezes ui, makes exactly one call to a.Method and, on
// success, shows a.SuccessMessage once and refreshes the list if asked.
// The server's reply is returned undecoded.
func RunAction(ctx context.Context, c readiness.Caller, a ListAction, ui ListUI) (json.RawMessage, error) {
	ui.Freeze(a.FreezeMessage)
	var reply json.RawMessage
	err := c.Call(ctx, a.Method, nil, &reply)
	ui.Unfreeze()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Label, err)
	}

	ui.Notify(a.SuccessMessage)
	if a.RefreshList {
		ui.Refresh()
	}
	return reply, nil
}

// UserSectorKPIList is the list customization for User Sector KPI.
var UserSectorKPIList = ListSettings{
	Doctype: readiness.DoctypeUserSectorKPI,
	MenuItems: []ListAction{
		{
			Label:          "Sync Users & KPI",
			Key:            's',
			Method:         readiness.MethodSyncUserSectorKPI,
			FreezeMessage:  "Syncing KPI records...",
			SuccessMessage: "All KPI entries synced successfully!",
			RefreshList:    true,
		},
		{
			Label:          "Recalculate KPI Scores",
			Key:            'c',
			Method:         readiness.MethodRecalculateKPI,
			FreezeMessage:  "Recalculating KPI scores...",
			SuccessMessage: "KPI score recalculation triggered as background job.",
		},
	},
}
