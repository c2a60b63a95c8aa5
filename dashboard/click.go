package dashboard

import (
	"context"

	"github.com/psn/readiness-tui/readiness"
)

// ChartPoint is the data point under a click. Charting libraries name
// the label field differently, so both are carried.
type ChartPoint struct {
	Label string
	Name  string
}

// ClickEvent is a click inside a chart. Either point field may be set.
type ClickEvent struct {
	Point     *ChartPoint
	DataPoint *ChartPoint
}

// Label extracts the clicked label, preferring Point over DataPoint and
// Label over Name.
func (e ClickEvent) Label() (string, bool) {
	p := e.Point
	if p == nil {
		p = e.DataPoint
	}
	if p == nil {
		return "", false
	}
	label := p.Label
	if label == "" {
		label = p.Name
	}
	return label, label != ""
}

// Outcome is what a click resolved to.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeNavigated
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNavigated:
		return "navigated"
	case OutcomeNotFound:
		return "not found"
	default:
		return "ignored"
	}
}

// EventLookup resolves an event name to its record name.
type EventLookup interface {
	FindEventByName(ctx context.Context, eventName string) (string, error)
}

// Router opens a record's form.
type Router interface {
	OpenForm(doctype, name string)
}

// Notifier shows a message to the user.
type Notifier interface {
	Notify(msg string)
}

// Navigator turns chart clicks into record navigation.
type Navigator struct {
	Lookup   EventLookup
	Router   Router
	Notifier Notifier

	// ShowNotFound shows "Event not found: <label>" when the lookup has
	// no match. Without it an unmatched click does nothing.
	ShowNotFound bool
}

// HandleClick resolves ev to an Event Readiness record and opens it.
// Clicks without a label make no remote call.
func (n *Navigator) HandleClick(ctx context.Context, ev ClickEvent) (Outcome, error) {
	label, ok := ev.Label()
	if !ok {
		return OutcomeIgnored, nil
	}

	name, err := n.Lookup.FindEventByName(ctx, label)
	if err != nil {
		return OutcomeIgnored, err
	}
	if name == "" {
		if n.ShowNotFound && n.Notifier != nil {
			n.Notifier.Notify("Event not found: " + label)
		}
		return OutcomeNotFound, nil
	}

	n.Router.OpenForm(readiness.DoctypeEventReadiness, name)
	return OutcomeNavigated, nil
}
