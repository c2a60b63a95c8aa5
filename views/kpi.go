package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"github.com/dustin/go-humanize"
	"github.com/psn/readiness-tui/dashboard"
	"github.com/psn/readiness-tui/readiness"
	"github.com/psn/readiness-tui/widgets"
)

// KPIViewParams holds configuration for creating a KPIView.
type KPIViewParams struct {
	Service   readiness.KPIServiceAPI
	Caller    readiness.Caller
	List      dashboard.ListSettings
	StaleTTL  time.Duration
	PostEvent Poster
}

// KPIView lists User Sector KPI records and runs the list's menu actions.
type KPIView struct {
	freshness

	service readiness.KPIServiceAPI
	caller  readiness.Caller
	list    dashboard.ListSettings
	post    Poster

	records []readiness.KPIRecord
	table   *widgets.Table
	running bool // a list action is in flight
}

// ErrActionRunning is returned when a list action starts while another
// one has not finished.
var ErrActionRunning = errors.New("a list action is already running")

// NewKPIView creates a KPIView backed by the given params.
func NewKPIView(p KPIViewParams) *KPIView {
	kv := &KPIView{
		service: p.Service,
		caller:  p.Caller,
		list:    p.List,
		post:    p.PostEvent,
		table: &widgets.Table{
			Columns: []widgets.TableColumn{
				{Width: 28},
				{Width: 16},
				{Width: 4},
				{Width: 6, AlignRight: true},
				{Width: 6, AlignRight: true},
				{Width: 7, AlignRight: true},
				{Width: 7, AlignRight: true},
				{Width: 8, AlignRight: true},
				{Width: 7, AlignRight: true, Style: vaxis.Style{Attribute: vaxis.AttrBold}},
			},
			Header:     []string{"USER", "SECTOR", "LEAD", "TASKS", "DONE", "PENDING", "DELAYED", "AVG DAYS", "SCORE"},
			Gap:        1,
			Selectable: true,
		},
	}
	kv.staleTTL = p.StaleTTL
	return kv
}

// Load fetches KPI records from the service.
func (kv *KPIView) Load(ctx context.Context) error {
	records, err := kv.service.List(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		lead := ""
		if r.IsSectorLead() {
			lead = "★"
		}
		rows[i] = []string{
			r.User,
			r.Sector,
			lead,
			humanize.Comma(int64(r.TotalTasks)),
			humanize.Comma(int64(r.CompletedTasks)),
			humanize.Comma(int64(r.PendingTasks)),
			humanize.Comma(int64(r.DelayedTasks)),
			fmt.Sprintf("%.1f", r.AvgCompletionTime),
			fmt.Sprintf("%.2f", r.KPIScore),
		}
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.records = records
	kv.table.Rows = rows
	kv.table.SetCursor(kv.table.Cursor())
	kv.markLoaded()
	return nil
}

// Records returns the currently loaded KPI records.
func (kv *KPIView) Records() []readiness.KPIRecord {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.records
}

// ItemCount returns the number of loaded records.
func (kv *KPIView) ItemCount() int {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return len(kv.records)
}

// RunAction runs the menu action bound to key and reports through the
// event loop: Frozen, Unfrozen, Notice, then Reload when the action asks
// for a refresh, and finally ActionDone. The returned error is the one
// ActionDone carries.
func (kv *KPIView) RunAction(ctx context.Context, key rune) error {
	action, err := kv.start(key)
	if err != nil {
		return err
	}
	return kv.finish(ctx, action).Err
}

// start claims the view for the action bound to key. Only one action
// runs at a time.
func (kv *KPIView) start(key rune) (dashboard.ListAction, error) {
	action, ok := kv.list.Action(key)
	if !ok {
		return dashboard.ListAction{}, fmt.Errorf("no list action bound to %q", key)
	}
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.running {
		return dashboard.ListAction{}, ErrActionRunning
	}
	kv.running = true
	return action, nil
}

// finish runs a started action, releases the view and posts ActionDone.
func (kv *KPIView) finish(ctx context.Context, action dashboard.ListAction) ActionDone {
	reply, err := dashboard.RunAction(ctx, kv.caller, action, kpiListUI{view: kv})

	kv.mu.Lock()
	kv.running = false
	kv.mu.Unlock()

	done := ActionDone{Label: action.Label, Reply: reply, Err: err}
	kv.post.Post(done)
	return done
}

// Running reports whether a list action is in flight.
func (kv *KPIView) Running() bool {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.running
}

// kpiListUI reports a running list action to the app.
type kpiListUI struct {
	view *KPIView
}

func (u kpiListUI) Freeze(msg string) { u.view.post.Post(Frozen{Message: msg}) }
func (u kpiListUI) Unfreeze() { u.view.post.Post(Unfrozen{}) }
func (u kpiListUI) Notify(msg string) { u.view.post.Notify(msg) }
func (u kpiListUI) Refresh() { u.view.post.Post(Reload{View: u.view}) }

// Draw renders the KPI table and the action menu.
func (kv *KPIView) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if !kv.loaded {
		return drawLoadingState(ctx, kv)
	}

	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, kv)

	menu := make([]string, 0, len(kv.list.MenuItems))
	for _, a := range kv.list.MenuItems {
		menu = append(menu, fmt.Sprintf("%c %s", a.Key, a.Label))
	}
	err := drawLine(ctx, &s, 0,
		vaxis.Segment{Text: kv.list.Doctype, Style: boldStyle},
		vaxis.Segment{Text: fmt.Sprintf("  %d records   %s", len(kv.records), strings.Join(menu, "   ")), Style: dimStyle},
	)
	if err != nil {
		return vxfw.Surface{}, err
	}

	if len(kv.records) == 0 {
		if err := drawLine(ctx, &s, 2, vaxis.Segment{Text: "No KPI records. Press s to sync.", Style: dimStyle}); err != nil {
			return vxfw.Surface{}, err
		}
		return s, nil
	}

	if ctx.Max.Height > 2 {
		tableSurf, err := kv.table.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: ctx.Max.Height - 2}))
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, 2, tableSurf)
	}
	return s, nil
}

// HandleEvent starts list actions from their shortcut keys and otherwise
// moves the row selection.
func (kv *KPIView) HandleEvent(ev vaxis.Event, phase vxfw.EventPhase) (vxfw.Command, error) {
	key, ok := ev.(vaxis.Key)
	if !ok {
		return nil, nil
	}
	if key.Modifiers == 0 {
		if _, ok := kv.list.Action(key.Keycode); ok {
			// A second press before the first action finishes is dropped.
			if action, err := kv.start(key.Keycode); err == nil {
				go kv.finish(context.Background(), action)
			}
			return vxfw.ConsumeAndRedraw(), nil
		}
	}

	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.table.HandleEvent(ev, phase)
}
