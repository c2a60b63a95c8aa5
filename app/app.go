package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"git.sr.ht/~rockorager/vaxis/vxfw/richtext"
	"github.com/psn/readiness-tui/dashboard"
	"github.com/psn/readiness-tui/internal"
	"github.com/psn/readiness-tui/readiness"
	"github.com/psn/readiness-tui/views"
	"github.com/psn/readiness-tui/widgets"
	"go.uber.org/zap"
)

// Connected is posted when the background connection succeeds.
type Connected struct {
	Services *internal.Services
	User     string
}

// ConnectFailed is posted when the background connection fails.
type ConnectFailed struct {
	Err error
}

// Params configures a new App.
type Params struct {
	// Services is set when already connected. Otherwise Connect is called
	// on vxfw.Init.
	Services *internal.Services
	Connect  func(ctx context.Context) (*internal.Services, error)

	SiteName string
	StaleTTL time.Duration

	// Registry defaults to dashboard.DefaultRegistry().
	Registry *dashboard.Registry
	Logger   *zap.Logger
}

// tab builds one view once services are available.
type tab struct {
	label string
	build func(svc *internal.Services) views.View
}

// App is the root vxfw widget for readiness-tui.
type App struct {
	services *internal.Services
	connect  func(ctx context.Context) (*internal.Services, error)
	connErr  error
	siteName string
	user     string
	staleTTL time.Duration
	log      *zap.Logger

	tabs   []tab
	views  []views.View
	tabBar *widgets.TabBar

	record *views.EventView
	frozen string
	notice views.Notice

	postEvent func(vaxis.Event)
}

// New creates the root App widget.
func New(p Params) *App {
	reg := p.Registry
	if reg == nil {
		reg = dashboard.DefaultRegistry()
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		connect:  p.Connect,
		siteName: p.SiteName,
		staleTTL: p.StaleTTL,
		log:      logger,
	}
	a.tabs = a.buildTabs(reg)

	labels := make([]string, len(a.tabs))
	for i, t := range a.tabs {
		labels[i] = t.label
	}
	a.tabBar = widgets.NewTabBar(labels)
	a.tabBar.Status = a.siteName

	if p.Services != nil {
		a.setServices(p.Services)
	}
	return a
}

// buildTabs lists the registered pages, then the calendar and the KPI list.
func (a *App) buildTabs(reg *dashboard.Registry) []tab {
	var tabs []tab
	for _, page := range reg.Pages() {
		switch page.Kind {
		case dashboard.PageProgress:
			src, ok := reg.ChartSource(page.ChartSource)
			if !ok {
				a.log.Warn("page has no chart source", zap.String("route", page.Route), zap.String("source", page.ChartSource))
				continue
			}
			tabs = append(tabs, tab{label: page.Title, build: func(svc *internal.Services) views.View {
				return views.NewProgressView(views.ProgressViewParams{
					Page: page, Source: src, Events: svc.Events, StaleTTL: a.staleTTL, PostEvent: a.post,
				})
			}})
		case dashboard.PageStats:
			cal, _ := reg.Calendar(readiness.DoctypeEventReadiness)
			tabs = append(tabs, tab{label: page.Title, build: func(svc *internal.Services) views.View {
				return views.NewStatsView(views.StatsViewParams{
					Page: page, Events: svc.Events, Calendar: cal, StaleTTL: a.staleTTL, PostEvent: a.post,
				})
			}})
		}
	}
	if cal, ok := reg.Calendar(readiness.DoctypeEventReadiness); ok {
		tabs = append(tabs, tab{label: "Calendar", build: func(svc *internal.Services) views.View {
			return views.NewCalendarView(views.CalendarViewParams{
				Settings: cal, Events: svc.Events, StaleTTL: a.staleTTL, PostEvent: a.post,
			})
		}})
	}
	if list, ok := reg.List(readiness.DoctypeUserSectorKPI); ok {
		tabs = append(tabs, tab{label: "KPI", build: func(svc *internal.Services) views.View {
			return views.NewKPIView(views.KPIViewParams{
				Service: svc.KPIs, Caller: svc.Caller, List: list, StaleTTL: a.staleTTL, PostEvent: a.post,
			})
		}})
	}
	return tabs
}

func (a *App) setServices(svc *internal.Services) {
	a.services = svc
	a.connErr = nil
	a.views = make([]views.View, len(a.tabs))
	for i, t := range a.tabs {
		a.views[i] = t.build(svc)
	}
}

// post forwards to the vaxis loop once SetPostEvent has been called.
func (a *App) post(ev vaxis.Event) {
	if a.postEvent != nil {
		a.postEvent(ev)
	}
}

// SetPostEvent sets the function used to post events to the vaxis event loop.
// Must be called before LoadAll.
func (a *App) SetPostEvent(fn func(vaxis.Event)) {
	a.postEvent = fn
}

// IsConnected reports whether services are available.
func (a *App) IsConnected() bool {
	return a.services != nil
}

// ActiveTab returns the current tab index.
func (a *App) ActiveTab() int {
	return a.tabBar.Active()
}

// SetTab switches to the given tab index.
func (a *App) SetTab(i int) {
	a.tabBar.SetActive(i)
}

// TabLabels returns the tab titles in order.
func (a *App) TabLabels() []string {
	out := make([]string, a.tabBar.Len())
	for i := range out {
		out[i] = a.tabBar.Label(i)
	}
	return out
}

// SiteName returns the connected site profile name.
func (a *App) SiteName() string {
	return a.siteName
}

// View returns the view of tab i, or nil before connecting.
func (a *App) View(i int) views.View {
	if i < 0 || i >= len(a.views) {
		return nil
	}
	return a.views[i]
}

// Frozen returns the message of a running list action, or "".
func (a *App) Frozen() string {
	return a.frozen
}

// Notice returns the status line message.
func (a *App) Notice() views.Notice {
	return a.notice
}

// Record returns the open record form, or nil.
func (a *App) Record() *views.EventView {
	return a.record
}

// LoadAll loads data for all views in parallel using goroutines.
// Each view posts a ViewLoaded event when done.
func (a *App) LoadAll(ctx context.Context) {
	for i := range a.views {
		a.loadAsync(ctx, i)
	}
}

func (a *App) loadAsync(ctx context.Context, i int) {
	v := a.views[i]
	go func() {
		err := v.Load(ctx)
		a.post(views.ViewLoaded{Tab: i, Err: err})
	}()
}

// LoadActiveView fetches data for the currently active view.
func (a *App) LoadActiveView(ctx context.Context) error {
	v := a.activeView()
	if v == nil {
		return nil
	}
	return v.Load(ctx)
}

func (a *App) activeView() views.View {
	return a.View(a.tabBar.Active())
}

// Draw renders the tab bar, the active view or record form, the status
// line and, while a list action runs, its freeze message.
func (a *App) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, a)
	if ctx.Max.Height == 0 {
		return s, nil
	}

	if a.user != "" {
		a.tabBar.Status = a.user + "@" + a.siteName
	}
	tabSurf, err := a.tabBar.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, 0, tabSurf)

	if ctx.Max.Height < 3 {
		return s, nil
	}
	bodyCtx := ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: ctx.Max.Height - 2})

	var body vxfw.Widget
	switch {
	case a.record != nil:
		body = a.record
	case a.activeView() != nil:
		body = a.activeView()
	}
	if body != nil {
		bodySurf, err := body.Draw(bodyCtx)
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, 1, bodySurf)
	} else {
		msg := fmt.Sprintf("Connecting to %s...", a.siteName)
		style := vaxis.Style{Attribute: vaxis.AttrDim}
		if a.connErr != nil {
			msg = fmt.Sprintf("Connection to %s failed: %v", a.siteName, a.connErr)
			style = vaxis.Style{Foreground: vaxis.IndexColor(1)}
		}
		if err := a.drawText(bodyCtx, &s, 1, msg, style); err != nil {
			return vxfw.Surface{}, err
		}
	}

	if err := a.drawStatus(ctx, &s); err != nil {
		return vxfw.Surface{}, err
	}

	if a.frozen != "" {
		if err := a.drawFrozen(ctx, &s); err != nil {
			return vxfw.Surface{}, err
		}
	}
	return s, nil
}

func (a *App) drawText(ctx vxfw.DrawContext, s *vxfw.Surface, row int, text string, style vaxis.Style) error {
	surf, err := richtext.New([]vaxis.Segment{{Text: text, Style: style}}).
		Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
	if err != nil {
		return err
	}
	s.AddChild(0, row, surf)
	return nil
}

func (a *App) drawStatus(ctx vxfw.DrawContext, s *vxfw.Surface) error {
	row := int(ctx.Max.Height) - 1
	if a.notice.Text != "" {
		style := vaxis.Style{Foreground: vaxis.IndexColor(2)}
		if a.notice.Err {
			style = vaxis.Style{Foreground: vaxis.IndexColor(1)}
		}
		return a.drawText(ctx, s, row, a.notice.Text, style)
	}
	hint := "q quit  r reload  tab switch  enter open"
	if a.record != nil {
		hint = "esc back  q quit"
	}
	return a.drawText(ctx, s, row, hint, vaxis.Style{Attribute: vaxis.AttrDim})
}

// drawFrozen centers the freeze message in a reverse-video box.
func (a *App) drawFrozen(ctx vxfw.DrawContext, s *vxfw.Surface) error {
	text := "  " + a.frozen + "  "
	width := 0
	for _, ch := range ctx.Characters(text) {
		width += ch.Width
	}
	width = min(width, int(ctx.Max.Width))
	box := vxfw.NewSurface(uint16(width), 3, a)
	style := vaxis.Style{Attribute: vaxis.AttrReverse | vaxis.AttrBold}
	for row := 0; row < 3; row++ {
		col := 0
		line := ctx.Characters(fmt.Sprintf("%-*s", width, ""))
		if row == 1 {
			line = ctx.Characters(text)
		}
		for _, ch := range line {
			if col+ch.Width > width {
				break
			}
			box.WriteCell(uint16(col), uint16(row), vaxis.Cell{Character: ch, Style: style})
			col += ch.Width
		}
	}
	col := (int(ctx.Max.Width) - width) / 2
	row := max((int(ctx.Max.Height)-3)/2, 0)
	s.AddChild(col, row, box)
	return nil
}

// CaptureEvent handles global keybindings before views process them.
func (a *App) CaptureEvent(ev vaxis.Event) (vxfw.Command, error) {
	key, ok := ev.(vaxis.Key)
	if !ok {
		return nil, nil
	}
	if a.frozen != "" {
		return vxfw.ConsumeAndRedraw(), nil
	}
	if key.Matches('q') {
		return vxfw.QuitCmd{}, nil
	}
	if !a.IsConnected() {
		return nil, nil
	}
	if a.record != nil {
		if key.Matches(vaxis.KeyEsc) {
			a.record = nil
			return vxfw.ConsumeAndRedraw(), nil
		}
		return nil, nil
	}

	prev := a.tabBar.Active()
	switch {
	case key.Matches('r'):
		a.notice = views.Notice{}
		a.loadAsync(context.Background(), a.tabBar.Active())
		return vxfw.ConsumeAndRedraw(), nil
	case key.Matches(vaxis.KeyTab):
		a.tabBar.Next()
	case key.Matches(vaxis.KeyTab, vaxis.ModShift):
		a.tabBar.Prev()
	case key.Keycode >= '1' && key.Keycode <= '9' && key.Modifiers == 0:
		i := int(key.Keycode - '1')
		if i >= a.tabBar.Len() {
			return nil, nil
		}
		a.tabBar.SetActive(i)
	default:
		return nil, nil
	}
	if a.tabBar.Active() != prev {
		a.notice = views.Notice{}
		a.refetchIfStale()
	}
	return vxfw.ConsumeAndRedraw(), nil
}

// refetchIfStale reloads the active view's data in the background if it
// has become stale.
func (a *App) refetchIfStale() {
	if v := a.activeView(); v != nil && v.Stale() {
		a.loadAsync(context.Background(), a.tabBar.Active())
	}
}

// HandleEvent handles connection and view events, and delegates
// everything else to the record form or the active view.
func (a *App) HandleEvent(ev vaxis.Event, phase vxfw.EventPhase) (vxfw.Command, error) {
	switch ev := ev.(type) {
	case vxfw.Init:
		if a.connect != nil && a.services == nil {
			go a.runConnect()
		}
		return nil, nil
	case Connected:
		a.setServices(ev.Services)
		a.user = ev.User
		a.log.Info("connected", zap.String("site", a.siteName), zap.String("user", ev.User))
		a.LoadAll(context.Background())
		return vxfw.RedrawCmd{}, nil
	case ConnectFailed:
		a.connErr = ev.Err
		a.log.Error("connect failed", zap.String("site", a.siteName), zap.Error(ev.Err))
		return vxfw.RedrawCmd{}, nil
	case views.ViewLoaded:
		if ev.Err != nil {
			a.log.Error("load failed", zap.String("tab", a.tabBar.Label(ev.Tab)), zap.Error(ev.Err))
			a.notice = views.Notice{Text: fmt.Sprintf("%s: %v", a.tabBar.Label(ev.Tab), ev.Err), Err: true}
		}
		return vxfw.RedrawCmd{}, nil
	case views.Notice:
		if ev.Err {
			a.log.Warn("notice", zap.String("text", ev.Text))
		}
		a.notice = ev
		return vxfw.RedrawCmd{}, nil
	case views.Frozen:
		a.frozen = ev.Message
		return vxfw.RedrawCmd{}, nil
	case views.Unfrozen:
		a.frozen = ""
		return vxfw.RedrawCmd{}, nil
	case views.Reload:
		for i, v := range a.views {
			if v == ev.View {
				a.loadAsync(context.Background(), i)
			}
		}
		return vxfw.RedrawCmd{}, nil
	case views.ActionDone:
		a.actionDone(ev)
		return vxfw.RedrawCmd{}, nil
	case views.OpenRecord:
		a.openRecord(ev)
		return vxfw.RedrawCmd{}, nil
	case views.RecordLoaded:
		if a.record == nil || a.record.Name() != ev.Name {
			return nil, nil
		}
		if ev.Err != nil {
			a.log.Error("open record failed", zap.String("name", ev.Name), zap.Error(ev.Err))
			a.notice = views.Notice{Text: ev.Err.Error(), Err: true}
			a.record = nil
			return vxfw.RedrawCmd{}, nil
		}
		a.record.SetEvent(ev.Event)
		return vxfw.RedrawCmd{}, nil
	default:
		if a.record != nil {
			return a.record.HandleEvent(ev, phase)
		}
		if v := a.activeView(); v != nil {
			return v.HandleEvent(ev, phase)
		}
	}
	return nil, nil
}

func (a *App) runConnect() {
	svc, err := a.connect(context.Background())
	if err != nil {
		a.post(ConnectFailed{Err: err})
		return
	}
	user, err := svc.Session.WhoAmI(context.Background())
	if err != nil {
		a.log.Warn("whoami failed", zap.Error(err))
	}
	a.post(Connected{Services: svc, User: user})
}

func (a *App) actionDone(ev views.ActionDone) {
	if ev.Err != nil {
		a.log.Error("list action failed", zap.String("action", ev.Label), zap.Error(ev.Err))
		a.notice = views.Notice{Text: ev.Err.Error(), Err: true}
		return
	}
	fields := []zap.Field{zap.String("action", ev.Label)}
	var result readiness.SyncResult
	if len(ev.Reply) > 0 && json.Unmarshal(ev.Reply, &result) == nil && result.Status != "" {
		fields = append(fields, zap.String("status", result.Status),
			zap.Int("created", result.Created), zap.Int("skipped", result.Skipped))
	}
	a.log.Info("list action done", fields...)
}

// openRecord shows the form for ev and fetches the document in the
// background. Only Event Readiness records have a form.
func (a *App) openRecord(ev views.OpenRecord) {
	if ev.Doctype != readiness.DoctypeEventReadiness || a.services == nil {
		a.log.Warn("no form for record", zap.String("doctype", ev.Doctype), zap.String("name", ev.Name))
		return
	}
	a.notice = views.Notice{}
	a.record = views.NewEventView(ev.Name)
	events := a.services.Events
	go func() {
		doc, err := events.Get(context.Background(), ev.Name)
		a.post(views.RecordLoaded{Name: ev.Name, Event: doc, Err: err})
	}()
}
