package dashboard

import "fmt"

// PageKind selects which view renders a page.
type PageKind int

const (
	PageProgress PageKind = iota // readiness bars from a chart source
	PageStats                    // readiness and task status from dashboard stats
)

// Page is a dashboard page registered under a route.
type Page struct {
	Route        string
	Title        string
	Kind         PageKind
	ChartSource  string // for PageProgress
	ShowNotFound bool
}

// Registry is the table of customizations resolved at startup.
type Registry struct {
	pages        []Page
	chartSources map[string]ChartSource
	calendars    map[string]CalendarSettings
	lists        map[string]ListSettings
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		chartSources: make(map[string]ChartSource),
		calendars:    make(map[string]CalendarSettings),
		lists:        make(map[string]ListSettings),
	}
}

// RegisterPage adds a page. Routes are unique.
func (r *Registry) RegisterPage(p Page) error {
	if p.Route == "" {
		return fmt.Errorf("registry: page needs a route")
	}
	if _, ok := r.Page(p.Route); ok {
		return fmt.Errorf("registry: page %q already registered", p.Route)
	}
	r.pages = append(r.pages, p)
	return nil
}

// RegisterChartSource adds a chart data source.
func (r *Registry) RegisterChartSource(s ChartSource) error {
	if s.Name == "" || s.Build == nil {
		return fmt.Errorf("registry: chart source needs a name and a builder")
	}
	if _, ok := r.chartSources[s.Name]; ok {
		return fmt.Errorf("registry: chart source %q already registered", s.Name)
	}
	r.chartSources[s.Name] = s
	return nil
}

// RegisterCalendar adds calendar settings for a doctype.
func (r *Registry) RegisterCalendar(c CalendarSettings) error {
	if c.Doctype == "" {
		return fmt.Errorf("registry: calendar needs a doctype")
	}
	if _, ok := r.calendars[c.Doctype]; ok {
		return fmt.Errorf("registry: calendar %q already registered", c.Doctype)
	}
	r.calendars[c.Doctype] = c
	return nil
}

// RegisterList adds list settings for a doctype.
func (r *Registry) RegisterList(l ListSettings) error {
	if l.Doctype == "" {
		return fmt.Errorf("registry: list settings need a doctype")
	}
	if _, ok := r.lists[l.Doctype]; ok {
		return fmt.Errorf("registry: list settings %q already registered", l.Doctype)
	}
	r.lists[l.Doctype] = l
	return nil
}

// Pages returns pages in registration order.
func (r *Registry) Pages() []Page {
	out := make([]Page, len(r.pages))
	copy(out, r.pages)
	return out
}

// Page looks up a page by route.
func (r *Registry) Page(route string) (Page, bool) {
	for _, p := range r.pages {
		if p.Route == route {
			return p, true
		}
	}
	return Page{}, false
}

// SetShowNotFound overrides a page's not-found message flag.
func (r *Registry) SetShowNotFound(route string, show bool) error {
	for i := range r.pages {
		if r.pages[i].Route == route {
			r.pages[i].ShowNotFound = show
			return nil
		}
	}
	return fmt.Errorf("registry: no page %q", route)
}

// ChartSource looks up a chart source by name.
func (r *Registry) ChartSource(name string) (ChartSource, bool) {
	s, ok := r.chartSources[name]
	return s, ok
}

// Calendar looks up calendar settings by doctype.
func (r *Registry) Calendar(doctype string) (CalendarSettings, bool) {
	c, ok := r.calendars[doctype]
	return c, ok
}

// List looks up list settings by doctype.
func (r *Registry) List(doctype string) (ListSettings, bool) {
	l, ok := r.lists[doctype]
	return l, ok
}

// Routes of the built-in pages.
const (
	RouteReadinessDash      = "event-readiness-dash"
	RouteReadinessDashboard = "event-readiness-dashboard"
)

// DefaultRegistry registers the Event Readiness customizations.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	must(r.RegisterChartSource(ProgressChartSource))
	must(r.RegisterPage(Page{
		Route:        RouteReadinessDash,
		Title:        "Readiness",
		Kind:         PageProgress,
		ChartSource:  ProgressChartSource.Name,
		ShowNotFound: true,
	}))
	must(r.RegisterPage(Page{
		Route: RouteReadinessDashboard,
		Title: "Event Dashboard",
		Kind:  PageStats,
	}))
	must(r.RegisterCalendar(EventReadinessCalendar))
	must(r.RegisterList(UserSectorKPIList))
	return r
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
