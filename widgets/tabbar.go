package widgets

import (
	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// TabBar is a horizontal tab navigation widget with an optional status
// text drawn flush right.
type TabBar struct {
	labels []string
	active int

	Status string
}

// NewTabBar creates a TabBar with the given labels. Active defaults to 0.
func NewTabBar(labels []string) *TabBar {
	return &TabBar{labels: labels}
}

// Len returns the number of tabs.
func (tb *TabBar) Len() int {
	return len(tb.labels)
}

// Label returns the label of tab i, or "" when out of range.
func (tb *TabBar) Label(i int) string {
	if i < 0 || i >= len(tb.labels) {
		return ""
	}
	return tb.labels[i]
}

// Active returns the currently active tab index.
func (tb *TabBar) Active() int {
	return tb.active
}

// SetActive sets the active tab index. Out-of-range values are ignored.
func (tb *TabBar) SetActive(i int) {
	if i >= 0 && i < len(tb.labels) {
		tb.active = i
	}
}

// Next advances to the next tab, wrapping around.
func (tb *TabBar) Next() {
	if len(tb.labels) == 0 {
		return
	}
	tb.active = (tb.active + 1) % len(tb.labels)
}

// Prev moves to the previous tab, wrapping around.
func (tb *TabBar) Prev() {
	if len(tb.labels) == 0 {
		return
	}
	tb.active = (tb.active - 1 + len(tb.labels)) % len(tb.labels)
}

// Draw renders the tab bar as a single row:
//
//	" Readiness | Event Dashboard | Calendar | KPI        admin@psn "
//
// Active tab is rendered with reverse video. The status is dropped when it
// would overlap the tabs.
func (tb *TabBar) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, 1, tb)

	col := uint16(0)
	for i, label := range tb.labels {
		if i > 0 {
			for _, ch := range ctx.Characters(" | ") {
				s.WriteCell(col, 0, vaxis.Cell{Character: ch})
				col += uint16(ch.Width)
			}
		}

		style := vaxis.Style{}
		if i == tb.active {
			style.Attribute |= vaxis.AttrReverse
		}

		text := " " + label + " "
		for _, ch := range ctx.Characters(text) {
			s.WriteCell(col, 0, vaxis.Cell{Character: ch, Style: style})
			col += uint16(ch.Width)
		}
	}

	if tb.Status != "" {
		status := tb.Status + " "
		chars := ctx.Characters(status)
		w := 0
		for _, ch := range chars {
			w += ch.Width
		}
		start := int(ctx.Max.Width) - w
		if start > int(col) {
			dim := vaxis.Style{Attribute: vaxis.AttrDim}
			pos := uint16(start)
			for _, ch := range chars {
				s.WriteCell(pos, 0, vaxis.Cell{Character: ch, Style: dim})
				pos += uint16(ch.Width)
			}
		}
	}

	return s, nil
}
