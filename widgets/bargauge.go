package widgets

import (
	"fmt"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// BarGauge is a horizontal readiness bar.
//
//	Conf A       [████████░░░░░░░░░░░░]  42.5%  12/28 tasks
type BarGauge struct {
	Label      string  // left column, truncated to LabelWidth
	LabelWidth int     // defaults to 4
	Value      float64 // 0.0–100.0
	Suffix     string  // text after %, e.g. "12/28 tasks"
	BarWidth   int     // character width of the [████░░░░] portion (excluding brackets)
	Selected   bool    // draws the label in reverse video
}

const (
	barFilled = '█' // U+2588
	barEmpty  = '░' // U+2591
)

// readinessColor returns the color for a readiness percentage: red while
// an event is far from ready, green once it is nearly there.
func readinessColor(pct float64) vaxis.Color {
	switch {
	case pct >= 75:
		return vaxis.IndexColor(2) // green
	case pct >= 40:
		return vaxis.IndexColor(3) // yellow
	default:
		return vaxis.IndexColor(1) // red
	}
}

// Width returns the number of columns the gauge occupies before its suffix.
func (bg *BarGauge) Width() int {
	return bg.labelWidth() + 1 + 1 + bg.BarWidth + 8 // label, space, "[", bars, "] 100.0%"
}

func (bg *BarGauge) labelWidth() int {
	if bg.LabelWidth <= 0 {
		return 4
	}
	return bg.LabelWidth
}

// Draw renders the bar gauge as a single row.
func (bg *BarGauge) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, 1, bg)

	labelStyle := vaxis.Style{Attribute: vaxis.AttrBold}
	if bg.Selected {
		labelStyle.Attribute |= vaxis.AttrReverse
	}
	lw := bg.labelWidth()
	writeText(&s, 0, 0, lw, fmt.Sprintf("%-*s", lw, bg.Label), labelStyle, false)
	col := uint16(lw + 1)

	for _, ch := range ctx.Characters("[") {
		s.WriteCell(col, 0, vaxis.Cell{Character: ch})
		col += uint16(ch.Width)
	}

	v := bg.Value
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	filled := int(v / 100 * float64(bg.BarWidth))
	color := readinessColor(v)

	for i := 0; i < bg.BarWidth; i++ {
		ch := barEmpty
		style := vaxis.Style{Foreground: vaxis.IndexColor(8)} // dim for empty
		if i < filled {
			ch = barFilled
			style = vaxis.Style{Foreground: color}
		}
		for _, c := range ctx.Characters(string(ch)) {
			s.WriteCell(col, 0, vaxis.Cell{Character: c, Style: style})
			col += uint16(c.Width)
		}
	}

	pctStr := fmt.Sprintf("] %5.1f%%", v)
	for _, ch := range ctx.Characters(pctStr) {
		s.WriteCell(col, 0, vaxis.Cell{Character: ch})
		col += uint16(ch.Width)
	}

	if bg.Suffix != "" {
		suffix := "  " + bg.Suffix
		dimStyle := vaxis.Style{Attribute: vaxis.AttrDim}
		for _, ch := range ctx.Characters(suffix) {
			if col >= ctx.Max.Width {
				break
			}
			s.WriteCell(col, 0, vaxis.Cell{Character: ch, Style: dimStyle})
			col += uint16(ch.Width)
		}
	}

	return s, nil
}
