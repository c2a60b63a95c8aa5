package widgets

import (
	"math"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// Segment is one colored share of a SegmentBar.
type Segment struct {
	Value float64
	Color vaxis.Color
}

// SegmentBar is a single-row stacked bar: each segment gets a share of
// Width proportional to its value.
//
//	████████▓▓▓▓░░░░░░░░
type SegmentBar struct {
	Segments []Segment
	Width    int
}

// Spans returns the cell width of each segment. Widths add up to Width
// whenever the total is positive; rounding leftovers go to the largest
// remainders.
func (sb *SegmentBar) Spans() []int {
	spans := make([]int, len(sb.Segments))
	var total float64
	for _, seg := range sb.Segments {
		if seg.Value > 0 {
			total += seg.Value
		}
	}
	if total == 0 || sb.Width <= 0 {
		return spans
	}

	used := 0
	rem := make([]float64, len(sb.Segments))
	for i, seg := range sb.Segments {
		if seg.Value <= 0 {
			continue
		}
		exact := seg.Value / total * float64(sb.Width)
		spans[i] = int(math.Floor(exact))
		rem[i] = exact - float64(spans[i])
		used += spans[i]
	}
	for used < sb.Width {
		best := -1
		for i := range rem {
			if sb.Segments[i].Value > 0 && (best < 0 || rem[i] > rem[best]) {
				best = i
			}
		}
		spans[best]++
		rem[best] = -1
		used++
	}
	return spans
}

// Draw renders the bar. An all-zero bar is drawn as dim empty cells.
func (sb *SegmentBar) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, 1, sb)

	col := uint16(0)
	spans := sb.Spans()
	drawn := 0
	for i, n := range spans {
		style := vaxis.Style{Foreground: sb.Segments[i].Color}
		for j := 0; j < n && col < ctx.Max.Width; j++ {
			for _, c := range ctx.Characters(string(barFilled)) {
				s.WriteCell(col, 0, vaxis.Cell{Character: c, Style: style})
				col += uint16(c.Width)
			}
			drawn++
		}
	}
	for ; drawn < sb.Width && col < ctx.Max.Width; drawn++ {
		for _, c := range ctx.Characters(string(barEmpty)) {
			s.WriteCell(col, 0, vaxis.Cell{Character: c, Style: vaxis.Style{Foreground: vaxis.IndexColor(8)}})
			col += uint16(c.Width)
		}
	}
	return s, nil
}
