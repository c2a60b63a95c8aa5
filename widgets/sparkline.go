package widgets

import (
	"math"

	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// Block characters for sparkline rendering (8 levels).
var sparkBlocks = [8]rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a 1-row graph of percentages using block characters.
// Values are scaled against a fixed 0..Max range so that two sparklines
// with the same Max compare visually.
type Sparkline struct {
	values []float64
	Max    float64 // defaults to 100
}

// NewSparkline creates a Sparkline of the given values.
func NewSparkline(values []float64) *Sparkline {
	sl := &Sparkline{}
	sl.Set(values)
	return sl
}

// Set replaces the plotted values.
func (sl *Sparkline) Set(values []float64) {
	sl.values = append(sl.values[:0], values...)
}

// Count returns the number of values plotted.
func (sl *Sparkline) Count() int {
	return len(sl.values)
}

// Level returns the block index (0-7) used for v.
func (sl *Sparkline) Level(v float64) int {
	top := sl.Max
	if top <= 0 {
		top = 100
	}
	if v <= 0 {
		return 0
	}
	level := int(math.Round(v / top * 7))
	if level > 7 {
		level = 7
	}
	return level
}

// Draw renders the sparkline as a single row, showing the most recent
// values when there are more than fit.
func (sl *Sparkline) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, 1, sl)

	vals := sl.values
	if len(vals) == 0 {
		return s, nil
	}

	width := int(ctx.Max.Width)
	if len(vals) > width {
		vals = vals[len(vals)-width:]
	}

	for i, v := range vals {
		ch := sparkBlocks[sl.Level(v)]
		for _, c := range ctx.Characters(string(ch)) {
			s.WriteCell(uint16(i), 0, vaxis.Cell{
				Character: c,
				Style:     vaxis.Style{Foreground: readinessColor(v)},
			})
		}
	}

	return s, nil
}
