package widgets

import (
	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// BarChart draws one BarGauge per label with a movable selection. The
// selected bar is the chart's "clicked" point.
type BarChart struct {
	labels   []string
	values   []float64
	suffixes []string
	cursor   int
	offset   int

	BarWidth int
}

// NewBarChart creates an empty BarChart.
func NewBarChart(barWidth int) *BarChart {
	return &BarChart{BarWidth: barWidth}
}

// SetData replaces the bars. Labels and values are paired by position;
// a shorter values slice leaves the remaining bars at zero.
func (bc *BarChart) SetData(labels []string, values []float64, suffixes []string) {
	bc.labels = labels
	bc.values = values
	bc.suffixes = suffixes
	if bc.cursor >= len(labels) {
		bc.cursor = max(len(labels)-1, 0)
	}
}

// Len returns the number of bars.
func (bc *BarChart) Len() int {
	return len(bc.labels)
}

// Cursor returns the selected bar index.
func (bc *BarChart) Cursor() int {
	return bc.cursor
}

// Selected returns the selected bar's label.
func (bc *BarChart) Selected() (string, bool) {
	if bc.cursor >= len(bc.labels) {
		return "", false
	}
	return bc.labels[bc.cursor], true
}

// Next moves the selection down, stopping at the last bar.
func (bc *BarChart) Next() {
	if bc.cursor < len(bc.labels)-1 {
		bc.cursor++
	}
}

// Prev moves the selection up, stopping at the first bar.
func (bc *BarChart) Prev() {
	if bc.cursor > 0 {
		bc.cursor--
	}
}

func (bc *BarChart) labelWidth() int {
	w := 4
	for _, l := range bc.labels {
		n := 0
		for _, ch := range vaxis.Characters(l) {
			n += ch.Width
		}
		if n > w {
			w = n
		}
	}
	return min(w, 30)
}

// Draw renders as many bars as fit, keeping the selection visible.
func (bc *BarChart) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	height := int(ctx.Max.Height)
	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, bc)
	if height == 0 {
		return s, nil
	}

	if bc.cursor < bc.offset {
		bc.offset = bc.cursor
	}
	if bc.cursor >= bc.offset+height {
		bc.offset = bc.cursor - height + 1
	}

	lw := bc.labelWidth()
	for row := 0; row < height && bc.offset+row < len(bc.labels); row++ {
		i := bc.offset + row
		g := &BarGauge{
			Label:      bc.labels[i],
			LabelWidth: lw,
			BarWidth:   bc.BarWidth,
			Selected:   i == bc.cursor,
		}
		if i < len(bc.values) {
			g.Value = bc.values[i]
		}
		if i < len(bc.suffixes) {
			g.Suffix = bc.suffixes[i]
		}
		gs, err := g.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
		if err != nil {
			return vxfw.Surface{}, err
		}
		s.AddChild(0, row, gs)
	}
	return s, nil
}

// HandleEvent moves the selection with j/k and the arrow keys.
func (bc *BarChart) HandleEvent(ev vaxis.Event, phase vxfw.EventPhase) (vxfw.Command, error) {
	key, ok := ev.(vaxis.Key)
	if !ok {
		return nil, nil
	}
	switch {
	case key.Matches('j'), key.Matches(vaxis.KeyDown):
		bc.Next()
	case key.Matches('k'), key.Matches(vaxis.KeyUp):
		bc.Prev()
	default:
		return nil, nil
	}
	return vxfw.ConsumeAndRedraw(), nil
}
