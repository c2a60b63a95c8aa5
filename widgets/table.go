package widgets

import (
	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
)

// TableColumn defines a column in a Table.
type TableColumn struct {
	Width      int         // fixed character width
	AlignRight bool        // right-align text within the column
	Style      vaxis.Style // applied to all cells in this column
}

// Table renders rows of text with fixed-width columns using WriteCell.
// Each row is a []string matching the Columns slice.
//
// When Selectable is set, one row is highlighted and the table scrolls to
// keep it in view.
type Table struct {
	Columns    []TableColumn
	Rows       [][]string
	Header     []string // optional header row rendered with AttrDim
	Gap        int      // spaces between columns (default 1)
	Selectable bool

	cursor int
	offset int
}

// writeText writes s into surf at (col, row) within maxWidth. If
// right-aligned, text is padded on the left.
func writeText(surf *vxfw.Surface, col, row uint16, maxWidth int, s string, style vaxis.Style, alignRight bool) {
	chars := vaxis.Characters(s)

	displayWidth := 0
	for _, ch := range chars {
		displayWidth += ch.Width
	}

	offset := 0
	if alignRight && displayWidth < maxWidth {
		offset = maxWidth - displayWidth
	}

	pos := offset
	for _, ch := range chars {
		if pos+ch.Width > maxWidth {
			break
		}
		surf.WriteCell(col+uint16(pos), row, vaxis.Cell{
			Character: ch,
			Style:     style,
		})
		pos += ch.Width
	}
}

// Cursor returns the selected row index.
func (t *Table) Cursor() int {
	return t.cursor
}

// SetCursor selects row i, clamped to the available rows.
func (t *Table) SetCursor(i int) {
	if i >= len(t.Rows) {
		i = len(t.Rows) - 1
	}
	if i < 0 {
		i = 0
	}
	t.cursor = i
}

// Down moves the selection one row down.
func (t *Table) Down() { t.SetCursor(t.cursor + 1) }

// Up moves the selection one row up.
func (t *Table) Up() { t.SetCursor(t.cursor - 1) }

func (t *Table) rowWidth() int {
	gap := t.Gap
	if gap == 0 {
		gap = 1
	}
	w := 0
	for _, c := range t.Columns {
		w += c.Width + gap
	}
	return w
}

// Draw renders the table header (if set) and as many rows as fit.
func (t *Table) Draw(ctx vxfw.DrawContext) (vxfw.Surface, error) {
	gap := t.Gap
	if gap == 0 {
		gap = 1
	}

	totalRows := len(t.Rows)
	if t.Header != nil {
		totalRows++
	}

	height := uint16(totalRows)
	if height > ctx.Max.Height {
		height = ctx.Max.Height
	}

	s := vxfw.NewSurface(ctx.Max.Width, height, t)
	row := uint16(0)

	if t.Header != nil && row < height {
		col := uint16(0)
		for i, c := range t.Columns {
			if int(col) >= int(ctx.Max.Width) {
				break
			}
			text := ""
			if i < len(t.Header) {
				text = t.Header[i]
			}
			style := vaxis.Style{Attribute: vaxis.AttrDim}
			writeText(&s, col, row, c.Width, text, style, c.AlignRight)
			col += uint16(c.Width + gap)
		}
		row++
	}

	visible := int(height - row)
	if t.Selectable && visible > 0 {
		if t.cursor < t.offset {
			t.offset = t.cursor
		}
		if t.cursor >= t.offset+visible {
			t.offset = t.cursor - visible + 1
		}
	} else {
		t.offset = 0
	}

	for idx := t.offset; idx < len(t.Rows); idx++ {
		if row >= height {
			break
		}
		cells := t.Rows[idx]
		selected := t.Selectable && idx == t.cursor
		if selected {
			fill := min(t.rowWidth(), int(ctx.Max.Width))
			for c := 0; c < fill; c++ {
				s.WriteCell(uint16(c), row, vaxis.Cell{
					Character: vaxis.Character{Grapheme: " ", Width: 1},
					Style:     vaxis.Style{Attribute: vaxis.AttrReverse},
				})
			}
		}
		col := uint16(0)
		for i, c := range t.Columns {
			if int(col) >= int(ctx.Max.Width) {
				break
			}
			text := ""
			if i < len(cells) {
				text = cells[i]
			}
			style := c.Style
			if selected {
				style.Attribute |= vaxis.AttrReverse
			}
			writeText(&s, col, row, c.Width, text, style, c.AlignRight)
			col += uint16(c.Width + gap)
		}
		row++
	}

	return s, nil
}

// HandleEvent moves the selection with j/k and the arrow keys. It does
// nothing unless the table is Selectable.
func (t *Table) HandleEvent(ev vaxis.Event, phase vxfw.EventPhase) (vxfw.Command, error) {
	key, ok := ev.(vaxis.Key)
	if !ok || !t.Selectable {
		return nil, nil
	}
	switch {
	case key.Matches('j'), key.Matches(vaxis.KeyDown):
		t.Down()
	case key.Matches('k'), key.Matches(vaxis.KeyUp):
		t.Up()
	default:
		return nil, nil
	}
	return vxfw.ConsumeAndRedraw(), nil
}
