package views

import (
	"git.sr.ht/~rockorager/vaxis"
	"git.sr.ht/~rockorager/vaxis/vxfw"
	"git.sr.ht/~rockorager/vaxis/vxfw/richtext"
)

// drawLoadingState renders a "Loading..." message in the view.
func drawLoadingState(ctx vxfw.DrawContext, owner vxfw.Widget) (vxfw.Surface, error) {
	return drawMessage(ctx, owner, "Loading...")
}

// drawMessage renders a single dim line at the top of the view.
func drawMessage(ctx vxfw.DrawContext, owner vxfw.Widget, msg string) (vxfw.Surface, error) {
	s := vxfw.NewSurface(ctx.Max.Width, ctx.Max.Height, owner)
	label := richtext.New([]vaxis.Segment{
		{Text: msg, Style: vaxis.Style{Attribute: vaxis.AttrDim}},
	})
	labelSurf, err := label.Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
	if err != nil {
		return vxfw.Surface{}, err
	}
	s.AddChild(0, 0, labelSurf)
	return s, nil
}

// drawLine renders segments as one row at (0, row) of s.
func drawLine(ctx vxfw.DrawContext, s *vxfw.Surface, row int, segs ...vaxis.Segment) error {
	if row >= int(ctx.Max.Height) {
		return nil
	}
	surf, err := richtext.New(segs).Draw(ctx.WithMax(vxfw.Size{Width: ctx.Max.Width, Height: 1}))
	if err != nil {
		return err
	}
	s.AddChild(0, row, surf)
	return nil
}

var (
	boldStyle = vaxis.Style{Attribute: vaxis.AttrBold}
	dimStyle  = vaxis.Style{Attribute: vaxis.AttrDim}
)

func newText(text string, style vaxis.Style) *richtext.RichText {
	return richtext.New([]vaxis.Segment{{Text: text, Style: style}})
}
