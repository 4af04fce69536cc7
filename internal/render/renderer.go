package render

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/phuocduong/prime-engine/internal/fx"
	"github.com/phuocduong/prime-engine/internal/fx/motion"
	"go.uber.org/zap"
	"golang.org/x/text/width"
)

// Options tune how effect space maps onto the terminal.
type Options struct {
	Glyphs string  // glyph per motion kind, in Kind order; labels draw their markup
	Scale  float64 // effect units per cell
	Status bool    // draw the counter line on row 0
}

// palette maps label styles onto colours. Unknown styles use the default.
var palette = map[string]tcell.Color{
	"heal":   tcell.ColorGreen,
	"damage": tcell.ColorRed,
	"crit":   tcell.ColorYellow,
	"mana":   tcell.ColorBlue,
}

// Renderer draws effect frames on a tcell screen. Origin is the bottom
// centre cell, +y up.
type Renderer struct {
	screen tcell.Screen
	opts   Options
	glyphs []rune
	frame  fx.Frame
	log    *zap.Logger
}

func NewRenderer(screen tcell.Screen, opts Options, log *zap.Logger) *Renderer {
	if opts.Glyphs == "" {
		opts.Glyphs = "*o"
	}
	if !(opts.Scale > 0) {
		opts.Scale = 10
	}
	w, h := screen.Size()
	log.Debug("terminal renderer ready", zap.Int("width", w), zap.Int("height", h), zap.Float64("scale", opts.Scale))
	return &Renderer{screen: screen, opts: opts, glyphs: []rune(opts.Glyphs), log: log}
}

// Draw renders the live range of every system and flushes the screen.
func (r *Renderer) Draw(set *fx.Set) {
	r.screen.Clear()
	w, h := r.screen.Size()
	for row, sys := range set.All() {
		sys.Snapshot(&r.frame)
		for i := range r.frame.Visuals {
			r.drawVisual(&r.frame.Visuals[i], r.frame.Kind, w, h)
		}
		if r.opts.Status {
			r.drawStatus(row, w)
		}
	}
	r.screen.Show()
}

// Cell maps an effect-space position onto a screen cell.
func (r *Renderer) Cell(p motion.Vec3, w, h int) (int, int) {
	col := w/2 + int(math.Round(p.X/r.opts.Scale))
	row := h - 1 - int(math.Round(p.Y/r.opts.Scale))
	return col, row
}

func (r *Renderer) drawVisual(v *motion.Visual, kind motion.Kind, w, h int) {
	if v.Opacity <= 0 {
		return
	}
	col, row := r.Cell(v.Position, w, h)
	if row < 0 || row >= h {
		return
	}
	style := StyleFor(v)
	if kind == motion.KindLabel {
		text := v.Content.Markup
		r.drawText(col-DisplayWidth(text)/2, row, w, text, style)
		return
	}
	if col < 0 || col >= w {
		return
	}
	r.screen.SetContent(col, row, r.glyph(kind), nil, style)
}

func (r *Renderer) drawText(col, row, w int, text string, style tcell.Style) {
	for _, ch := range text {
		cw := runeWidth(ch)
		if col >= 0 && col+cw <= w {
			r.screen.SetContent(col, row, ch, nil, style)
		}
		col += cw
	}
}

func (r *Renderer) drawStatus(row, w int) {
	f := &r.frame
	line := fmt.Sprintf("%s %d/%d t=%.2f", f.System, f.IndexCount, f.SyncCount, f.Now)
	r.drawText(0, row, w, line, tcell.StyleDefault.Reverse(true))
}

func (r *Renderer) glyph(kind motion.Kind) rune {
	if int(kind) >= 0 && int(kind) < len(r.glyphs) {
		return r.glyphs[kind]
	}
	return '?'
}

// StyleFor maps a visual's opacity and label style onto a cell style.
func StyleFor(v *motion.Visual) tcell.Style {
	st := tcell.StyleDefault
	if c, ok := palette[v.Content.Style]; ok {
		st = st.Foreground(c)
	}
	switch {
	case v.Opacity < 1.0/3:
		st = st.Dim(true)
	case v.Opacity > 2.0/3:
		st = st.Bold(true)
	}
	return st
}

// DisplayWidth returns the number of terminal cells text occupies.
func DisplayWidth(text string) int {
	n := 0
	for _, ch := range text {
		n += runeWidth(ch)
	}
	return n
}

func runeWidth(ch rune) int {
	switch width.LookupRune(ch).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	return 1
}
