package term

import (
	"image/color"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/iburimskiy/blockchain-backdrop/internal/config"
	"github.com/iburimskiy/blockchain-backdrop/internal/sim"
)

// minAlpha drops anything fainter; a cell cannot be half drawn.
const minAlpha = 0.15

var (
	background = tcell.NewRGBColor(0, 0, 0)

	glyphs = map[sim.Category]rune{
		sim.BTC: '₿',
		sim.ETH: 'Ξ',
		sim.SOL: '◎',
	}
	glyphColors = map[sim.Category]color.NRGBA{
		sim.BTC: {0xf7, 0x93, 0x1a, 0xff},
		sim.ETH: {0x62, 0x7e, 0xea, 0xff},
		sim.SOL: {0x14, 0xf1, 0x95, 0xff},
	}
)

type cell struct {
	r      rune
	fg, bg tcell.Color
}

// cellSurface maps viewport pixels onto terminal cells of
// config.CellWidth x config.CellHeight.
type cellSurface struct {
	screen     tcell.Screen
	cols, rows int
	grid       []cell
}

func newCellSurface(screen tcell.Screen) *cellSurface {
	s := &cellSurface{screen: screen}
	s.setGrid(screen.Size())
	return s
}

// viewportFor is the pixel viewport covered by a cols x rows terminal.
func viewportFor(cols, rows int) sim.Size {
	return sim.Size{W: float64(cols * config.CellWidth), H: float64(rows * config.CellHeight)}
}

func (s *cellSurface) setGrid(cols, rows int) {
	s.cols, s.rows = max(cols, 0), max(rows, 0)
	s.grid = make([]cell, s.cols*s.rows)
	for i := range s.grid {
		s.grid[i] = cell{r: ' ', fg: background, bg: background}
	}
}

func (s *cellSurface) Resize(size sim.Size) {
	s.setGrid(int(size.W)/config.CellWidth, int(size.H)/config.CellHeight)
}

func toCell(x, y float64) (int, int) {
	return int(math.Floor(x / config.CellWidth)), int(math.Floor(y / config.CellHeight))
}

func (s *cellSurface) at(cx, cy int) *cell {
	if cx < 0 || cy < 0 || cx >= s.cols || cy >= s.rows {
		return nil
	}
	return &s.grid[cy*s.cols+cx]
}

func (s *cellSurface) flush(cx, cy int, c *cell) {
	s.screen.SetContent(cx, cy, c.r, nil, tcell.StyleDefault.Foreground(c.fg).Background(c.bg))
}

func (s *cellSurface) put(cx, cy int, r rune, fg tcell.Color) {
	c := s.at(cx, cy)
	if c == nil {
		return
	}
	c.r, c.fg = r, fg
	s.flush(cx, cy, c)
}

// shade blends c over the black background, or reports false when it is too
// faint to show.
func shade(c color.Color) (tcell.Color, bool) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	a := float64(n.A) / 255
	if a < minAlpha {
		return background, false
	}
	return tcell.NewRGBColor(int32(float64(n.R)*a), int32(float64(n.G)*a), int32(float64(n.B)*a)), true
}

func (s *cellSurface) Clear() {
	for i := range s.grid {
		s.grid[i] = cell{r: ' ', fg: background, bg: background}
	}
	s.screen.Fill(' ', tcell.StyleDefault.Background(background))
}

// FillRect paints the background of every cell the rect touches and keeps
// the glyphs already there.
func (s *cellSurface) FillRect(x, y, w, h float64, c color.Color) {
	col, ok := shade(c)
	if !ok || w <= 0 || h <= 0 {
		return
	}
	x0, y0 := toCell(x, y)
	x1, y1 := toCell(x+w-1e-9, y+h-1e-9)
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			if cl := s.at(cx, cy); cl != nil {
				cl.bg = col
				s.flush(cx, cy, cl)
			}
		}
	}
}

func (s *cellSurface) StrokeRect(x, y, w, h, _ float64, c color.Color) {
	col, ok := shade(c)
	if !ok {
		return
	}
	x0, y0 := toCell(x, y)
	x1, y1 := toCell(x+w-1e-9, y+h-1e-9)
	if x1 <= x0 || y1 <= y0 {
		s.put(x0, y0, '□', col)
		return
	}
	for cx := x0 + 1; cx < x1; cx++ {
		s.put(cx, y0, '─', col)
		s.put(cx, y1, '─', col)
	}
	for cy := y0 + 1; cy < y1; cy++ {
		s.put(x0, cy, '│', col)
		s.put(x1, cy, '│', col)
	}
	s.put(x0, y0, '┌', col)
	s.put(x1, y0, '┐', col)
	s.put(x0, y1, '└', col)
	s.put(x1, y1, '┘', col)
}

// Line steps along the segment in half-cell increments and picks a glyph
// from its slope in cell units.
func (s *cellSurface) Line(x1, y1, x2, y2, _ float64, c color.Color) {
	col, ok := shade(c)
	if !ok {
		return
	}
	dx, dy := (x2-x1)/config.CellWidth, (y2-y1)/config.CellHeight
	r := lineGlyph(dx, dy)
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))*2)) + 1
	for i := 0; i < steps; i++ {
		t := 0.0
		if steps > 1 {
			t = float64(i) / float64(steps-1)
		}
		cx, cy := toCell(x1+(x2-x1)*t, y1+(y2-y1)*t)
		s.put(cx, cy, r, col)
	}
}

func lineGlyph(dx, dy float64) rune {
	ax, ay := math.Abs(dx), math.Abs(dy)
	switch {
	case ay <= ax*0.5:
		return '─'
	case ax <= ay*0.5:
		return '│'
	case dx*dy > 0:
		return '╲'
	}
	return '╱'
}

func (s *cellSurface) FillCircle(cx, cy, r float64, c color.Color) {
	col, ok := shade(c)
	if !ok {
		return
	}
	glyph := '•'
	if r >= 3 {
		glyph = '●'
	}
	x, y := toCell(cx, cy)
	s.put(x, y, glyph, col)
}

func (s *cellSurface) Text(str string, x, y float64, c color.Color) {
	col, ok := shade(c)
	if !ok {
		return
	}
	cx, cy := toCell(x, y)
	for i, r := range []rune(str) {
		s.put(cx+i, cy, r, col)
	}
}

func (s *cellSurface) DrawIcon(cat sim.Category, cx, cy, _, _, opacity float64) {
	r, ok := glyphs[cat]
	if !ok {
		return
	}
	base := glyphColors[cat]
	base.A = uint8(math.Round(math.Max(0, math.Min(1, opacity)) * 255))
	col, ok := shade(base)
	if !ok {
		return
	}
	x, y := toCell(cx, cy)
	s.put(x, y, r, col)
}
