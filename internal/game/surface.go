package game

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/iburimskiy/blockchain-backdrop/internal/icons"
	"github.com/iburimskiy/blockchain-backdrop/internal/sim"
)

const gradientBand = 4

// screenSurface draws engine frames onto the ebiten screen. The screen is
// rebound at the start of every Draw.
type screenSurface struct {
	screen *ebiten.Image
	size   sim.Size
	face   text.Face
	store  *icons.Store
	cache  map[sim.Category]*ebiten.Image
	time   float64
}

func newScreenSurface(store *icons.Store) *screenSurface {
	return &screenSurface{
		face:  text.NewGoXFace(basicfont.Face7x13),
		store: store,
		cache: make(map[sim.Category]*ebiten.Image),
	}
}

func (s *screenSurface) bind(screen *ebiten.Image, t float64) {
	s.screen = screen
	s.time = t
}

// dropIcons forgets converted icons so a new icon directory shows up.
func (s *screenSurface) dropIcons() {
	for c, img := range s.cache {
		img.Deallocate()
		delete(s.cache, c)
	}
}

func (s *screenSurface) Resize(size sim.Size) { s.size = size }

// Clear paints the slowly shifting background gradient.
func (s *screenSurface) Clear() {
	h := s.size.H
	for y := 0.0; y < h; y += gradientBand {
		ratio := y / h
		hue := 200 + 40*math.Sin(s.time*0.1+ratio*math.Pi)
		v := clamp01(0.06 + 0.06*ratio + 0.02*math.Sin(s.time*0.3+ratio*math.Pi))
		r, g, b := hsvToRgb(hue, 0.7, v)
		vector.DrawFilledRect(s.screen, 0, float32(y), float32(s.size.W), gradientBand, color.RGBA{R: r, G: g, B: b, A: 255}, false)
	}
}

func (s *screenSurface) FillRect(x, y, w, h float64, c color.Color) {
	vector.DrawFilledRect(s.screen, float32(x), float32(y), float32(w), float32(h), c, false)
}

func (s *screenSurface) StrokeRect(x, y, w, h, width float64, c color.Color) {
	vector.StrokeRect(s.screen, float32(x), float32(y), float32(w), float32(h), float32(width), c, false)
}

func (s *screenSurface) Line(x1, y1, x2, y2, width float64, c color.Color) {
	vector.StrokeLine(s.screen, float32(x1), float32(y1), float32(x2), float32(y2), float32(width), c, true)
}

func (s *screenSurface) FillCircle(cx, cy, r float64, c color.Color) {
	vector.DrawFilledCircle(s.screen, float32(cx), float32(cy), float32(r), c, true)
}

func (s *screenSurface) Text(str string, x, y float64, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(c)
	text.Draw(s.screen, str, s.face, op)
}

func (s *screenSurface) DrawIcon(cat sim.Category, cx, cy, size, rotation, opacity float64) {
	img := s.icon(cat)
	if img == nil {
		return
	}
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-w/2, -h/2)
	op.GeoM.Scale(size/w, size/h)
	op.GeoM.Rotate(rotation)
	op.GeoM.Translate(cx, cy)
	op.ColorScale.ScaleAlpha(float32(opacity))
	op.Filter = ebiten.FilterLinear
	s.screen.DrawImage(img, op)
}

// icon converts the decoded image on first use. Conversion happens here, on
// the draw goroutine, rather than in the loaders.
func (s *screenSurface) icon(cat sim.Category) *ebiten.Image {
	if img, ok := s.cache[cat]; ok {
		return img
	}
	src, ok := s.store.Get(cat)
	if !ok {
		return nil
	}
	img := ebiten.NewImageFromImage(src)
	s.cache[cat] = img
	return img
}
