// Package icons resolves the coin images particles are drawn with, either
// from PNG files in a directory or drawn procedurally.
package icons

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/iburimskiy/blockchain-backdrop/internal/sim"
)

// DefaultSize is the edge of procedurally drawn icons, in pixels.
const DefaultSize = 64

// Store holds decoded icons. Loaders write it from their own goroutines and
// surfaces read it while drawing.
type Store struct {
	mu     sync.RWMutex
	images map[sim.Category]image.Image
}

func NewStore() *Store {
	return &Store{images: make(map[sim.Category]image.Image)}
}

func (s *Store) Put(cat sim.Category, img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[cat] = img
}

func (s *Store) Get(cat sim.Category) (image.Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[cat]
	return img, ok
}

// Loader reads <dir>/<category>.png, or draws the icon when no directory is
// set.
type Loader struct {
	mu    sync.Mutex
	dir   string
	size  int
	store *Store
}

func NewLoader(dir string, store *Store) *Loader {
	return &Loader{dir: dir, size: DefaultSize, store: store}
}

// SetDir takes effect on the next load.
func (l *Loader) SetDir(dir string) {
	l.mu.Lock()
	l.dir = dir
	l.mu.Unlock()
}

func (l *Loader) Dir() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dir
}

func (l *Loader) LoadIcon(ctx context.Context, cat sim.Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		img image.Image
		err error
	)
	if dir := l.Dir(); dir != "" {
		img, err = decodeFile(filepath.Join(dir, cat.String()+".png"))
	} else {
		img, err = Draw(cat, l.size)
	}
	if err != nil {
		return err
	}

	// a Stop that raced the decode wins
	if err := ctx.Err(); err != nil {
		return err
	}
	l.store.Put(cat, img)
	return nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decode %s: empty image", path)
	}
	if !visible(img) {
		return nil, fmt.Errorf("decode %s: fully transparent", path)
	}
	return img, nil
}

var (
	coinColors = map[sim.Category]color.NRGBA{
		sim.BTC: {0xf7, 0x93, 0x1a, 0xff},
		sim.ETH: {0x62, 0x7e, 0xea, 0xff},
		sim.SOL: {0x14, 0xf1, 0x95, 0xff},
	}
	coinLabels = map[sim.Category]string{
		sim.BTC: "B",
		sim.ETH: "E",
		sim.SOL: "S",
	}
)

// Draw renders a coin: a filled disc with a darker rim and the category's
// letter in the middle.
func Draw(cat sim.Category, size int) (image.Image, error) {
	fill, ok := coinColors[cat]
	if !ok {
		return nil, fmt.Errorf("no icon for category %d", int(cat))
	}
	if size < 8 {
		return nil, fmt.Errorf("icon size %d too small", size)
	}

	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	rim := color.NRGBA{fill.R / 2, fill.G / 2, fill.B / 2, 0xff}
	c := float64(size) / 2
	r := c - 1
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)+0.5-c, float64(y)+0.5-c
			d2 := dx*dx + dy*dy
			switch {
			case d2 > r*r:
			case d2 > (r-3)*(r-3):
				img.SetNRGBA(x, y, rim)
			default:
				img.SetNRGBA(x, y, fill)
			}
		}
	}

	label := coinLabels[cat]
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
	}
	m := basicfont.Face7x13.Metrics()
	w := d.MeasureString(label)
	d.Dot = fixed.Point26_6{
		X: fixed.I(size)/2 - w/2,
		Y: fixed.I(size)/2 + (m.Ascent-m.Descent)/2,
	}
	d.DrawString(label)
	return img, nil
}

// visible reports whether img has at least one pixel that is not fully
// transparent.
func visible(img image.Image) bool {
	b := img.Bounds()
	rgba := image.NewNRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	for i := 3; i < len(rgba.Pix); i += 4 {
		if rgba.Pix[i] != 0 {
			return true
		}
	}
	return false
}
