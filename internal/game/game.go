// Package game hosts the backdrop in an ebiten window.
package game

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/ncruces/zenity"

	"github.com/iburimskiy/blockchain-backdrop/internal/chime"
	"github.com/iburimskiy/blockchain-backdrop/internal/config"
	"github.com/iburimskiy/blockchain-backdrop/internal/engine"
	"github.com/iburimskiy/blockchain-backdrop/internal/icons"
	"github.com/iburimskiy/blockchain-backdrop/internal/sim"
)

type Game struct {
	cfg    config.Config
	logger *log.Logger

	queue   *engine.FrameQueue
	engine  *engine.Engine
	surface *screenSurface
	loader  *icons.Loader
	chime   *chime.Player

	size    sim.Size
	started time.Time
	mined   int

	// input edge detection
	prevKey map[ebiten.Key]bool

	paused  bool
	hud     bool
	lastErr error
}

func New(cfg config.Config, logger *log.Logger) *Game {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	store := icons.NewStore()
	g := &Game{
		cfg:     cfg,
		logger:  logger,
		queue:   engine.NewFrameQueue(),
		surface: newScreenSurface(store),
		loader:  icons.NewLoader(cfg.Icons.Dir, store),
		chime:   chime.New(cfg.Sound, logger),
		prevKey: map[ebiten.Key]bool{},
		hud:     cfg.HUD,
		size:    sim.Size{W: float64(cfg.Window.Width), H: float64(cfg.Window.Height)},
	}
	g.engine = engine.New(cfg, g.queue,
		engine.WithLogger(logger),
		engine.WithIconLoader(g.loader),
		engine.OnBlockMined(g.blockMined),
	)
	return g
}

// Run opens the window and blocks until it is closed.
func (g *Game) Run() error {
	if err := g.chime.Init(); err != nil {
		g.lastErr = err
	}

	ebiten.SetWindowSize(g.cfg.Window.Width, g.cfg.Window.Height)
	ebiten.SetWindowTitle(g.cfg.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(g.cfg.FPS)
	// a paused frame stays on screen
	ebiten.SetScreenClearedEveryFrame(false)

	g.started = time.Now()
	err := ebiten.RunGame(g)
	g.engine.Stop()
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

func (g *Game) blockMined(seq int) {
	g.mined++
	g.chime.Play(seq)
}

func (g *Game) Update() error {

	justPressed := func(k ebiten.Key) bool {
		pressed := ebiten.IsKeyPressed(k)
		jp := pressed && !g.prevKey[k]
		g.prevKey[k] = pressed
		return jp
	}

	x, y := ebiten.CursorPosition()
	inside := x >= 0 && y >= 0 && float64(x) < g.size.W && float64(y) < g.size.H
	if inside && ebiten.IsFocused() {
		g.engine.SetPointer(float64(x), float64(y))
	} else {
		g.engine.ClearPointer()
	}

	if justPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if justPressed(ebiten.KeyR) {
		g.remount()
	}
	if justPressed(ebiten.KeyM) {
		if g.chime.ToggleMute() {
			g.logger.Printf("chime muted")
		}
	}
	if justPressed(ebiten.KeyD) {
		g.hud = !g.hud
	}
	if justPressed(ebiten.KeyO) {
		if err := g.pickIcons(); err != nil {
			g.lastErr = err
		}
	}
	if justPressed(ebiten.KeyEscape) || justPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	return nil
}

// remount tears the engine down; the next Draw starts it again with fresh
// state.
func (g *Game) remount() {
	g.engine.Stop()
	g.surface.dropIcons()
	g.paused = false
}

func (g *Game) pickIcons() error {
	dir, err := PickIconDir(g.loader.Dir())
	if err != nil {
		return err
	}
	if dir == g.loader.Dir() {
		return nil
	}
	g.logger.Printf("icon directory %s", dir)
	g.loader.SetDir(dir)
	g.remount()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.surface.bind(screen, time.Since(g.started).Seconds())

	if !g.engine.Running() {
		g.engine.Start(g.surface, g.size)
	}
	if !g.paused {
		g.queue.Fire(time.Now())
	}

	if g.hud {
		g.drawHUD(screen)
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	st := g.engine.Stats()
	status := fmt.Sprintf("up %s  fps %.0f  particles %d  blocks %d (%d mined, %d total)  icons %d/%d  sequence %s",
		formatDuration(time.Since(g.started)), ebiten.ActualFPS(),
		st.Particles, st.Blocks, st.Mined, g.mined, st.Icons, len(sim.Categories), st.Stage)
	if g.paused {
		status += "  [paused]"
	}
	if g.chime.Muted() {
		status += "  [muted]"
	}
	if g.lastErr != nil {
		status += " | Error: " + g.lastErr.Error()
	}
	ebitenutil.DebugPrintAt(screen, status, 12, 12)
}

// Layout keeps the logical screen equal to the window so the backdrop fills
// it at any size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	size := sim.Size{W: float64(outsideWidth), H: float64(outsideHeight)}
	if size != g.size {
		g.size = size
		if g.engine.Running() {
			g.engine.Resize(size)
		}
	}
	return outsideWidth, outsideHeight
}

// PickIconDir asks for an icon directory. Canceling the dialog keeps current.
func PickIconDir(current string) (string, error) {
	dir, err := zenity.SelectFile(
		zenity.Title("Choose icon directory (btc.png, eth.png, sol.png)"),
		zenity.Directory(),
		zenity.Filename(current),
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return current, nil
		}
		return current, fmt.Errorf("pick icon directory: %w", err)
	}
	return dir, nil
}
