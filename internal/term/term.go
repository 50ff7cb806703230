// Package term hosts the backdrop in a terminal, one cell per 8x16 block of
// viewport pixels.
package term

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/iburimskiy/blockchain-backdrop/internal/config"
	"github.com/iburimskiy/blockchain-backdrop/internal/engine"
	"github.com/iburimskiy/blockchain-backdrop/internal/sim"
)

// glyphLoader has every icon available up front.
type glyphLoader struct{}

func (glyphLoader) LoadIcon(ctx context.Context, cat sim.Category) error {
	if _, ok := glyphs[cat]; !ok {
		return fmt.Errorf("no glyph for category %d", int(cat))
	}
	return ctx.Err()
}

type App struct {
	cfg    config.Config
	screen tcell.Screen
	logger *log.Logger

	queue   *engine.FrameQueue
	engine  *engine.Engine
	surface *cellSurface
}

func New(cfg config.Config, screen tcell.Screen, logger *log.Logger) *App {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	a := &App{
		cfg:    cfg,
		screen: screen,
		logger: logger,
		queue:  engine.NewFrameQueue(),
	}
	a.engine = engine.New(cfg, a.queue,
		engine.WithLogger(logger),
		engine.WithIconLoader(glyphLoader{}),
	)
	return a
}

// Run takes over the terminal until the user quits or ctx is done. Events are
// read on their own goroutine; everything touching the engine happens here.
func (a *App) Run(ctx context.Context) error {
	if err := a.screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer a.screen.Fini()
	a.screen.EnableMouse()
	a.screen.HideCursor()

	a.surface = newCellSurface(a.screen)
	a.start()
	defer a.engine.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				// screen finalized
				close(eventChan)
				return
			}
			eventChan <- ev
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(max(a.cfg.FPS, 1)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-eventChan:
			if !ok || !a.handle(ev) {
				return nil
			}

		case now := <-ticker.C:
			if !a.engine.Running() {
				a.start()
			}
			a.queue.Fire(now)
			a.screen.Show()
		}
	}
}

func (a *App) start() {
	a.engine.Start(a.surface, viewportFor(a.screen.Size()))
}

// handle reports false when the app should quit.
func (a *App) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
			return false
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 'r' || ev.Rune() == 'R'):
			a.logger.Printf("remount")
			a.engine.Stop()
			a.start()
		}

	case *tcell.EventMouse:
		x, y := ev.Position()
		a.engine.SetPointer(float64(x*config.CellWidth+config.CellWidth/2), float64(y*config.CellHeight+config.CellHeight/2))

	case *tcell.EventResize:
		a.screen.Sync()
		size := viewportFor(a.screen.Size())
		if a.engine.Running() {
			a.engine.Resize(size)
		} else {
			a.start()
		}
	}
	return true
}
