// Package engine drives the backdrop: it owns the simulation state while
// mounted, advances and draws it once per refresh, and tears it all down on
// Stop.
package engine

import (
	"context"
	"io"
	"log"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/iburimskiy/blockchain-backdrop/internal/config"
	"github.com/iburimskiy/blockchain-backdrop/internal/decor"
	"github.com/iburimskiy/blockchain-backdrop/internal/sim"
)

// maxFrameGap caps the time a single frame may account for, so a stalled
// window does not fast-forward the signing sequence.
const maxFrameGap = 250 * time.Millisecond

type Option func(*Engine)

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithIconLoader(l IconLoader) Option {
	return func(e *Engine) { e.loader = l }
}

// WithRand sets the source for positions, speeds and offsets.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

func WithDecor(g *decor.Generator) Option {
	return func(e *Engine) { e.decor = g }
}

// OnBlockMined is called from the frame callback for every block that
// completes.
func OnBlockMined(fn func(seq int)) Option {
	return func(e *Engine) { e.onMined = fn }
}

type Stats struct {
	Running   bool
	Frames    uint64
	Elapsed   time.Duration
	Particles int
	Blocks    int
	Mined     int
	Nodes     int
	Icons     int
	Stage     sim.Stage
}

// Engine is single-threaded: Start, Stop, Resize and the frame callbacks must
// run on the goroutine that pumps the Scheduler. SetPointer and ClearPointer
// may be called from anywhere.
type Engine struct {
	cfg     config.Config
	sched   Scheduler
	logger  *log.Logger
	loader  IconLoader
	rng     *rand.Rand
	decor   *decor.Generator
	onMined func(seq int)

	pointer atomic.Pointer[sim.Vec]

	running  bool
	gen      uint64
	frameID  FrameID
	cancel   context.CancelFunc
	surface  Surface
	viewport sim.Size

	icons *IconSet
	field *sim.Field
	chain *sim.Chain
	mesh  *sim.Mesh
	seq   *sim.Sequence

	last    time.Time
	elapsed time.Duration
	frames  uint64
}

func New(cfg config.Config, sched Scheduler, opts ...Option) *Engine {
	e := &Engine{cfg: cfg, sched: sched}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard, "", 0)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1))
	}
	if e.decor == nil {
		e.decor = decor.NewSeeded(cfg.Seed)
	}
	return e
}

// Start mounts the engine on s. Without a surface or with an empty viewport
// it does nothing, so the host can simply call Start again later. Starting a
// running engine is a no-op.
func (e *Engine) Start(s Surface, size sim.Size) {
	if e.running {
		return
	}
	if s == nil || size.Empty() {
		e.logger.Printf("surface unavailable (%gx%g); not starting", size.W, size.H)
		return
	}

	e.gen++
	e.running = true
	e.surface = s
	e.setViewport(size)

	e.field = sim.NewField(e.cfg.Particles, size, e.rng)
	e.chain = sim.NewChain(e.cfg.Chain, size, e.rng, e.decor)
	e.mesh = nil
	if e.cfg.Mesh.Enabled {
		e.mesh = sim.NewMesh(e.cfg.Mesh, size, e.rng)
	}
	e.seq = nil
	if e.cfg.Sequence.Enabled {
		e.seq = sim.NewSequence(e.cfg.Sequence, e.decor)
	}
	e.last, e.elapsed, e.frames = time.Time{}, 0, 0

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.icons = newIconSet()
	e.icons.load(ctx, e.loader, e.logger)

	e.logger.Printf("started: %d particles, %d blocks, viewport %gx%g",
		e.field.Len(), e.chain.Len(), size.W, size.H)
	e.frameID = e.sched.RequestFrame(e.frame(e.gen))
}

// Stop cancels the pending frame and icon loads and drops all state. It is
// safe to call any number of times.
func (e *Engine) Stop() {
	if !e.running {
		return
	}
	e.running = false
	e.gen++
	if e.frameID != 0 {
		e.sched.CancelFrame(e.frameID)
		e.frameID = 0
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.logger.Printf("stopped after %d frames", e.frames)

	e.surface = nil
	e.field, e.chain, e.mesh, e.seq = nil, nil, nil, nil
}

// Resize takes effect before the next draw. Nothing is repositioned; the
// simulations wrap or clamp on their next update.
func (e *Engine) Resize(size sim.Size) {
	e.setViewport(size)
}

func (e *Engine) setViewport(size sim.Size) {
	e.viewport = size
	if r, ok := e.surface.(Resizer); ok {
		r.Resize(size)
	}
}

func (e *Engine) SetPointer(x, y float64) {
	e.pointer.Store(&sim.Vec{X: x, Y: y})
}

// ClearPointer records that no pointer is present.
func (e *Engine) ClearPointer() {
	e.pointer.Store(nil)
}

func (e *Engine) Running() bool { return e.running }

func (e *Engine) Viewport() sim.Size { return e.viewport }

// Icons is nil until the first Start.
func (e *Engine) Icons() *IconSet { return e.icons }

func (e *Engine) Stats() Stats {
	st := Stats{
		Running: e.running,
		Frames:  e.frames,
		Elapsed: e.elapsed,
	}
	if e.field != nil {
		st.Particles = e.field.Len()
	}
	if e.chain != nil {
		st.Blocks = e.chain.Len()
		st.Mined = e.chain.Mined()
	}
	if e.mesh != nil {
		st.Nodes = e.mesh.Len()
	}
	if e.icons != nil {
		st.Icons = e.icons.Loaded()
	}
	if e.seq != nil {
		st.Stage = e.seq.Stage()
	}
	return st
}

func (e *Engine) frame(gen uint64) FrameFunc {
	return func(now time.Time) {
		if !e.running || gen != e.gen {
			return
		}
		e.frameID = 0

		var dt time.Duration
		if !e.last.IsZero() {
			dt = min(max(now.Sub(e.last), 0), maxFrameGap)
		}
		e.last = now
		e.elapsed += dt
		e.frames++

		vp := e.viewport
		s := e.surface
		s.Clear()

		if e.mesh != nil {
			pointer := e.pointer.Load()
			e.mesh.Update(vp, pointer)
			e.drawMesh(s, pointer)
		}

		e.field.Update(vp)
		e.drawParticles(s)

		mined := e.chain.Update(vp)
		e.drawChain(s)

		if e.seq != nil {
			e.seq.Advance(dt)
			e.drawSequence(s, vp)
		}

		for _, seq := range mined {
			if e.onMined != nil {
				e.onMined(seq)
			}
		}

		// a callback may have stopped or remounted us
		if !e.running || gen != e.gen {
			return
		}
		e.frameID = e.sched.RequestFrame(e.frame(gen))
	}
}
