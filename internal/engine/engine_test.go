package engine

import (
	"context"
	"errors"
	"image/color"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/iburimskiy/blockchain-backdrop/internal/config"
	"github.com/iburimskiy/blockchain-backdrop/internal/decor"
	"github.com/iburimskiy/blockchain-backdrop/internal/sim"
)

// recordingSurface counts draw calls.
type recordingSurface struct {
	clears, rects, strokes, lines, circles, texts int
	icons                                         map[sim.Category]int
	resized                                       []sim.Size
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{icons: map[sim.Category]int{}}
}

func (s *recordingSurface) Clear()                                    { s.clears++ }
func (s *recordingSurface) FillRect(x, y, w, h float64, c color.Color) { s.rects++ }
func (s *recordingSurface) StrokeRect(x, y, w, h, width float64, c color.Color) {
	s.strokes++
}
func (s *recordingSurface) Line(x1, y1, x2, y2, width float64, c color.Color) { s.lines++ }
func (s *recordingSurface) FillCircle(cx, cy, r float64, c color.Color)       { s.circles++ }
func (s *recordingSurface) Text(str string, x, y float64, c color.Color)      { s.texts++ }
func (s *recordingSurface) DrawIcon(cat sim.Category, cx, cy, size, rotation, opacity float64) {
	s.icons[cat]++
}
func (s *recordingSurface) Resize(size sim.Size) { s.resized = append(s.resized, size) }

func (s *recordingSurface) draws() int {
	n := s.rects + s.strokes + s.lines + s.circles + s.texts
	for _, c := range s.icons {
		n += c
	}
	return n
}

// stubLoader fails the categories listed in fail and succeeds the rest. When
// gate is set, loads block until it is closed.
type stubLoader struct {
	fail map[sim.Category]bool
	gate chan struct{}
}

func (l *stubLoader) LoadIcon(ctx context.Context, cat sim.Category) error {
	if l.gate != nil {
		select {
		case <-l.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if l.fail[cat] {
		return errors.New("decode failed")
	}
	return nil
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Seed = 7
	return cfg
}

func newTestEngine(cfg config.Config, q *FrameQueue, opts ...Option) *Engine {
	opts = append([]Option{
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithDecor(decor.NewSeeded(1)),
	}, opts...)
	return New(cfg, q, opts...)
}

// pump fires n frames 16ms apart starting at base.
func pump(q *FrameQueue, base time.Time, n int) time.Time {
	for i := 0; i < n; i++ {
		base = base.Add(16 * time.Millisecond)
		q.Fire(base)
	}
	return base
}

func TestStartSchedulesFirstFrame(t *testing.T) {
	q := NewFrameQueue()
	e := newTestEngine(testConfig(), q)
	s := newRecordingSurface()

	e.Start(s, sim.Size{W: 800, H: 600})
	if !e.Running() {
		t.Fatal("Expected engine to be running")
	}
	if q.Pending() != 1 {
		t.Fatalf("Expected one pending frame, got %d", q.Pending())
	}
	if s.clears != 0 {
		t.Error("Start must not draw before the first frame")
	}

	pump(q, time.Now(), 3)
	if s.clears != 3 {
		t.Errorf("Expected 3 cleared frames, got %d", s.clears)
	}
	if q.Pending() != 1 {
		t.Errorf("Expected the next frame requested, got %d pending", q.Pending())
	}
	if st := e.Stats(); st.Frames != 3 {
		t.Errorf("Expected 3 frames in stats, got %d", st.Frames)
	}
}

func TestStartWithoutSurfaceIsNoop(t *testing.T) {
	q := NewFrameQueue()
	e := newTestEngine(testConfig(), q)

	e.Start(nil, sim.Size{W: 800, H: 600})
	if e.Running() || q.Pending() != 0 {
		t.Fatal("Expected no-op without a surface")
	}
	e.Start(newRecordingSurface(), sim.Size{})
	if e.Running() || q.Pending() != 0 {
		t.Fatal("Expected no-op with an empty viewport")
	}

	// a later mount with a real surface works
	e.Start(newRecordingSurface(), sim.Size{W: 800, H: 600})
	if !e.Running() {
		t.Fatal("Expected retry to start the engine")
	}
}

func TestStartTwiceIsNoop(t *testing.T) {
	q := NewFrameQueue()
	e := newTestEngine(testConfig(), q)
	e.Start(newRecordingSurface(), sim.Size{W: 800, H: 600})
	e.Start(newRecordingSurface(), sim.Size{W: 800, H: 600})
	if q.Pending() != 1 {
		t.Errorf("Expected a single pending frame, got %d", q.Pending())
	}
}

func TestStopHaltsDrawingAndIsIdempotent(t *testing.T) {
	q := NewFrameQueue()
	e := newTestEngine(testConfig(), q, WithIconLoader(&stubLoader{}))
	s := newRecordingSurface()
	e.Start(s, sim.Size{W: 800, H: 600})
	now := pump(q, time.Now(), 5)

	e.Stop()
	if e.Running() {
		t.Fatal("Expected engine stopped")
	}
	if q.Pending() != 0 {
		t.Fatalf("Expected pending frame canceled, got %d", q.Pending())
	}

	clears, draws := s.clears, s.draws()
	pump(q, now, 10)
	if s.clears != clears || s.draws() != draws {
		t.Errorf("surface drawn after Stop: clears %d -> %d, draws %d -> %d", clears, s.clears, draws, s.draws())
	}

	e.Stop()
	if q.Pending() != 0 || e.Running() {
		t.Error("second Stop changed state")
	}
}

func TestStaleCallbackDoesNotRun(t *testing.T) {
	q := NewFrameQueue()
	e := newTestEngine(testConfig(), q)
	s := newRecordingSurface()
	e.Start(s, sim.Size{W: 800, H: 600})

	// grab a callback bound to the first mount, then remount
	stale := e.frame(e.gen)
	e.Stop()
	e.Start(s, sim.Size{W: 800, H: 600})
	before := s.clears
	stale(time.Now())
	if s.clears != before {
		t.Error("callback from a previous mount drew a frame")
	}
}

func TestStopFromMinedCallback(t *testing.T) {
	cfg := testConfig()
	cfg.Chain.SpeedMin, cfg.Chain.SpeedMax = 50, 50
	cfg.Chain.InitialProgressMax = 0

	q := NewFrameQueue()
	var e *Engine
	mined := 0
	e = newTestEngine(cfg, q, OnBlockMined(func(seq int) {
		mined++
		e.Stop()
	}))
	e.Start(newRecordingSurface(), sim.Size{W: 800, H: 600})
	pump(q, time.Now(), 5)

	if e.Running() {
		t.Fatal("Expected Stop from the callback to take effect")
	}
	if q.Pending() != 0 {
		t.Errorf("Expected no frame requested after Stop, got %d", q.Pending())
	}
	if mined == 0 {
		t.Error("Expected OnBlockMined to fire")
	}
}

func TestBlockMinedCallbackOrder(t *testing.T) {
	cfg := testConfig()
	cfg.Chain.InitialBlocks, cfg.Chain.MaxBlocks = 3, 5
	cfg.Chain.SpeedMin, cfg.Chain.SpeedMax = 10, 10
	cfg.Chain.InitialProgressMax = 0

	q := NewFrameQueue()
	var got []int
	e := newTestEngine(cfg, q, OnBlockMined(func(seq int) { got = append(got, seq) }))
	e.Start(newRecordingSurface(), sim.Size{W: 1280, H: 720})
	pump(q, time.Now(), 40)

	want := []int{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("mined %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("mined %v, want %v", got, want)
		}
	}
	if st := e.Stats(); st.Blocks != 5 || st.Mined != 5 {
		t.Errorf("stats %+v", st)
	}
}

func TestZeroIconsStillAnimates(t *testing.T) {
	all := map[sim.Category]bool{sim.BTC: true, sim.ETH: true, sim.SOL: true}
	q := NewFrameQueue()
	e := newTestEngine(testConfig(), q, WithIconLoader(&stubLoader{fail: all}))
	s := newRecordingSurface()
	e.Start(s, sim.Size{W: 800, H: 600})
	e.Icons().Wait()

	pump(q, time.Now(), 20)
	if s.clears != 20 {
		t.Fatalf("Expected 20 frames, got %d", s.clears)
	}
	if len(s.icons) != 0 {
		t.Errorf("Expected no icons drawn, got %v", s.icons)
	}
	if s.rects == 0 {
		t.Error("Expected blocks to be drawn")
	}
	for _, c := range sim.Categories {
		if e.Icons().State(c) != IconFailed {
			t.Errorf("icon %s state %v, want failed", c, e.Icons().State(c))
		}
	}
}

func TestNilLoaderStillAnimates(t *testing.T) {
	q := NewFrameQueue()
	e := newTestEngine(testConfig(), q)
	s := newRecordingSurface()
	e.Start(s, sim.Size{W: 800, H: 600})
	pump(q, time.Now(), 5)
	if s.clears != 5 || len(s.icons) != 0 {
		t.Errorf("clears %d icons %v", s.clears, s.icons)
	}
}

func TestPartialIconsDrawOnlyLoadedCategories(t *testing.T) {
	q := NewFrameQueue()
	e := newTestEngine(testConfig(), q, WithIconLoader(&stubLoader{fail: map[sim.Category]bool{sim.ETH: true}}))
	s := newRecordingSurface()
	e.Start(s, sim.Size{W: 1920, H: 1080})
	e.Icons().Wait()
	pump(q, time.Now(), 1)

	if s.icons[sim.ETH] != 0 {
		t.Errorf("failed category drawn %d times", s.icons[sim.ETH])
	}
	if s.icons[sim.BTC] == 0 || s.icons[sim.SOL] == 0 {
		t.Errorf("loaded categories not drawn: %v", s.icons)
	}
	if got := e.Stats().Icons; got != 2 {
		t.Errorf("Expected 2 loaded icons, got %d", got)
	}
}

func TestIconsLoadWithoutBlockingFrames(t *testing.T) {
	gate := make(chan struct{})
	q := NewFrameQueue()
	e := newTestEngine(testConfig(), q, WithIconLoader(&stubLoader{gate: gate}))
	s := newRecordingSurface()
	e.Start(s, sim.Size{W: 800, H: 600})

	now := pump(q, time.Now(), 3)
	if s.clears != 3 {
		t.Fatalf("frames blocked on icon loading: %d cleared", s.clears)
	}
	if len(s.icons) != 0 {
		t.Fatalf("icons drawn before loading: %v", s.icons)
	}

	close(gate)
	e.Icons().Wait()
	pump(q, now, 1)
	if len(s.icons) == 0 {
		t.Error("Expected icons drawn once loaded")
	}
}

func TestStopCancelsIconLoads(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	q := NewFrameQueue()
	e := newTestEngine(testConfig(), q, WithIconLoader(&stubLoader{gate: gate}))
	e.Start(newRecordingSurface(), sim.Size{W: 800, H: 600})
	icons := e.Icons()
	e.Stop()

	done := make(chan struct{})
	go func() {
		icons.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("icon loads not canceled by Stop")
	}
}

func TestResizeWrapsParticles(t *testing.T) {
	q := NewFrameQueue()
	e := newTestEngine(testConfig(), q)
	s := newRecordingSurface()
	e.Start(s, sim.Size{W: 800, H: 600})
	now := pump(q, time.Now(), 10)

	n := e.field.Len()
	e.Resize(sim.Size{W: 400, H: 300})
	if len(s.resized) == 0 || s.resized[len(s.resized)-1] != (sim.Size{W: 400, H: 300}) {
		t.Errorf("surface not resized: %v", s.resized)
	}
	pump(q, now, 1)

	if e.field.Len() != n {
		t.Fatalf("particles discarded on resize: %d -> %d", n, e.field.Len())
	}
	for i, p := range e.field.Particles() {
		if p.Pos.X < 0 || p.Pos.X >= 400 || p.Pos.Y < 0 || p.Pos.Y >= 300 {
			t.Errorf("particle %d outside resized viewport: %+v", i, p.Pos)
		}
	}
}

func TestPointerIsSafeFromOtherGoroutines(t *testing.T) {
	q := NewFrameQueue()
	e := newTestEngine(testConfig(), q)
	e.Start(newRecordingSurface(), sim.Size{W: 800, H: 600})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if i%7 == 0 {
				e.ClearPointer()
				continue
			}
			e.SetPointer(float64(i%800), float64(i%600))
		}
	}()
	pump(q, time.Now(), 200)
	wg.Wait()

	e.SetPointer(10, 20)
	if p := e.pointer.Load(); p == nil || *p != (sim.Vec{X: 10, Y: 20}) {
		t.Errorf("last write lost: %v", p)
	}
}

func TestRemountRecreatesState(t *testing.T) {
	q := NewFrameQueue()
	e := newTestEngine(testConfig(), q)
	e.Start(newRecordingSurface(), sim.Size{W: 800, H: 600})
	now := pump(q, time.Now(), 30)
	e.Stop()
	if st := e.Stats(); st.Particles != 0 || st.Blocks != 0 {
		t.Errorf("state kept after Stop: %+v", st)
	}

	e.Start(newRecordingSurface(), sim.Size{W: 1600, H: 1200})
	pump(q, now, 1)
	st := e.Stats()
	if st.Frames != 1 {
		t.Errorf("Expected frame count reset, got %d", st.Frames)
	}
	if want := sim.ParticleCount(testConfig().Particles, sim.Size{W: 1600, H: 1200}); st.Particles != want {
		t.Errorf("Expected %d particles for the new viewport, got %d", want, st.Particles)
	}
}

func TestSequenceAdvancesWithFrameTime(t *testing.T) {
	q := NewFrameQueue()
	e := newTestEngine(testConfig(), q)
	s := newRecordingSurface()
	e.Start(s, sim.Size{W: 800, H: 600})

	base := time.Now()
	q.Fire(base)
	for i := 1; i <= 16; i++ {
		q.Fire(base.Add(time.Duration(i) * 100 * time.Millisecond))
	}
	if st := e.Stats(); st.Stage != sim.Signing {
		t.Errorf("Expected signing after 1.6s, got %v", st.Stage)
	}
	if e.Stats().Elapsed != 1600*time.Millisecond {
		t.Errorf("Expected 1.6s elapsed, got %v", e.Stats().Elapsed)
	}
}

func TestLongStallIsCapped(t *testing.T) {
	q := NewFrameQueue()
	e := newTestEngine(testConfig(), q)
	e.Start(newRecordingSurface(), sim.Size{W: 800, H: 600})

	base := time.Now()
	q.Fire(base)
	q.Fire(base.Add(time.Minute))
	if got := e.Stats().Elapsed; got != maxFrameGap {
		t.Errorf("Expected elapsed capped at %v, got %v", maxFrameGap, got)
	}
}
