package engine

import (
	"fmt"
	"image/color"
	"math"

	"github.com/iburimskiy/blockchain-backdrop/internal/config"
	"github.com/iburimskiy/blockchain-backdrop/internal/decor"
	"github.com/iburimskiy/blockchain-backdrop/internal/sim"
)

const (
	headerHeight = 16
	packetRadius = 2
	burstRays    = 8
	burstLength  = 15
	dashLength   = 5
	dashGap      = 3
)

func (e *Engine) seconds() float64 { return e.elapsed.Seconds() }

func (e *Engine) drawParticles(s Surface) {
	for _, p := range e.field.Particles() {
		if !e.icons.Ready(p.Category) {
			continue
		}
		s.DrawIcon(p.Category, p.Pos.X, p.Pos.Y, p.Size, p.Rotation, p.Opacity)
	}
}

func (e *Engine) drawChain(s Surface) {
	blocks := e.chain.Blocks()
	cfg := e.cfg.Chain

	// connectors first so blocks sit on top of them
	for _, b := range blocks {
		if b.Anchor < 0 {
			continue
		}
		a := blocks[b.Anchor]
		c := Palette(b.ColorTag)
		x1, y1 := a.Pos.X+a.W, a.Pos.Y+a.H/2
		x2, y2 := b.Pos.X, b.Pos.Y+b.H/2
		dashedLine(s, x1, y1, x2, y2, 1, alpha(c, 0.3))

		for p := 0; p < cfg.PacketCount; p++ {
			t := packetPhase(e.seconds(), cfg.PacketSpeed, p, cfg.PacketCount)
			s.FillCircle(x1+(x2-x1)*t, y1+(y2-y1)*t, packetRadius, alpha(c, 0.8))
		}
	}

	for _, b := range blocks {
		e.drawBlock(s, b, cfg)
	}
}

func (e *Engine) drawBlock(s Surface, b sim.Block, cfg config.Chain) {
	c := Palette(b.ColorTag)
	x, y := b.Pos.X, b.Pos.Y

	s.FillRect(x, y, b.W, b.H, alpha(blockFill, 0.8))
	s.StrokeRect(x, y, b.W, b.H, 2, alpha(c, 0.9))
	s.FillRect(x, y, b.W, headerHeight, alpha(c, 0.2))
	s.Text(fmt.Sprintf("Block #%d", b.Seq), x+5, y+2, c)

	s.FillRect(x+5, y+b.H-10, (b.W-10)*b.Progress/config.MaxProgress, 5, alpha(c, 0.5))

	if b.Complete {
		s.Text(fmt.Sprintf("Mined! Txs: %d", b.Txs), x+5, y+headerHeight+2, textWhite)
		s.Text(fmt.Sprintf("Nonce: %d", b.Nonce), x+5, y+headerHeight+14, alpha(textWhite, 0.7))
		s.Text(decor.Truncate(b.Hash, cfg.HashDisplayLen), x, y-14, c)
		burst(s, x+b.W/2, y+b.H/2, alpha(c, 0.6))
		return
	}
	s.Text(fmt.Sprintf("Mining... %d%%", int(b.Progress)), x+5, y+headerHeight+2, textWhite)
	s.Text(fmt.Sprintf("Nonce: %d", b.Nonce+int(b.Progress*100)), x+5, y+headerHeight+14, alpha(textWhite, 0.7))
}

func (e *Engine) drawMesh(s Surface, pointer *sim.Vec) {
	t := e.seconds()

	e.mesh.Links(func(a, b *sim.Node, strength float64) {
		if a.Hub && b.Hub {
			s.Line(a.Pos.X, a.Pos.Y, b.Pos.X, b.Pos.Y, 2, alpha(accent, strength*0.8))
			for p := 0; p < 2; p++ {
				k := packetPhase(t, 0.5, p, 2)
				s.FillCircle(a.Pos.X+(b.Pos.X-a.Pos.X)*k, a.Pos.Y+(b.Pos.Y-a.Pos.Y)*k, packetRadius, alpha(accent, 0.8))
			}
			return
		}
		s.Line(a.Pos.X, a.Pos.Y, b.Pos.X, b.Pos.Y, 1, alpha(accent, strength*0.15))
	})

	pulse := 1 + math.Sin(t*2)*0.1
	nodes := e.mesh.Nodes()
	for i := range nodes {
		n := &nodes[i]
		if !n.Hub {
			s.FillCircle(n.Pos.X, n.Pos.Y, n.Size, color.NRGBA{0, n.Shade, 200, uint8(n.Alpha * 255)})
			continue
		}

		if pointer != nil && pointer.Sub(n.Pos).Len() < e.mesh.Radius(n) {
			s.Line(n.Pos.X, n.Pos.Y, pointer.X, pointer.Y, 1, alpha(accent, 0.5))
			for p := 0; p < 3; p++ {
				k := packetPhase(t, 0.5, p, 3)
				s.FillCircle(n.Pos.X+(pointer.X-n.Pos.X)*k, n.Pos.Y+(pointer.Y-n.Pos.Y)*k, 1.5, alpha(accent, 0.8))
			}
		}

		s.FillCircle(n.Pos.X, n.Pos.Y, n.Size, alpha(accent, n.Alpha))
		outer := n.Size * 2.5 * pulse
		hexagon(s, n.Pos.X, n.Pos.Y, outer, 0, alpha(accent, 0.5))
		hexagon(s, n.Pos.X, n.Pos.Y, outer*0.7, t*0.3, alpha(secondary, 0.3))
	}
}

func (e *Engine) drawSequence(s Surface, vp sim.Size) {
	var status string
	switch e.seq.Stage() {
	case sim.Idle:
		return
	case sim.Drafting:
		status = "drafting contract"
	case sim.Signing:
		status = "awaiting signature, gas " + e.seq.GasPrice
	case sim.Signed:
		status = "signed"
	case sim.Deployed:
		status = "deployed tx " + decor.Truncate(e.seq.TxHash, e.cfg.Chain.HashDisplayLen+6)
	}
	s.Text(fmt.Sprintf("%s  %s", e.seq.ContractID, status), 10, vp.H-24, alpha(accent, 0.7))
}

// packetPhase places packet p of count along a connector, in [0, 1).
func packetPhase(seconds, speed float64, p, count int) float64 {
	v := math.Mod(seconds*speed+float64(p)/float64(count), 1)
	if v < 0 {
		v += 1
	}
	return v
}

func dashedLine(s Surface, x1, y1, x2, y2, width float64, c color.Color) {
	dx, dy := x2-x1, y2-y1
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	ux, uy := dx/length, dy/length
	for d := 0.0; d < length; d += dashLength + dashGap {
		end := math.Min(d+dashLength, length)
		s.Line(x1+ux*d, y1+uy*d, x1+ux*end, y1+uy*end, width, c)
	}
}

func hexagon(s Surface, cx, cy, r, phase float64, c color.Color) {
	px, py := cx+r*math.Cos(phase), cy+r*math.Sin(phase)
	for i := 1; i <= 6; i++ {
		a := phase + math.Pi/3*float64(i)
		x, y := cx+r*math.Cos(a), cy+r*math.Sin(a)
		s.Line(px, py, x, y, 1, c)
		px, py = x, y
	}
}

func burst(s Surface, cx, cy float64, c color.Color) {
	for i := 0; i < burstRays; i++ {
		a := 2 * math.Pi * float64(i) / burstRays
		s.Line(cx, cy, cx+math.Cos(a)*burstLength, cy+math.Sin(a)*burstLength, 1, c)
	}
}
