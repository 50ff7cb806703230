package sim

import (
	"math"
	"math/rand/v2"

	"github.com/iburimskiy/blockchain-backdrop/internal/config"
)

// Category picks the icon a particle is drawn with.
type Category int

const (
	BTC Category = iota
	ETH
	SOL
)

// Categories lists every icon kind in assignment order.
var Categories = []Category{BTC, ETH, SOL}

func (c Category) String() string {
	switch c {
	case BTC:
		return "btc"
	case ETH:
		return "eth"
	case SOL:
		return "sol"
	}
	return "unknown"
}

type Particle struct {
	Pos      Vec
	Vel      Vec
	Size     float64
	Category Category
	Opacity  float64
	Rotation float64 // radians, [0, 2π)
	Spin     float64 // radians per update
}

// Field owns the particles. They are created once and only move.
type Field struct {
	cfg       config.Particles
	particles []Particle
}

// ParticleCount scales with viewport area and never drops below the
// configured minimum.
func ParticleCount(cfg config.Particles, vp Size) int {
	n := 0
	if cfg.AreaPerParticle > 0 && !vp.Empty() {
		n = int(math.Floor(vp.Area() / cfg.AreaPerParticle))
	}
	return max(cfg.MinCount, n)
}

func NewField(cfg config.Particles, vp Size, rng *rand.Rand) *Field {
	n := ParticleCount(cfg, vp)
	f := &Field{cfg: cfg, particles: make([]Particle, n)}
	for i := range f.particles {
		speed := between(rng, cfg.SpeedMin, cfg.SpeedMax)
		dir := rng.Float64() * 2 * math.Pi
		f.particles[i] = Particle{
			Pos:      Vec{rng.Float64() * vp.W, rng.Float64() * vp.H},
			Vel:      Vec{math.Cos(dir) * speed, math.Sin(dir) * speed},
			Size:     between(rng, cfg.SizeMin, cfg.SizeMax),
			Category: Categories[i%len(Categories)],
			Opacity:  between(rng, cfg.OpacityMin, cfg.OpacityMax),
			Rotation: rng.Float64() * 2 * math.Pi,
			Spin:     between(rng, -cfg.RotationSpeedMax, cfg.RotationSpeedMax),
		}
	}
	return f
}

// Update moves every particle one step, wrapping at the viewport edges.
// Particles stranded outside a shrunken viewport wrap back in here too.
func (f *Field) Update(vp Size) {
	if vp.Empty() {
		return
	}
	for i := range f.particles {
		p := &f.particles[i]
		p.Pos.X = wrap(p.Pos.X+p.Vel.X, vp.W)
		p.Pos.Y = wrap(p.Pos.Y+p.Vel.Y, vp.H)
		p.Rotation = wrap(p.Rotation+p.Spin, 2*math.Pi)
	}
}

// Particles returns the live slice; callers must not keep it across updates.
func (f *Field) Particles() []Particle { return f.particles }

func (f *Field) Len() int { return len(f.particles) }
