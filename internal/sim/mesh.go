package sim

import (
	"math"
	"math/rand/v2"

	"github.com/iburimskiy/blockchain-backdrop/internal/config"
)

type Node struct {
	Pos   Vec
	Vel   Vec
	Size  float64
	Hub   bool
	Shade uint8   // green channel, hubs ignore it
	Alpha float64 // fill opacity
}

// Mesh is the loose node network drifting behind the chain. Hubs are pulled
// toward the pointer and ordinary nodes pushed away from it.
type Mesh struct {
	cfg   config.Mesh
	nodes []Node
}

func NewMesh(cfg config.Mesh, vp Size, rng *rand.Rand) *Mesh {
	regular := 0
	if cfg.AreaPerNode > 0 {
		regular = int(vp.Area() / cfg.AreaPerNode)
	}
	hubs := max(cfg.MinHubs, regular/15)

	m := &Mesh{cfg: cfg, nodes: make([]Node, 0, regular+hubs)}
	for i := 0; i < regular; i++ {
		m.nodes = append(m.nodes, Node{
			Pos:   Vec{rng.Float64() * vp.W, rng.Float64() * vp.H},
			Vel:   Vec{(rng.Float64() - 0.5) * cfg.NodeSpeed, (rng.Float64() - 0.5) * cfg.NodeSpeed},
			Size:  1 + rng.Float64()*1.5,
			Shade: uint8(100 + rng.IntN(155)),
			Alpha: 0.2 + rng.Float64()*0.3,
		})
	}
	for i := 0; i < hubs; i++ {
		m.nodes = append(m.nodes, Node{
			Pos:   Vec{rng.Float64() * vp.W, rng.Float64() * vp.H},
			Vel:   Vec{(rng.Float64() - 0.5) * cfg.HubSpeed, (rng.Float64() - 0.5) * cfg.HubSpeed},
			Size:  4,
			Hub:   true,
			Alpha: 0.8,
		})
	}
	return m
}

// Radius is how far the pointer reaches for n.
func (m *Mesh) Radius(n *Node) float64 {
	if n.Hub {
		return m.cfg.HubInteractionRadius
	}
	return m.cfg.InteractionRadius
}

// Update moves every node, bouncing off the edges. A nil pointer means no
// pointer is present.
func (m *Mesh) Update(vp Size, pointer *Vec) {
	if vp.Empty() {
		return
	}
	for i := range m.nodes {
		n := &m.nodes[i]
		n.Pos = n.Pos.Add(n.Vel)
		bounce(&n.Pos.X, &n.Vel.X, vp.W)
		bounce(&n.Pos.Y, &n.Vel.Y, vp.H)

		if pointer != nil {
			d := pointer.Sub(n.Pos)
			dist := d.Len()
			r := m.Radius(n)
			if dist > 0 && dist < r {
				dir := d.Scale(1 / dist)
				if n.Hub {
					n.Vel = n.Vel.Add(dir.Scale((r - dist) / 2000))
				} else {
					n.Vel = n.Vel.Sub(dir.Scale((r - dist) / 1000))
				}
			}
		}

		if s := n.Vel.Len(); s > m.cfg.MaxSpeed && s > 0 {
			n.Vel = n.Vel.Scale(m.cfg.MaxSpeed / s)
		}
	}
}

func bounce(pos, vel *float64, limit float64) {
	switch {
	case *pos < 0:
		*pos = 0
		*vel = math.Abs(*vel)
	case *pos > limit:
		*pos = limit
		*vel = -math.Abs(*vel)
	}
}

// Links calls fn for every pair of nodes close enough to be connected.
// strength falls from 1 at zero distance to 0 at the link distance.
func (m *Mesh) Links(fn func(a, b *Node, strength float64)) {
	for i := range m.nodes {
		for j := i + 1; j < len(m.nodes); j++ {
			a, b := &m.nodes[i], &m.nodes[j]
			limit := m.cfg.LinkDistance
			if a.Hub || b.Hub {
				limit = m.cfg.HubLinkDistance
			}
			if limit <= 0 {
				continue
			}
			if dist := a.Pos.Sub(b.Pos).Len(); dist < limit {
				fn(a, b, 1-dist/limit)
			}
		}
	}
}

func (m *Mesh) Nodes() []Node { return m.nodes }

func (m *Mesh) Len() int { return len(m.nodes) }
