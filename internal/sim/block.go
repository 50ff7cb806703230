package sim

import (
	"math/rand/v2"

	"github.com/iburimskiy/blockchain-backdrop/internal/config"
)

// PaletteSize is the number of color tags blocks cycle through.
const PaletteSize = 5

// Decor supplies the decorative strings and counters a block carries.
type Decor interface {
	GenesisHash() string
	BlockHash(seq int) string
	Nonce() int
	TxCount() int
}

// Block is a decorative mining block. Anchor and Next are indices into the
// chain; -1 means none.
type Block struct {
	Seq      int
	Pos      Vec
	W, H     float64
	ColorTag int
	Progress float64
	Speed    float64
	Complete bool
	Hash     string
	PrevHash string
	Anchor   int
	Next     int
	Nonce    int
	Txs      int
}

// Chain is append-only. Blocks are addressed by index, never removed.
type Chain struct {
	cfg    config.Chain
	rng    *rand.Rand
	decor  Decor
	blocks []Block
}

func NewChain(cfg config.Chain, vp Size, rng *rand.Rand, decor Decor) *Chain {
	c := &Chain{
		cfg:    cfg,
		rng:    rng,
		decor:  decor,
		blocks: make([]Block, 0, max(cfg.MaxBlocks, cfg.InitialBlocks)),
	}

	prev := Vec{vp.W * cfg.OriginX, vp.H * cfg.OriginY}
	prevHash := decor.GenesisHash()
	for i := 0; i < cfg.InitialBlocks; i++ {
		dy := cfg.ZigZag
		if i%2 == 1 {
			dy = -dy
		}
		seq := i + 1
		b := Block{
			Seq:      seq,
			Pos:      Vec{prev.X + cfg.SpacingX, prev.Y + dy},
			W:        cfg.BlockWidth,
			H:        cfg.BlockHeight,
			ColorTag: i % PaletteSize,
			Progress: between(rng, 0, cfg.InitialProgressMax),
			Speed:    c.speed(),
			Hash:     decor.BlockHash(seq),
			PrevHash: prevHash,
			Anchor:   i - 1,
			Next:     -1,
			Nonce:    decor.Nonce(),
			Txs:      decor.TxCount(),
		}
		if i > 0 {
			c.blocks[i-1].Next = i
		}
		c.blocks = append(c.blocks, b)
		prev, prevHash = b.Pos, b.Hash
	}
	return c
}

func (c *Chain) speed() float64 {
	if c.cfg.SpeedMax <= c.cfg.SpeedMin {
		return c.cfg.SpeedMin
	}
	return between(c.rng, c.cfg.SpeedMin, c.cfg.SpeedMax)
}

// Update mines every incomplete block one step and grows the chain by at most
// one block. It returns the sequence numbers mined during this step.
func (c *Chain) Update(vp Size) []int {
	var mined []int
	for i := range c.blocks {
		b := &c.blocks[i]
		if b.Complete {
			continue
		}
		b.Progress += b.Speed
		if b.Progress >= config.MaxProgress {
			b.Progress = config.MaxProgress
			b.Complete = true
			mined = append(mined, b.Seq)
		}
	}

	if len(c.blocks) < c.cfg.MaxBlocks {
		if anchor := c.latestComplete(); anchor >= 0 {
			c.grow(anchor, vp)
		}
	}
	return mined
}

// latestComplete returns the index of the completed block with the highest
// sequence number, or -1.
func (c *Chain) latestComplete() int {
	idx := -1
	for i := range c.blocks {
		if c.blocks[i].Complete && (idx < 0 || c.blocks[i].Seq > c.blocks[idx].Seq) {
			idx = i
		}
	}
	return idx
}

func (c *Chain) grow(anchor int, vp Size) {
	a := c.blocks[anchor]
	x := a.Pos.X + c.cfg.SpacingX + c.rng.Float64()*c.cfg.JitterX
	y := a.Pos.Y + (c.rng.Float64()-0.5)*c.cfg.JitterY
	if !vp.Empty() {
		x = clamp(x, c.cfg.Margin, vp.W-c.cfg.Margin-a.W)
		y = clamp(y, c.cfg.Margin, vp.H-c.cfg.Margin-a.H)
	}

	seq := len(c.blocks) + 1
	idx := len(c.blocks)
	c.blocks = append(c.blocks, Block{
		Seq:      seq,
		Pos:      Vec{x, y},
		W:        c.cfg.BlockWidth,
		H:        c.cfg.BlockHeight,
		ColorTag: c.rng.IntN(PaletteSize),
		Speed:    c.speed(),
		Hash:     c.decor.BlockHash(seq),
		PrevHash: a.Hash,
		Anchor:   anchor,
		Next:     -1,
		Nonce:    c.decor.Nonce(),
		Txs:      c.decor.TxCount(),
	})
	if c.blocks[anchor].Next < 0 {
		c.blocks[anchor].Next = idx
	}
}

// Blocks returns the live slice; callers must not keep it across updates.
func (c *Chain) Blocks() []Block { return c.blocks }

func (c *Chain) Len() int { return len(c.blocks) }

// Mined counts completed blocks.
func (c *Chain) Mined() int {
	n := 0
	for i := range c.blocks {
		if c.blocks[i].Complete {
			n++
		}
	}
	return n
}
