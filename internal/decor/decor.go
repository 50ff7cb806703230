// Package decor generates the decorative values sprinkled over the backdrop:
// hashes, nonces, contract ids and gas prices. None of them mean anything.
package decor

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"sync"
)

// HashHexLen is the number of hex digits after the 0x prefix.
const HashHexLen = 40

// Generator is shared by every component for the life of the process.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func New(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// NewSeeded builds a generator over a PCG source.
func NewSeeded(seed uint64) *Generator {
	return New(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// GenesisHash is the previous hash of the first block.
func (g *Generator) GenesisHash() string {
	return "0x" + strings.Repeat("0", HashHexLen)
}

// BlockHash derives a hash-looking string from a block sequence number.
// The same number always yields the same string.
func (g *Generator) BlockHash(seq int) string {
	var b strings.Builder
	b.Grow(2 + HashHexLen)
	b.WriteString("0x")

	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(seq))
	for round := uint64(0); b.Len() < 2+HashHexLen; round++ {
		binary.LittleEndian.PutUint64(buf[8:], round)
		h := fnv.New64a()
		h.Write(buf[:])
		fmt.Fprintf(&b, "%016x", h.Sum64())
	}
	return b.String()[:2+HashHexLen]
}

// TxHash returns a random hash-looking string.
func (g *Generator) TxHash() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var b strings.Builder
	b.Grow(2 + HashHexLen)
	b.WriteString("0x")
	for i := 0; i < HashHexLen; i++ {
		b.WriteByte("0123456789abcdef"[g.rng.IntN(16)])
	}
	return b.String()
}

func (g *Generator) ContractID() string {
	return fmt.Sprintf("SC-%04d", g.IntN(10000))
}

func (g *Generator) Nonce() int {
	return g.IntN(1000000)
}

// TxCount is the number of transactions a block claims to carry.
func (g *Generator) TxCount() int {
	return 5 + g.IntN(20)
}

func (g *Generator) GasPrice() string {
	return fmt.Sprintf("%d gwei", 8+g.IntN(40))
}

// IntN and Float64 expose the shared source so callers do not keep their own.
func (g *Generator) IntN(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.IntN(n)
}

func (g *Generator) Float64() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64()
}

// Truncate shortens a hash for display.
func Truncate(hash string, n int) string {
	if n <= 0 || len(hash) <= n {
		return hash
	}
	return hash[:n] + "..."
}
