package decor

import (
	"regexp"
	"testing"
)

var hashRe = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

func TestBlockHashDeterministic(t *testing.T) {
	a, b := NewSeeded(1), NewSeeded(2)
	for seq := 0; seq < 50; seq++ {
		h1, h2 := a.BlockHash(seq), b.BlockHash(seq)
		if h1 != h2 {
			t.Fatalf("seq %d: %s != %s", seq, h1, h2)
		}
		if !hashRe.MatchString(h1) {
			t.Fatalf("seq %d: malformed hash %q", seq, h1)
		}
	}
}

func TestBlockHashDistinct(t *testing.T) {
	g := NewSeeded(1)
	seen := map[string]int{}
	for seq := 1; seq <= 200; seq++ {
		h := g.BlockHash(seq)
		if prev, ok := seen[h]; ok {
			t.Fatalf("seq %d collides with seq %d", seq, prev)
		}
		seen[h] = seq
	}
}

func TestGenesisHash(t *testing.T) {
	h := NewSeeded(1).GenesisHash()
	if h != "0x0000000000000000000000000000000000000000" {
		t.Errorf("unexpected genesis hash %q", h)
	}
}

func TestRandomValues(t *testing.T) {
	g := NewSeeded(7)
	idRe := regexp.MustCompile(`^SC-\d{4}$`)
	for i := 0; i < 100; i++ {
		if tx := g.TxHash(); !hashRe.MatchString(tx) {
			t.Fatalf("malformed tx hash %q", tx)
		}
		if id := g.ContractID(); !idRe.MatchString(id) {
			t.Fatalf("malformed contract id %q", id)
		}
		if n := g.TxCount(); n < 5 || n >= 25 {
			t.Fatalf("tx count %d out of range", n)
		}
		if n := g.Nonce(); n < 0 || n >= 1000000 {
			t.Fatalf("nonce %d out of range", n)
		}
	}
}

func TestSeededReproducible(t *testing.T) {
	a, b := NewSeeded(99), NewSeeded(99)
	for i := 0; i < 10; i++ {
		if x, y := a.TxHash(), b.TxHash(); x != y {
			t.Fatalf("draw %d differs: %s vs %s", i, x, y)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"0x1234567890abcdef", 12, "0x1234567890..."},
		{"0x12", 12, "0x12"},
		{"0x1234", 0, "0x1234"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
