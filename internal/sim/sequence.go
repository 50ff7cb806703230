package sim

import (
	"time"

	"github.com/iburimskiy/blockchain-backdrop/internal/config"
)

// Stage is a step of the contract signing sequence.
type Stage int

const (
	Idle Stage = iota
	Drafting
	Signing
	Signed
	Deployed
)

func (s Stage) String() string {
	switch s {
	case Idle:
		return "idle"
	case Drafting:
		return "drafting"
	case Signing:
		return "signing"
	case Signed:
		return "signed"
	case Deployed:
		return "deployed"
	}
	return "unknown"
}

// Labeler supplies the ids shown while the sequence runs.
type Labeler interface {
	ContractID() string
	TxHash() string
	GasPrice() string
}

// Sequence is the contract signing overlay as a state machine. It only moves
// when Advance is called, so the frame loop owns its timing.
type Sequence struct {
	cfg     config.Sequence
	labels  Labeler
	stage   Stage
	elapsed time.Duration
	loops   int

	ContractID string
	TxHash     string
	GasPrice   string
}

func NewSequence(cfg config.Sequence, labels Labeler) *Sequence {
	s := &Sequence{cfg: cfg, labels: labels}
	s.Reset()
	return s
}

// Reset returns to Idle with fresh labels.
func (s *Sequence) Reset() {
	s.stage = Idle
	s.elapsed = 0
	s.ContractID = s.labels.ContractID()
	s.TxHash = s.labels.TxHash()
	s.GasPrice = s.labels.GasPrice()
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

// threshold is the elapsed time at which the stage after st begins, or the
// loop restart once st is Deployed.
func (s *Sequence) threshold(st Stage) time.Duration {
	switch st {
	case Idle:
		return seconds(s.cfg.Drafting)
	case Drafting:
		return seconds(s.cfg.Signing)
	case Signing:
		return seconds(s.cfg.Signed)
	case Signed:
		return seconds(s.cfg.Deployed)
	}
	return seconds(s.cfg.Deployed + s.cfg.Hold)
}

// Advance moves the clock by dt and returns the stages entered, in order.
// A long dt walks through every stage in between.
func (s *Sequence) Advance(dt time.Duration) []Stage {
	if dt < 0 {
		dt = 0
	}
	s.elapsed += dt

	var entered []Stage
	for {
		if s.elapsed < s.threshold(s.stage) {
			return entered
		}
		if s.stage == Deployed {
			if !s.cfg.Loop || s.threshold(Deployed) <= 0 {
				return entered
			}
			carry := s.elapsed - s.threshold(Deployed)
			s.Reset()
			s.loops++
			s.elapsed = carry
			entered = append(entered, Idle)
			continue
		}
		s.stage++
		entered = append(entered, s.stage)
	}
}

func (s *Sequence) Stage() Stage { return s.stage }

func (s *Sequence) Elapsed() time.Duration { return s.elapsed }

// Loops counts completed runs.
func (s *Sequence) Loops() int { return s.loops }
