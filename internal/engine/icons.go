package engine

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/iburimskiy/blockchain-backdrop/internal/sim"
)

// IconLoader resolves one icon. Implementations keep the decoded image for
// their own surface; the engine only tracks whether it is usable.
type IconLoader interface {
	LoadIcon(ctx context.Context, cat sim.Category) error
}

type IconState int

const (
	IconPending IconState = iota
	IconReady
	IconFailed
)

// IconSet records the load state of every category. Loads finish on their
// own goroutines while frames read the state.
type IconSet struct {
	mu    sync.RWMutex
	state map[sim.Category]IconState
	wg    sync.WaitGroup
}

func newIconSet() *IconSet {
	s := &IconSet{state: make(map[sim.Category]IconState, len(sim.Categories))}
	for _, c := range sim.Categories {
		s.state[c] = IconPending
	}
	return s
}

// load starts one goroutine per category. A failure is logged and the
// category stays undrawn for the life of the set.
func (s *IconSet) load(ctx context.Context, loader IconLoader, logger *log.Logger) {
	if loader == nil {
		logger.Printf("no icon loader; particles stay hidden")
		s.mu.Lock()
		for c := range s.state {
			s.state[c] = IconFailed
		}
		s.mu.Unlock()
		return
	}

	for _, c := range sim.Categories {
		s.wg.Add(1)
		go func(c sim.Category) {
			defer s.wg.Done()
			err := loader.LoadIcon(ctx, c)

			s.mu.Lock()
			defer s.mu.Unlock()
			if err != nil {
				s.state[c] = IconFailed
				if !errors.Is(err, context.Canceled) {
					logger.Printf("icon %s: %v", c, err)
				}
				return
			}
			s.state[c] = IconReady
		}(c)
	}
}

func (s *IconSet) Ready(c sim.Category) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state[c] == IconReady
}

func (s *IconSet) State(c sim.Category) IconState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state[c]
}

// Loaded counts ready icons.
func (s *IconSet) Loaded() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, st := range s.state {
		if st == IconReady {
			n++
		}
	}
	return n
}

// Wait blocks until every load started so far has finished.
func (s *IconSet) Wait() {
	s.wg.Wait()
}
