package engine

import (
	"sync"
	"time"
)

// FrameFunc runs once per display refresh.
type FrameFunc func(now time.Time)

// FrameID identifies a pending frame request. Zero is never issued.
type FrameID uint64

// Scheduler hands out display refreshes. A requested callback runs at most
// once, on the next refresh, unless canceled first.
type Scheduler interface {
	RequestFrame(fn FrameFunc) FrameID
	CancelFrame(id FrameID)
}

// FrameQueue is the Scheduler hosts pump from their own loop by calling Fire
// once per refresh. Callbacks requested while Fire runs wait for the next one.
type FrameQueue struct {
	mu       sync.Mutex
	next     FrameID
	pending  []queuedFrame
	inflight []queuedFrame
}

type queuedFrame struct {
	id FrameID
	fn FrameFunc
}

func NewFrameQueue() *FrameQueue {
	return &FrameQueue{}
}

func (q *FrameQueue) RequestFrame(fn FrameFunc) FrameID {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.next++
	q.pending = append(q.pending, queuedFrame{id: q.next, fn: fn})
	return q.next
}

func (q *FrameQueue) CancelFrame(id FrameID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, f := range q.pending {
		if f.id == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
	// canceled by an earlier callback of the batch being fired
	for i := range q.inflight {
		if q.inflight[i].id == id {
			q.inflight[i].fn = nil
			return
		}
	}
}

// Fire runs every callback pending at the time of the call and reports how
// many ran.
func (q *FrameQueue) Fire(now time.Time) int {
	q.mu.Lock()
	q.inflight = q.pending
	q.pending = nil
	q.mu.Unlock()

	ran := 0
	for i := 0; ; i++ {
		q.mu.Lock()
		if i >= len(q.inflight) {
			q.inflight = nil
			q.mu.Unlock()
			return ran
		}
		fn := q.inflight[i].fn
		q.mu.Unlock()

		if fn != nil {
			fn(now)
			ran++
		}
	}
}

// Pending reports the number of callbacks waiting for the next Fire.
func (q *FrameQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
