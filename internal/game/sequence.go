package game

import "sync"

// sequencer releases post-commit work in the order tickets were reserved.
// Tickets are reserved inside the repository transaction, so the release
// order follows the order in which transitions were serialized, however the
// callers race after commit. Whoever finds the next ticket ready drains the
// queue; a publisher that re-enters the engine only enqueues.
type sequencer struct {
	mu       sync.Mutex
	next     uint64
	head     uint64
	ready    map[uint64]func()
	draining bool
}

func newSequencer() *sequencer {
	return &sequencer{head: 1, ready: make(map[uint64]func())}
}

func (s *sequencer) reserve() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

// complete marks ticket t done with fn as its work. A nil fn releases the
// ticket of a transaction that did not commit.
func (s *sequencer) complete(t uint64, fn func()) {
	if t == 0 {
		return
	}
	s.mu.Lock()
	if fn == nil {
		fn = func() {}
	}
	s.ready[t] = fn
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for {
		work, ok := s.ready[s.head]
		if !ok {
			s.draining = false
			s.mu.Unlock()
			return
		}
		delete(s.ready, s.head)
		s.head++
		s.mu.Unlock()
		s.run(work)
		s.mu.Lock()
	}
}

func (s *sequencer) run(work func()) {
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.draining = false
			s.mu.Unlock()
			panic(r)
		}
	}()
	work()
}
