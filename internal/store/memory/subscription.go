package memory

import (
	"sync"

	"github.com/mradkov043/discite-omnes-app/internal/store"
)

type delivery struct {
	snapshot store.Snapshot
	err      error
}

// subscription queues deliveries in the order the store produced them. Whichever
// goroutine finds the queue idle drains it; a callback that writes to the store
// only enqueues, so delivery is never re-entrant.
type subscription struct {
	id         store.SubscriptionID
	query      store.Query
	onSnapshot func(store.Snapshot)
	onError    func(error)

	mu       sync.Mutex
	queue    []delivery
	draining bool
	active   bool
}

func (s *subscription) enqueue(d delivery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.queue = append(s.queue, d)
	}
}

func (s *subscription) cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	s.queue = nil
}

func (s *subscription) drain() {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true

	for s.active && len(s.queue) > 0 {
		d := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if d.err != nil {
			if s.onError != nil {
				s.onError(d.err)
			}
		} else {
			s.onSnapshot(d.snapshot)
		}

		s.mu.Lock()
	}

	s.draining = false
	s.mu.Unlock()
}
