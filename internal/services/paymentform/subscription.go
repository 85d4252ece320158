package paymentform

import (
	"sync"

	"cardform/internal/models"
)

// subscription delivers snapshots to one observer, in order, on its own goroutine.
type subscription struct {
	observer Observer

	mu      sync.Mutex
	cond    *sync.Cond
	pending []models.FormState
	closed  bool
}

func newSubscription(observer Observer) *subscription {
	s := &subscription{observer: observer}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *subscription) push(state models.FormState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = append(s.pending, state)
	s.cond.Signal()
}

// close stops delivery. Snapshots still queued are dropped.
func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.pending = nil
	s.cond.Signal()
}

func (s *subscription) run() {
	for {
		s.mu.Lock()
		for len(s.pending) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		next := s.pending[0]
		s.pending[0] = models.FormState{}
		s.pending = s.pending[1:]
		s.mu.Unlock()

		s.observer(next)
	}
}

// Subscribe registers observer. It first receives the current state and then
// every published state in order. The returned func unsubscribes; it is safe
// to call more than once and from inside the observer.
func (c *Controller) Subscribe(observer Observer) (unsubscribe func()) {
	sub := newSubscription(observer)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return func() {}
	}
	sub.push(c.state)
	c.subs[sub] = struct{}{}
	c.mu.Unlock()

	go sub.run()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, sub)
			c.mu.Unlock()
			sub.close()
		})
	}
}

// publishLocked queues state for every subscriber. c.mu must be held.
func (c *Controller) publishLocked(state models.FormState) {
	for sub := range c.subs {
		sub.push(state)
	}
}
