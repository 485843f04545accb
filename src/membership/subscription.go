package membership

import "sync"

// Subscription receives the cluster events that occur after it was created,
// preceded by a Snapshot. Events are queued in an unbounded mailbox, so a slow
// subscriber never holds up the cluster or other subscribers.
type Subscription struct {
	id      uint64
	cluster *Cluster

	mu      sync.Mutex
	pending []Event
	notify  chan struct{}

	out      chan Event
	doneCh   chan struct{}
	doneOnce sync.Once
}

func newSubscription(id uint64, cluster *Cluster) *Subscription {
	s := &Subscription{
		id:      id,
		cluster: cluster,
		notify:  make(chan struct{}, 1),
		out:     make(chan Event),
		doneCh:  make(chan struct{}),
	}
	go s.pump()
	return s
}

// Events returns the channel on which events are delivered. It is closed
// after Unsubscribe.
func (s *Subscription) Events() <-chan Event {
	return s.out
}

// Unsubscribe stops the delivery of events. Events still queued are dropped.
// It is safe to call Unsubscribe more than once.
func (s *Subscription) Unsubscribe() {
	s.cluster.unsubscribe(s.id)
	s.doneOnce.Do(func() {
		close(s.doneCh)
	})
}

func (s *Subscription) push(ev Event) {
	s.mu.Lock()
	s.pending = append(s.pending, ev)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) pop() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil, false
	}
	ev := s.pending[0]
	s.pending[0] = nil
	s.pending = s.pending[1:]
	return ev, true
}

func (s *Subscription) pump() {
	defer close(s.out)
	for {
		ev, ok := s.pop()
		if !ok {
			select {
			case <-s.notify:
				continue
			case <-s.doneCh:
				return
			}
		}
		select {
		case s.out <- ev:
		case <-s.doneCh:
			return
		}
	}
}
