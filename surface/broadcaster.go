package surface

import "sync"

// subscriberBuffer is how many undelivered snapshots a subscriber can fall behind by before the
// oldest ones are discarded.
const subscriberBuffer = 256

// Broadcaster fans out snapshots to any number of subscribers. Publishing never blocks: a
// subscriber that is too far behind loses its oldest pending snapshots.
type Broadcaster struct {
	latest Snapshot
	subs   map[*subscription]struct{}
	closed bool
	lock   sync.Mutex
}

type subscription struct {
	owner *Broadcaster
	ch    chan Snapshot
	once  sync.Once
}

// NewBroadcaster creates a Broadcaster whose current snapshot has the given values and Seq 0.
func NewBroadcaster(initial map[string]string) *Broadcaster {
	b := &Broadcaster{subs: make(map[*subscription]struct{})}
	b.latest = Snapshot{Values: initial}.clone()
	return b
}

// Latest returns the most recently published snapshot.
func (b *Broadcaster) Latest() Snapshot {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.latest.clone()
}

// Publish records a new snapshot with the next sequence number and delivers it to every
// subscriber. It returns the published snapshot.
func (b *Broadcaster) Publish(values map[string]string) Snapshot {
	b.lock.Lock()
	defer b.lock.Unlock()
	snap := Snapshot{Seq: b.latest.Seq + 1, Values: values}.clone()
	b.latest = snap
	if b.closed {
		return snap.clone()
	}
	for s := range b.subs {
		s.deliver(snap.clone())
	}
	return snap.clone()
}

// Subscribe returns a Subscription that receives every snapshot published after this call.
func (b *Broadcaster) Subscribe() Subscription {
	s := &subscription{owner: b, ch: make(chan Snapshot, subscriberBuffer)}
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.closed {
		close(s.ch)
		s.once.Do(func() {})
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// SubscriberCount returns the number of live subscriptions.
func (b *Broadcaster) SubscriberCount() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.subs)
}

// Close ends every subscription. Later Publish calls still update Latest.
func (b *Broadcaster) Close() {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		s.once.Do(func() { close(s.ch) })
	}
	b.subs = make(map[*subscription]struct{})
}

// deliver is called with the owner's lock held.
func (s *subscription) deliver(snap Snapshot) {
	for {
		select {
		case s.ch <- snap:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

func (s *subscription) Updates() <-chan Snapshot { return s.ch }

func (s *subscription) Unsubscribe() {
	b := s.owner
	b.lock.Lock()
	defer b.lock.Unlock()
	delete(b.subs, s)
	s.once.Do(func() { close(s.ch) })
}
