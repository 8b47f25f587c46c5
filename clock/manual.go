package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Clock whose time only moves when Advance is called. Tickers created on it fire
// synchronously, on the goroutine that calls Advance, in due-time order.
type Manual struct {
	now     time.Time
	tickers []*manualTicker
	nextID  int
	lock    sync.Mutex
}

type manualTicker struct {
	id       int
	owner    *Manual
	interval time.Duration
	due      time.Time
	fn       func()
	stopped  bool
}

// NewManual creates a Manual clock starting at the given time.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.now
}

func (m *Manual) Every(interval time.Duration, fn func()) Ticker {
	if interval <= 0 {
		interval = time.Nanosecond
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.nextID++
	t := &manualTicker{id: m.nextID, owner: m, interval: interval, due: m.now.Add(interval), fn: fn}
	m.tickers = append(m.tickers, t)
	return t
}

// Advance moves the clock forward by d, firing every ticker callback that falls due, including
// repeated firings of the same ticker. Callbacks run without the clock's lock held, so they may
// create or stop tickers.
func (m *Manual) Advance(d time.Duration) {
	m.lock.Lock()
	target := m.now.Add(d)
	m.lock.Unlock()
	for {
		m.lock.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.lock.Unlock()
			return
		}
		m.now = next.due
		next.due = next.due.Add(next.interval)
		fn := next.fn
		m.lock.Unlock()
		fn()
	}
}

// ActiveTickers returns the number of tickers that have not been stopped.
func (m *Manual) ActiveTickers() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.tickers)
}

func (m *Manual) nextDue(limit time.Time) *manualTicker {
	if len(m.tickers) == 0 {
		return nil
	}
	candidates := append([]*manualTicker(nil), m.tickers...)
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].due.Equal(candidates[j].due) {
			return candidates[i].id < candidates[j].id
		}
		return candidates[i].due.Before(candidates[j].due)
	})
	if candidates[0].due.After(limit) {
		return nil
	}
	return candidates[0]
}

func (t *manualTicker) Stop() {
	m := t.owner
	m.lock.Lock()
	defer m.lock.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	for i, other := range m.tickers {
		if other == t {
			m.tickers = append(m.tickers[:i], m.tickers[i+1:]...)
			break
		}
	}
}
