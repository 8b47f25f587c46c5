// Package clock provides the time source used by widgets that count down. Widgets never call
// time.Now or start their own tickers directly; they receive a Clock, so that the same widget
// can be driven by wall-clock time, by an accelerated cadence for contract tests, or by a
// manually advanced clock in unit tests.
package clock

import (
	"sync"
	"time"
)

// DefaultAcceleratedInterval is the fixed tick cadence used by Accelerated when no interval is given.
const DefaultAcceleratedInterval = 30 * time.Millisecond

// Ticker is a repeating callback that can be stopped. Stop is idempotent.
type Ticker interface {
	Stop()
}

// Clock provides the current time and repeating callbacks.
type Clock interface {
	Now() time.Time
	// Every calls fn once per interval, starting one interval from now, until the returned
	// Ticker is stopped. Callbacks for a single Ticker never overlap.
	Every(interval time.Duration, fn func()) Ticker
}

type realClock struct{}

// Real returns a Clock backed by the system clock.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Every(interval time.Duration, fn func()) Ticker {
	return startTicker(interval, fn)
}

type acceleratedClock struct {
	interval time.Duration
}

// Accelerated returns a Clock whose tickers fire at a fixed short interval regardless of the
// interval that was requested. A zero or negative interval means DefaultAcceleratedInterval.
// Now still reports wall-clock time.
func Accelerated(interval time.Duration) Clock {
	if interval <= 0 {
		interval = DefaultAcceleratedInterval
	}
	return acceleratedClock{interval: interval}
}

func (a acceleratedClock) Now() time.Time { return time.Now() }

func (a acceleratedClock) Every(_ time.Duration, fn func()) Ticker {
	return startTicker(a.interval, fn)
}

// IsAccelerated reports whether c ticks at a fixed accelerated cadence, and if so what it is.
func IsAccelerated(c Clock) (time.Duration, bool) {
	if a, ok := c.(acceleratedClock); ok {
		return a.interval, true
	}
	return 0, false
}

type goroutineTicker struct {
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

func startTicker(interval time.Duration, fn func()) *goroutineTicker {
	t := &goroutineTicker{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-t.done:
				return
			case <-t.ticker.C:
				select {
				case <-t.done:
					return
				default:
				}
				fn()
			}
		}
	}()
	return t
}

func (t *goroutineTicker) Stop() {
	t.stopOnce.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}
