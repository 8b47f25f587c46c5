package clock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestManualClockFiresDueTickersInOrder(t *testing.T) {
	m := NewManual(epoch)
	var fired []string
	m.Every(time.Second, func() { fired = append(fired, "a") })
	m.Every(1500*time.Millisecond, func() { fired = append(fired, "b") })

	m.Advance(3 * time.Second)

	assert.Equal(t, []string{"a", "b", "a", "a", "b"}, fired)
	assert.Equal(t, epoch.Add(3*time.Second), m.Now())
}

func TestManualClockStoppedTickerDoesNotFire(t *testing.T) {
	m := NewManual(epoch)
	count := 0
	tk := m.Every(time.Second, func() { count++ })
	m.Advance(2 * time.Second)
	tk.Stop()
	tk.Stop()
	m.Advance(5 * time.Second)

	assert.Equal(t, 2, count)
	assert.Equal(t, 0, m.ActiveTickers())
}

func TestManualClockCallbackCanStopItsOwnTicker(t *testing.T) {
	m := NewManual(epoch)
	count := 0
	var tk Ticker
	tk = m.Every(time.Second, func() {
		count++
		if count == 3 {
			tk.Stop()
		}
	})
	m.Advance(10 * time.Second)

	assert.Equal(t, 3, count)
}

func TestManualClockNowDuringCallback(t *testing.T) {
	m := NewManual(epoch)
	var seen []time.Time
	m.Every(time.Second, func() { seen = append(seen, m.Now()) })
	m.Advance(2 * time.Second)

	assert.Equal(t, []time.Time{epoch.Add(time.Second), epoch.Add(2 * time.Second)}, seen)
}

func TestAcceleratedClockIgnoresRequestedInterval(t *testing.T) {
	c := Accelerated(5 * time.Millisecond)
	var count int32
	tk := c.Every(time.Hour, func() { atomic.AddInt32(&count, 1) })
	defer tk.Stop()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&count) >= 3 },
		time.Second, time.Millisecond)
}

func TestAcceleratedDefaultInterval(t *testing.T) {
	interval, ok := IsAccelerated(Accelerated(0))
	assert.True(t, ok)
	assert.Equal(t, DefaultAcceleratedInterval, interval)

	_, ok = IsAccelerated(Real())
	assert.False(t, ok)
}

func TestRealTickerStopsFiring(t *testing.T) {
	var count int32
	tk := Real().Every(time.Millisecond, func() { atomic.AddInt32(&count, 1) })
	require.Eventually(t, func() bool { return atomic.LoadInt32(&count) > 0 }, time.Second, time.Millisecond)
	tk.Stop()
	time.Sleep(5 * time.Millisecond)
	stoppedAt := atomic.LoadInt32(&count)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stoppedAt, atomic.LoadInt32(&count))
}
