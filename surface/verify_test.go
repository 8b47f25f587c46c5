package surface

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterSurface is a minimal widget: "inc" increments "count", "label" never changes.
type counterSurface struct {
	b     *Broadcaster
	count int
	lock  sync.Mutex
}

func newCounterSurface() *counterSurface {
	return &counterSurface{b: NewBroadcaster(map[string]string{"count": "0", "label": "Count"})}
}

func (c *counterSurface) Elements() []string { return []string{"inc", "count", "label"} }

func (c *counterSurface) Activate(id string) error {
	if id != "inc" {
		return &MissingElementError{ID: id}
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	c.count++
	c.b.Publish(map[string]string{"count": itoa(c.count), "label": "Count"})
	return nil
}

func (c *counterSurface) Read(id string) (string, error) {
	v, ok := c.b.Latest().Get(id)
	if !ok {
		return "", &MissingElementError{ID: id}
	}
	return v, nil
}

func (c *counterSurface) Subscribe() (Subscription, error) { return c.b.Subscribe(), nil }

func (c *counterSurface) Snapshot() Snapshot { return c.b.Latest() }

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	s := ""
	for n > 0 {
		s = string(rune('0'+n%10)) + s
		n /= 10
	}
	return s
}

func TestAssertElementPresent(t *testing.T) {
	s := newCounterSurface()
	assert.NoError(t, AssertElementPresent(s, "inc"))

	err := AssertElementPresent(s, "beep")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingElement))
	var missing *MissingElementError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "beep", missing.ID)
}

func TestAssertImmediateEquals(t *testing.T) {
	s := newCounterSurface()
	assert.NoError(t, AssertImmediateEquals(s, "label", "Count"))

	err := AssertImmediateEquals(s, "count", "5")
	var mismatch *AssertionMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "5", mismatch.Expected)
	assert.Equal(t, "0", mismatch.Actual)
	assert.True(t, errors.Is(err, ErrAssertionMismatch))

	assert.True(t, errors.Is(AssertImmediateEquals(s, "nope", ""), ErrMissingElement))
}

func TestDriveSequence(t *testing.T) {
	s := newCounterSurface()
	require.NoError(t, DriveSequence(s, "inc", "inc", "inc"))
	assert.NoError(t, AssertImmediateEquals(s, "count", "3"))

	err := DriveSequence(s, "inc", "bogus", "inc")
	assert.True(t, errors.Is(err, ErrMissingElement))
	assert.Contains(t, err.Error(), "step 2 of 3")
	assert.NoError(t, AssertImmediateEquals(s, "count", "4"))
}

func TestAwaitConditionAlreadySatisfied(t *testing.T) {
	s := newCounterSurface()
	v, err := AwaitCondition(context.Background(), s, "count", Equals("0"), time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "0", v)
	assert.Equal(t, 0, s.b.SubscriberCount())
}

func TestAwaitConditionSatisfiedLater(t *testing.T) {
	s := newCounterSurface()
	go func() {
		for i := 0; i < 5; i++ {
			time.Sleep(2 * time.Millisecond)
			_ = s.Activate("inc")
		}
	}()
	v, err := AwaitCondition(context.Background(), s, "count", Equals("5"), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "5", v)
}

func TestAwaitConditionTimeout(t *testing.T) {
	s := newCounterSurface()
	_ = s.Activate("inc")
	_, err := AwaitCondition(context.Background(), s, "count", Equals("9"), 20*time.Millisecond)
	var timeout *TimeoutError
	require.True(t, errors.As(err, &timeout))
	assert.Equal(t, "1", timeout.LastValue)
	assert.GreaterOrEqual(t, timeout.Elapsed, 20*time.Millisecond)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, 0, s.b.SubscriberCount())
}

func TestAwaitConditionStreamClosed(t *testing.T) {
	s := newCounterSurface()
	go func() {
		time.Sleep(5 * time.Millisecond)
		s.b.Close()
	}()
	_, err := AwaitCondition(context.Background(), s, "count", Equals("9"), time.Second)
	var timeout *TimeoutError
	require.True(t, errors.As(err, &timeout))
	assert.True(t, timeout.StreamClosed)
}

func TestAwaitConditionContextCancelled(t *testing.T) {
	s := newCounterSurface()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := AwaitCondition(ctx, s, "count", Equals("9"), time.Second)
	assert.Equal(t, context.Canceled, err)
}

func TestAwaitSequenceRequiresLaterChange(t *testing.T) {
	s := newCounterSurface()
	go func() {
		for s.b.SubscriberCount() == 0 {
			time.Sleep(time.Millisecond)
		}
		time.Sleep(20 * time.Millisecond)
		_ = s.Activate("inc")
		_ = s.Activate("inc")
	}()
	snaps, err := AwaitSequence(context.Background(), s, "count", []Step{
		ValueStep("count", "count is 0", Equals("0")),
		ValueStep("count", "count changes", NotEquals("0")),
	}, time.Second)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "1", snaps[1].Value("count"))
	assert.Greater(t, snaps[1].Seq, snaps[0].Seq)
}

// replayingSurface behaves like a remote stream: every subscription starts by replaying the
// snapshot the surface already has.
type replayingSurface struct {
	*counterSurface
}

type replayingSubscription struct {
	inner Subscription
	ch    chan Snapshot
}

func (r replayingSurface) Subscribe() (Subscription, error) {
	sub := &replayingSubscription{inner: r.b.Subscribe(), ch: make(chan Snapshot, subscriberBuffer)}
	sub.ch <- r.b.Latest()
	go func() {
		defer close(sub.ch)
		for snap := range sub.inner.Updates() {
			sub.ch <- snap
		}
	}()
	return sub, nil
}

func (r replayingSurface) CurrentSnapshot() (Snapshot, error) { return r.b.Latest(), nil }

func (r *replayingSubscription) Updates() <-chan Snapshot { return r.ch }
func (r *replayingSubscription) Unsubscribe()             { r.inner.Unsubscribe() }

// readOnlySurface hides Snapshot, so its current state can only be read one value at a time.
type readOnlySurface struct {
	c *counterSurface
}

func (r readOnlySurface) Elements() []string               { return r.c.Elements() }
func (r readOnlySurface) Activate(id string) error         { return r.c.Activate(id) }
func (r readOnlySurface) Read(id string) (string, error)   { return r.c.Read(id) }
func (r readOnlySurface) Subscribe() (Subscription, error) { return r.c.Subscribe() }

func TestAwaitSequenceIgnoresReplayOfInitialSnapshot(t *testing.T) {
	s := replayingSurface{newCounterSurface()}
	go func() {
		for s.b.SubscriberCount() == 0 {
			time.Sleep(time.Millisecond)
		}
		time.Sleep(20 * time.Millisecond)
		_ = s.Activate("inc")
	}()
	anything := func(string) bool { return true }
	snaps, err := AwaitSequence(context.Background(), s, "count", []Step{
		ValueStep("count", "count is 0", Equals("0")),
		ValueStep("count", "any later state", anything),
	}, time.Second)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, uint64(0), snaps[0].Seq)
	assert.Equal(t, uint64(1), snaps[1].Seq)
	assert.Equal(t, "1", snaps[1].Value("count"))
}

func TestAwaitSequenceWithoutSnapshotsUsesEveryUpdate(t *testing.T) {
	s := readOnlySurface{newCounterSurface()}
	go func() {
		for s.c.b.SubscriberCount() == 0 {
			time.Sleep(time.Millisecond)
		}
		time.Sleep(20 * time.Millisecond)
		_ = s.Activate("inc")
	}()
	snaps, err := AwaitSequence(context.Background(), s, "count", []Step{
		ValueStep("count", "count is 0", Equals("0")),
		ValueStep("count", "count is 1", Equals("1")),
	}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "1", snaps[1].Value("count"))
}

func TestAwaitStable(t *testing.T) {
	s := newCounterSurface()
	assert.NoError(t, AwaitStable(context.Background(), s, "count", 10*time.Millisecond))

	go func() {
		time.Sleep(2 * time.Millisecond)
		_ = s.Activate("inc")
	}()
	err := AwaitStable(context.Background(), s, "count", time.Second)
	var mismatch *AssertionMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "0", mismatch.Expected)
	assert.Equal(t, "1", mismatch.Actual)
}

func TestBroadcasterDropsOldestWhenSubscriberFallsBehind(t *testing.T) {
	b := NewBroadcaster(map[string]string{"n": "0"})
	sub := b.Subscribe()
	defer sub.Unsubscribe()
	for i := 1; i <= subscriberBuffer+10; i++ {
		b.Publish(map[string]string{"n": itoa(i)})
	}
	first := <-sub.Updates()
	assert.Equal(t, uint64(11), first.Seq)
	assert.Equal(t, uint64(subscriberBuffer+10), b.Latest().Seq)
}

func TestBroadcasterUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster(nil)
	sub := b.Subscribe()
	sub.Unsubscribe()
	sub.Unsubscribe()
	_, ok := <-sub.Updates()
	assert.False(t, ok)
	assert.Equal(t, 0, b.SubscriberCount())

	b.Close()
	late := b.Subscribe()
	_, ok = <-late.Updates()
	assert.False(t, ok)
}

func TestSnapshotsAreIndependentCopies(t *testing.T) {
	values := map[string]string{"a": "1"}
	b := NewBroadcaster(values)
	values["a"] = "2"
	snap := b.Latest()
	snap.Values["a"] = "3"
	assert.Equal(t, "1", b.Latest().Value("a"))
}
