// Package timer implements a session/break countdown timer (a "pomodoro" clock).
//
// The timer is Idle until started. While Idle the break and session lengths can be adjusted
// within [MinLength, MaxLength] minutes; once started, adjustments are ignored until Reset. A
// running countdown decrements once per tick of its clock. When it reaches zero the alert starts
// playing, and on the following tick the phase flips between Session and Break and the countdown
// reloads from the currently configured length of the new phase.
package timer

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/qmuntal/stateless"

	"github.com/widgetharness/widget-test-harness/clock"
	"github.com/widgetharness/widget-test-harness/framework/helpers"
	"github.com/widgetharness/widget-test-harness/surface"
)

const (
	DefaultSessionLength = 25
	DefaultBreakLength   = 5
	MinLength            = 1
	MaxLength            = 60

	DefaultTickInterval = time.Second
	DefaultClipLength   = 2 * time.Second
)

// Status is the lifecycle state of the timer.
type Status string

const (
	Idle    Status = "Idle"
	Running Status = "Running"
	Paused  Status = "Paused"
)

// Phase is which of the two alternating countdowns is active.
type Phase string

const (
	Session Phase = "Session"
	Break   Phase = "Break"
)

type trigger string

const (
	triggerStartStop trigger = "startStop"
	triggerReset     trigger = "reset"
	triggerAdjust    trigger = "adjust"
	triggerTick      trigger = "tick"
)

type lengthKind int

const (
	sessionKind lengthKind = iota
	breakKind
)

// Timer is the countdown state machine. All methods are safe for concurrent use.
type Timer struct {
	clock        clock.Clock
	tickInterval time.Duration
	clipLength   time.Duration
	loggers      ldlog.Loggers

	machine       *stateless.StateMachine
	sessionLength int
	breakLength   int
	phase         Phase
	remaining     int
	ticker        clock.Ticker
	generation    uint64
	alertPlaying  bool
	alertTicker   clock.Ticker
	alertClock    clock.Clock
	alertStarted  time.Time
	alertGen      uint64
	closed        bool

	broadcaster   *surface.Broadcaster
	lastPublished map[string]string
	lock          sync.Mutex
}

// New creates a Timer in its default Idle state.
func New(options ...Option) (*Timer, error) {
	t := &Timer{
		clock:         clock.Real(),
		tickInterval:  DefaultTickInterval,
		clipLength:    DefaultClipLength,
		loggers:       ldlog.NewDisabledLoggers(),
		sessionLength: DefaultSessionLength,
		breakLength:   DefaultBreakLength,
		phase:         Session,
	}
	if err := helpers.ApplyOptions(t, options...); err != nil {
		return nil, err
	}
	t.machine = t.newMachine()
	t.lastPublished = t.valuesLocked()
	t.broadcaster = surface.NewBroadcaster(t.lastPublished)
	return t, nil
}

func (t *Timer) newMachine() *stateless.StateMachine {
	sm := stateless.NewStateMachine(Idle)

	sm.Configure(Idle).
		OnEntry(t.enterIdle).
		OnExit(t.loadSession).
		Permit(triggerStartStop, Running).
		InternalTransition(triggerReset, t.enterIdle).
		InternalTransition(triggerAdjust, t.adjust).
		Ignore(triggerTick)

	sm.Configure(Running).
		OnEntry(t.startCountdown).
		OnExit(t.stopCountdown).
		Permit(triggerStartStop, Paused).
		Permit(triggerReset, Idle).
		Ignore(triggerAdjust).
		InternalTransition(triggerTick, t.tick)

	sm.Configure(Paused).
		Permit(triggerStartStop, Running).
		Permit(triggerReset, Idle).
		Ignore(triggerAdjust).
		Ignore(triggerTick)

	return sm
}

// IncrementBreak adds one minute to the break length if the timer is Idle.
func (t *Timer) IncrementBreak() { t.fire(triggerAdjust, breakKind, 1) }

// DecrementBreak subtracts one minute from the break length if the timer is Idle.
func (t *Timer) DecrementBreak() { t.fire(triggerAdjust, breakKind, -1) }

// IncrementSession adds one minute to the session length if the timer is Idle.
func (t *Timer) IncrementSession() { t.fire(triggerAdjust, sessionKind, 1) }

// DecrementSession subtracts one minute from the session length if the timer is Idle.
func (t *Timer) DecrementSession() { t.fire(triggerAdjust, sessionKind, -1) }

// StartStop starts the countdown from Idle, pauses it while Running, or resumes it while Paused.
func (t *Timer) StartStop() { t.fire(triggerStartStop) }

// Reset returns the timer to its defaults from any state, cancelling the countdown and the alert.
func (t *Timer) Reset() { t.fire(triggerReset) }

func (t *Timer) fire(trig trigger, args ...any) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.fireLocked(trig, args...)
}

func (t *Timer) fireLocked(trig trigger, args ...any) {
	if t.closed {
		return
	}
	if err := t.machine.Fire(trig, args...); err != nil {
		// Every trigger is either handled or ignored in every state, so this only happens if an
		// action failed.
		t.loggers.Errorf("timer: %s failed: %s", trig, err)
	}
	t.publishLocked()
}

// SetClock replaces the clock. If the countdown is running it continues on the new clock, with
// the old ticker stopped first so that only one is ever active.
func (t *Timer) SetClock(c clock.Clock) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.clock = c
	if t.closed {
		return
	}
	if t.ticker != nil {
		t.stopTickerLocked()
		t.startTickerLocked()
	}
	if t.alertPlaying {
		t.moveAlertLocked()
	}
}

// Close stops all activity and ends every subscription. The timer ignores all later operations.
func (t *Timer) Close() {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.closed {
		return
	}
	t.stopTickerLocked()
	t.stopAlertLocked()
	t.closed = true
	t.broadcaster.Close()
}

// Status returns the current lifecycle state.
func (t *Timer) Status() Status {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.machine.MustState().(Status)
}

// Phase returns the active phase.
func (t *Timer) Phase() Phase {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.phase
}

// Remaining returns the remaining seconds of the active phase.
func (t *Timer) Remaining() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.remaining
}

// SessionLength returns the configured session length in minutes.
func (t *Timer) SessionLength() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.sessionLength
}

// BreakLength returns the configured break length in minutes.
func (t *Timer) BreakLength() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.breakLength
}

// AlertPlaying reports whether the phase-complete alert is currently playing.
func (t *Timer) AlertPlaying() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.alertPlaying
}

// The following are state machine actions. They run inside machine.Fire, with t.lock held.

func (t *Timer) enterIdle(_ context.Context, _ ...any) error {
	t.stopTickerLocked()
	t.stopAlertLocked()
	t.sessionLength = DefaultSessionLength
	t.breakLength = DefaultBreakLength
	t.phase = Session
	t.remaining = 0
	return nil
}

func (t *Timer) loadSession(_ context.Context, _ ...any) error {
	t.phase = Session
	t.remaining = t.sessionLength * 60
	return nil
}

func (t *Timer) adjust(_ context.Context, args ...any) error {
	if len(args) != 2 {
		return fmt.Errorf("adjust expects 2 arguments, got %d", len(args))
	}
	kind, _ := args[0].(lengthKind)
	delta, _ := args[1].(int)
	target := helpers.IfElse(kind == breakKind, &t.breakLength, &t.sessionLength)
	*target = clamp(*target+delta, MinLength, MaxLength)
	return nil
}

func (t *Timer) startCountdown(_ context.Context, _ ...any) error {
	t.startTickerLocked()
	return nil
}

func (t *Timer) stopCountdown(_ context.Context, _ ...any) error {
	t.stopTickerLocked()
	return nil
}

func (t *Timer) tick(_ context.Context, _ ...any) error {
	if t.remaining > 0 {
		t.remaining--
		if t.remaining == 0 {
			t.loggers.Debugf("timer: %s complete", t.phase)
			t.startAlertLocked()
		}
		return nil
	}
	t.phase = helpers.IfElse(t.phase == Session, Break, Session)
	t.remaining = helpers.IfElse(t.phase == Session, t.sessionLength, t.breakLength) * 60
	t.loggers.Debugf("timer: switched to %s (%d seconds)", t.phase, t.remaining)
	return nil
}

func (t *Timer) startTickerLocked() {
	t.stopTickerLocked()
	gen := t.generation
	t.ticker = t.clock.Every(t.tickInterval, func() { t.onTick(gen) })
}

// stopTickerLocked also invalidates any tick callback that is already in flight.
func (t *Timer) stopTickerLocked() {
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
	t.generation++
}

func (t *Timer) onTick(gen uint64) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if gen != t.generation {
		return
	}
	t.fireLocked(triggerTick)
}

// alertClockFor returns the clock the alert plays on. The clip is audio, so it plays in real time
// even when the countdown is accelerated.
func alertClockFor(c clock.Clock) clock.Clock {
	if _, accelerated := clock.IsAccelerated(c); accelerated {
		return clock.Real()
	}
	return c
}

func (t *Timer) startAlertLocked() {
	t.alertPlaying = true
	t.alertClock = alertClockFor(t.clock)
	t.alertStarted = t.alertClock.Now()
	t.scheduleAlertEndLocked(t.clipLength)
}

// moveAlertLocked carries a playing alert over to the current clock with only the remaining part
// of the clip left to play.
func (t *Timer) moveAlertLocked() {
	next := alertClockFor(t.clock)
	if next == t.alertClock {
		return
	}
	remaining := t.clipLength - t.alertClock.Now().Sub(t.alertStarted)
	if remaining <= 0 {
		t.stopAlertLocked()
		t.publishLocked()
		return
	}
	t.alertClock = next
	t.alertStarted = next.Now().Add(remaining - t.clipLength)
	t.scheduleAlertEndLocked(remaining)
}

func (t *Timer) scheduleAlertEndLocked(d time.Duration) {
	if t.alertTicker != nil {
		t.alertTicker.Stop()
	}
	t.alertGen++
	gen := t.alertGen
	t.alertTicker = t.alertClock.Every(d, func() { t.onAlertEnd(gen) })
}

func (t *Timer) stopAlertLocked() {
	if t.alertTicker != nil {
		t.alertTicker.Stop()
		t.alertTicker = nil
	}
	t.alertGen++
	t.alertPlaying = false
	t.alertClock = nil
}

func (t *Timer) onAlertEnd(gen uint64) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if gen != t.alertGen || t.closed {
		return
	}
	t.stopAlertLocked()
	t.publishLocked()
}

func (t *Timer) valuesLocked() map[string]string {
	state := Idle
	if t.machine != nil {
		state = t.machine.MustState().(Status)
	}
	timeLeft := strconv.Itoa(t.sessionLength)
	if state != Idle {
		timeLeft = FormatTimeLeft(t.remaining)
	}
	return map[string]string{
		BreakLabel:    "Break Length",
		SessionLabel:  "Session Length",
		BreakLength:   strconv.Itoa(t.breakLength),
		SessionLength: strconv.Itoa(t.sessionLength),
		CurrentTimer:  string(t.phase),
		TimeLeft:      timeLeft,
		Beep:          helpers.IfElse(t.alertPlaying, BeepPlaying, BeepPaused),
	}
}

func (t *Timer) publishLocked() {
	values := t.valuesLocked()
	if sameValues(values, t.lastPublished) {
		return
	}
	t.lastPublished = values
	t.broadcaster.Publish(values)
}

// FormatTimeLeft renders a number of seconds as mm:ss.
func FormatTimeLeft(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func clamp(value, lower, upper int) int {
	if value < lower {
		return lower
	}
	if value > upper {
		return upper
	}
	return value
}

func sameValues(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
