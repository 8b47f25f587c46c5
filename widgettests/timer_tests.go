package widgettests

import (
	"strconv"
	"time"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/widgetharness/widget-test-harness/data"
	"github.com/widgetharness/widget-test-harness/data/testmodel"
	"github.com/widgetharness/widget-test-harness/framework/ctest"
	"github.com/widgetharness/widget-test-harness/framework/helpers"
	"github.com/widgetharness/widget-test-harness/servicedef"
	"github.com/widgetharness/widget-test-harness/surface"
)

const (
	timerBreakDecrement   = "break-decrement"
	timerBreakIncrement   = "break-increment"
	timerSessionDecrement = "session-decrement"
	timerSessionIncrement = "session-increment"
	timerStartStop        = "start_stop"
	timerReset            = "reset"
	timerBreakLabel       = "break-label"
	timerSessionLabel     = "session-label"
	timerBreakLength      = "break-length"
	timerSessionLength    = "session-length"
	timerCurrentTimer     = "current-timer"
	timerTimeLeft         = "time-left"
	timerBeep             = "beep"

	beepPlaying  = "playing"
	phaseSession = "Session"
	phaseBreak   = "Break"
	zeroTimeLeft = "00:00"

	// Pressing a decrement this many times takes any length down to the minimum.
	pressesToMinimum = 60
)

const (
	tickWindow          = 1500 * time.Millisecond
	pauseWindow         = 1500 * time.Millisecond
	phaseChangeTimeout  = 5 * time.Second
	fullCycleTimeout    = 10 * time.Second
	beepCheckDelay      = 200 * time.Millisecond
	lockedCheckWindow   = 500 * time.Millisecond
	timerAdjustmentsDir = "timer"
)

func doTimerTests(t *ctest.T) {
	t.Run("elements", doTimerElementTests)
	t.Run("defaults", doTimerDefaultTests)
	t.Run("adjustments", doTimerAdjustmentTests)
	t.Run("countdown", doTimerCountdownTests)
	t.Run("phase changes", doTimerPhaseChangeTests)
	t.Run("controls locked while running", doTimerLockedControlsTest)
	t.Run("reset", doTimerResetTests)
}

func newTimer(t *ctest.T) *WidgetClient {
	return NewWidgetClient(t, servicedef.WidgetTimer)
}

func doTimerElementTests(t *ctest.T) {
	timer := newTimer(t)

	t.Run("break label", func(t *ctest.T) {
		assert.NoError(t, surface.AssertImmediateEquals(timer, timerBreakLabel, "Break Length"))
	})
	t.Run("session label", func(t *ctest.T) {
		assert.NoError(t, surface.AssertImmediateEquals(timer, timerSessionLabel, "Session Length"))
	})
	t.Run("decrement controls", func(t *ctest.T) {
		assert.NoError(t, surface.AssertElementPresent(timer, timerBreakDecrement))
		assert.NoError(t, surface.AssertElementPresent(timer, timerSessionDecrement))
	})
	t.Run("increment controls", func(t *ctest.T) {
		assert.NoError(t, surface.AssertElementPresent(timer, timerBreakIncrement))
		assert.NoError(t, surface.AssertElementPresent(timer, timerSessionIncrement))
	})
	for _, id := range []string{timerTimeLeft, timerStartStop, timerReset, timerBeep} {
		t.Run(id, func(t *ctest.T) {
			assert.NoError(t, surface.AssertElementPresent(timer, id))
		})
	}
}

func doTimerDefaultTests(t *ctest.T) {
	timer := newTimer(t)

	t.Run("break length is 5", func(t *ctest.T) {
		assert.NoError(t, surface.AssertImmediateEquals(timer, timerBreakLength, "5"))
	})
	t.Run("session length is 25", func(t *ctest.T) {
		assert.NoError(t, surface.AssertImmediateEquals(timer, timerSessionLength, "25"))
	})
	t.Run("current timer is Session", func(t *ctest.T) {
		assert.NoError(t, surface.AssertImmediateEquals(timer, timerCurrentTimer, phaseSession))
	})
}

func doTimerAdjustmentTests(t *ctest.T) {
	scenarios := data.LoadAndParseAll[testmodel.TimerAdjustmentScenario](t, timerAdjustmentsDir)
	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *ctest.T) {
			timer := newTimer(t)
			requireActivate(t, timer, scenario.Sequence()...)
			assert.NoError(t, surface.AssertImmediateEquals(timer, scenario.Observable, scenario.Expect))
		})
	}
}

func doTimerCountdownTests(t *ctest.T) {
	t.Run("starts from session length", func(t *ctest.T) {
		for _, presses := range []int{0, 2} {
			t.Run("after "+strconv.Itoa(presses)+" increments", func(t *ctest.T) {
				timer := newTimer(t)
				requireActivate(t, timer, repeated(timerSessionIncrement, presses)...)
				requireActivate(t, timer, timerStartStop)
				minutes := requireMinutes(t, requireRead(t, timer, timerTimeLeft))
				sessionLength := requireRead(t, timer, timerSessionLength)
				assert.Equal(t, sessionLength, strconv.Itoa(minutes))
			})
		}
	})

	t.Run("time left decrements while running", func(t *ctest.T) {
		t.RequireCapability(servicedef.CapabilityStateStream)
		timer := newTimer(t)
		requireActivate(t, timer, timerStartStop)
		before := requireRead(t, timer, timerTimeLeft)
		after := awaitTimeLeftChange(t, timer, before)
		m.In(t).Assert(after, TimeLeftIsClockFormat())
		assert.Less(t, requireTotalSeconds(t, after), requireTotalSeconds(t, before))
	})

	t.Run("start_stop pauses a running countdown", func(t *ctest.T) {
		t.RequireCapability(servicedef.CapabilityStateStream)
		timer := newTimer(t)
		requireActivate(t, timer, timerStartStop)
		awaitTimeLeftChange(t, timer, requireRead(t, timer, timerTimeLeft))
		requireActivate(t, timer, timerStartStop)
		assert.NoError(t, surface.AwaitStable(t.Ctx(), timer, timerTimeLeft, pauseWindow))
	})

	t.Run("start_stop resumes a paused countdown", func(t *ctest.T) {
		t.RequireCapability(servicedef.CapabilityStateStream)
		timer := newTimer(t)
		requireActivate(t, timer, timerStartStop)
		awaitTimeLeftChange(t, timer, requireRead(t, timer, timerTimeLeft))
		requireActivate(t, timer, timerStartStop)
		require.NoError(t, surface.AwaitStable(t.Ctx(), timer, timerTimeLeft, pauseWindow))
		paused := requireRead(t, timer, timerTimeLeft)
		requireActivate(t, timer, timerStartStop)
		resumed := awaitTimeLeftChange(t, timer, paused)
		assert.Less(t, requireTotalSeconds(t, resumed), requireTotalSeconds(t, paused))
	})
}

// awaitTimeLeftChange waits for the countdown to move away from the given value and returns the
// new value.
func awaitTimeLeftChange(t *ctest.T, timer *WidgetClient, from string) string {
	t.Helper()
	value, err := surface.AwaitCondition(t.Ctx(), timer, timerTimeLeft, surface.NotEquals(from), tickWindow)
	require.NoError(t, err, "timer is running but time-left is not changing")
	return value
}

// startShortCountdown sets the session length, and optionally the break length, to the minimum,
// switches to the accelerated clock, and starts the timer.
func startShortCountdown(t *ctest.T, shortBreak bool) *WidgetClient {
	t.RequireCapability(servicedef.CapabilityStateStream)
	timer := newTimer(t)
	WithAcceleratedClock(t, timer)
	requireActivate(t, timer, repeated(timerSessionDecrement, pressesToMinimum)...)
	if shortBreak {
		requireActivate(t, timer, repeated(timerBreakDecrement, pressesToMinimum)...)
	}
	requireActivate(t, timer, timerStartStop)
	return timer
}

// Each zero-crossing is seen as time-left showing 00:00 followed by the first value that is not
// 00:00, which is the start of the next phase.
func zeroCrossingSteps(count int) []surface.Step {
	var steps []surface.Step
	for i := 0; i < count; i++ {
		steps = append(steps,
			surface.ValueStep(timerTimeLeft, "time-left reaches "+zeroTimeLeft, surface.Equals(zeroTimeLeft)),
			surface.ValueStep(timerTimeLeft, "next countdown begins", surface.NotEquals(zeroTimeLeft)),
		)
	}
	return steps
}

func doTimerPhaseChangeTests(t *ctest.T) {
	t.Run("session end switches to Break", func(t *ctest.T) {
		timer := startShortCountdown(t, false)
		snaps, err := surface.AwaitSequence(t.Ctx(), timer, timerTimeLeft, zeroCrossingSteps(1), phaseChangeTimeout)
		require.NoError(t, err)
		assert.Equal(t, phaseBreak, snaps[1].Value(timerCurrentTimer),
			"timer has reached zero but didn't switch to Break time")
	})

	t.Run("break starts from break length", func(t *ctest.T) {
		timer := startShortCountdown(t, false)
		snaps, err := surface.AwaitSequence(t.Ctx(), timer, timerTimeLeft, zeroCrossingSteps(1), phaseChangeTimeout)
		require.NoError(t, err)
		started := snaps[1]
		require.Equal(t, phaseBreak, started.Value(timerCurrentTimer))
		assert.Equal(t, started.Value(timerBreakLength),
			strconv.Itoa(requireMinutes(t, started.Value(timerTimeLeft))),
			"break didn't start with the break length")
	})

	t.Run("alert plays at zero", func(t *ctest.T) {
		timer := startShortCountdown(t, false)
		_, err := surface.AwaitCondition(t.Ctx(), timer, timerTimeLeft, surface.Equals(zeroTimeLeft), phaseChangeTimeout)
		require.NoError(t, err)
		sleep(t, beepCheckDelay)
		assert.NoError(t, surface.AssertImmediateEquals(timer, timerBeep, beepPlaying),
			"timer has reached zero but the alert is not playing")
	})

	t.Run("break end switches to Session", func(t *ctest.T) {
		timer := startShortCountdown(t, true)
		snaps, err := surface.AwaitSequence(t.Ctx(), timer, timerTimeLeft, zeroCrossingSteps(2), fullCycleTimeout)
		require.NoError(t, err)
		assert.Equal(t, phaseSession, snaps[3].Value(timerCurrentTimer),
			"timer has reached zero but didn't switch back to Session time")
	})

	t.Run("session restarts from session length", func(t *ctest.T) {
		timer := startShortCountdown(t, true)
		snaps, err := surface.AwaitSequence(t.Ctx(), timer, timerTimeLeft, zeroCrossingSteps(2), fullCycleTimeout)
		require.NoError(t, err)
		started := snaps[3]
		require.Equal(t, phaseSession, started.Value(timerCurrentTimer))
		assert.Equal(t, started.Value(timerSessionLength),
			strconv.Itoa(requireMinutes(t, started.Value(timerTimeLeft))),
			"session didn't restart with the session length")
	})
}

func doTimerLockedControlsTest(t *ctest.T) {
	timer := newTimer(t)
	requireActivate(t, timer, timerStartStop)
	breakBefore := requireRead(t, timer, timerBreakLength)
	sessionBefore := requireRead(t, timer, timerSessionLength)

	for _, id := range []string{timerBreakIncrement, timerBreakDecrement, timerSessionIncrement, timerSessionDecrement} {
		requireActivate(t, timer, repeated(id, 4)...)
	}

	assert.NoError(t, surface.AssertImmediateEquals(timer, timerBreakLength, breakBefore))
	assert.NoError(t, surface.AssertImmediateEquals(timer, timerSessionLength, sessionBefore))

	lengthsChanged := func() bool {
		breakNow, breakErr := timer.Read(timerBreakLength)
		sessionNow, sessionErr := timer.Read(timerSessionLength)
		return breakErr == nil && sessionErr == nil && (breakNow != breakBefore || sessionNow != sessionBefore)
	}
	helpers.AssertNever(t, lengthsChanged, lockedCheckWindow, 100*time.Millisecond,
		"a length changed after adjustments made while the timer was running")
}

func doTimerResetTests(t *ctest.T) {
	setups := []struct {
		name  string
		setup func(*ctest.T, *WidgetClient)
	}{
		{"idle", func(*ctest.T, *WidgetClient) {}},
		{"adjusted", func(t *ctest.T, timer *WidgetClient) {
			requireActivate(t, timer, timerBreakIncrement, timerSessionDecrement, timerSessionDecrement)
		}},
		{"running", func(t *ctest.T, timer *WidgetClient) {
			requireActivate(t, timer, timerSessionIncrement, timerStartStop)
		}},
		{"paused", func(t *ctest.T, timer *WidgetClient) {
			requireActivate(t, timer, timerStartStop, timerStartStop)
		}},
		{"in break", func(t *ctest.T, timer *WidgetClient) {
			t.RequireCapability(servicedef.CapabilityStateStream)
			WithAcceleratedClock(t, timer)
			requireActivate(t, timer, repeated(timerSessionDecrement, pressesToMinimum)...)
			requireActivate(t, timer, timerStartStop)
			_, err := surface.AwaitCondition(t.Ctx(), timer, timerCurrentTimer, surface.Equals(phaseBreak),
				phaseChangeTimeout)
			require.NoError(t, err)
		}},
	}
	for _, s := range setups {
		t.Run("from "+s.name, func(t *ctest.T) {
			timer := newTimer(t)
			s.setup(t, timer)
			requireActivate(t, timer, timerReset)
			assertTimerDefaults(t, timer)
			requireActivate(t, timer, timerReset)
			assertTimerDefaults(t, timer)
		})
	}
}

func assertTimerDefaults(t *ctest.T, timer *WidgetClient) {
	t.Helper()
	assert.NoError(t, surface.AssertImmediateEquals(timer, timerBreakLength, "5"))
	assert.NoError(t, surface.AssertImmediateEquals(timer, timerSessionLength, "25"))
	assert.NoError(t, surface.AssertImmediateEquals(timer, timerCurrentTimer, phaseSession))
	assert.NoError(t, surface.AssertImmediateEquals(timer, timerBeep, "paused"))
	assert.Equal(t, 25, requireMinutes(t, requireRead(t, timer, timerTimeLeft)))
}
