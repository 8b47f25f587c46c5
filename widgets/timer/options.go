package timer

import (
	"errors"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/widgetharness/widget-test-harness/clock"
	"github.com/widgetharness/widget-test-harness/framework/helpers"
)

// Option is a configuration option for New.
type Option helpers.ConfigOption[Timer]

type optionClock struct{ c clock.Clock }

func (o optionClock) Configure(t *Timer) error {
	if o.c == nil {
		return errors.New("clock must not be nil")
	}
	t.clock = o.c
	return nil
}

// WithClock sets the clock that drives the countdown. The default is clock.Real().
func WithClock(c clock.Clock) Option { return optionClock{c} }

type optionTickInterval time.Duration

func (o optionTickInterval) Configure(t *Timer) error {
	if o <= 0 {
		return errors.New("tick interval must be positive")
	}
	t.tickInterval = time.Duration(o)
	return nil
}

// WithTickInterval sets how often the countdown decrements by one second. The default is one
// second; an accelerated clock ignores it.
func WithTickInterval(d time.Duration) Option { return optionTickInterval(d) }

type optionClipLength time.Duration

func (o optionClipLength) Configure(t *Timer) error {
	if o <= 0 {
		return errors.New("clip length must be positive")
	}
	t.clipLength = time.Duration(o)
	return nil
}

// WithClipLength sets how long the alert plays after each zero-crossing.
func WithClipLength(d time.Duration) Option { return optionClipLength(d) }

type optionLoggers struct{ loggers ldlog.Loggers }

func (o optionLoggers) Configure(t *Timer) error {
	t.loggers = o.loggers
	return nil
}

// WithLoggers sets the loggers used for phase-change debug output.
func WithLoggers(loggers ldlog.Loggers) Option { return optionLoggers{loggers} }
