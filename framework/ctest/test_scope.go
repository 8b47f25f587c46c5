package ctest

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/widgetharness/widget-test-harness/clock"
	"github.com/widgetharness/widget-test-harness/framework"
)

type environment struct {
	config  TestConfiguration
	results Results
}

// T is a test scope. It satisfies assert.TestingT and require.TestingT, so testify assertions can
// report failures into it.
type T struct {
	env         *environment
	id          TestID
	ctx         context.Context
	cancel      context.CancelFunc
	appContext  interface{}
	debugLogger *framework.CapturingLogger
	nonCritical string
	failed      bool
	skipped     bool
	skipReason  string
	cleanups    []func()
	errors      []error
	helperFns   []string
}

// TestConfiguration contains options for the entire test run.
type TestConfiguration struct {
	// Filter decides which tests run, by name. Nil runs everything.
	Filter Filter

	// TestLogger receives status information about each test.
	TestLogger TestLogger

	// Context is an application-defined value that tests can retrieve with T.Context. The suites
	// use it to carry the harness connection.
	Context interface{}

	// Capabilities is consulted by T.RequireCapability.
	Capabilities framework.Capabilities

	// Clock measures test durations and stamps debug output. Nil means the real clock.
	Clock clock.Clock
}

func (c TestConfiguration) WithContext(context interface{}) TestConfiguration {
	c.Context = context
	return c
}

// Run starts a top-level test scope and returns once it and all its subtests have finished.
func Run(config TestConfiguration, action func(*T)) Results {
	if config.TestLogger == nil {
		config.TestLogger = nullTestLogger{}
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	env := &environment{config: config}
	t := newScope(env, nil, context.Background())
	t.appContext = config.Context
	t.run(action)
	return env.results
}

func newScope(env *environment, id TestID, parent context.Context) *T {
	ctx, cancel := context.WithCancel(parent)
	return &T{
		env:         env,
		id:          id,
		ctx:         ctx,
		cancel:      cancel,
		debugLogger: &framework.CapturingLogger{Clock: env.config.Clock},
	}
}

func (t *T) run(action func(*T)) (result TestResult) {
	result.TestID = t.id
	started := t.env.config.Clock.Now()
	defer func() {
		if r := recover(); r != nil && !t.skipped {
			t.failed = true
			var addError error
			if _, ok := r.(*T); ok {
				if len(t.errors) == 0 {
					addError = errors.New("test failed with no failure message")
				}
			} else {
				addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
			}
			if addError != nil {
				t.errors = append(t.errors, addError)
				t.env.config.TestLogger.TestError(t.id, addError)
			}
		}
		for i := len(t.cleanups) - 1; i >= 0; i-- {
			t.runCleanup(t.cleanups[i])
		}
		t.cancel()
		if t.skipped {
			t.env.results.Skipped = append(t.env.results.Skipped, t.id)
			return
		}
		result.Errors = t.errors
		result.Duration = t.env.config.Clock.Now().Sub(started)
		if t.failed {
			if t.nonCritical == "" {
				t.env.results.Failures = append(t.env.results.Failures, result)
			} else {
				result.NonCritical = true
				result.Explanation = t.nonCritical
				t.env.results.NonCriticalFailures = append(t.env.results.NonCriticalFailures, result)
			}
		}
		t.env.results.Tests = append(t.env.results.Tests, result)
	}()

	action(t)
	return result
}

// A cleanup that fails is reported against the scope but does not stop the other cleanups.
func (t *T) runCleanup(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*T); ok {
				return
			}
			t.failed = true
			err := fmt.Errorf("unexpected panic in cleanup: %+v", r)
			t.errors = append(t.errors, err)
			t.env.config.TestLogger.TestError(t.id, err)
		}
	}()
	fn()
}

// ID returns the full name of the current test.
func (t *T) ID() TestID {
	return t.id
}

// Run runs a subtest in its own scope. A failure or panic in the subtest does not stop the
// caller; the next subtest still runs.
func (t *T) Run(name string, action func(*T)) {
	id := t.id.Plus(name)

	t.env.config.TestLogger.TestStarted(id)
	if t.env.config.Filter != nil && !t.env.config.Filter(id) {
		t.env.results.Skipped = append(t.env.results.Skipped, id)
		t.env.config.TestLogger.TestSkipped(id, "excluded by filter parameters")
		return
	}
	c1 := newScope(t.env, id, t.ctx)
	c1.appContext = t.appContext
	t.debugLogger.AddChildLogger(c1.debugLogger)
	result := c1.run(action)
	t.debugLogger.RemoveChildLogger(c1.debugLogger)
	if c1.skipped {
		t.env.config.TestLogger.TestSkipped(id, c1.skipReason)
	} else {
		t.env.config.TestLogger.TestFinished(id, result, c1.debugLogger.Output())
	}
}

// NonCritical marks the test as one whose failure is reported, with the given explanation, but
// does not make the run fail.
func (t *T) NonCritical(explanation string) {
	t.nonCritical = explanation
}

// Errorf marks the test as failed and records the message without stopping the test.
func (t *T) Errorf(format string, args ...interface{}) {
	t.failed = true
	err := fmt.Errorf(format, args...)
	err = transformError(err, getStacktrace(false, t.helperFns))
	t.errors = append(t.errors, err)
	t.env.config.TestLogger.TestError(t.id, err)
}

// FailNow stops the test immediately and marks it as failed.
func (t *T) FailNow() {
	t.failed = true
	panic(t)
}

// Skip stops the test immediately and marks it as skipped.
func (t *T) Skip() {
	t.skipped = true
	panic(t)
}

// SkipWithReason is equivalent to Skip but provides a message.
func (t *T) SkipWithReason(reason string) {
	t.skipReason = reason
	t.Skip()
}

// Debug writes a message to the output for this test scope.
func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

// DebugLogger returns the Logger whose output is attached to this test's result. Output sent to a
// parent scope's logger while a subtest is running goes to the subtest.
func (t *T) DebugLogger() framework.Logger {
	return t.debugLogger
}

// Defer schedules fn to run when this scope exits for any reason. Deferred functions run in
// reverse order, before the scope's result is reported.
func (t *T) Defer(fn func()) {
	t.cleanups = append(t.cleanups, fn)
}

// Ctx returns a context that is cancelled when this scope exits.
func (t *T) Ctx() context.Context {
	return t.ctx
}

// Clock returns the clock the run was configured with.
func (t *T) Clock() clock.Clock {
	return t.env.config.Clock
}

// Context returns the application-defined value from TestConfiguration, or the one set for
// this scope with SetContext.
func (t *T) Context() interface{} {
	return t.appContext
}

// SetContext replaces the application-defined value for this scope and any subtests started
// from it afterward.
func (t *T) SetContext(context interface{}) {
	t.appContext = context
}

// Capabilities returns the capabilities reported by the test service.
func (t *T) Capabilities() framework.Capabilities {
	return append(framework.Capabilities(nil), t.env.config.Capabilities...)
}

// RequireCapability skips the test unless the test service reported the capability.
func (t *T) RequireCapability(name string) {
	if !t.Capabilities().Has(name) {
		t.SkipWithReason(fmt.Sprintf("test service does not have capability %q", name))
	}
}

// Helper marks the calling function as a test helper that is left out of failure stacktraces.
func (t *T) Helper() {
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return
	}
	if f := runtime.FuncForPC(pc); f != nil {
		t.helperFns = append(t.helperFns, f.Name())
	}
}
