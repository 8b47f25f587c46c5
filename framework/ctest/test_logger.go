package ctest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/widgetharness/widget-test-harness/framework"
)

var (
	consoleTestErrorColor   = color.New(color.FgYellow)              //nolint:gochecknoglobals
	consoleTestFailedColor  = color.New(color.FgRed)                 //nolint:gochecknoglobals
	consoleTestSkippedColor = color.New(color.Faint, color.FgBlue)   //nolint:gochecknoglobals
	consoleDebugOutputColor = color.New(color.Faint)                 //nolint:gochecknoglobals
	consoleNonCriticalColor = color.New(color.FgMagenta)             //nolint:gochecknoglobals
	allTestsPassedColor     = color.New(color.FgGreen)               //nolint:gochecknoglobals
)

// TestLogger receives progress notifications during a run and a final summary at the end.
type TestLogger interface {
	TestStarted(id TestID)
	TestError(id TestID, err error)
	TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput)
	TestSkipped(id TestID, reason string)
	EndLog(results Results) error
}

type nullTestLogger struct{}

func (nullTestLogger) TestStarted(TestID)                                        {}
func (nullTestLogger) TestError(TestID, error)                                   {}
func (nullTestLogger) TestFinished(TestID, TestResult, framework.CapturedOutput) {}
func (nullTestLogger) TestSkipped(TestID, string)                                {}
func (nullTestLogger) EndLog(Results) error                                      { return nil }

// ConsoleTestLogger prints progress as it happens, in color where the terminal supports it.
type ConsoleTestLogger struct {
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool

	// Out defaults to os.Stdout. The failure summary goes to Err, which defaults to os.Stderr.
	Out io.Writer
	Err io.Writer
}

func (c ConsoleTestLogger) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c ConsoleTestLogger) err() io.Writer {
	if c.Err == nil {
		return os.Stderr
	}
	return c.Err
}

func (c ConsoleTestLogger) TestStarted(id TestID) {
	fmt.Fprintf(c.out(), "[%s]\n", id)
}

func (c ConsoleTestLogger) TestError(_ TestID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		_, _ = consoleTestErrorColor.Fprintf(c.out(), "  %s\n", line)
	}
}

func (c ConsoleTestLogger) TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput) {
	failed := result.Failed()
	if failed {
		if result.NonCritical {
			_, _ = consoleNonCriticalColor.Fprintf(c.out(), "  FAILED (non-critical): %s (%s)\n", id, result.Explanation)
		} else {
			_, _ = consoleTestFailedColor.Fprintf(c.out(), "  FAILED: %s\n", id)
		}
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		_, _ = consoleDebugOutputColor.Fprintln(c.out(), debugOutput.ToString("    DEBUG "))
	}
}

func (c ConsoleTestLogger) TestSkipped(id TestID, reason string) {
	if reason == "" {
		_, _ = consoleTestSkippedColor.Fprintf(c.out(), "  SKIPPED: %s\n", id)
	} else {
		_, _ = consoleTestSkippedColor.Fprintf(c.out(), "  SKIPPED: %s (%s)\n", id, reason)
	}
}

// EndLog prints the pass count and lists every failed test.
func (c ConsoleTestLogger) EndLog(results Results) error {
	fmt.Fprintln(c.out())
	if len(results.NonCriticalFailures) > 0 {
		_, _ = consoleNonCriticalColor.Fprintf(c.out(), "NON-CRITICAL FAILURES (%d):\n", len(results.NonCriticalFailures))
		for _, f := range results.NonCriticalFailures {
			_, _ = consoleNonCriticalColor.Fprintf(c.out(), "  * %s (%s)\n", f.TestID, f.Explanation)
		}
	}
	if results.OK() {
		_, _ = allTestsPassedColor.Fprintf(c.out(), "All tests passed (%s)\n", results.Summary())
		return nil
	}
	_, _ = consoleTestFailedColor.Fprintf(c.err(), "FAILED TESTS (%d) (%s):\n", len(results.Failures), results.Summary())
	for _, f := range results.Failures {
		_, _ = consoleTestFailedColor.Fprintf(c.err(), "  * %s\n", f.TestID)
	}
	return nil
}

// MultiTestLogger fans every notification out to each of Loggers in order.
type MultiTestLogger struct {
	Loggers []TestLogger
}

func (m *MultiTestLogger) TestStarted(id TestID) {
	for _, l := range m.Loggers {
		l.TestStarted(id)
	}
}

func (m *MultiTestLogger) TestError(id TestID, err error) {
	for _, l := range m.Loggers {
		l.TestError(id, err)
	}
}

func (m *MultiTestLogger) TestFinished(id TestID, result TestResult, debugOutput framework.CapturedOutput) {
	for _, l := range m.Loggers {
		l.TestFinished(id, result, debugOutput)
	}
}

func (m *MultiTestLogger) TestSkipped(id TestID, reason string) {
	for _, l := range m.Loggers {
		l.TestSkipped(id, reason)
	}
}

// EndLog calls EndLog on every logger even if some fail, and returns all of their errors joined.
func (m *MultiTestLogger) EndLog(results Results) error {
	var errs []error
	for _, l := range m.Loggers {
		if err := l.EndLog(results); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
