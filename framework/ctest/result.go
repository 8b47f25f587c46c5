package ctest

import (
	"fmt"
	"strings"
	"time"
)

// Results is the outcome of a whole run. Every scope that ran contributes one TestResult; skipped
// scopes are listed separately.
type Results struct {
	Tests               []TestResult
	Failures            []TestResult
	NonCriticalFailures []TestResult
	Skipped             []TestID
}

// TestResult is the outcome of one scope.
type TestResult struct {
	TestID      TestID
	Errors      []error
	Duration    time.Duration
	NonCritical bool
	Explanation string
}

// Failed returns true if the scope reported any errors.
func (r TestResult) Failed() bool {
	return len(r.Errors) != 0
}

// OK returns true if there were no critical failures.
func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Total is the number of scopes that ran, not counting the root scope or skipped scopes.
func (r Results) Total() int {
	n := 0
	for _, t := range r.Tests {
		if len(t.TestID) != 0 {
			n++
		}
	}
	return n
}

// Failed counts critical and non-critical failures.
func (r Results) Failed() int {
	return len(r.Failures) + len(r.NonCriticalFailures)
}

func (r Results) Passed() int {
	return r.Total() - r.Failed()
}

// Summary renders the pass count the same way the badge does, e.g. "Tests 24/26".
func (r Results) Summary() string {
	return fmt.Sprintf("Tests %d/%d", r.Passed(), r.Total())
}

// TestID is the path of names from the root scope to a test.
type TestID []string

func (t TestID) String() string {
	return strings.Join(t, "/")
}

// Plus returns a new TestID with name appended; the receiver is not modified.
func (t TestID) Plus(name string) TestID {
	return append(append(TestID(nil), t...), name)
}

// Suite is the top-level name of the test, or "" for the root scope.
func (t TestID) Suite() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}

// TestFailure pairs an error with the test that reported it.
type TestFailure struct {
	ID  TestID
	Err error
}

func (f TestFailure) Error() string {
	return fmt.Sprintf("[%s]: %s", f.ID, f.Err)
}

func (f TestFailure) Unwrap() error {
	return f.Err
}
