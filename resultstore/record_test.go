package resultstore

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/widgetharness/widget-test-harness/framework/ctest"
)

var (
	runStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	runEnd   = runStart.Add(42 * time.Second)
)

func sampleResults() ctest.Results {
	pass := ctest.TestResult{TestID: ctest.TestID{"timer", "defaults"}}
	fail := ctest.TestResult{TestID: ctest.TestID{"timer", "pause"},
		Errors: []error{errors.New("time-left changed"), errors.New("second")}}
	flaky := ctest.TestResult{TestID: ctest.TestID{"quote", "new quote differs"},
		Errors: []error{errors.New("same quote")}, NonCritical: true, Explanation: "source may repeat"}
	return ctest.Results{
		Tests:               []ctest.TestResult{{}, pass, fail, flaky},
		Failures:            []ctest.TestResult{fail},
		NonCriticalFailures: []ctest.TestResult{flaky},
		Skipped:             []ctest.TestID{{"calculator"}},
	}
}

func TestNewRunRecord(t *testing.T) {
	rec := NewRunRecord("go-widgets", sampleResults(), runStart, runEnd)

	assert.NotEqual(t, uuid.Nil, rec.RunID)
	assert.Equal(t, "go-widgets", rec.ServiceName)
	assert.Equal(t, 1, rec.Passed)
	assert.Equal(t, 2, rec.Failed)
	assert.Equal(t, 1, rec.Skipped)
	assert.Equal(t, 42*time.Second, rec.Duration())
	require.Len(t, rec.Failures, 2)
	assert.Equal(t, FailureRecord{TestID: "timer/pause", Messages: []string{"time-left changed", "second"}},
		rec.Failures[0])
	assert.Equal(t, FailureRecord{TestID: "quote/new quote differs", Messages: []string{"same quote"},
		NonCritical: true}, rec.Failures[1])
	assert.False(t, rec.OK())
}

func TestRunIDsAreUnique(t *testing.T) {
	a := NewRunRecord("svc", ctest.Results{}, runStart, runEnd)
	b := NewRunRecord("svc", ctest.Results{}, runStart, runEnd)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.True(t, a.OK())
}

func TestRunRecordOKIgnoresNonCritical(t *testing.T) {
	results := sampleResults()
	results.Failures = nil
	assert.True(t, NewRunRecord("svc", results, runStart, runEnd).OK())
}
