// Package resultstore persists the outcome of each harness run so that results can be compared
// across runs of the same test service. The backend is chosen by the scheme of a DSN.
package resultstore

import (
	"time"

	"github.com/google/uuid"

	"github.com/widgetharness/widget-test-harness/framework/ctest"
)

// RunRecord is what gets saved for one run.
type RunRecord struct {
	RunID       uuid.UUID       `json:"runId"`
	ServiceName string          `json:"serviceName"`
	StartedAt   time.Time       `json:"startedAt"`
	FinishedAt  time.Time       `json:"finishedAt"`
	Passed      int             `json:"passed"`
	Failed      int             `json:"failed"`
	Skipped     int             `json:"skipped"`
	Failures    []FailureRecord `json:"failures,omitempty"`
}

// FailureRecord is one failed test. Non-critical failures are included and flagged.
type FailureRecord struct {
	TestID      string   `json:"testId"`
	Messages    []string `json:"messages"`
	NonCritical bool     `json:"nonCritical,omitempty"`
}

// NewRunRecord summarizes results under a fresh run ID.
func NewRunRecord(serviceName string, results ctest.Results, startedAt, finishedAt time.Time) RunRecord {
	rec := RunRecord{
		RunID:       uuid.New(),
		ServiceName: serviceName,
		StartedAt:   startedAt.UTC(),
		FinishedAt:  finishedAt.UTC(),
		Passed:      results.Passed(),
		Failed:      results.Failed(),
		Skipped:     len(results.Skipped),
	}
	for _, f := range append(append([]ctest.TestResult(nil), results.Failures...), results.NonCriticalFailures...) {
		messages := make([]string, 0, len(f.Errors))
		for _, err := range f.Errors {
			messages = append(messages, err.Error())
		}
		rec.Failures = append(rec.Failures, FailureRecord{
			TestID:      f.TestID.String(),
			Messages:    messages,
			NonCritical: f.NonCritical,
		})
	}
	return rec
}

// OK returns true if the run had no critical failures.
func (r RunRecord) OK() bool {
	for _, f := range r.Failures {
		if !f.NonCritical {
			return false
		}
	}
	return true
}

// Duration is how long the run took.
func (r RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
