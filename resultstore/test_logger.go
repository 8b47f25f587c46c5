package resultstore

import (
	"context"
	"fmt"
	"time"

	"github.com/widgetharness/widget-test-harness/clock"
	"github.com/widgetharness/widget-test-harness/framework"
	"github.com/widgetharness/widget-test-harness/framework/ctest"
)

const saveTimeout = 10 * time.Second

// StoreTestLogger is a ctest.TestLogger that saves a RunRecord to a Store when the run ends. The
// run's start time is when the logger was created.
type StoreTestLogger struct {
	store       Store
	serviceName string
	clock       clock.Clock
	startedAt   time.Time
	saved       RunRecord
}

// NewStoreTestLogger creates a StoreTestLogger. A nil clock means the real clock.
func NewStoreTestLogger(store Store, serviceName string, c clock.Clock) *StoreTestLogger {
	if c == nil {
		c = clock.Real()
	}
	return &StoreTestLogger{store: store, serviceName: serviceName, clock: c, startedAt: c.Now()}
}

func (l *StoreTestLogger) TestStarted(ctest.TestID)                                        {}
func (l *StoreTestLogger) TestError(ctest.TestID, error)                                   {}
func (l *StoreTestLogger) TestFinished(ctest.TestID, ctest.TestResult, framework.CapturedOutput) {}
func (l *StoreTestLogger) TestSkipped(ctest.TestID, string)                                {}

func (l *StoreTestLogger) EndLog(results ctest.Results) error {
	rec := NewRunRecord(l.serviceName, results, l.startedAt, l.clock.Now())
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := l.store.SaveRun(ctx, rec); err != nil {
		return fmt.Errorf("could not save results: %w", err)
	}
	l.saved = rec
	return nil
}

// Saved returns the record written by EndLog, or a zero RunRecord if nothing was saved.
func (l *StoreTestLogger) Saved() RunRecord {
	return l.saved
}
