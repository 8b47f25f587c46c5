package ctest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/widgetharness/widget-test-harness/framework"
	"github.com/widgetharness/widget-test-harness/serviceinfo"
)

func makeJUnitLogger(path string) *JUnitTestLogger {
	info := serviceinfo.TestServiceInfo{
		TestServiceInfoBase: serviceinfo.TestServiceInfoBase{Name: "go-widgets"},
		FullData:            []byte(`{"name":"go-widgets"}`),
	}
	var filters RegexFilters
	_ = filters.MustNotMatch.Set("quote")
	return NewJUnitTestLogger(path, info, filters)
}

func logSampleRun(j *JUnitTestLogger) {
	logged := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	failure := errors.New("time-left: expected 24:58, got 24:57")

	j.TestStarted(TestID{"timer"})
	j.TestStarted(TestID{"timer", "defaults"})
	j.TestFinished(TestID{"timer", "defaults"}, TestResult{Duration: 1500 * time.Millisecond}, nil)
	j.TestStarted(TestID{"timer", "pause"})
	j.TestError(TestID{"timer", "pause"}, failure)
	j.TestFinished(TestID{"timer", "pause"}, TestResult{Errors: []error{failure}, Duration: 2 * time.Second},
		framework.CapturedOutput{{Time: logged, Message: "activated start_stop"}})
	j.TestFinished(TestID{"timer"}, TestResult{Duration: 3500 * time.Millisecond}, nil)
	j.TestStarted(TestID{"calculator"})
	j.TestSkipped(TestID{"calculator"}, "test service does not have capability calculator")
}

func TestJUnitReport(t *testing.T) {
	j := makeJUnitLogger("")
	logSampleRun(j)

	data, err := j.Render()
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "junit_report", data)
}

func TestJUnitEndLogWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.xml")
	j := makeJUnitLogger(path)
	logSampleRun(j)

	require.NoError(t, j.EndLog(Results{}))
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	expected, err := j.Render()
	require.NoError(t, err)
	assert.Equal(t, string(expected), string(written))
}

func TestJUnitEndLogReportsWriteError(t *testing.T) {
	j := makeJUnitLogger(filepath.Join(t.TempDir(), "missing-dir", "results.xml"))
	assert.Error(t, j.EndLog(Results{}))
}
