package widgettests

import (
	"regexp"
	"strconv"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/widgetharness/widget-test-harness/framework/ctest"
	"github.com/widgetharness/widget-test-harness/surface"
)

var (
	// A time-left value may be a bare minute count while idle, or minutes and seconds with any of
	// several separators.
	minutesPattern = regexp.MustCompile(`^(\d{1,4})([\.:,\/]\d{2}.*)?$`) //nolint:gochecknoglobals
	secondsPattern = regexp.MustCompile(`^\d{1,4}:(\d{2})`)             //nolint:gochecknoglobals
)

// parseMinutes returns the minutes part of a time-left value.
func parseMinutes(timeLeft string) (int, bool) {
	match := minutesPattern.FindStringSubmatch(timeLeft)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	return n, err == nil
}

// parseSeconds returns the seconds part of a running time-left value.
func parseSeconds(timeLeft string) (int, bool) {
	match := secondsPattern.FindStringSubmatch(timeLeft)
	if match == nil {
		return 0, false
	}
	n, err := strconv.Atoi(match[1])
	return n, err == nil
}

// totalSeconds converts a running time-left value to seconds.
func totalSeconds(timeLeft string) (int, bool) {
	minutes, ok := parseMinutes(timeLeft)
	if !ok {
		return 0, false
	}
	seconds, ok := parseSeconds(timeLeft)
	if !ok {
		return 0, false
	}
	return minutes*60 + seconds, true
}

func requireTotalSeconds(t *ctest.T, timeLeft string) int {
	t.Helper()
	n, ok := totalSeconds(timeLeft)
	require.True(t, ok, "time-left %q is not in mm:ss format", timeLeft)
	return n
}

func requireMinutes(t *ctest.T, timeLeft string) int {
	t.Helper()
	n, ok := parseMinutes(timeLeft)
	require.True(t, ok, "could not find a minute count in time-left %q", timeLeft)
	return n
}

func requireRead(t *ctest.T, s surface.Surface, id string) string {
	t.Helper()
	value, err := s.Read(id)
	require.NoError(t, err)
	return value
}

func requireActivate(t *ctest.T, s surface.Surface, ids ...string) {
	t.Helper()
	require.NoError(t, surface.DriveSequence(s, ids...))
}

func repeated(id string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = id
	}
	return ids
}

// sleep waits for d unless the test scope ends first.
func sleep(t *ctest.T, d time.Duration) {
	select {
	case <-time.After(d):
	case <-t.Ctx().Done():
	}
}
