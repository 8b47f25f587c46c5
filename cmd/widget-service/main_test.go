package main

import (
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/widgetharness/widget-test-harness/clock"
	"github.com/widgetharness/widget-test-harness/widgets/timer"
)

func TestParseLogLevel(t *testing.T) {
	for name, expected := range map[string]ldlog.LogLevel{
		"debug":   ldlog.Debug,
		"Info":    ldlog.Info,
		"WARN":    ldlog.Warn,
		" error ": ldlog.Error,
		"":        ldlog.Info,
		"verbose": ldlog.Info,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, expected, parseLogLevel(name))
		})
	}
}

func TestReadParamsDefaults(t *testing.T) {
	params, err := readParams(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultPort, params.port)
	assert.Equal(t, ldlog.Info, params.logLevel)
	assert.Nil(t, params.widgets)
	assert.Equal(t, timer.DefaultTickInterval, params.tickInterval)
	assert.Equal(t, clock.DefaultAcceleratedInterval, params.acceleratedInterval)
	assert.Equal(t, timer.DefaultClipLength, params.clipLength)
}

func TestReadParams(t *testing.T) {
	params, err := readParams([]string{
		"-port", "9001",
		"-log-level", "debug",
		"-widgets", "timer,calculator",
		"-tick-interval", "100ms",
		"-accelerated-interval", "5ms",
		"-clip-length", "2s",
	})
	require.NoError(t, err)
	assert.Equal(t, 9001, params.port)
	assert.Equal(t, ldlog.Debug, params.logLevel)
	assert.Equal(t, []string{"timer", "calculator"}, params.widgets)
	assert.Equal(t, 100*time.Millisecond, params.tickInterval)
	assert.Equal(t, 5*time.Millisecond, params.acceleratedInterval)
	assert.Equal(t, 2*time.Second, params.clipLength)
}

func TestReadParamsRejectsBadValues(t *testing.T) {
	_, err := readParams([]string{"-tick-interval", "soon"})
	assert.Error(t, err)
	_, err = readParams([]string{"-no-such-flag"})
	assert.Error(t, err)
}
