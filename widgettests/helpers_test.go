package widgettests

import (
	"testing"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"

	"github.com/widgetharness/widget-test-harness/framework/helpers"
)

func TestParseMinutes(t *testing.T) {
	for input, expected := range map[string]int{
		"25":      25,
		"25:00":   25,
		"05:00":   5,
		"1:30":    1,
		"1440:00": 1440,
		"7.30":    7,
		"12/45":   12,
	} {
		t.Run(input, func(t *testing.T) {
			n, ok := parseMinutes(input)
			assert.True(t, ok)
			assert.Equal(t, expected, n)
		})
	}

	for _, input := range []string{"", "abc", "12345", "5:3", ":30"} {
		_, ok := parseMinutes(input)
		assert.False(t, ok, input)
	}
}

func TestParseSeconds(t *testing.T) {
	n, ok := parseSeconds("24:59")
	assert.True(t, ok)
	assert.Equal(t, 59, n)

	_, ok = parseSeconds("25")
	assert.False(t, ok)
	_, ok = parseSeconds("24.59")
	assert.False(t, ok)
}

func TestTotalSeconds(t *testing.T) {
	n, ok := totalSeconds("01:30")
	assert.True(t, ok)
	assert.Equal(t, 90, n)

	n, ok = totalSeconds("00:00")
	assert.True(t, ok)
	assert.Equal(t, 0, n)

	_, ok = totalSeconds("25")
	assert.False(t, ok)
}

func TestRepeated(t *testing.T) {
	assert.Equal(t, []string{"reset", "reset", "reset"}, repeated("reset", 3))
	assert.Len(t, repeated("reset", 0), 0)
}

func TestStringMatchesPattern(t *testing.T) {
	var passing helpers.TestRecorder
	m.In(&passing).Assert("0.2857142857", StringMatchesPattern(`0?\.2857\d*`))
	m.In(&passing).Assert("24:59", TimeLeftIsClockFormat())
	assert.Len(t, passing.Errors, 0)

	var failing helpers.TestRecorder
	m.In(&failing).Assert("0.28", StringMatchesPattern(`0?\.2857\d*`))
	m.In(&failing).Assert("25", TimeLeftIsClockFormat())
	m.In(&failing).Assert(25, TimeLeftIsClockFormat())
	assert.Len(t, failing.Errors, 3)
}
