package data

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/widgetharness/widget-test-harness/data/testmodel"
	"github.com/widgetharness/widget-test-harness/framework/ctest"
)

func TestFileEmbedding(t *testing.T) {
	_, err := dataFilesRoot.ReadFile("data-files/README.md")
	assert.NoError(t, err)

	for _, dir := range []string{"calculator", "timer"} {
		files, err := dataFilesRoot.ReadDir("data-files/" + dir)
		assert.NoError(t, err)
		assert.NotEqual(t, 0, len(files))
	}
}

func TestLoadDataFileMissing(t *testing.T) {
	_, err := LoadDataFile("calculator/nonexistent.yaml")
	assert.Error(t, err)
}

func TestCalculatorScenarios(t *testing.T) {
	sources, err := LoadAllDataFiles("calculator")
	require.NoError(t, err)
	scenarios, err := ParseAll[testmodel.CalculatorScenario](sources)
	require.NoError(t, err)

	byName := make(map[string]testmodel.CalculatorScenario)
	for _, s := range scenarios {
		require.NoError(t, s.Validate())
		byName[s.Name] = s
	}
	assert.Len(t, byName, len(scenarios), "scenario names should be unique")

	chain := byName["chain of operations uses precedence"]
	assert.Equal(t, []string{"three", "add", "five", "multiply", "six", "subtract", "two", "divide", "four", "equals"},
		chain.Keys)
	assert.Equal(t, "32.5", chain.Expect.Display.Value())
	assert.False(t, chain.Expect.DisplayPattern.IsDefined())

	precision := byName["division has at least four decimal places of precision"]
	assert.Equal(t, `0?\.2857\d*`, precision.Expect.DisplayPattern.Value())

	zeros := byName["number cannot begin with multiple zeros"]
	assert.Equal(t, "0", zeros.Expect.Display.Value())
}

func TestTimerScenariosExpandConstants(t *testing.T) {
	sources, err := LoadDataFile("timer/adjustments.yaml")
	require.NoError(t, err)
	require.Len(t, sources, 12)
	assert.Equal(t, "adjustments.yaml", sources[0].BaseName)
	assert.Equal(t, ldvalue.String("break-decrement"), sources[0].Params["CONTROL"])

	scenarios, err := ParseAll[testmodel.TimerAdjustmentScenario](sources)
	require.NoError(t, err)
	last := scenarios[len(scenarios)-1]
	assert.Equal(t, "session length cannot go above 60", last.Name)
	assert.Equal(t, "session-increment", last.Control)
	assert.Equal(t, 40, last.Presses)
	assert.Equal(t, "60", last.Expect)
	assert.Len(t, last.Sequence(), 40)
}

func TestParamsString(t *testing.T) {
	s := SourceInfo{Params: map[string]ldvalue.Value{"B": ldvalue.Int(2), "A": ldvalue.String("x")}}
	assert.Equal(t, `(A=x,B=2)`, s.ParamsString())
	assert.Equal(t, "", SourceInfo{}.ParamsString())

	mixed := SourceInfo{Params: map[string]ldvalue.Value{
		"CONTROL": ldvalue.String("reset"),
		"PRESSES": ldvalue.Int(2),
		"STRICT":  ldvalue.Bool(true),
		"KEYS":    ldvalue.ArrayOf(ldvalue.String("one")),
	}}
	assert.Equal(t, `(CONTROL=reset,KEYS=["one"],PRESSES=2,STRICT=true)`, mixed.ParamsString())
}

func TestLoadAndParseAllInTestScope(t *testing.T) {
	var scenarios []testmodel.TimerAdjustmentScenario
	results := ctest.Run(ctest.TestConfiguration{}, func(t *ctest.T) {
		scenarios = LoadAndParseAll[testmodel.TimerAdjustmentScenario](t, "timer")
	})
	assert.True(t, results.OK())
	assert.Len(t, scenarios, 12)

	results = ctest.Run(ctest.TestConfiguration{}, func(t *ctest.T) {
		LoadAndParseAll[testmodel.TimerAdjustmentScenario](t, "no-such-dir")
	})
	assert.False(t, results.OK())
}
