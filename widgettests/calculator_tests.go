package widgettests

import (
	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/widgetharness/widget-test-harness/data"
	"github.com/widgetharness/widget-test-harness/data/testmodel"
	"github.com/widgetharness/widget-test-harness/framework/ctest"
	"github.com/widgetharness/widget-test-harness/servicedef"
	"github.com/widgetharness/widget-test-harness/surface"
)

const (
	calculatorEquals   = "equals"
	calculatorAdd      = "add"
	calculatorSubtract = "subtract"
	calculatorMultiply = "multiply"
	calculatorDivide   = "divide"
	calculatorDecimal  = "decimal"
	calculatorClear    = "clear"
	calculatorDisplay  = "display"
	calculatorFormula  = "formula"

	calculatorScenariosDir = "calculator"
)

var calculatorDigits = []string{ //nolint:gochecknoglobals
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
}

func doCalculatorTests(t *ctest.T) {
	t.Run("elements", doCalculatorElementTests)
	t.Run("scenarios", doCalculatorScenarioTests)
}

func newCalculator(t *ctest.T) *WidgetClient {
	return NewWidgetClient(t, servicedef.WidgetCalculator)
}

func doCalculatorElementTests(t *ctest.T) {
	calculator := newCalculator(t)

	assertAllPresent := func(t *ctest.T, ids ...string) {
		for _, id := range ids {
			assert.NoError(t, surface.AssertElementPresent(calculator, id))
		}
	}

	t.Run("equals", func(t *ctest.T) { assertAllPresent(t, calculatorEquals) })
	t.Run("digits", func(t *ctest.T) { assertAllPresent(t, calculatorDigits...) })
	t.Run("operators", func(t *ctest.T) {
		assertAllPresent(t, calculatorAdd, calculatorSubtract, calculatorMultiply, calculatorDivide)
	})
	t.Run("decimal", func(t *ctest.T) { assertAllPresent(t, calculatorDecimal) })
	t.Run("clear", func(t *ctest.T) { assertAllPresent(t, calculatorClear) })
	t.Run("display", func(t *ctest.T) { assertAllPresent(t, calculatorDisplay) })
}

// Every scenario starts from a freshly cleared calculator.
func doCalculatorScenarioTests(t *ctest.T) {
	scenarios := data.LoadAndParseAll[testmodel.CalculatorScenario](t, calculatorScenariosDir)
	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *ctest.T) {
			require.NoError(t, scenario.Validate())
			calculator := newCalculator(t)
			if scenario.Expect.Formula.IsDefined() {
				if err := surface.AssertElementPresent(calculator, calculatorFormula); err != nil {
					t.SkipWithReason("calculator has no formula display")
				}
			}

			requireActivate(t, calculator, calculatorClear)
			requireActivate(t, calculator, scenario.Keys...)

			if display, ok := scenario.Expect.Display.Get(); ok {
				assert.NoError(t, surface.AssertImmediateEquals(calculator, calculatorDisplay, display))
			}
			if pattern, ok := scenario.Expect.DisplayPattern.Get(); ok {
				m.In(t).Assert(requireRead(t, calculator, calculatorDisplay), StringMatchesPattern(pattern))
			}
			if formula, ok := scenario.Expect.Formula.Get(); ok {
				assert.NoError(t, surface.AssertImmediateEquals(calculator, calculatorFormula, formula))
			}
		})
	}
}
