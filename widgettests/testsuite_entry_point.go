package widgettests

import (
	"errors"
	"io"

	"github.com/widgetharness/widget-test-harness/framework"
	"github.com/widgetharness/widget-test-harness/framework/ctest"
	"github.com/widgetharness/widget-test-harness/framework/harness"
	"github.com/widgetharness/widget-test-harness/framework/helpers"
	"github.com/widgetharness/widget-test-harness/servicedef"
)

type widgetSuite struct {
	capability string
	name       string
	run        func(*ctest.T)
}

func allWidgetSuites() []widgetSuite {
	return []widgetSuite{
		{servicedef.CapabilityTimer, "timer", doTimerTests},
		{servicedef.CapabilityCalculator, "calculator", doCalculatorTests},
		{servicedef.CapabilityQuoteMachine, "quote machine", doQuoteMachineTests},
	}
}

// RunWidgetTestSuite runs the suite for every widget kind the test service supports. Progress
// messages are written to output.
func RunWidgetTestSuite(
	harness *harness.TestHarness,
	filters ctest.RegexFilters,
	testLogger ctest.TestLogger,
	output io.Writer,
) ctest.Results {
	capabilities := harness.TestServiceInfo().Capabilities

	var suites []widgetSuite
	for _, s := range allWidgetSuites() {
		if capabilities.Has(s.capability) {
			helpers.MustFprintf(output, "Running %s test suite\n", s.name)
			suites = append(suites, s)
		}
	}
	if len(suites) == 0 {
		return ctest.Results{
			Failures: []ctest.TestResult{
				{
					Errors: []error{
						errors.New(`test service has none of the "timer", "calculator", or "quote-machine" capabilities`),
					},
				},
			},
		}
	}

	helpers.MustFprintln(output)
	filters.Describe(output, capabilities.Missing(importantCapabilities(suites)...))

	config := ctest.TestConfiguration{
		Filter:       filters.Match,
		Capabilities: capabilities,
		TestLogger:   testLogger,
	}.WithContext(WidgetTestContext{harness: harness})

	return ctest.Run(config, func(t *ctest.T) {
		for _, s := range suites {
			t.Run(s.name, s.run)
		}
	})
}

// Without these a service still runs, but the tests that depend on them are skipped.
func importantCapabilities(suites []widgetSuite) framework.Capabilities {
	ret := framework.Capabilities{servicedef.CapabilityStateStream}
	for _, s := range suites {
		if s.capability == servicedef.CapabilityTimer {
			ret = append(ret, servicedef.CapabilityAcceleratedClock)
		}
	}
	return ret
}
