package widgettests

import (
	"github.com/widgetharness/widget-test-harness/framework/ctest"
	"github.com/widgetharness/widget-test-harness/framework/harness"
)

// WidgetTestContext is the application context carried by every test scope in a suite run.
type WidgetTestContext struct {
	harness *harness.TestHarness
}

func requireContext(t *ctest.T) WidgetTestContext {
	if c, ok := t.Context().(WidgetTestContext); ok {
		return c
	}
	panic("WidgetTestContext was not included in the global test configuration!" +
		" This is a basic mistake in the initialization logic.")
}
