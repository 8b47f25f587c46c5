package calculator

import (
	"github.com/widgetharness/widget-test-harness/framework/helpers"
	"github.com/widgetharness/widget-test-harness/surface"
)

var _ surface.Surface = (*Calculator)(nil)

func (c *Calculator) Elements() []string {
	return append(append([]string(nil), Controls...), Observables...)
}

func (c *Calculator) Activate(id string) error {
	if c.Press(id) || helpers.SliceContains(id, Observables) {
		return nil
	}
	return &surface.MissingElementError{ID: id}
}

func (c *Calculator) Read(id string) (string, error) {
	if helpers.SliceContains(id, Controls) {
		return "", nil
	}
	if v, ok := c.Snapshot().Get(id); ok {
		return v, nil
	}
	return "", &surface.MissingElementError{ID: id}
}

func (c *Calculator) Subscribe() (surface.Subscription, error) {
	return c.broadcaster.Subscribe(), nil
}

// Snapshot returns the current values of all observables.
func (c *Calculator) Snapshot() surface.Snapshot {
	return c.broadcaster.Latest()
}
