package timer

import (
	"github.com/widgetharness/widget-test-harness/framework/helpers"
	"github.com/widgetharness/widget-test-harness/surface"
)

var _ surface.Surface = (*Timer)(nil)

func (t *Timer) Elements() []string {
	return append(append([]string(nil), Controls...), Observables...)
}

func (t *Timer) Activate(id string) error {
	switch id {
	case BreakDecrement:
		t.DecrementBreak()
	case BreakIncrement:
		t.IncrementBreak()
	case SessionDecrement:
		t.DecrementSession()
	case SessionIncrement:
		t.IncrementSession()
	case StartStop:
		t.StartStop()
	case Reset:
		t.Reset()
	default:
		if !helpers.SliceContains(id, Observables) {
			return &surface.MissingElementError{ID: id}
		}
	}
	return nil
}

// Read returns the text of an observable. Controls have no text.
func (t *Timer) Read(id string) (string, error) {
	if helpers.SliceContains(id, Controls) {
		return "", nil
	}
	if v, ok := t.Snapshot().Get(id); ok {
		return v, nil
	}
	return "", &surface.MissingElementError{ID: id}
}

func (t *Timer) Subscribe() (surface.Subscription, error) {
	return t.broadcaster.Subscribe(), nil
}

// Snapshot returns the current values of all observables.
func (t *Timer) Snapshot() surface.Snapshot {
	return t.broadcaster.Latest()
}
