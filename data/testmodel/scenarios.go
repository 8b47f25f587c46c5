// Package testmodel contains the types that scenario data files are parsed into.
package testmodel

import (
	"fmt"
	"regexp"

	o "github.com/widgetharness/widget-test-harness/framework/opt"
)

// CalculatorScenario is a key sequence pressed on a freshly cleared calculator, and what the
// calculator should show afterward.
type CalculatorScenario struct {
	Name   string                `json:"name"`
	Keys   []string              `json:"keys"`
	Expect CalculatorExpectation `json:"expect"`
}

func (s CalculatorScenario) GetName() string { return s.Name }

// CalculatorExpectation lists the observable values to check. Unset fields are not checked.
type CalculatorExpectation struct {
	Display        o.Maybe[string] `json:"display,omitempty"`
	DisplayPattern o.Maybe[string] `json:"displayPattern,omitempty"`
	Formula        o.Maybe[string] `json:"formula,omitempty"`
}

// Validate checks that the scenario is usable: it must press something and check something, and
// any pattern must compile.
func (s CalculatorScenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("calculator scenario has no name")
	}
	if len(s.Keys) == 0 {
		return fmt.Errorf("calculator scenario %q has no keys", s.Name)
	}
	e := s.Expect
	if !e.Display.IsDefined() && !e.DisplayPattern.IsDefined() && !e.Formula.IsDefined() {
		return fmt.Errorf("calculator scenario %q has no expectations", s.Name)
	}
	if pattern, ok := e.DisplayPattern.Get(); ok {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("calculator scenario %q: %w", s.Name, err)
		}
	}
	return nil
}

// TimerAdjustmentScenario presses one timer control repeatedly while the timer is idle and checks
// the resulting value of an observable.
type TimerAdjustmentScenario struct {
	Name       string `json:"name"`
	Control    string `json:"control"`
	Presses    int    `json:"presses"`
	Observable string `json:"observable"`
	Expect     string `json:"expect"`
}

func (s TimerAdjustmentScenario) GetName() string { return s.Name }

// Sequence returns the control ID repeated Presses times.
func (s TimerAdjustmentScenario) Sequence() []string {
	ids := make([]string, s.Presses)
	for i := range ids {
		ids[i] = s.Control
	}
	return ids
}
