package surface

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Predicate is a condition on the text of one observable.
type Predicate func(value string) bool

// Equals returns a Predicate that matches one exact value.
func Equals(expected string) Predicate {
	return func(value string) bool { return value == expected }
}

// NotEquals returns a Predicate that matches anything except the given value.
func NotEquals(unexpected string) Predicate {
	return func(value string) bool { return value != unexpected }
}

// Step is one stage of AwaitSequence.
type Step struct {
	Description string
	Match       func(Snapshot) bool
}

// ValueStep is a Step that applies a Predicate to one observable.
func ValueStep(id, description string, p Predicate) Step {
	return Step{
		Description: description,
		Match: func(s Snapshot) bool {
			v, ok := s.Get(id)
			return ok && p(v)
		},
	}
}

// AssertElementPresent checks that the widget exposes the given control or observable.
func AssertElementPresent(s Surface, id string) error {
	for _, e := range s.Elements() {
		if e == id {
			return nil
		}
	}
	return &MissingElementError{ID: id}
}

// AssertImmediateEquals reads an observable once and compares it to the expected text.
func AssertImmediateEquals(s Surface, id, expected string) error {
	actual, err := s.Read(id)
	if err != nil {
		return err
	}
	if actual != expected {
		return &AssertionMismatchError{ID: id, Expected: expected, Actual: actual}
	}
	return nil
}

// DriveSequence activates each control in order with no delay between activations. It stops at
// the first control that cannot be activated.
func DriveSequence(s Surface, ids ...string) error {
	for i, id := range ids {
		if err := s.Activate(id); err != nil {
			return fmt.Errorf("step %d of %d (%s): %w", i+1, len(ids), id, err)
		}
	}
	return nil
}

// AwaitCondition waits until the observable's value satisfies the predicate and returns that value.
// The current value is checked first, then every later state change, until the timeout elapses.
// The subscription is always released before returning.
func AwaitCondition(ctx context.Context, s Surface, id string, p Predicate, timeout time.Duration) (string, error) {
	snaps, err := AwaitSequence(ctx, s, id, []Step{ValueStep(id, "", p)}, timeout)
	if err != nil {
		return "", err
	}
	return snaps[0].Value(id), nil
}

// AwaitSequence waits for a series of steps to be satisfied in order. The first step may be
// satisfied by the current state; each later step must be satisfied by a state change that comes
// after the one that satisfied the previous step. The id is the observable reported in a
// TimeoutError's LastValue. It returns the snapshot that satisfied each step.
func AwaitSequence(ctx context.Context, s Surface, id string, steps []Step, timeout time.Duration) ([]Snapshot, error) {
	if len(steps) == 0 {
		return nil, nil
	}
	sub, err := s.Subscribe()
	if err != nil {
		return nil, err
	}
	defer sub.Unsubscribe()

	start := time.Now()
	current, sequenced, err := currentSnapshot(s, id)
	if err != nil {
		return nil, err
	}
	lastValue := current.Value(id)
	matched := make([]Snapshot, 0, len(steps))
	if steps[0].Match(current) {
		matched = append(matched, current)
		if len(matched) == len(steps) {
			return matched, nil
		}
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	timeoutErr := func(closed bool) error {
		return &TimeoutError{
			ID:           id,
			Condition:    steps[len(matched)].Description,
			Elapsed:      time.Since(start),
			LastValue:    lastValue,
			StreamClosed: closed,
		}
	}
	for {
		select {
		case <-ctx.Done():
			return matched, ctx.Err()
		case <-deadline.C:
			return matched, timeoutErr(false)
		case snap, ok := <-sub.Updates():
			if !ok {
				return matched, timeoutErr(true)
			}
			// A stream may replay the state already read, including Seq 0.
			if sequenced && snap.Seq <= current.Seq {
				continue
			}
			if v, present := snap.Get(id); present {
				lastValue = v
			}
			if steps[len(matched)].Match(snap) {
				matched = append(matched, snap)
				if len(matched) == len(steps) {
					return matched, nil
				}
			}
		}
	}
}

// AwaitStable checks that an observable keeps its current value for the whole duration.
func AwaitStable(ctx context.Context, s Surface, id string, duration time.Duration) error {
	sub, err := s.Subscribe()
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	initial, err := s.Read(id)
	if err != nil {
		return err
	}
	done := time.NewTimer(duration)
	defer done.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done.C:
			return nil
		case snap, ok := <-sub.Updates():
			if !ok {
				return nil
			}
			if v, present := snap.Get(id); present && v != initial {
				return &AssertionMismatchError{ID: id, Expected: initial, Actual: v}
			}
		}
	}
}

// currentSnapshot builds a snapshot from a direct read when the surface cannot supply one. A
// remote surface supplies it through CurrentSnapshot, since fetching it can fail. sequenced is
// false for a direct read, whose Seq means nothing.
func currentSnapshot(s Surface, id string) (snap Snapshot, sequenced bool, err error) {
	switch sp := s.(type) {
	case interface{ CurrentSnapshot() (Snapshot, error) }:
		if snap, err = sp.CurrentSnapshot(); err != nil {
			return Snapshot{}, false, err
		}
	case interface{ Snapshot() Snapshot }:
		snap = sp.Snapshot()
	default:
		snap, err = readSnapshot(s, id)
		return snap, false, err
	}
	if _, present := snap.Get(id); !present {
		return Snapshot{}, false, &MissingElementError{ID: id}
	}
	return snap, true, nil
}

func readSnapshot(s Surface, id string) (Snapshot, error) {
	v, err := s.Read(id)
	if err != nil {
		var missing *MissingElementError
		if errors.As(err, &missing) {
			return Snapshot{}, missing
		}
		return Snapshot{}, err
	}
	return Snapshot{Values: map[string]string{id: v}}, nil
}
