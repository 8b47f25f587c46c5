// Package surface defines the observable surface of a widget: a set of named controls that can be
// activated and named read-only observables whose text can be read or watched for changes. It also
// contains the verification operations that test suites use against any Surface, whether the
// widget is in-process or hosted by a remote test service.
package surface

// Surface is anything that exposes named controls and observables.
type Surface interface {
	// Elements returns the IDs of every control and observable the widget exposes.
	Elements() []string
	// Activate triggers a control. It returns a *MissingElementError if there is no such control.
	Activate(id string) error
	// Read returns the current text of an observable.
	Read(id string) (string, error)
	// Subscribe starts delivering a Snapshot for every subsequent state change.
	Subscribe() (Subscription, error)
}

// Subscription delivers state changes until Unsubscribe is called. The Updates channel is closed
// after Unsubscribe, or when the widget goes away.
type Subscription interface {
	Updates() <-chan Snapshot
	Unsubscribe()
}

// Snapshot is the complete set of observable values at one point in time. Seq increases by one
// for every state change published by the widget.
type Snapshot struct {
	Seq    uint64            `json:"seq"`
	Values map[string]string `json:"values"`
}

// Get returns the value of one observable in the snapshot.
func (s Snapshot) Get(id string) (string, bool) {
	v, ok := s.Values[id]
	return v, ok
}

// Value returns the value of one observable, or an empty string if it is absent.
func (s Snapshot) Value(id string) string {
	return s.Values[id]
}

func (s Snapshot) clone() Snapshot {
	values := make(map[string]string, len(s.Values))
	for k, v := range s.Values {
		values[k] = v
	}
	return Snapshot{Seq: s.Seq, Values: values}
}
