package framework

import (
	"encoding/json"

	"github.com/launchdarkly/eventsource"
)

// StreamEvent is a server-sent event whose data is the JSON encoding of Payload. It implements
// eventsource.Event so it can be published on an eventsource.Server.
type StreamEvent struct {
	Name    string
	ID      string
	Payload interface{}
}

var _ eventsource.Event = StreamEvent{}

func (e StreamEvent) Event() string { return e.Name }
func (e StreamEvent) Id() string    { return e.ID } //nolint:stylecheck

func (e StreamEvent) Data() string {
	if raw, ok := e.Payload.(json.RawMessage); ok {
		return string(raw) // lets a test push data that json.Marshal would reject
	}
	bytes, _ := json.Marshal(e.Payload)
	return string(bytes)
}

// ReplayOne is an eventsource.Repository that gives each new subscriber a single event, produced
// at subscription time. It is how a stream delivers the current state before any updates.
type ReplayOne func(channel string) eventsource.Event

func (r ReplayOne) Replay(channel, _ string) chan eventsource.Event {
	ch := make(chan eventsource.Event, 1)
	if e := r(channel); e != nil {
		ch <- e
	}
	close(ch)
	return ch
}
