package harness

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/launchdarkly/eventsource"

	"github.com/widgetharness/widget-test-harness/framework"
)

// TestServiceEntity is something the test service created at our request, such as a widget.
type TestServiceEntity struct {
	resourceURL string
	description string
	logger      framework.Logger
}

// URL returns the entity's resource URL.
func (e *TestServiceEntity) URL() string {
	return e.resourceURL
}

// Close tells the test service to dispose of this entity.
func (e *TestServiceEntity) Close() error {
	e.logger.Printf("Closing %s (%s)", e.description, e.resourceURL)
	_, _, err := doRequest(http.MethodDelete, e.resourceURL, nil)
	if err != nil {
		e.logger.Printf("DELETE request to test service failed: %s", err)
	}
	return err
}

// SendCommand posts params, encoded with json.Marshal, to the entity. If responseOut is non-nil
// the response body is decoded into it. A non-2xx status is returned as a ServiceError.
func (e *TestServiceEntity) SendCommand(
	params interface{},
	logger framework.Logger,
	responseOut interface{},
) error {
	if logger == nil {
		logger = e.logger
	}
	data, err := json.Marshal(params)
	if err != nil {
		return err
	}
	logger.Printf("Sending command: %s", string(data))
	body, _, err := doRequest(http.MethodPost, e.resourceURL, data)
	if err != nil {
		return err
	}
	if responseOut != nil {
		if len(body) == 0 {
			return errors.New("expected a response body but got none")
		}
		if err := json.Unmarshal(body, responseOut); err != nil {
			return err
		}
		logger.Printf("Response: %s", string(body))
	}
	return nil
}

// EventStream is a server-sent event subscription to an entity.
type EventStream struct {
	stream    *eventsource.Stream
	events    chan eventsource.Event
	logger    framework.Logger
	done      chan struct{}
	closeOnce sync.Once
}

// SubscribeEvents opens the entity's event stream at the given subpath. It returns once the
// connection is established.
func (e *TestServiceEntity) SubscribeEvents(subpath string, logger framework.Logger) (*EventStream, error) {
	if logger == nil {
		logger = e.logger
	}
	req, err := http.NewRequest(http.MethodGet, e.resourceURL+subpath, nil)
	if err != nil {
		return nil, err
	}
	stream, err := eventsource.SubscribeWithRequest("", req)
	if err != nil {
		return nil, err
	}
	logger.Printf("Subscribed to %s%s", e.resourceURL, subpath)
	s := &EventStream{
		stream: stream,
		events: make(chan eventsource.Event),
		logger: logger,
		done:   make(chan struct{}),
	}
	go s.forward()
	return s, nil
}

func (s *EventStream) forward() {
	defer close(s.events)
	streamEvents, streamErrors := s.stream.Events, s.stream.Errors
	for {
		select {
		case ev, ok := <-streamEvents:
			if !ok {
				return
			}
			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		case err, ok := <-streamErrors:
			if !ok {
				streamErrors = nil
				continue
			}
			s.logger.Printf("Event stream error: %s", err)
		case <-s.done:
			return
		}
	}
}

// Events delivers each event in order. It is closed when the subscription is closed.
func (s *EventStream) Events() <-chan eventsource.Event {
	return s.events
}

// Close ends the subscription. It is safe to call more than once.
func (s *EventStream) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.stream.Close()
	})
}
