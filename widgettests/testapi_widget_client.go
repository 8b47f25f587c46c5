package widgettests

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/require"

	"github.com/widgetharness/widget-test-harness/framework"
	"github.com/widgetharness/widget-test-harness/framework/ctest"
	"github.com/widgetharness/widget-test-harness/framework/harness"
	o "github.com/widgetharness/widget-test-harness/framework/opt"
	"github.com/widgetharness/widget-test-harness/servicedef"
	"github.com/widgetharness/widget-test-harness/surface"
)

// WidgetConfigurer is an interface for objects that can modify the parameters for NewWidgetClient.
type WidgetConfigurer interface {
	ApplyConfiguration(*servicedef.CreateInstanceParams)
}

type widgetConfigurerFunc func(*servicedef.CreateInstanceParams)

func (f widgetConfigurerFunc) ApplyConfiguration(paramsOut *servicedef.CreateInstanceParams) { f(paramsOut) }

// WithQuoteSource tells a quote machine to fetch quotes from the given URL.
func WithQuoteSource(url string) WidgetConfigurer {
	return widgetConfigurerFunc(func(paramsOut *servicedef.CreateInstanceParams) {
		paramsOut.Quote = o.Some(servicedef.QuoteParams{SourceURL: url})
	})
}

// WithTimerParams sets non-default timer parameters.
func WithTimerParams(timerParams servicedef.TimerParams) WidgetConfigurer {
	return widgetConfigurerFunc(func(paramsOut *servicedef.CreateInstanceParams) {
		paramsOut.Timer = o.Some(timerParams)
	})
}

// WidgetClient is a widget instance in the test service. It implements surface.Surface, so the
// verification operations in the surface package work against it exactly as they do against an
// in-process widget.
type WidgetClient struct {
	kind   string
	entity *harness.TestServiceEntity
	logger framework.Logger
}

var _ surface.Surface = (*WidgetClient)(nil)

// NewWidgetClient tells the test service to create a widget of the given kind.
//
// Any error in creating the widget causes the test to fail and terminate immediately. The widget
// is closed when the test scope that created it exits; subtests can use it until then.
func NewWidgetClient(t *ctest.T, kind string, configurers ...WidgetConfigurer) *WidgetClient {
	params := servicedef.CreateInstanceParams{
		Widget: kind,
		Tag:    t.ID().String(),
	}
	for _, c := range configurers {
		c.ApplyConfiguration(&params)
	}

	entity, err := requireContext(t).harness.NewTestServiceEntity(params, kind+" widget", t.DebugLogger())
	require.NoError(t, err)

	t.Defer(func() {
		_ = entity.Close()
	})

	return &WidgetClient{kind: kind, entity: entity, logger: t.DebugLogger()}
}

// Elements asks the widget for its element IDs. A failed request is logged and yields no
// elements, so every presence check fails.
func (c *WidgetClient) Elements() []string {
	var resp servicedef.ElementsResponse
	if err := c.entity.SendCommand(
		servicedef.CommandParams{Command: servicedef.CommandElements},
		c.logger,
		&resp,
	); err != nil {
		c.logger.Printf("Could not list elements of %s widget: %s", c.kind, err)
		return nil
	}
	return resp.Elements
}

func (c *WidgetClient) Activate(id string) error {
	err := c.entity.SendCommand(
		servicedef.CommandParams{
			Command:  servicedef.CommandActivate,
			Activate: o.Some(servicedef.ElementParams{ID: id}),
		},
		c.logger,
		nil,
	)
	return elementError(id, err)
}

func (c *WidgetClient) Read(id string) (string, error) {
	var resp servicedef.ReadResponse
	err := c.entity.SendCommand(
		servicedef.CommandParams{
			Command: servicedef.CommandRead,
			Read:    o.Some(servicedef.ElementParams{ID: id}),
		},
		c.logger,
		&resp,
	)
	if err != nil {
		return "", elementError(id, err)
	}
	return resp.Value, nil
}

// CurrentSnapshot fetches the values of every observable in one request.
func (c *WidgetClient) CurrentSnapshot() (surface.Snapshot, error) {
	var resp servicedef.SnapshotResponse
	if err := c.entity.SendCommand(
		servicedef.CommandParams{Command: servicedef.CommandSnapshot},
		c.logger,
		&resp,
	); err != nil {
		return surface.Snapshot{}, err
	}
	return resp, nil
}

// Subscribe opens the widget's event stream. The service replays the current state to each new
// subscriber before any changes.
func (c *WidgetClient) Subscribe() (surface.Subscription, error) {
	stream, err := c.entity.SubscribeEvents(servicedef.EntityEventsPath, c.logger)
	if err != nil {
		return nil, fmt.Errorf("could not subscribe to %s widget: %w", c.kind, err)
	}
	sub := &streamSubscription{
		stream:  stream,
		updates: make(chan surface.Snapshot),
		done:    make(chan struct{}),
		logger:  c.logger,
	}
	go sub.decode()
	return sub, nil
}

// SetClock switches the clock that drives the widget's countdown.
func (c *WidgetClient) SetClock(params servicedef.ClockParams) error {
	return c.entity.SendCommand(
		servicedef.CommandParams{
			Command:  servicedef.CommandSetClock,
			SetClock: o.Some(params),
		},
		c.logger,
		nil,
	)
}

// WithAcceleratedClock makes the widget tick at the service's accelerated cadence for the rest of
// the current test, and restores real time when the test exits. The test is skipped if the service
// cannot do this.
func WithAcceleratedClock(t *ctest.T, client *WidgetClient) {
	t.RequireCapability(servicedef.CapabilityAcceleratedClock)
	require.NoError(t, client.SetClock(servicedef.ClockParams{Mode: servicedef.ClockAccelerated}))
	t.Defer(func() {
		if err := client.SetClock(servicedef.ClockParams{Mode: servicedef.ClockReal}); err != nil {
			t.Debug("Could not restore real clock: %s", err)
		}
	})
}

// The service reports an unknown element as a 404 whose body names the error kind.
func elementError(id string, err error) error {
	var se harness.ServiceError
	if errors.As(err, &se) && se.Status == http.StatusNotFound &&
		ldvalue.Parse(se.Body).GetByKey("error").StringValue() == servicedef.ErrorMissingElement {
		return &surface.MissingElementError{ID: id}
	}
	return err
}

type streamSubscription struct {
	stream    *harness.EventStream
	updates   chan surface.Snapshot
	done      chan struct{}
	logger    framework.Logger
	closeOnce sync.Once
}

func (s *streamSubscription) decode() {
	defer close(s.updates)
	for event := range s.stream.Events() {
		if event.Event() != servicedef.EventSnapshot {
			continue
		}
		snap, err := parseSnapshot([]byte(event.Data()))
		if err != nil {
			s.logger.Printf("Ignoring malformed snapshot event: %s", err)
			continue
		}
		select {
		case s.updates <- snap:
		case <-s.done:
			return
		}
	}
}

func (s *streamSubscription) Updates() <-chan surface.Snapshot {
	return s.updates
}

func (s *streamSubscription) Unsubscribe() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.stream.Close()
	})
}

func parseSnapshot(data []byte) (surface.Snapshot, error) {
	snap := surface.Snapshot{Values: make(map[string]string)}
	r := jreader.NewReader(data)
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "seq":
			snap.Seq = uint64(r.Int())
		case "values":
			for values := r.Object(); values.Next(); {
				snap.Values[string(values.Name())] = r.String()
			}
		default:
			_ = r.SkipValue()
		}
	}
	if err := r.Error(); err != nil {
		return surface.Snapshot{}, fmt.Errorf("malformed snapshot JSON: %w", err)
	}
	return snap, nil
}
