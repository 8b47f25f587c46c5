package testservice

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/launchdarkly/eventsource"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/widgetharness/widget-test-harness/clock"
	"github.com/widgetharness/widget-test-harness/framework"
	"github.com/widgetharness/widget-test-harness/servicedef"
	"github.com/widgetharness/widget-test-harness/surface"
	"github.com/widgetharness/widget-test-harness/widgets/calculator"
	"github.com/widgetharness/widget-test-harness/widgets/quote"
	"github.com/widgetharness/widget-test-harness/widgets/timer"
)

// Widget is what an entity hosts.
type Widget interface {
	surface.Surface
	Snapshot() surface.Snapshot
	Close()
}

type clockSetter interface {
	SetClock(clock.Clock)
}

type entity struct {
	id      string
	kind    string
	widget  Widget
	streams *eventsource.Server
	sub     surface.Subscription
	pumped  sync.WaitGroup
	loggers ldlog.Loggers
	once    sync.Once
}

func (s *Service) newWidget(params servicedef.CreateInstanceParams, loggers ldlog.Loggers) (Widget, error) {
	switch params.Widget {
	case servicedef.WidgetTimer:
		tp := params.Timer.Value()
		options := []timer.Option{timer.WithLoggers(loggers)}
		if interval := tp.TickIntervalMS.OrElse(0); interval > 0 {
			options = append(options, timer.WithTickInterval(time.Duration(interval)*time.Millisecond))
		} else if s.config.TickInterval > 0 {
			options = append(options, timer.WithTickInterval(s.config.TickInterval))
		}
		if clip := tp.ClipLengthMS.OrElse(0); clip > 0 {
			options = append(options, timer.WithClipLength(time.Duration(clip)*time.Millisecond))
		} else if s.config.ClipLength > 0 {
			options = append(options, timer.WithClipLength(s.config.ClipLength))
		}
		if tp.Clock.IsDefined() {
			c, err := makeClock(tp.Clock.Value(), s.config.AcceleratedInterval)
			if err != nil {
				return nil, err
			}
			options = append(options, timer.WithClock(c))
		}
		return timer.New(options...)
	case servicedef.WidgetCalculator:
		return calculator.New(), nil
	case servicedef.WidgetQuoteMachine:
		var source quote.Source = quote.NewRotatingSource()
		if u := params.Quote.Value().SourceURL; u != "" {
			source = quote.HTTPSource{URL: u, Client: &http.Client{Timeout: 5 * time.Second}}
		}
		return quote.New(source, loggers), nil
	default:
		return nil, fmt.Errorf("unknown widget kind %q", params.Widget)
	}
}

func makeClock(params servicedef.ClockParams, defaultInterval time.Duration) (clock.Clock, error) {
	switch params.Mode {
	case servicedef.ClockReal, "":
		return clock.Real(), nil
	case servicedef.ClockAccelerated:
		interval := time.Duration(params.IntervalMS.OrElse(0)) * time.Millisecond
		if interval <= 0 {
			interval = defaultInterval
		}
		return clock.Accelerated(interval), nil
	default:
		return nil, fmt.Errorf("unknown clock mode %q", params.Mode)
	}
}

func newEntity(id, kind string, widget Widget, streams *eventsource.Server, loggers ldlog.Loggers) *entity {
	e := &entity{id: id, kind: kind, widget: widget, streams: streams, loggers: loggers}
	streams.Register(e.channel(), framework.ReplayOne(func(string) eventsource.Event {
		return snapshotEvent(widget.Snapshot())
	}))
	sub, err := widget.Subscribe()
	if err != nil {
		loggers.Errorf("Could not subscribe to widget state: %s", err)
		return e
	}
	e.sub = sub
	e.pumped.Add(1)
	go e.pump()
	return e
}

func (e *entity) channel() string { return "widget-" + e.id }

// pump forwards every state change of the widget to the entity's event stream.
func (e *entity) pump() {
	defer e.pumped.Done()
	for snap := range e.sub.Updates() {
		e.streams.Publish([]string{e.channel()}, snapshotEvent(snap))
	}
}

func snapshotEvent(snap surface.Snapshot) eventsource.Event {
	return framework.StreamEvent{Name: servicedef.EventSnapshot, Payload: snap}
}

func (e *entity) doCommand(params servicedef.CommandParams, acceleratedInterval time.Duration) (int, interface{}, error) {
	switch params.Command {
	case servicedef.CommandActivate:
		if !params.Activate.IsDefined() {
			return http.StatusBadRequest, nil, errors.New("activate command requires an element ID")
		}
		return 0, nil, e.widget.Activate(params.Activate.Value().ID)
	case servicedef.CommandRead:
		if !params.Read.IsDefined() {
			return http.StatusBadRequest, nil, errors.New("read command requires an element ID")
		}
		id := params.Read.Value().ID
		value, err := e.widget.Read(id)
		if err != nil {
			return 0, nil, err
		}
		return 0, servicedef.ReadResponse{ID: id, Value: value}, nil
	case servicedef.CommandSnapshot:
		return 0, e.widget.Snapshot(), nil
	case servicedef.CommandElements:
		return 0, servicedef.ElementsResponse{Elements: e.widget.Elements()}, nil
	case servicedef.CommandSetClock:
		setter, ok := e.widget.(clockSetter)
		if !ok {
			return http.StatusBadRequest, nil, fmt.Errorf("%s widget has no clock", e.kind)
		}
		c, err := makeClock(params.SetClock.Value(), acceleratedInterval)
		if err != nil {
			return http.StatusBadRequest, nil, err
		}
		setter.SetClock(c)
		e.loggers.Debugf("Clock set to %q", params.SetClock.Value().Mode)
		return 0, nil, nil
	default:
		return http.StatusBadRequest, nil, fmt.Errorf("unknown command %q", params.Command)
	}
}

func (e *entity) close() {
	e.once.Do(func() {
		e.widget.Close()
		if e.sub != nil {
			e.sub.Unsubscribe()
		}
		e.pumped.Wait()
		e.streams.Unregister(e.channel(), true)
		e.loggers.Info("Closed widget")
	})
}

func entityLoggers(base ldlog.Loggers, id, tag string) ldlog.Loggers {
	loggers := base
	prefix := fmt.Sprintf("[widget %s]", id)
	if tag != "" {
		prefix = fmt.Sprintf("[widget %s: %s]", id, tag)
	}
	loggers.SetPrefix(prefix)
	return loggers
}
