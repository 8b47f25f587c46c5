// Package testservice is a reference test service that hosts widgets behind the REST protocol
// defined in servicedef, so that the contract test suites can be run against the Go widget
// implementations in this repository.
package testservice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/launchdarkly/eventsource"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/widgetharness/widget-test-harness/clock"
	"github.com/widgetharness/widget-test-harness/framework"
	"github.com/widgetharness/widget-test-harness/servicedef"
	"github.com/widgetharness/widget-test-harness/serviceinfo"
	"github.com/widgetharness/widget-test-harness/surface"
)

const (
	ServiceName    = "go-widgets"
	ServiceVersion = "1.0.0"

	entityPathPrefix = "/widgets/"
)

// Config controls what the service hosts and how widgets are configured by default.
type Config struct {
	// Widgets lists the widget kinds the service can create. If empty, all kinds are supported.
	Widgets []string
	// TickInterval is the default countdown interval for timers.
	TickInterval time.Duration
	// AcceleratedInterval is used by the setClock command when no interval is given.
	AcceleratedInterval time.Duration
	// ClipLength is how long a timer's alert plays.
	ClipLength time.Duration
	Loggers    ldlog.Loggers
}

// Service is an http.Handler implementing the test service protocol.
type Service struct {
	config   Config
	router   *mux.Router
	streams  *eventsource.Server
	entities map[string]*entity
	lastID   int
	done     chan struct{}
	stopOnce sync.Once
	lock     sync.Mutex
}

// New creates a Service.
func New(config Config) *Service {
	if len(config.Widgets) == 0 {
		config.Widgets = []string{servicedef.WidgetTimer, servicedef.WidgetCalculator, servicedef.WidgetQuoteMachine}
	}
	if config.AcceleratedInterval <= 0 {
		config.AcceleratedInterval = clock.DefaultAcceleratedInterval
	}
	streams := eventsource.NewServer()
	streams.ReplayAll = true
	streams.Logger = eventSourceLogger{config.Loggers}

	s := &Service{
		config:   config,
		streams:  streams,
		entities: make(map[string]*entity),
		done:     make(chan struct{}),
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.getStatus).Methods("GET")
	r.HandleFunc("/", s.createEntity).Methods("POST")
	r.HandleFunc("/", s.stop).Methods("DELETE")
	r.HandleFunc(entityPathPrefix+"{id}", s.sendCommand).Methods("POST")
	r.HandleFunc(entityPathPrefix+"{id}", s.closeEntity).Methods("DELETE")
	r.HandleFunc(entityPathPrefix+"{id}"+servicedef.EntityEventsPath, s.streamEvents).Methods("GET")
	s.router = r
	return s
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Done is closed when a client has asked the service to stop.
func (s *Service) Done() <-chan struct{} { return s.done }

// Close disposes of every entity and ends every stream.
func (s *Service) Close() {
	s.lock.Lock()
	entities := make([]*entity, 0, len(s.entities))
	for _, e := range s.entities {
		entities = append(entities, e)
	}
	s.entities = make(map[string]*entity)
	s.lock.Unlock()
	for _, e := range entities {
		e.close()
	}
	s.streams.Close()
}

// EntityCount returns the number of open entities.
func (s *Service) EntityCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.entities)
}

func (s *Service) capabilities() framework.Capabilities {
	caps := append(framework.Capabilities(nil), s.config.Widgets...)
	caps = append(caps, servicedef.CapabilityStateStream)
	for _, w := range s.config.Widgets {
		if w == servicedef.WidgetTimer {
			caps = append(caps, servicedef.CapabilityAcceleratedClock)
		}
	}
	sort.Strings(caps)
	return caps
}

func (s *Service) getStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, servicedef.StatusRep{
		TestServiceInfoBase: serviceinfo.TestServiceInfoBase{
			Name:         ServiceName,
			Capabilities: s.capabilities(),
		},
		ServiceVersion: ServiceVersion,
	})
}

func (s *Service) stop(w http.ResponseWriter, _ *http.Request) {
	s.config.Loggers.Info("Test harness has told us to exit")
	w.WriteHeader(http.StatusNoContent)
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *Service) createEntity(w http.ResponseWriter, r *http.Request) {
	var params servicedef.CreateInstanceParams
	if err := readJSON(r, &params); err != nil {
		writeError(w, http.StatusBadRequest, "bad-request", err.Error())
		return
	}
	if params.Widget == "" && len(s.config.Widgets) == 1 {
		params.Widget = s.config.Widgets[0]
	}
	if !s.capabilities().Has(params.Widget) {
		writeError(w, http.StatusBadRequest, "unsupported-widget",
			fmt.Sprintf("widget kind %q is not supported", params.Widget))
		return
	}

	s.lock.Lock()
	s.lastID++
	id := strconv.Itoa(s.lastID)
	s.lock.Unlock()

	loggers := entityLoggers(s.config.Loggers, id, params.Tag)
	widget, err := s.newWidget(params, loggers)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad-request", err.Error())
		return
	}
	e := newEntity(id, params.Widget, widget, s.streams, loggers)

	s.lock.Lock()
	s.entities[id] = e
	s.lock.Unlock()

	loggers.Infof("Created %s widget", params.Widget)
	w.Header().Set("Location", entityPathPrefix+id)
	w.WriteHeader(http.StatusCreated)
}

func (s *Service) findEntity(w http.ResponseWriter, r *http.Request) *entity {
	id := mux.Vars(r)["id"]
	s.lock.Lock()
	e := s.entities[id]
	s.lock.Unlock()
	if e == nil {
		writeError(w, http.StatusNotFound, "not-found", fmt.Sprintf("no widget with ID %q", id))
	}
	return e
}

func (s *Service) sendCommand(w http.ResponseWriter, r *http.Request) {
	e := s.findEntity(w, r)
	if e == nil {
		return
	}
	var params servicedef.CommandParams
	if err := readJSON(r, &params); err != nil {
		writeError(w, http.StatusBadRequest, "bad-request", err.Error())
		return
	}
	e.loggers.Debugf("Received command %q", params.Command)
	status, body, err := e.doCommand(params, s.config.AcceleratedInterval)
	if err != nil {
		var missing *surface.MissingElementError
		switch {
		case errors.As(err, &missing):
			writeJSON(w, http.StatusNotFound, ldvalue.ObjectBuild().
				Set("error", ldvalue.String(servicedef.ErrorMissingElement)).
				Set("id", ldvalue.String(missing.ID)).
				Build())
		default:
			if status == 0 {
				status = http.StatusBadRequest
			}
			writeError(w, status, "bad-request", err.Error())
		}
		return
	}
	if body == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Service) closeEntity(w http.ResponseWriter, r *http.Request) {
	e := s.findEntity(w, r)
	if e == nil {
		return
	}
	s.lock.Lock()
	delete(s.entities, e.id)
	s.lock.Unlock()
	e.close()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) streamEvents(w http.ResponseWriter, r *http.Request) {
	e := s.findEntity(w, r)
	if e == nil {
		return
	}
	s.streams.Handler(e.channel())(w, r)
}

func readJSON(r *http.Request, target interface{}) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("malformed JSON request: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ldvalue.ObjectBuild().
		Set("error", ldvalue.String(kind)).
		Set("message", ldvalue.String(message)).
		Build())
}

type eventSourceLogger struct {
	loggers ldlog.Loggers
}

func (l eventSourceLogger) Println(args ...interface{}) {
	l.loggers.Debug(args...)
}

func (l eventSourceLogger) Printf(format string, args ...interface{}) {
	l.loggers.Debugf(format, args...)
}
