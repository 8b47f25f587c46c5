package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/widgetharness/widget-test-harness/framework"
	"github.com/widgetharness/widget-test-harness/framework/helpers"
)

const endpointPathPrefix = "/endpoints/"

// Requests beyond this many that nobody has awaited are still served, but not queued.
const incomingRequestChannelBufferSize = 10

type mockEndpointsManager struct {
	endpoints       map[string]*MockEndpoint
	lastEndpointID  int
	externalBaseURL string
	router          *mux.Router
	logger          framework.Logger
	lock            sync.Mutex
}

// MockEndpoint is an HTTP endpoint served by the harness for the test service to call, such as
// the quote source that a quote machine fetches from.
type MockEndpoint struct {
	owner       *mockEndpointsManager
	id          string
	description string
	basePath    string
	handler     http.Handler
	requests    chan IncomingRequestInfo
	count       int
	cancels     map[int]context.CancelFunc
	nextCancel  int
	logger      framework.Logger
	lock        sync.Mutex
	closing     sync.Once
}

type MockEndpointOption helpers.ConfigOption[MockEndpoint]

// MockEndpointDescription names the endpoint in log output and failure messages.
func MockEndpointDescription(description string) MockEndpointOption {
	return helpers.ConfigOptionFunc[MockEndpoint](func(m *MockEndpoint) error {
		m.description = description
		return nil
	})
}

// IncomingRequestInfo describes a request that the test service sent to a mock endpoint.
type IncomingRequestInfo struct {
	Headers http.Header
	Method  string
	URL     url.URL
	Body    []byte
	Context context.Context
}

func newMockEndpointsManager(externalBaseURL string, logger framework.Logger) *mockEndpointsManager {
	m := &mockEndpointsManager{
		endpoints:       make(map[string]*MockEndpoint),
		externalBaseURL: externalBaseURL,
		logger:          logger,
	}
	r := mux.NewRouter()
	r.HandleFunc(endpointPathPrefix+"{id}", m.serveEndpoint)
	r.HandleFunc(endpointPathPrefix+"{id}/{path:.*}", m.serveEndpoint)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.logger.Printf("Received request for unrecognized URL path %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})
	m.router = r
	return m
}

func (m *mockEndpointsManager) newMockEndpoint(
	handler http.Handler,
	logger framework.Logger,
	options ...MockEndpointOption,
) *MockEndpoint {
	if logger == nil {
		logger = m.logger
	}
	e := &MockEndpoint{
		owner:    m,
		handler:  handler,
		requests: make(chan IncomingRequestInfo, incomingRequestChannelBufferSize),
		cancels:  make(map[int]context.CancelFunc),
		logger:   logger,
	}
	_ = helpers.ApplyOptions(e, options...)
	m.lock.Lock()
	m.lastEndpointID++
	e.id = strconv.Itoa(m.lastEndpointID)
	e.basePath = endpointPathPrefix + e.id
	m.endpoints[e.id] = e
	m.lock.Unlock()
	return e
}

func (m *mockEndpointsManager) serveHTTP(w http.ResponseWriter, r *http.Request) {
	m.router.ServeHTTP(w, r)
}

func (m *mockEndpointsManager) serveEndpoint(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	m.lock.Lock()
	e := m.endpoints[vars["id"]]
	m.lock.Unlock()
	if e == nil {
		m.logger.Printf("Received request for unrecognized endpoint %s", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	e.serve(w, r, "/"+vars["path"])
}

func (e *MockEndpoint) serve(w http.ResponseWriter, r *http.Request, subpath string) {
	var body []byte
	if r.Body != nil {
		data, err := io.ReadAll(r.Body)
		_ = r.Body.Close()
		if err != nil {
			e.logger.Printf("Unexpected error trying to read request body: %s", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if len(data) > 0 {
			body = data
		}
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	u := *r.URL
	u.Path = subpath
	transformed := r.WithContext(ctx)
	transformed.URL = &u
	transformed.Body = io.NopCloser(bytes.NewReader(body))

	e.lock.Lock()
	if e.requests == nil {
		e.lock.Unlock()
		e.logger.Printf("Received request to already-closed endpoint %s", r.URL)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	e.count++
	cancelID := e.nextCancel
	e.nextCancel++
	e.cancels[cancelID] = cancel
	queued := helpers.NonBlockingSend(e.requests, IncomingRequestInfo{
		Headers: r.Header,
		Method:  r.Method,
		URL:     u,
		Body:    body,
		Context: ctx,
	})
	e.lock.Unlock()
	defer func() {
		e.lock.Lock()
		delete(e.cancels, cancelID)
		e.lock.Unlock()
	}()
	if !queued {
		e.logger.Printf("Incoming request queue was full for %s", r.URL)
	}

	ww := &wrappedResponseWriter{w: w}
	e.handler.ServeHTTP(ww, transformed)
	if ww.status == http.StatusNotFound || ww.status == http.StatusMethodNotAllowed {
		e.logger.Printf("Endpoint %q (%s) returned %d for %s %s", e.description, e.basePath, ww.status, r.Method, subpath)
	}
}

// BaseURL returns the URL the test service should use to reach the endpoint. Requests to any
// subpath of it are delivered to the endpoint's handler with only the subpath in the URL.
func (e *MockEndpoint) BaseURL() string {
	return e.owner.externalBaseURL + e.basePath
}

// RequestCount returns how many requests the endpoint has served.
func (e *MockEndpoint) RequestCount() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.count
}

// AwaitConnection waits for the next request to the endpoint.
func (e *MockEndpoint) AwaitConnection(timeout time.Duration) (IncomingRequestInfo, error) {
	if r, ok := helpers.TryReceive(e.requestChannel(), timeout).Get(); ok {
		return r, nil
	}
	return IncomingRequestInfo{}, fmt.Errorf("timed out waiting for an incoming request to %q (%s)",
		e.description, e.basePath)
}

// RequireConnection is AwaitConnection but fails and stops the test on timeout.
func (e *MockEndpoint) RequireConnection(t helpers.TestContext, timeout time.Duration) IncomingRequestInfo {
	t.Helper()
	return helpers.RequireValueWithMessage(t, e.requestChannel(), timeout,
		"timed out waiting for request to %q (%s)", e.description, e.basePath)
}

// RequireNoMoreConnections fails and stops the test if another request arrives within the timeout.
func (e *MockEndpoint) RequireNoMoreConnections(t helpers.TestContext, timeout time.Duration) {
	t.Helper()
	helpers.RequireNoMoreValuesWithMessage(t, e.requestChannel(), timeout,
		"did not expect another request to %q (%s), but got one", e.description, e.basePath)
}

func (e *MockEndpoint) requestChannel() <-chan IncomingRequestInfo {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.requests
}

// Close unregisters the endpoint, so later requests get a 404, and cancels the context of every
// request still in progress.
func (e *MockEndpoint) Close() {
	e.closing.Do(func() {
		e.logger.Printf("Closing endpoint %q (%s)", e.description, e.basePath)
		e.owner.lock.Lock()
		delete(e.owner.endpoints, e.id)
		e.owner.lock.Unlock()

		e.lock.Lock()
		cancels := e.cancels
		e.cancels = make(map[int]context.CancelFunc)
		close(e.requests)
		e.requests = nil
		e.lock.Unlock()

		for _, cancel := range cancels {
			cancel()
		}
	})
}

// wrappedResponseWriter remembers the status so that 404 and 405 responses can be logged.
type wrappedResponseWriter struct {
	w      http.ResponseWriter
	status int
}

func (ww *wrappedResponseWriter) Header() http.Header { return ww.w.Header() }

func (ww *wrappedResponseWriter) WriteHeader(status int) {
	ww.status = status
	ww.w.WriteHeader(status)
}

func (ww *wrappedResponseWriter) Write(data []byte) (int, error) { return ww.w.Write(data) }

func (ww *wrappedResponseWriter) Flush() {
	if f, ok := ww.w.(http.Flusher); ok {
		f.Flush()
	}
}
