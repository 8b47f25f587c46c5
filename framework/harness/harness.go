// Package harness connects the contract tests to a test service: it checks that the service is up,
// creates widget entities in it, and serves mock endpoints that the service can call back to.
package harness

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"regexp"
	"time"

	"github.com/gorilla/mux"

	"github.com/widgetharness/widget-test-harness/framework"
	"github.com/widgetharness/widget-test-harness/serviceinfo"
)

// Errors that the harness's own listener logs when the test service hangs up on a mock endpoint.
// They are expected whenever an entity is closed mid-request.
var quietServerErrors = []*regexp.Regexp{ //nolint:gochecknoglobals
	regexp.MustCompile(`broken pipe`),
	regexp.MustCompile(`connection reset by peer`),
}

// TestHarness manages communication with one test service. It knows nothing about widgets; the
// suites build on it.
type TestHarness struct {
	testServiceBaseURL string
	testServiceInfo    serviceinfo.TestServiceInfo
	mockEndpoints      *mockEndpointsManager
	logger             framework.Logger
	server             *http.Server
	listener           net.Listener
}

// NewTestHarness verifies that the test service is responding by querying its status resource,
// then starts an HTTP listener on testHarnessPort for mock endpoints. Port 0 picks a free port.
func NewTestHarness(
	testServiceBaseURL string,
	testHarnessExternalHostname string,
	testHarnessPort int,
	statusQueryTimeout time.Duration,
	debugLogger framework.Logger,
	startupOutput io.Writer,
) (*TestHarness, error) {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}

	info, err := queryTestServiceInfo(testServiceBaseURL, statusQueryTimeout, startupOutput)
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", testHarnessPort))
	if err != nil {
		return nil, fmt.Errorf("could not start mock endpoint listener: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	h := &TestHarness{
		testServiceBaseURL: testServiceBaseURL,
		testServiceInfo:    info,
		mockEndpoints: newMockEndpointsManager(
			fmt.Sprintf("http://%s:%d", testHarnessExternalHostname, port), debugLogger),
		logger:   debugLogger,
		listener: listener,
	}

	r := mux.NewRouter()
	r.Methods(http.MethodHead).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.PathPrefix("/").HandlerFunc(h.mockEndpoints.serveHTTP)
	h.server = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second, // arbitrary but non-infinite timeout to avoid Slowloris Attack
		ErrorLog:          log.New(newFilteredWriter(startupOutput, quietServerErrors), "", log.LstdFlags),
	}
	go func() {
		if err := h.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			debugLogger.Printf("Mock endpoint listener stopped: %s", err)
		}
	}()

	return h, nil
}

// TestServiceInfo returns the status information received from the test service at startup.
func (h *TestHarness) TestServiceInfo() serviceinfo.TestServiceInfo {
	return h.testServiceInfo
}

// MockEndpointsBaseURL returns the externally visible root URL of the harness's listener.
func (h *TestHarness) MockEndpointsBaseURL() string {
	return h.mockEndpoints.externalBaseURL
}

// NewMockEndpoint adds an endpoint that the test service can send requests to. The handler sees
// requests to the endpoint's BaseURL and any subpath of it, with the URL rewritten to just the
// subpath, and a request context that is cancelled when the endpoint is closed.
func (h *TestHarness) NewMockEndpoint(
	handler http.Handler,
	logger framework.Logger,
	options ...MockEndpointOption,
) *MockEndpoint {
	if logger == nil {
		logger = h.logger
	}
	return h.mockEndpoints.newMockEndpoint(handler, logger, options...)
}

// Close stops the mock endpoint listener.
func (h *TestHarness) Close() error {
	return h.server.Close()
}
