package harness

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldlogtest"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/widgetharness/widget-test-harness/framework"
	"github.com/widgetharness/widget-test-harness/framework/helpers"
	"github.com/widgetharness/widget-test-harness/framework/opt"
	"github.com/widgetharness/widget-test-harness/servicedef"
	"github.com/widgetharness/widget-test-harness/testservice"
)

func withTestService(t *testing.T, action func(*TestHarness, *testservice.Service)) {
	mockLog := ldlogtest.NewMockLog()
	mockLog.Loggers.SetMinLevel(ldlog.Debug)
	defer mockLog.DumpIfTestFailed(t)
	service := testservice.New(testservice.Config{Loggers: mockLog.Loggers})
	defer service.Close()
	httphelpers.WithServer(service, func(server *httptest.Server) {
		h, err := NewTestHarness(server.URL, "localhost", 0, time.Second, framework.NullLogger(), nil)
		require.NoError(t, err)
		defer h.Close()
		action(h, service)
	})
}

func TestNewTestHarnessReadsStatus(t *testing.T) {
	withTestService(t, func(h *TestHarness, _ *testservice.Service) {
		info := h.TestServiceInfo()
		assert.Equal(t, testservice.ServiceName, info.Name)
		assert.True(t, info.Capabilities.Has(servicedef.WidgetTimer))
		assert.Regexp(t, `^http://localhost:\d+$`, h.MockEndpointsBaseURL())
	})
}

func TestNewTestHarnessRejectsBadStatus(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithStatus(500), func(server *httptest.Server) {
		var out bytes.Buffer
		_, err := NewTestHarness(server.URL, "localhost", 0, time.Second, nil, &out)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
		assert.Contains(t, out.String(), "Connecting to test service")
	})
}

func TestNewTestHarnessTimesOut(t *testing.T) {
	_, err := NewTestHarness("http://localhost:1", "localhost", 0, 150*time.Millisecond, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestMockEndpointIsReachableOverHTTP(t *testing.T) {
	withTestService(t, func(h *TestHarness, _ *testservice.Service) {
		e := h.NewMockEndpoint(httphelpers.HandlerWithStatus(http.StatusTeapot), nil)
		defer e.Close()
		resp, err := http.Get(e.BaseURL() + "/anything")
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusTeapot, resp.StatusCode)

		req, _ := http.NewRequest(http.MethodHead, h.MockEndpointsBaseURL(), nil)
		resp, err = http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestEntityCommands(t *testing.T) {
	withTestService(t, func(h *TestHarness, service *testservice.Service) {
		entity, err := h.NewTestServiceEntity(
			servicedef.CreateInstanceParams{Widget: servicedef.WidgetCalculator}, "calculator", nil)
		require.NoError(t, err)
		assert.Equal(t, 1, service.EntityCount())

		for _, id := range []string{"nine", "multiply", "three", "equals"} {
			require.NoError(t, entity.SendCommand(servicedef.CommandParams{Command: servicedef.CommandActivate,
				Activate: opt.Some(servicedef.ElementParams{ID: id})}, nil, nil))
		}
		var reading servicedef.ReadResponse
		require.NoError(t, entity.SendCommand(servicedef.CommandParams{Command: servicedef.CommandRead,
			Read: opt.Some(servicedef.ElementParams{ID: "display"})}, nil, &reading))
		assert.Equal(t, "27", reading.Value)

		err = entity.SendCommand(servicedef.CommandParams{Command: servicedef.CommandActivate,
			Activate: opt.Some(servicedef.ElementParams{ID: "start_stop"})}, nil, nil)
		var se ServiceError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusNotFound, se.Status)
		assert.Contains(t, string(se.Body), servicedef.ErrorMissingElement)

		require.NoError(t, entity.Close())
		assert.Equal(t, 0, service.EntityCount())
		assert.Error(t, entity.Close())
	})
}

func TestEntityEventStream(t *testing.T) {
	withTestService(t, func(h *TestHarness, _ *testservice.Service) {
		entity, err := h.NewTestServiceEntity(
			servicedef.CreateInstanceParams{Widget: servicedef.WidgetTimer}, "timer", nil)
		require.NoError(t, err)
		defer entity.Close()

		stream, err := entity.SubscribeEvents(servicedef.EntityEventsPath, nil)
		require.NoError(t, err)
		event := helpers.RequireValue(t, stream.Events(), 5*time.Second)
		assert.Equal(t, servicedef.EventSnapshot, event.Event())
		assert.Contains(t, event.Data(), `"time-left"`)

		stream.Close()
		stream.Close()
		helpers.RequireValue(t, closedSignal(stream.Events()), time.Second)
	})
}

func TestStopService(t *testing.T) {
	withTestService(t, func(h *TestHarness, service *testservice.Service) {
		require.NoError(t, h.StopService())
		helpers.RequireValue(t, closedSignal(service.Done()), time.Second)
	})
}

func TestServiceErrorMessage(t *testing.T) {
	err := ServiceError{Method: "POST", URL: "http://svc/widgets/1", Status: 404, Body: []byte(`{"error":"x"}`)}
	assert.Equal(t, `test service returned error 404 for POST http://svc/widgets/1 ({"error":"x"})`, err.Error())
	assert.Equal(t, "test service returned error 500 for DELETE http://svc",
		ServiceError{Method: "DELETE", URL: "http://svc", Status: 500}.Error())
}

func TestFilteredWriter(t *testing.T) {
	var buf bytes.Buffer
	w := newFilteredWriter(&buf, []*regexp.Regexp{regexp.MustCompile("broken pipe")})
	n, err := w.Write([]byte("write: broken pipe\n"))
	require.NoError(t, err)
	assert.Equal(t, 19, n)
	_, _ = w.Write([]byte("something else\n"))
	assert.Equal(t, "something else\n", buf.String())

	_, err = newFilteredWriter(nil, nil).Write([]byte("discarded"))
	assert.NoError(t, err)
}

// closedSignal delivers one value once ch is closed, draining anything sent before that.
func closedSignal[V any](ch <-chan V) <-chan struct{} {
	out := make(chan struct{}, 1)
	go func() {
		for range ch {
		}
		out <- struct{}{}
	}()
	return out
}
