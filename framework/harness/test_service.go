package harness

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/widgetharness/widget-test-harness/framework"
	"github.com/widgetharness/widget-test-harness/serviceinfo"
)

const statusQueryInterval = 100 * time.Millisecond

// ServiceError is returned when the test service answers a request with a non-2xx status.
type ServiceError struct {
	Method string
	URL    string
	Status int
	Body   []byte
}

func (e ServiceError) Error() string {
	message := ""
	if len(e.Body) != 0 {
		message = " (" + string(e.Body) + ")"
	}
	return fmt.Sprintf("test service returned error %d for %s %s%s", e.Status, e.Method, e.URL, message)
}

// queryTestServiceInfo polls the status resource until the service answers or the timeout elapses,
// printing a dot per attempt so that a slow-starting service is visibly being waited for.
func queryTestServiceInfo(url string, timeout time.Duration, output io.Writer) (serviceinfo.TestServiceInfo, error) {
	if output == nil {
		output = io.Discard
	}
	fmt.Fprintf(output, "Connecting to test service at %s", url)

	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprint(output, ".")
		resp, err := http.DefaultClient.Get(url)
		if err == nil {
			fmt.Fprintln(output)
			data, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return serviceinfo.TestServiceInfo{}, fmt.Errorf("test service returned status code %d", resp.StatusCode)
			}
			if readErr != nil {
				return serviceinfo.TestServiceInfo{}, readErr
			}
			fmt.Fprintf(output, "Status query returned metadata: %s\n", string(data))
			return serviceinfo.Parse(data)
		}
		if !time.Now().Before(deadline) {
			fmt.Fprintln(output)
			return serviceinfo.TestServiceInfo{}, fmt.Errorf("timed out, result of last query was: %w", err)
		}
		time.Sleep(statusQueryInterval)
	}
}

// StopService tells the test service that it should exit.
func (h *TestHarness) StopService() error {
	_, _, err := doRequest(http.MethodDelete, h.testServiceBaseURL, nil)
	var se ServiceError
	if errors.As(err, &se) {
		return err
	}
	// The service may quit before it finishes responding, which looks like an I/O error here.
	return nil
}

// NewTestServiceEntity asks the test service to create an entity from entityParams, which are
// encoded with json.Marshal. The entity stays alive in the service until it is closed.
func (h *TestHarness) NewTestServiceEntity(
	entityParams interface{},
	description string,
	logger framework.Logger,
) (*TestServiceEntity, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	data, err := json.Marshal(entityParams)
	if err != nil {
		return nil, err
	}
	logger.Printf("Creating test service entity (%s) with parameters: %s", description, string(data))
	_, headers, err := doRequest(http.MethodPost, h.testServiceBaseURL, data)
	if err != nil {
		return nil, err
	}
	resourceURL := headers.Get("Location")
	if resourceURL == "" {
		return nil, errors.New("test service did not return a Location header with a resource URL")
	}
	if !strings.HasPrefix(resourceURL, "http:") && !strings.HasPrefix(resourceURL, "https:") {
		resourceURL = strings.TrimSuffix(h.testServiceBaseURL, "/") + resourceURL
	}
	return &TestServiceEntity{resourceURL: resourceURL, description: description, logger: logger}, nil
}

func doRequest(method, url string, body []byte) ([]byte, http.Header, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	respBody, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return respBody, resp.Header, ServiceError{Method: method, URL: url, Status: resp.StatusCode, Body: respBody}
	}
	return respBody, resp.Header, nil
}
