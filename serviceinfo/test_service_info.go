// Package serviceinfo describes what a test service reports about itself in its status response.
package serviceinfo

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/widgetharness/widget-test-harness/framework"
)

// TestServiceInfo is the status of a test service as returned by GET on its root endpoint.
type TestServiceInfo struct {
	TestServiceInfoBase

	// FullData is the raw status response, which may carry properties beyond TestServiceInfoBase.
	FullData []byte
}

// TestServiceInfoBase is the set of status properties every test service must provide.
type TestServiceInfoBase struct {
	// Name identifies the widget implementation being tested, such as "go-widgets".
	Name string `json:"name"`

	// Capabilities lists the widget kinds and optional features the service supports.
	Capabilities framework.Capabilities `json:"capabilities"`
}

// Parse decodes a status response.
func Parse(data []byte) (TestServiceInfo, error) {
	var base TestServiceInfoBase
	if err := json.Unmarshal(data, &base); err != nil {
		return TestServiceInfo{}, fmt.Errorf("malformed status response from test service: %w", err)
	}
	if base.Name == "" {
		return TestServiceInfo{}, fmt.Errorf("status response from test service has no name")
	}
	return TestServiceInfo{TestServiceInfoBase: base, FullData: data}, nil
}

// Describe returns a one-line summary for console output.
func (i TestServiceInfo) Describe() string {
	if len(i.Capabilities) == 0 {
		return i.Name
	}
	return fmt.Sprintf("%s (%s)", i.Name, strings.Join(i.Capabilities, ", "))
}

func Empty() TestServiceInfo {
	return TestServiceInfo{}
}
