package servicedef

import (
	o "github.com/widgetharness/widget-test-harness/framework/opt"
	"github.com/widgetharness/widget-test-harness/surface"
)

const (
	CommandActivate = "activate"
	CommandRead     = "read"
	CommandSnapshot = "snapshot"
	CommandElements = "elements"
	CommandSetClock = "setClock"
)

// EventSnapshot is the SSE event name used for state snapshots on an entity's stream.
const EventSnapshot = "snapshot"

// EntityEventsPath is appended to an entity URL to get its snapshot stream.
const EntityEventsPath = "/events"

// ErrorMissingElement is the "error" property of a 404 response for an unknown element ID.
const ErrorMissingElement = "missing-element"

type CommandParams struct {
	Command  string                 `json:"command"`
	Activate o.Maybe[ElementParams] `json:"activate,omitempty"`
	Read     o.Maybe[ElementParams] `json:"read,omitempty"`
	SetClock o.Maybe[ClockParams]   `json:"setClock,omitempty"`
}

type ElementParams struct {
	ID string `json:"id"`
}

type ReadResponse struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

type ElementsResponse struct {
	Elements []string `json:"elements"`
}

type SnapshotResponse = surface.Snapshot
