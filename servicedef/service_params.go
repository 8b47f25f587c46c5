package servicedef

import (
	o "github.com/widgetharness/widget-test-harness/framework/opt"
	"github.com/widgetharness/widget-test-harness/serviceinfo"
)

const (
	CapabilityTimer        = "timer"
	CapabilityCalculator   = "calculator"
	CapabilityQuoteMachine = "quote-machine"

	// CapabilityAcceleratedClock means the service supports the setClock command.
	CapabilityAcceleratedClock = "accelerated-clock"
	// CapabilityStateStream means each entity has an SSE stream of state snapshots.
	CapabilityStateStream = "state-stream"
)

// Widget kinds for CreateInstanceParams.
const (
	WidgetTimer        = "timer"
	WidgetCalculator   = "calculator"
	WidgetQuoteMachine = "quote-machine"
)

type StatusRep struct {
	serviceinfo.TestServiceInfoBase
	ServiceVersion string `json:"serviceVersion"`
}

type CreateInstanceParams struct {
	Widget string               `json:"widget"`
	Tag    string               `json:"tag"`
	Timer  o.Maybe[TimerParams] `json:"timer,omitempty"`
	Quote  o.Maybe[QuoteParams] `json:"quote,omitempty"`
}

type TimerParams struct {
	TickIntervalMS o.Maybe[int]         `json:"tickIntervalMs,omitempty"`
	ClipLengthMS   o.Maybe[int]         `json:"clipLengthMs,omitempty"`
	Clock          o.Maybe[ClockParams] `json:"clock,omitempty"`
}

type QuoteParams struct {
	// SourceURL is where the quote machine fetches quotes. If empty, it uses a built-in rotation.
	SourceURL string `json:"sourceUrl,omitempty"`
}

// Clock modes for ClockParams.
const (
	ClockReal        = "real"
	ClockAccelerated = "accelerated"
)

type ClockParams struct {
	Mode       string       `json:"mode"`
	IntervalMS o.Maybe[int] `json:"intervalMs,omitempty"`
}
