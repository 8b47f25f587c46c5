package widgettests

import (
	"net/http"
	"strings"
	"time"

	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/widgetharness/widget-test-harness/framework"
	"github.com/widgetharness/widget-test-harness/framework/ctest"
	"github.com/widgetharness/widget-test-harness/framework/harness"
	"github.com/widgetharness/widget-test-harness/framework/helpers"
	"github.com/widgetharness/widget-test-harness/mockapi"
	"github.com/widgetharness/widget-test-harness/servicedef"
	"github.com/widgetharness/widget-test-harness/surface"
)

const (
	quoteBox        = "quote-box"
	quoteText       = "text"
	quoteAuthor     = "author"
	quoteNewQuote   = "new-quote"
	quoteTweetQuote = "tweet-quote"

	// quoteRequestTimeout is how long a quote machine has to show a quote it asked for.
	quoteRequestTimeout = 3 * time.Second
	// quoteHoldWindow is how long the current quote must stay put after a failed request.
	quoteHoldWindow = 500 * time.Millisecond
)

func doQuoteMachineTests(t *ctest.T) {
	t.Run("elements", doQuoteElementTests)
	t.Run("content", doQuoteContentTests)
}

// QuoteSource is a mock quote API that a quote machine in the test service fetches from.
type QuoteSource struct {
	Service  *mockapi.QuoteService
	Endpoint *harness.MockEndpoint
}

// NewQuoteSource starts a mock quote API on the harness. It is closed when the test scope exits.
func NewQuoteSource(t *ctest.T) *QuoteSource {
	service := mockapi.NewQuoteService(framework.LoggerWithPrefix(t.DebugLogger(), "[quote source] "))
	endpoint := requireContext(t).harness.NewMockEndpoint(service, t.DebugLogger(),
		harness.MockEndpointDescription("quote source"))
	t.Defer(endpoint.Close)
	return &QuoteSource{Service: service, Endpoint: endpoint}
}

// ApplyConfiguration points the quote machine at this source.
func (q *QuoteSource) ApplyConfiguration(paramsOut *servicedef.CreateInstanceParams) {
	WithQuoteSource(q.Endpoint.BaseURL() + mockapi.QuotePath).ApplyConfiguration(paramsOut)
}

func newQuoteMachine(t *ctest.T, source *QuoteSource) *WidgetClient {
	return NewWidgetClient(t, servicedef.WidgetQuoteMachine, source)
}

func doQuoteElementTests(t *ctest.T) {
	machine := newQuoteMachine(t, NewQuoteSource(t))

	for _, id := range []string{quoteBox, quoteText, quoteAuthor, quoteNewQuote, quoteTweetQuote} {
		t.Run(id, func(t *ctest.T) {
			assert.NoError(t, surface.AssertElementPresent(machine, id))
		})
	}
}

// awaitQuote waits for the quote text to be anything other than the given value.
func awaitQuote(t *ctest.T, machine *WidgetClient, previous string) string {
	t.Helper()
	text, err := surface.AwaitCondition(t.Ctx(), machine, quoteText, surface.NotEquals(previous), quoteRequestTimeout)
	require.NoError(t, err, "no quote was displayed")
	return text
}

func doQuoteContentTests(t *ctest.T) {
	t.RequireCapability(servicedef.CapabilityStateStream)

	t.Run("initial quote is displayed", func(t *ctest.T) {
		source := NewQuoteSource(t)
		machine := newQuoteMachine(t, source)
		text := awaitQuote(t, machine, "")
		assert.True(t, source.Service.Known(text), "displayed quote %q did not come from the quote source", text)
		assert.GreaterOrEqual(t, source.Endpoint.RequestCount(), 1)
	})

	t.Run("new-quote fetches a different quote", func(t *ctest.T) {
		source := NewQuoteSource(t)
		machine := newQuoteMachine(t, source)
		first := awaitQuote(t, machine, "")
		requireActivate(t, machine, quoteNewQuote)
		second := awaitQuote(t, machine, first)
		assert.True(t, source.Service.Known(second))
	})

	t.Run("tweet link goes to twitter", func(t *ctest.T) {
		machine := newQuoteMachine(t, NewQuoteSource(t))
		awaitQuote(t, machine, "")
		href := requireRead(t, machine, quoteTweetQuote)
		m.In(t).Assert(strings.ToLower(href), m.StringContains("twitter"))
	})

	t.Run("current quote is kept when the source fails", func(t *ctest.T) {
		t.NonCritical("handling an unavailable quote source is recommended but not required")
		source := NewQuoteSource(t)
		machine := newQuoteMachine(t, source)
		first := awaitQuote(t, machine, "")
		countBefore := source.Endpoint.RequestCount()

		source.Service.SetFailure(http.StatusServiceUnavailable)
		requireActivate(t, machine, quoteNewQuote)
		helpers.RequireEventually(t, func() bool { return source.Endpoint.RequestCount() > countBefore },
			quoteRequestTimeout, 20*time.Millisecond, "quote machine did not ask for a new quote")
		require.NoError(t, surface.AwaitStable(t.Ctx(), machine, quoteText, quoteHoldWindow))
		assert.NoError(t, surface.AssertImmediateEquals(machine, quoteText, first))
	})
}
