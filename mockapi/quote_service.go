package mockapi

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/widgetharness/widget-test-harness/framework"
	"github.com/widgetharness/widget-test-harness/framework/helpers"
)

// QuotePath is the subpath, relative to the endpoint's base URL, that serves one quote per request.
const QuotePath = "/quote"

// Quote is the JSON body returned by QuotePath.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// DefaultQuotes is what a new QuoteService serves. No two adjacent entries are the same.
var DefaultQuotes = []Quote{ //nolint:gochecknoglobals
	{Text: "The only way to do great work is to love what you do.", Author: "Steve Jobs"},
	{Text: "Talk is cheap. Show me the code.", Author: "Linus Torvalds"},
	{Text: "Any fool can write code that a computer can understand.", Author: "Martin Fowler"},
	{Text: "First, solve the problem. Then, write the code.", Author: "John Johnson"},
	{Text: "Testing shows the presence, not the absence of bugs.", Author: "Edsger W. Dijkstra"},
}

// QuoteService hands out quotes in rotation. It can be told to fail, to test how a widget copes
// with an unavailable source.
type QuoteService struct {
	quotes      []Quote
	next        int
	served      []Quote
	failStatus  int
	handler     http.Handler
	debugLogger framework.Logger
	lock        sync.Mutex
}

func NewQuoteService(debugLogger framework.Logger, quotes ...Quote) *QuoteService {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	if len(quotes) == 0 {
		quotes = DefaultQuotes
	}
	q := &QuoteService{quotes: helpers.CopyOf(quotes), debugLogger: debugLogger}

	router := mux.NewRouter()
	router.HandleFunc(QuotePath, q.serveQuote).Methods("GET")
	q.handler = router
	return q
}

func (q *QuoteService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q.handler.ServeHTTP(w, r)
}

func (q *QuoteService) serveQuote(w http.ResponseWriter, _ *http.Request) {
	q.lock.Lock()
	if q.failStatus != 0 {
		status := q.failStatus
		q.lock.Unlock()
		q.debugLogger.Printf("Quote service returning error %d", status)
		w.WriteHeader(status)
		return
	}
	quote := q.quotes[q.next]
	q.next = (q.next + 1) % len(q.quotes)
	q.served = append(q.served, quote)
	q.lock.Unlock()

	data := helpers.AsJSON(quote)
	q.debugLogger.Printf("Sending quote: %s", string(data))
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// SetQuotes replaces the rotation and starts it from the beginning.
func (q *QuoteService) SetQuotes(quotes ...Quote) error {
	if len(quotes) == 0 {
		return fmt.Errorf("quote service needs at least one quote")
	}
	q.lock.Lock()
	q.quotes = helpers.CopyOf(quotes)
	q.next = 0
	q.lock.Unlock()
	return nil
}

// SetFailure makes every request fail with the given status. Zero restores normal operation.
func (q *QuoteService) SetFailure(status int) {
	q.lock.Lock()
	q.failStatus = status
	q.lock.Unlock()
}

// Served returns every quote sent so far, in order.
func (q *QuoteService) Served() []Quote {
	q.lock.Lock()
	defer q.lock.Unlock()
	return helpers.CopyOf(q.served)
}

// Known returns true if quote text is one this service can serve.
func (q *QuoteService) Known(text string) bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	for _, quote := range q.quotes {
		if quote.Text == text {
			return true
		}
	}
	return false
}
