package quote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
)

// Quote is one quotation.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// Source supplies quotes.
type Source interface {
	Next(ctx context.Context) (Quote, error)
}

// HTTPSource fetches a quote with a GET request that returns {"text": ..., "author": ...}.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Next(ctx context.Context) (Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return Quote{}, err
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Quote{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Quote{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("quote source returned status %d", resp.StatusCode)
	}
	return ParseQuote(body)
}

// ParseQuote decodes a quote object, ignoring any properties other than text and author.
func ParseQuote(data []byte) (Quote, error) {
	var q Quote
	r := jreader.NewReader(data)
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "text":
			q.Text = r.String()
		case "author":
			q.Author = r.String()
		default:
			_ = r.SkipValue()
		}
	}
	if err := r.Error(); err != nil {
		return Quote{}, fmt.Errorf("malformed quote JSON: %w", err)
	}
	if q.Text == "" {
		return Quote{}, fmt.Errorf("quote has no text: %s", string(data))
	}
	return q, nil
}

// RotatingSource returns its quotes in order, wrapping around at the end.
type RotatingSource struct {
	quotes []Quote
	next   int
	lock   sync.Mutex
}

// NewRotatingSource creates a RotatingSource. With no quotes it uses DefaultQuotes.
func NewRotatingSource(quotes ...Quote) *RotatingSource {
	if len(quotes) == 0 {
		quotes = DefaultQuotes
	}
	return &RotatingSource{quotes: append([]Quote(nil), quotes...)}
}

func (s *RotatingSource) Next(context.Context) (Quote, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	q := s.quotes[s.next]
	s.next = (s.next + 1) % len(s.quotes)
	return q, nil
}

// DefaultQuotes is the built-in rotation.
var DefaultQuotes = []Quote{
	{Text: "Simplicity is prerequisite for reliability.", Author: "Edsger W. Dijkstra"},
	{Text: "Premature optimization is the root of all evil.", Author: "Donald Knuth"},
	{Text: "Clear is better than clever.", Author: "Rob Pike"},
	{Text: "Make it work, make it right, make it fast.", Author: "Kent Beck"},
	{Text: "Programs must be written for people to read.", Author: "Harold Abelson"},
}
