// Package quote implements a quote machine: it shows one quotation at a time, loads a different
// one on request, and offers a link for sharing the current quotation as a tweet.
package quote

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/widgetharness/widget-test-harness/framework/helpers"
	"github.com/widgetharness/widget-test-harness/surface"
)

// Element IDs.
const (
	QuoteBox   = "quote-box"
	Text       = "text"
	Author     = "author"
	NewQuote   = "new-quote"
	TweetQuote = "tweet-quote"
)

// TweetIntentURL is the base of the tweet-quote link.
const TweetIntentURL = "https://twitter.com/intent/tweet"

// fetchTimeout bounds each request to the quote source.
const fetchTimeout = 5 * time.Second

// maxRepeatAttempts is how many times a fetch is retried when it returns the quote already shown.
const maxRepeatAttempts = 3

var Controls = []string{NewQuote}

var Observables = []string{QuoteBox, Text, Author, TweetQuote}

// Machine is the quote machine widget. Quotes are loaded asynchronously; the first load starts
// when the Machine is created.
type Machine struct {
	source      Source
	loggers     ldlog.Loggers
	current     Quote
	broadcaster *surface.Broadcaster
	ctx         context.Context
	cancel      context.CancelFunc
	pending     sync.WaitGroup
	lock        sync.Mutex
}

// New creates a Machine that reads from the given source.
func New(source Source, loggers ldlog.Loggers) *Machine {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Machine{source: source, loggers: loggers, ctx: ctx, cancel: cancel}
	m.broadcaster = surface.NewBroadcaster(m.valuesLocked())
	m.RequestNewQuote()
	return m
}

// RequestNewQuote starts loading a quote different from the current one.
func (m *Machine) RequestNewQuote() {
	m.lock.Lock()
	if m.ctx.Err() != nil {
		m.lock.Unlock()
		return
	}
	m.pending.Add(1)
	m.lock.Unlock()
	go func() {
		defer m.pending.Done()
		m.fetch()
	}()
}

func (m *Machine) fetch() {
	previous := m.Current()
	for attempt := 0; attempt < maxRepeatAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(m.ctx, fetchTimeout)
		q, err := m.source.Next(ctx)
		cancel()
		if err != nil {
			if m.ctx.Err() == nil {
				m.loggers.Warnf("quote fetch failed: %s", err)
			}
			return
		}
		if q.Text != previous.Text || attempt == maxRepeatAttempts-1 {
			m.show(q)
			return
		}
	}
}

func (m *Machine) show(q Quote) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.ctx.Err() != nil {
		return
	}
	m.current = q
	m.broadcaster.Publish(m.valuesLocked())
}

// Current returns the quote being shown. It is empty until the first load completes.
func (m *Machine) Current() Quote {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.current
}

// Close cancels any load in progress, waits for it to finish, and ends every subscription.
func (m *Machine) Close() {
	m.lock.Lock()
	m.cancel()
	m.lock.Unlock()
	m.pending.Wait()
	m.broadcaster.Close()
}

func (m *Machine) valuesLocked() map[string]string {
	return map[string]string{
		QuoteBox:   "",
		Text:       m.current.Text,
		Author:     m.current.Author,
		TweetQuote: TweetLink(m.current),
	}
}

// TweetLink builds the tweet intent URL for a quote.
func TweetLink(q Quote) string {
	text := q.Text
	if q.Author != "" {
		text = `"` + q.Text + `" ` + q.Author
	}
	return TweetIntentURL + "?" + url.Values{"hashtags": {"quotes"}, "text": {text}}.Encode()
}

var _ surface.Surface = (*Machine)(nil)

func (m *Machine) Elements() []string {
	return append(append([]string(nil), Controls...), Observables...)
}

func (m *Machine) Activate(id string) error {
	switch {
	case id == NewQuote:
		m.RequestNewQuote()
	case helpers.SliceContains(id, Observables):
	default:
		return &surface.MissingElementError{ID: id}
	}
	return nil
}

func (m *Machine) Read(id string) (string, error) {
	if id == NewQuote {
		return "", nil
	}
	if v, ok := m.Snapshot().Get(id); ok {
		return v, nil
	}
	return "", &surface.MissingElementError{ID: id}
}

func (m *Machine) Subscribe() (surface.Subscription, error) {
	return m.broadcaster.Subscribe(), nil
}

// Snapshot returns the current values of all observables.
func (m *Machine) Snapshot() surface.Snapshot {
	return m.broadcaster.Latest()
}
