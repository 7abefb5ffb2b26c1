// Executes HTTP requests against the news backend
package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iTrooz/news-reader/internal/observe"
)

// DefaultTimeout applies when the Fetcher is built with a non-positive timeout
const DefaultTimeout = 5 * time.Second

// Response is a fully read HTTP response
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Fetcher issues single GET requests with an enforced timeout
type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	connectivity Connectivity
	observer     observe.Observer
}

// NewFetcher creates a fetcher. A nil client uses http.DefaultClient.
func NewFetcher(client *http.Client, timeout time.Duration, connectivity Connectivity, observer observe.Observer) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		client:       client,
		timeout:      timeout,
		connectivity: connectivity,
		observer:     observer,
	}
}

// Timeout returns the per-request timeout
func (f *Fetcher) Timeout() time.Duration {
	return f.timeout
}

// Execute performs a GET on url. Every failure is a *NetworkFailure and is
// reported to the observer before being returned.
func (f *Fetcher) Execute(ctx context.Context, url string) (*Response, error) {
	f.observer.Info("Executing request", observe.Fields{"url": url, "timeout": f.timeout.String()})

	if !f.connectivity.Online() {
		failure := &NetworkFailure{Reason: ReasonOffline, URL: url}
		f.observer.Error("Connection error", observe.Fields{"url": url, "error": failure.Error()})
		return nil, failure
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, f.transportFailure(url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, f.classify(ctx, reqCtx, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		failure := &NetworkFailure{Reason: ReasonHTTPStatus, URL: url, Status: resp.StatusCode}
		f.observer.Error("HTTP error", observe.Fields{"status": resp.StatusCode, "url": url})
		return nil, failure
	}

	// The timeout also covers the body
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, f.classify(ctx, reqCtx, url, err)
	}

	f.observer.Info("Request succeeded", observe.Fields{"status": resp.StatusCode, "url": url})
	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
	}, nil
}

// classify turns a transport error into a timeout when our own timer fired
func (f *Fetcher) classify(parent, reqCtx context.Context, url string, err error) error {
	if parent.Err() == nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		f.observer.Warn(fmt.Sprintf("Request to %s exceeded the timeout", url), observe.Fields{"timeout": f.timeout.String()})
		failure := &NetworkFailure{Reason: ReasonTimeout, URL: url, Duration: f.timeout, Err: err}
		f.observer.Error("Request timeout", observe.Fields{"url": url, "timeout": f.timeout.String()})
		return failure
	}
	return f.transportFailure(url, err)
}

func (f *Fetcher) transportFailure(url string, err error) error {
	failure := &NetworkFailure{Reason: ReasonTransport, URL: url, Message: err.Error(), Err: err}
	f.observer.Error("Network error", observe.Fields{"error": err.Error(), "url": url})
	return failure
}
