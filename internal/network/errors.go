package network

import (
	"fmt"
	"time"
)

// Reason classifies a NetworkFailure
type Reason int

const (
	ReasonOffline Reason = iota + 1
	ReasonTimeout
	ReasonHTTPStatus
	ReasonTransport
)

func (r Reason) String() string {
	switch r {
	case ReasonOffline:
		return "offline"
	case ReasonTimeout:
		return "timeout"
	case ReasonHTTPStatus:
		return "http_status"
	case ReasonTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is; they match any NetworkFailure with the same reason.
var (
	ErrOffline    = &NetworkFailure{Reason: ReasonOffline}
	ErrTimeout    = &NetworkFailure{Reason: ReasonTimeout}
	ErrHTTPStatus = &NetworkFailure{Reason: ReasonHTTPStatus}
	ErrTransport  = &NetworkFailure{Reason: ReasonTransport}
)

// NetworkFailure is returned by the Fetcher for every failed call
type NetworkFailure struct {
	Reason   Reason
	URL      string
	Status   int           // set for ReasonHTTPStatus
	Duration time.Duration // set for ReasonTimeout
	Message  string        // set for ReasonTransport
	Err      error
}

func (e *NetworkFailure) Error() string {
	switch e.Reason {
	case ReasonOffline:
		return "no network connection"
	case ReasonTimeout:
		return fmt.Sprintf("request to %s timed out after %s", e.URL, e.Duration)
	case ReasonHTTPStatus:
		return fmt.Sprintf("HTTP error! status: %d", e.Status)
	case ReasonTransport:
		return fmt.Sprintf("request to %s failed: %s", e.URL, e.Message)
	default:
		return "network failure"
	}
}

func (e *NetworkFailure) Unwrap() error {
	return e.Err
}

// Is reports whether target is a NetworkFailure with the same reason
func (e *NetworkFailure) Is(target error) bool {
	t, ok := target.(*NetworkFailure)
	return ok && t.Reason == e.Reason
}

// Retryable reports whether retrying later can succeed without a config change.
// Client errors (4xx) are not retryable.
func (e *NetworkFailure) Retryable() bool {
	if e.Reason == ReasonHTTPStatus {
		return e.Status >= 500 || e.Status == 429
	}
	return true
}
