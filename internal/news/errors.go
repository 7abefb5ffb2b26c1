package news

import "fmt"

// ErrMalformedPayload matches any NewsFailure caused by an unparsable body
var ErrMalformedPayload = &NewsFailure{Reason: ReasonMalformedPayload}

// FailureReason classifies a NewsFailure
type FailureReason string

const ReasonMalformedPayload FailureReason = "malformed_payload"

// NewsFailure reports a response that arrived but could not be used
type NewsFailure struct {
	Reason   FailureReason
	Endpoint string
	Err      error
}

func (e *NewsFailure) Error() string {
	return fmt.Sprintf("malformed payload from %s: %v", e.Endpoint, e.Err)
}

func (e *NewsFailure) Unwrap() error {
	return e.Err
}

// Is reports whether target is a NewsFailure with the same reason
func (e *NewsFailure) Is(target error) bool {
	t, ok := target.(*NewsFailure)
	return ok && t.Reason == e.Reason
}
