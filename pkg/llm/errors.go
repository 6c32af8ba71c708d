package llm

import (
	"errors"
	"fmt"
)

// Kind classifies a provider failure so callers can react without
// string-matching error text.
type Kind int

const (
	KindUnknown Kind = iota

	// KindTimeout: the request exceeded its deadline and was aborted.
	KindTimeout

	// KindUnreachable: transport-level failure, e.g. connection refused.
	KindUnreachable

	// KindServiceError: the service answered with a non-2xx status.
	KindServiceError

	// KindMalformedResponse: the reply arrived but the expected message
	// content was missing or undecodable.
	KindMalformedResponse
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindUnreachable:
		return "unreachable"
	case KindServiceError:
		return "service_error"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by providers.
type Error struct {
	Kind   Kind
	Status int // HTTP status, set for KindServiceError
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServiceError:
		return fmt.Sprintf("llm: service returned status %d", e.Status)
	default:
		if e.Err != nil {
			return fmt.Sprintf("llm: %s: %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("llm: %s", e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from an error chain.
// Returns KindUnknown for nil or foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// UserMessage renders a failure as the human-readable text shown on
// the viewer's error card.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindTimeout:
		return "The grammar check timed out. Verify the local model service is running and responsive."
	case KindUnreachable:
		return "Could not reach the local model service. Verify it is running."
	case KindServiceError:
		var e *Error
		errors.As(err, &e)
		return fmt.Sprintf("The model service returned an error (status %d). Verify the configured model is available.", e.Status)
	case KindMalformedResponse:
		return "The model service returned an unexpected response. Verify the configured model is available."
	default:
		return "The grammar check failed. Verify the local model service is running."
	}
}
