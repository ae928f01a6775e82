package llm

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mission-control/internal/resilience"
)

var (
	// ErrRejected marks a request the provider declined as malformed for the
	// selected model.
	ErrRejected = errors.New("request rejected by provider")

	// ErrUnavailable marks a provider-side failure or an unreachable provider.
	ErrUnavailable = errors.New("provider unavailable")
)

// Error is a classified provider failure. Kind is ErrRejected or
// ErrUnavailable; StatusCode is 0 when no HTTP response was received.
type Error struct {
	Provider   string
	Model      string
	StatusCode int
	Message    string
	Kind       error
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %v (status %d): %s", e.Provider, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %v: %s", e.Provider, e.Kind, e.Message)
}

// Unwrap exposes both the kind sentinel and the underlying SDK error.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsRejectedStatus reports whether a provider HTTP status means the request
// itself was malformed for the model.
func IsRejectedStatus(code int) bool {
	switch code {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return true
	default:
		return false
	}
}

// StatusError classifies a provider response carrying an HTTP error status.
func StatusError(provider, model string, status int, message string, err error) *Error {
	kind := ErrUnavailable
	if IsRejectedStatus(status) {
		kind = ErrRejected
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{
		Provider:   provider,
		Model:      model,
		StatusCode: status,
		Message:    message,
		Kind:       kind,
		Err:        err,
	}
}

// TransportError classifies a failure that produced no provider response.
// Network-level failures become ErrUnavailable; anything else is wrapped and
// returned unclassified.
func TransportError(provider, model string, err error) error {
	if resilience.IsTransient(err) {
		return &Error{
			Provider: provider,
			Model:    model,
			Message:  err.Error(),
			Kind:     ErrUnavailable,
			Err:      err,
		}
	}
	return eris.Wrapf(err, "%s: complete", provider)
}
