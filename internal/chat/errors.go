package chat

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a chat failure.
type Kind int

// Failure kinds.
const (
	KindInternal Kind = iota
	KindValidation
	KindUpstreamRejected
	KindUpstreamUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUpstreamRejected:
		return "upstream_rejected"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	default:
		return "internal"
	}
}

// Error is a classified chat failure. Model is set for upstream failures;
// Status is the provider's HTTP status, 0 when it was unreachable.
type Error struct {
	Kind    Kind
	Model   string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chat: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("chat: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps err to the response status of the chat endpoint.
func HTTPStatus(err error) int {
	var chatErr *Error
	if !errors.As(err, &chatErr) {
		return http.StatusInternalServerError
	}
	switch chatErr.Kind {
	case KindValidation, KindUpstreamRejected:
		return http.StatusBadRequest
	case KindUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
