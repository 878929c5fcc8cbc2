package mailtm

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a 404 from the provider: the resource is absent, and
// callers decide per their own policy whether absence is fatal.
var ErrNotFound = errors.New("provider resource not found")

// APIError is a non-2xx, non-404 response from the provider. The façade
// answers with the same status code and the provider's raw error text.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider error %d", e.StatusCode)
}

// NetworkError is a transport-level failure before any provider status was
// received. The façade maps it to HTTP 500.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("provider unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
