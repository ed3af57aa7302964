package validator

import "fmt"

// TransportError means the verification service could not be reached or did not answer in time.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("token validation request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RejectedError means the verification service answered but did not accept the token.
type RejectedError struct {
	StatusCode int
	// Message is the "error" field of the reply, nil when the reply carries none.
	Message *string
	// Body is the raw reply, kept for diagnostics.
	Body string
}

func (e *RejectedError) Error() string {
	if e.Message != nil {
		return fmt.Sprintf("token rejected: %s", *e.Message)
	}
	return fmt.Sprintf("token rejected (status %d)", e.StatusCode)
}
