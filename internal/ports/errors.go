package ports

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField matches successful responses that lack an expected field.
	ErrMissingField = errors.New("missing field in response")
	// ErrMicrophoneUnavailable wraps every failure to open the capture device.
	ErrMicrophoneUnavailable = errors.New("microphone unavailable")
)

// APIError is a non-success HTTP response from the backend.
type APIError struct {
	StatusCode int
	Detail     string
	// AudioURL is set when the backend still produced playable audio.
	AudioURL string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status: %d", e.StatusCode)
}

// TransportError is a request that did not produce a usable response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MissingFieldError reports the field a successful response lacked.
type MissingFieldError struct {
	Field   string
	Message string
}

func (e *MissingFieldError) Error() string {
	return e.Message
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}
