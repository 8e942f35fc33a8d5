package esp32

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedReply means the device answered 200 with a body that cannot be
// interpreted.
var ErrMalformedReply = errors.New("malformed device reply")

// ErrUnusableReply is the ErrMalformedReply case where the body is valid JSON
// but not an object, or its status/posicao fields have the wrong type.
var ErrUnusableReply = fmt.Errorf("%w: unexpected shape", ErrMalformedReply)

// StatusError is returned when the device answers with a status other than 200
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("device returned status %d", e.Code)
	}
	return fmt.Sprintf("device returned status %d: %s", e.Code, body)
}

// TransportError wraps a network-level failure: refused connection, DNS,
// timeout or a broken reply body. Its message is the underlying description.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
