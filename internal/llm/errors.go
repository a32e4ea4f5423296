package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// TransportError reports a network or HTTP-level failure: connection errors,
// non-2xx statuses and exceeded deadlines.
type TransportError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: transport: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: transport: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was an exceeded deadline.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// MalformedEnvelopeError reports a reply envelope without text at the expected location.
type MalformedEnvelopeError struct {
	Provider string
	Detail   string
}

func (e *MalformedEnvelopeError) Error() string {
	return fmt.Sprintf("%s: malformed envelope: %s", e.Provider, e.Detail)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsMalformedEnvelope reports whether err is (or wraps) a MalformedEnvelopeError.
func IsMalformedEnvelope(err error) bool {
	var me *MalformedEnvelopeError
	return errors.As(err, &me)
}
