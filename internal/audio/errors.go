package audio

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the module's error taxonomy. Call sites wrap
// these with fmt.Errorf("%w: ...") and callers compare with errors.Is.
var (
	// ErrValueOutOfRange is returned by validated constructors when a
	// value falls outside its allowed range (e.g. a zero sample rate).
	ErrValueOutOfRange = errors.New("value out of range")

	// ErrMismatchedSpec is returned when a source's AudioSpec does not
	// match the SourceGroup it is being added to.
	ErrMismatchedSpec = errors.New("mismatched spec")

	// ErrChannelDisconnected is returned when a control or data channel
	// closes unexpectedly instead of via a graceful shutdown message.
	ErrChannelDisconnected = errors.New("channel disconnected")
)

// NewValueOutOfRangeError wraps ErrValueOutOfRange with a message.
func NewValueOutOfRangeError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValueOutOfRange, msg)
}

// NewMismatchedSpecError wraps ErrMismatchedSpec with the two specs involved.
func NewMismatchedSpecError(have, want AudioSpec) error {
	return fmt.Errorf("%w: have %s, want %s", ErrMismatchedSpec, have, want)
}
