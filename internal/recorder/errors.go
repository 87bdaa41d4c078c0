package recorder

import (
	"errors"
	"fmt"
)

// ErrMockFramework is the error kind shared by every playback failure that is
// caused by recorded traffic diverging from live traffic.
var ErrMockFramework = errors.New("mock framework")

// ErrFixtureNotFound is returned when no fixture exists for the current step
// of a transaction.
var ErrFixtureNotFound = errors.New("fixture not found")

// ErrStreamingBody is returned when a streaming body is asked for its bytes.
// Recorded fixtures are always buffered, so streaming bodies cannot be compared.
var ErrStreamingBody = errors.New("streaming body comparison is not supported")

// MismatchKind names which check of the comparator failed.
type MismatchKind string

const (
	MismatchURI           MismatchKind = "uri"
	MismatchMissingHeader MismatchKind = "missing_header"
	MismatchExtraHeader   MismatchKind = "extra_header"
	MismatchHeaderValue   MismatchKind = "header_value"
	MismatchMethod        MismatchKind = "method"
	MismatchBody          MismatchKind = "body"
)

// MismatchError describes the first difference found between a live request
// and the recorded one.
type MismatchError struct {
	Kind    MismatchKind
	Message string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMockFramework, e.Message)
}

// Is reports ErrMockFramework so callers can test the error kind without
// caring about the individual check.
func (e *MismatchError) Is(target error) bool {
	return target == ErrMockFramework
}

func mismatch(kind MismatchKind, format string, args ...any) *MismatchError {
	return &MismatchError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ParseError is returned when a fixture does not decode into the canonical
// model. It keeps the raw bytes so a broken fixture can be inspected.
type ParseError struct {
	Subject string
	Body    []byte
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v (body: %q)", e.Subject, e.Err, e.Body)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
