// Package herrors classifies engine errors into the four kinds the spec
// distinguishes: InvalidInput, UpstreamFailure, Timeout, and DataQuality.
// DataQuality conditions are converted to warnings at the point of
// detection and have no constructor here, so ClassifyKind only ever returns
// the first three kinds; the engine uses KindDataQuality directly to label
// an analysis stage that panicked.
package herrors

import (
	"errors"

	"github.com/rotisserie/eris"
)

// Kind names one of the error taxonomy's four buckets.
type Kind string

const (
	KindInvalidInput    Kind = "invalid_input"
	KindUpstreamFailure Kind = "upstream_failure"
	KindTimeout         Kind = "timeout"
	KindDataQuality     Kind = "data_quality"
)

// kindError pairs a Kind with the wrapped error so errors.As can recover it.
type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }

// InvalidInput wraps err as the taxonomy's only synchronously-raised kind.
func InvalidInput(err error) error {
	return &kindError{kind: KindInvalidInput, err: err}
}

// InvalidInputf is eris.Errorf wrapped as InvalidInput.
func InvalidInputf(format string, args ...any) error {
	return InvalidInput(eris.Errorf(format, args...))
}

// UpstreamFailure wraps err (an SEC or market transport failure) for
// per-ticker recording.
func UpstreamFailure(err error) error {
	return &kindError{kind: KindUpstreamFailure, err: err}
}

// Timeout wraps err for a per-ticker deadline exceeded condition.
func Timeout(err error) error {
	return &kindError{kind: KindTimeout, err: err}
}

// ClassifyKind returns the Kind attached to err via this package's
// constructors, or KindUpstreamFailure if err carries no recognized kind
// (the conservative default: an unclassified failure is still a failure to
// reach an upstream collaborator, not a local input or timeout problem).
func ClassifyKind(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindUpstreamFailure
}

// IsInvalidInput reports whether err (or any error in its chain) was
// constructed via InvalidInput/InvalidInputf.
func IsInvalidInput(err error) bool {
	return ClassifyKind(err) == KindInvalidInput
}
