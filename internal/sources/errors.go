package sources

import "fmt"

// FailureKind classifies why a fetch produced no usable stats, so the
// credit engine can decide between retrying next cycle and recording an
// error event without inspecting error strings.
type FailureKind string

const (
	FailureNotFound  FailureKind = "not_found"
	FailureTimeout   FailureKind = "timeout"
	FailureMalformed FailureKind = "malformed"
	FailureHTTP      FailureKind = "http_error"
)

type FetchError struct {
	Source string
	Kind   FailureKind
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source %s: %s: %v", e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("source %s: %s", e.Source, e.Kind)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure class from an adapter error; unknown errors
// are treated as unreachable-source failures.
func KindOf(err error) FailureKind {
	if fe, ok := err.(*FetchError); ok {
		return fe.Kind
	}
	return FailureHTTP
}
