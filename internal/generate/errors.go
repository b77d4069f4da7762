package generate

import (
	"errors"
	"fmt"
)

// ErrMalformedDFD marks precondition violations: input that is not even
// shaped like a DFD. Structurally invalid-but-shaped DFDs are the validator's
// business; the generator only defends against inputs it cannot iterate.
var ErrMalformedDFD = errors.New("malformed DFD input")

// PreconditionError reports which part of the generator's input contract was
// violated. It wraps ErrMalformedDFD so callers can match with errors.Is.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("generator precondition violated: %s", e.Reason)
}

func (e *PreconditionError) Unwrap() error {
	return ErrMalformedDFD
}
