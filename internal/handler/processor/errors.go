package processor

import (
	"fmt"

	"github.com/pkg/errors"
)

// InternalError marks a failure on our side (configuration, persistence) answered with a 5xx.
type InternalError struct {
	Cause error
}

func (m *InternalError) Error() string {
	return fmt.Sprintf("internal error: %v", m.Cause)
}

func (m *InternalError) Unwrap() error {
	return m.Cause
}

// NewInternalError formats a new InternalError.
func NewInternalError(format string, args ...any) error {
	return &InternalError{Cause: errors.Errorf(format, args...)}
}

// RejectedError marks a delivery refused because of the sender (missing headers, bad signature,
// unsupported event type), answered with a 4xx.
type RejectedError struct {
	Cause error
}

func (m *RejectedError) Error() string {
	return fmt.Sprintf("rejected: %v", m.Cause)
}

func (m *RejectedError) Unwrap() error {
	return m.Cause
}

// NewRejectedError wraps cause in a RejectedError.
func NewRejectedError(cause error) error {
	return &RejectedError{Cause: cause}
}
