package queue

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationNotFound is returned when no configuration matches the requested identifier.
	ErrConfigurationNotFound = errors.New("queue configuration not found")
	// ErrDuplicateIdentifier is returned when two configurations share one identifier.
	ErrDuplicateIdentifier = errors.New("duplicate queue identifier")
	// ErrConnection describes a broker that is unreachable or refused the credentials.
	ErrConnection = errors.New("broker connection failed")
	// ErrQueueNotFound is returned by a passive declare against a queue the broker does not have.
	ErrQueueNotFound = errors.New("queue not found")
	// ErrQueueDeclare describes a declaration the broker refused, e.g. conflicting properties.
	ErrQueueDeclare = errors.New("queue declaration failed")
	// ErrBroker wraps transport failures raised after a queue has been constructed.
	ErrBroker = errors.New("broker operation failed")

	ErrNotAuthorizedForPublish = errors.New("queue is not authorized for publishing")
	ErrNotAuthorizedForReceive = errors.New("queue is not authorized for receiving")

	ErrSerialization   = errors.New("message serialization failed")
	ErrDeserialization = errors.New("message deserialization failed")
	ErrDecode          = errors.New("message payload is not valid UTF-8")

	ErrQueueClosed   = errors.New("queue is closed")
	ErrFactoryClosed = errors.New("queue factory is closed")
)

// Error carries the queue identifier and operation alongside the error kind and its transport cause.
// Both Kind and Cause take part in errors.Is and errors.As.
type Error struct {
	Identifier string
	Op         string
	Kind       error
	Cause      error
}

func newError(identifier, op string, kind, cause error) *Error {
	return &Error{
		Identifier: identifier,
		Op:         op,
		Kind:       kind,
		Cause:      cause,
	}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("queue %q: %s: %v", e.Identifier, e.Op, e.Kind)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}

	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}

	return errs
}
