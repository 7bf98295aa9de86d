// Package errors provides the structured error type shared by every layer of
// iofs: the local filesystem adapter, the S3 backend, the SigV4 authorizer,
// and the log codec all report failures through one of a small, fixed set of
// kinds rather than ad hoc error strings.
package errors

import (
	"fmt"
	"time"
)

// Kind identifies the category of failure an FsError represents. The set is
// closed: callers are expected to switch on it, not string-match messages.
type Kind string

const (
	// NotFound signals that a path or object key does not exist.
	NotFound Kind = "NOT_FOUND"
	// AlreadyExists signals a create-exclusive collision.
	AlreadyExists Kind = "ALREADY_EXISTS"
	// PermissionDenied signals a local ACL rejection or an S3 403 after
	// retries were exhausted.
	PermissionDenied Kind = "PERMISSION_DENIED"
	// UnexpectedEof signals a read that came up short of what was promised.
	UnexpectedEof Kind = "UNEXPECTED_EOF"
	// InvalidData signals a decoded discriminant or length out of range.
	InvalidData Kind = "INVALID_DATA"
	// Unsupported signals a capability absent on the backend in use (e.g.
	// link on S3).
	Unsupported Kind = "UNSUPPORTED"
	// Closed signals an operation attempted on an already-closed handle.
	Closed Kind = "CLOSED"
	// Transport signals an HTTP/network failure, wrapping its cause.
	Transport Kind = "TRANSPORT"
	// Authorize signals a SigV4 precondition violation (no host, invalid
	// header value, ...).
	Authorize Kind = "AUTHORIZE"
	// Io is the catch-all for wrapped OS errors.
	Io Kind = "IO"
)

// retryableByDefault marks the error kinds that are safe to retry: transient
// transport failures, which map to 5xx/408/429 at the S3 backend's request
// layer. Everything else is surfaced immediately.
var retryableByDefault = map[Kind]bool{
	Transport: true,
}

// FsError is the structured error type returned by iofs operations. It
// implements error and Unwrap (for errors.Is/As) and carries enough context
// to log without leaking secret material — callers must never place
// credential values in Message, Context, or a wrapped Cause's string.
type FsError struct {
	Kind      Kind
	Message   string
	Component string
	Operation string
	Context   map[string]string
	Cause     error
	Retryable bool
	Timestamp time.Time
}

// New creates an FsError of the given kind with the retryable default for
// that kind.
func New(kind Kind, message string) *FsError {
	return &FsError{
		Kind:      kind,
		Message:   message,
		Retryable: retryableByDefault[kind],
		Timestamp: time.Now(),
	}
}

// Error implements the error interface.
func (e *FsError) Error() string {
	if e.Component != "" {
		if e.Operation != "" {
			return fmt.Sprintf("[%s:%s] %s: %s", e.Component, e.Operation, e.Kind, e.Message)
		}
		return fmt.Sprintf("[%s] %s: %s", e.Component, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, enabling errors.Is/As to see through
// an FsError to whatever it wraps.
func (e *FsError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an FsError of the same Kind, so callers can
// write stderrors.Is(err, &FsError{Kind: NotFound}).
func (e *FsError) Is(target error) bool {
	other, ok := target.(*FsError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// WithComponent sets the component that raised the error (e.g. "s3fs",
// "localfs", "awssig") and returns the receiver for chaining.
func (e *FsError) WithComponent(component string) *FsError {
	e.Component = component
	return e
}

// WithOperation sets the operation name (e.g. "GetObject", "open_options")
// and returns the receiver for chaining.
func (e *FsError) WithOperation(operation string) *FsError {
	e.Operation = operation
	return e
}

// WithCause attaches an underlying error and returns the receiver for
// chaining.
func (e *FsError) WithCause(cause error) *FsError {
	e.Cause = cause
	return e
}

// WithContext attaches a key/value pair of diagnostic context. Never pass
// credential material here.
func (e *FsError) WithContext(key, value string) *FsError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithRetryable overrides the default retryable classification for this
// particular instance and returns the receiver for chaining.
func (e *FsError) WithRetryable(retryable bool) *FsError {
	e.Retryable = retryable
	return e
}

// Is reports whether err is (or wraps) an FsError of the given kind.
func Is(err error, kind Kind) bool {
	fe := asFsError(err)
	return fe != nil && fe.Kind == kind
}

// asFsError walks err's Unwrap chain looking for an *FsError.
func asFsError(err error) *FsError {
	for err != nil {
		if fe, ok := err.(*FsError); ok {
			return fe
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}
