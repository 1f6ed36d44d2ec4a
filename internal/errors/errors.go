package errors

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

// Domain is the error domain for chronicle errors.
const Domain = "github.com/louisbranch/chronicle"

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Message surfaced to callers and logs
	Metadata map[string]string // Additional context (aggregate id, seq, ...)
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates a domain error carrying additional context.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Rejected creates a business rejection with a caller-facing message.
// This is the only error kind an aggregate's Handle may return.
func Rejected(message string) *Error {
	return New(CodeCommandRejected, message)
}

// CodeOf extracts the domain code from err, or CodeUnknown when err is
// not a domain error.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeUnknown
}

// IsUser reports whether err is a business rejection rather than a
// technical failure.
func IsUser(err error) bool {
	return CodeOf(err) == CodeCommandRejected
}

// IsConcurrencyConflict reports whether err is an optimistic-concurrency
// conflict; these are expected under contention and may be retried by
// the caller.
func IsConcurrencyConflict(err error) bool {
	return CodeOf(err) == CodeConcurrencyConflict
}

// ToGRPCStatus converts the error to a gRPC status with errdetails, for
// callers that expose command execution over gRPC.
func (e *Error) ToGRPCStatus() error {
	grpcCode := e.Code.GRPCCode()
	st := status.New(grpcCode, e.Message)

	st, err := st.WithDetails(
		&errdetails.ErrorInfo{
			Reason:   string(e.Code),
			Domain:   Domain,
			Metadata: e.Metadata,
		},
	)
	if err != nil {
		// If we can't attach details, return the basic status
		return status.New(grpcCode, e.Message).Err()
	}
	return st.Err()
}
