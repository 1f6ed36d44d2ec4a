// Package errors provides the structured error taxonomy for command
// execution: business rejections meaningful to callers, and technical
// failures from storage, serialization, and the identity registry.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeCommandRejected marks a business rule violation: the command is
	// invalid given current aggregate state. Expected, caller-facing,
	// never retried automatically.
	CodeCommandRejected Code = "COMMAND_REJECTED"

	// Store errors
	CodeConcurrencyConflict  Code = "CONCURRENCY_CONFLICT"
	CodeStorageFailure       Code = "STORAGE_FAILURE"
	CodeSerializationFailure Code = "SERIALIZATION_FAILURE"

	// Registry errors
	CodeRegistryLockFailed   Code = "REGISTRY_LOCK_FAILED"
	CodeRegistryEntryInvalid Code = "REGISTRY_ENTRY_INVALID"

	// Runtime errors
	CodeInstanceStopped Code = "INSTANCE_STOPPED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// FailedPrecondition - state doesn't allow the command
	case CodeCommandRejected:
		return codes.FailedPrecondition

	// Aborted - safe for the caller to retry the whole execute
	case CodeConcurrencyConflict:
		return codes.Aborted

	// Unavailable - infrastructure is unhealthy
	case CodeStorageFailure, CodeInstanceStopped:
		return codes.Unavailable

	// Internal - configuration or programming defects
	case CodeSerializationFailure, CodeRegistryLockFailed, CodeRegistryEntryInvalid:
		return codes.Internal

	default:
		return codes.Unknown
	}
}
