// Package domain defines the core domain models for tickstate.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "TS-STOR-5002")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// Detailf is WithDetails with formatting.
func (e *DomainError) Detailf(format string, args ...any) *DomainError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return code == "" || de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Schema Errors (SCHM)
// ============================================================================

var (
	// ErrSchemaMismatch indicates a snapshot or delta does not match the
	// declared schema. It signals build-time schema drift and is never coerced.
	ErrSchemaMismatch = NewDomainError("TS-SCHM-4220", "schema mismatch")

	// ErrSchemaInvalid indicates a schema definition could not be built.
	ErrSchemaInvalid = NewDomainError("TS-SCHM-4000", "invalid schema definition")

	// ErrDeltaMalformed indicates an encoded delta could not be decoded.
	ErrDeltaMalformed = NewDomainError("TS-SCHM-4001", "malformed delta encoding")
)

// ============================================================================
// Storage Errors (STOR / SNAP)
// ============================================================================

var (
	// ErrIOFailure indicates a filesystem error on append or load.
	ErrIOFailure = NewDomainError("TS-STOR-5001", "storage io failure")

	// ErrLogCorruption indicates a record whose declared length runs past
	// the end of the log file.
	ErrLogCorruption = NewDomainError("TS-STOR-5002", "partition log corrupted")

	// ErrPartitionNotFound indicates no log exists for the partition.
	ErrPartitionNotFound = NewDomainError("TS-STOR-4040", "partition log not found")

	// ErrPayloadTooLarge indicates a record payload exceeds the 16-bit length field.
	ErrPayloadTooLarge = NewDomainError("TS-STOR-4130", "record payload too large")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = NewDomainError("TS-STOR-5030", "store closed")

	// ErrSnapshotNotFound indicates no snapshot file exists for the partition.
	ErrSnapshotNotFound = NewDomainError("TS-SNAP-4040", "snapshot not found")

	// ErrSnapshotCorrupted indicates a snapshot failed magic or checksum validation.
	ErrSnapshotCorrupted = NewDomainError("TS-SNAP-5002", "snapshot corrupted")

	// ErrSnapshotExists indicates a copy target already has a snapshot.
	ErrSnapshotExists = NewDomainError("TS-SNAP-4090", "snapshot already exists")
)

// ============================================================================
// Fork Errors (FORK)
// ============================================================================

var (
	// ErrForkIdentityParse indicates the init or a join record is not
	// parseable per the reserved framing.
	ErrForkIdentityParse = NewDomainError("TS-FORK-4001", "fork identity parse failure")

	// ErrEmptyLog indicates the source partition has no records to replay.
	ErrEmptyLog = NewDomainError("TS-FORK-4002", "partition log is empty")
)

// ============================================================================
// Credential Errors (CRED)
// ============================================================================

var (
	// ErrCredentialInvalid indicates the credential is unknown or malformed.
	ErrCredentialInvalid = NewDomainError("TS-CRED-4010", "invalid credential")

	// ErrCredentialExpired indicates the credential has expired.
	ErrCredentialExpired = NewDomainError("TS-CRED-4011", "credential expired")

	// ErrInternal indicates an unexpected internal failure.
	ErrInternal = NewDomainError("TS-SYS-5000", "internal error")

	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("TS-ARG-1001", "invalid argument")
)
