package handler

import (
	"time"

	"github.com/yndnr/tickstate-go/internal/core/domain"
)

// Response is the standard API response envelope.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// ListPartitionsResponse is the response body for GET /admin/v1/partitions.
type ListPartitionsResponse struct {
	Partitions []domain.PartitionID `json:"partitions"`
}

// RecordResponse is one log record. Payload is base64 encoded by encoding/json.
type RecordResponse struct {
	Time    uint64 `json:"time"`
	Payload []byte `json:"payload"`
}

// LogResponse is the response body for GET /admin/v1/partitions/{id}/log.
//
// Corrupted is set when the log has a truncated tail; Records then holds
// every complete record before it.
type LogResponse struct {
	Partition domain.PartitionID `json:"partition"`
	Records   []RecordResponse   `json:"records"`
	Corrupted bool               `json:"corrupted,omitempty"`
}

// ForkEntryResponse is one participant admitted into a fork.
type ForkEntryResponse struct {
	UserID       string `json:"user_id"`
	CredentialID string `json:"credential_id"`
	JoinURL      string `json:"join_url"`
}

// ForkFailureResponse is one participant that could not be admitted.
type ForkFailureResponse struct {
	UserID string `json:"user_id"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error"`
}

// ForkResponse is the response body for POST /admin/v1/partitions/{id}/fork.
type ForkResponse struct {
	Source    domain.PartitionID    `json:"source"`
	Partition domain.PartitionID    `json:"partition"`
	Entries   []ForkEntryResponse   `json:"entries"`
	Failures  []ForkFailureResponse `json:"failures,omitempty"`
}

// VerifyCredentialRequest is the request body for POST /admin/v1/credentials/verify.
type VerifyCredentialRequest struct {
	Token string `json:"token"`
}

// VerifyCredentialResponse is the response body for POST /admin/v1/credentials/verify.
type VerifyCredentialResponse struct {
	Valid        bool               `json:"valid"`
	CredentialID string             `json:"credential_id,omitempty"`
	Partition    domain.PartitionID `json:"partition,omitempty"`
	UserID       string             `json:"user_id,omitempty"`
	ExpiresAt    int64              `json:"expires_at,omitempty"`
	Message      string             `json:"message,omitempty"`
}
