package handler

import (
	"fmt"
	"strings"

	"github.com/pkordes/activity-log/internal/domain"
)

// ErrorDetail is the machine code and human-readable message of a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// notFoundBody returns an ErrorResponse for a missing resource.
// The caller supplies the human-readable message (e.g. "activity not found")
// because the handler is the layer that knows what was being looked up.
func notFoundBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "not_found", Message: message}}
}

// validationBody returns an ErrorResponse for a domain validation failure.
// The message is extracted from the wrapped domain.ErrValidation error.
func validationBody(err error) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: unwrapMessage(err)}}
}

// requestBody returns an ErrorResponse for a request rejected before reaching
// the store (e.g. missing or malformed body, unparsable path id).
func requestBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "bad_request", Message: message}}
}

// tooLargeBody returns an ErrorResponse for a body over the configured limit.
func tooLargeBody(limit int64) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{
		Code:    "body_too_large",
		Message: fmt.Sprintf("request body exceeds %d bytes", limit),
	}}
}

// storageBody returns an ErrorResponse for a failed durable write. The change
// is kept for the running session, so the message says so.
func storageBody() ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{
		Code:    "storage_error",
		Message: "change applied for this session but could not be saved",
	}}
}

// unwrapMessage extracts the human-readable part from a wrapped validation error.
// e.g. "validation error: custom category required" → "custom category required"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	prefix := domain.ErrValidation.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}
