// Package dto holds the JSON envelopes of the ops HTTP server.
package dto

// Response represents a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes used by the ops endpoints
const (
	ErrCodeUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeNotFound    = "NOT_FOUND"
)

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// NewErrorResponseWithData creates an error response that still carries a body,
// e.g. the failing checks of a readiness probe
func NewErrorResponseWithData(code, message string, data any) Response {
	resp := NewErrorResponse(code, message)
	resp.Data = data
	return resp
}
