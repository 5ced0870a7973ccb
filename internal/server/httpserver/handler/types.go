package handler

import (
	"time"

	"github.com/yndnr/scuttlekit-go/internal/core/domain"
)

// Response is the error envelope. Successful responses carry their
// payload directly so apps see the documented shapes.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
	Details   any    `json:"details,omitempty"`
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

// RegisterResponse is the response body for POST /register.
type RegisterResponse struct {
	Token    string             `json:"token"`
	Settings domain.AppSettings `json:"settings"`
}

// ValidateRequest is the optional request body for POST /validate.
// A bearer token in the Authorization header takes precedence.
type ValidateRequest struct {
	Token string `json:"token"`
}

// ValidateResponse is the response body for POST /validate.
type ValidateResponse struct {
	Valid bool `json:"valid"`
}

// HealthResponse is the response body for GET /health and GET /ready.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
	Error  string `json:"error,omitempty"`
}
