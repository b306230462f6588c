// Package bridge carries interop envelopes between the client and the host
// over an opaque channel (NATS in production, an in-memory loopback in tests
// and standalone mode).
package bridge

// Kind distinguishes fire-and-forget events from method calls.
type Kind string

const (
	KindEvent  Kind = "event"
	KindMethod Kind = "method"
)

// Envelope is one message crossing the host boundary in either direction.
// Payload is the JSON-stringified service payload.
type Envelope struct {
	ID      string `json:"id,omitempty"`
	FQN     string `json:"fqn"`
	Version string `json:"version"`
	Kind    Kind   `json:"kind"`
	Payload string `json:"payload"`
}

// Reply answers a method envelope.
type Reply struct {
	ID     string       `json:"id,omitempty"`
	Ok     bool         `json:"ok"`
	Result string       `json:"result,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes used in replies.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeServiceNotFound = "SERVICE_NOT_FOUND"
	CodeHandlerFailed   = "HANDLER_FAILED"
)

// Failure builds a failed reply.
func Failure(id, code, message string) *Reply {
	return &Reply{ID: id, Ok: false, Error: &ErrorDetail{Code: code, Message: message}}
}
