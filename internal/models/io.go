// Package models provides the core data structures for handling webhook requests and responses.
package models

// Request represents an incoming client request containing a body and associated headers.
// Header keys are expected in lower case.
type Request struct {
	Body    string
	Headers map[string]string
}

// Response defines the structure for a plain-text response containing a body, headers, and a status code.
type Response struct {
	Body       string
	Headers    map[string]string
	StatusCode int
}

// NewTextResponse returns a Response carrying a plain-text body.
func NewTextResponse(statusCode int, body string) Response {
	return Response{
		Body:       body,
		StatusCode: statusCode,
		Headers:    map[string]string{"Content-Type": "text/plain"},
	}
}
