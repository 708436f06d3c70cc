// Package llm is the uniform gateway to language model providers.
//
// The gateway does one thing: send a request, return a response. It never
// retries (see CompleteWithRetry) and never mutates workflow state. A
// response is either a terminal answer, a set of requested tool calls, or
// an error.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Client invokes a language model.
// Implementations must be safe for concurrent use.
type Client interface {
	// Complete sends a completion request and blocks until the full
	// response is available.
	Complete(ctx context.Context, req Request) (*Response, error)
}

// InvocationError wraps a provider failure.
// Retryable marks transient failures (rate limits, timeouts, overload)
// that the retry wrapper may attempt again.
type InvocationError struct {
	Op        string
	Err       error
	Retryable bool
}

// Error implements the error interface.
func (e *InvocationError) Error() string {
	return fmt.Sprintf("llm %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *InvocationError) Unwrap() error {
	return e.Err
}

// NewError creates an invocation error.
func NewError(op string, err error, retryable bool) *InvocationError {
	return &InvocationError{Op: op, Err: err, Retryable: retryable}
}

// StructuredOutputError indicates a model response that failed to conform
// to the requested schema.
type StructuredOutputError struct {
	// Raw is the model's original response text.
	Raw string
	// Err is the extraction, decode, or validation failure.
	Err error
}

// Error implements the error interface.
func (e *StructuredOutputError) Error() string {
	return fmt.Sprintf("structured output: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StructuredOutputError) Unwrap() error {
	return e.Err
}

// isRetryableMessage checks if an error message indicates a transient failure.
func isRetryableMessage(errMsg string) bool {
	errLower := strings.ToLower(errMsg)
	return strings.Contains(errLower, "rate limit") ||
		strings.Contains(errLower, "timeout") ||
		strings.Contains(errLower, "overloaded") ||
		strings.Contains(errLower, "503") ||
		strings.Contains(errLower, "529")
}
