package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Validator is implemented by structured output types that carry their own
// conformance checks beyond JSON shape (score bounds, required fields).
type Validator interface {
	Validate() error
}

// Structured invokes the client and decodes the response into T.
//
// The model may wrap its JSON in markdown or prose; ExtractJSON handles
// both. If extraction, decoding, or validation fails, the call fails with
// a *StructuredOutputError carrying the raw response so call sites can
// decide between a clarifying retry and a degraded default.
func Structured[T any](ctx context.Context, client Client, req Request, opts ...RetryOption) (T, error) {
	var result T

	resp, err := CompleteWithRetry(ctx, client, req, opts...)
	if err != nil {
		return result, err
	}

	jsonStr, err := ExtractJSON(resp.Content)
	if err != nil {
		return result, &StructuredOutputError{Raw: resp.Content, Err: err}
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, &StructuredOutputError{
			Raw: resp.Content,
			Err: fmt.Errorf("decode: %w", err),
		}
	}

	if v, ok := any(result).(Validator); ok {
		if err := v.Validate(); err != nil {
			return result, &StructuredOutputError{
				Raw: resp.Content,
				Err: fmt.Errorf("validate: %w", err),
			}
		}
	}

	return result, nil
}
