package llm

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedClient replays a fixed sequence of responses.
// It exists so workflows can be driven deterministically in tests and
// examples; the executor takes a Client, never a provider singleton.
type ScriptedClient struct {
	mu        sync.Mutex
	responses []ScriptedResponse
	index     int
	requests  []Request
}

// ScriptedResponse is one scripted turn: either a response or an error.
type ScriptedResponse struct {
	Response *Response
	Err      error
}

// NewScriptedClient creates a client that returns the given turns in order.
func NewScriptedClient(turns ...ScriptedResponse) *ScriptedClient {
	return &ScriptedClient{responses: turns}
}

// Text is a convenience constructor for a plain text turn.
func Text(content string) ScriptedResponse {
	return ScriptedResponse{Response: &Response{Content: content, FinishReason: "stop"}}
}

// ToolUse is a convenience constructor for a tool-call turn.
func ToolUse(callID, name, arguments string) ScriptedResponse {
	return ScriptedResponse{Response: &Response{
		ToolCalls:    []ToolCall{{ID: callID, Name: name, Arguments: []byte(arguments)}},
		FinishReason: "tool_calls",
	}}
}

// Failure is a convenience constructor for an error turn.
func Failure(err error) ScriptedResponse {
	return ScriptedResponse{Err: err}
}

// Complete implements Client.
func (c *ScriptedClient) Complete(_ context.Context, req Request) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, req)

	if c.index >= len(c.responses) {
		return nil, NewError("complete", fmt.Errorf("scripted client exhausted after %d turns", len(c.responses)), false)
	}

	turn := c.responses[c.index]
	c.index++

	if turn.Err != nil {
		return nil, turn.Err
	}
	return turn.Response, nil
}

// Requests returns a copy of every request seen, in order.
func (c *ScriptedClient) Requests() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Request, len(c.requests))
	copy(out, c.requests)
	return out
}

// Calls returns the number of Complete invocations so far.
func (c *ScriptedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}
