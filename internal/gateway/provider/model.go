package provider

import (
	"context"
	"encoding/json"
	"fmt"
)

// ResponseSchema constrains a structured call to a JSON schema.
type ResponseSchema struct {
	Name   string
	Schema json.RawMessage
	Strict bool
}

// ChatPayload is one role-tagged request: a system instruction and a user message.
type ChatPayload struct {
	// Purpose tags transcript logs, e.g. "intent" or "recommend".
	Purpose   string
	System    string
	User      string
	Schema    *ResponseSchema
	MaxTokens int
}

// ModelProvider is the generative model gateway. Call returns the text of the first choice.
type ModelProvider interface {
	ID() string
	Call(ctx context.Context, payload ChatPayload) (string, error)
}

// CallError is a non-success answer from the model endpoint.
type CallError struct {
	StatusCode int
	Message    string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("model call failed: status=%d: %s", e.StatusCode, e.Message)
}
