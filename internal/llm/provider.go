package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider is the text-generation oracle every pipeline stage talks to.
// A prompt (optionally carrying images) goes in, generated text comes out.
type Provider interface {
	// Generate sends the request to the model. When req.Schema is set the
	// provider asks for JSON conforming to it and validates the result
	// before returning.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes one generation call.
type Request struct {
	// System sets the model's role and constraints.
	System string

	// Messages is the conversation sent to the model. Extraction and
	// translation send a single user message; tutoring sends one prompt
	// that already embeds the recent transcript.
	Messages []Message

	// Schema, when set, asks for structured JSON output. When nil the
	// response Content is the raw model text.
	Schema *Schema

	MaxTokens int

	// Temperature controls randomness in [0, 1]. Zero leaves the provider
	// default in place.
	Temperature float64
}

// Message is a single prompt turn.
type Message struct {
	Role    Role
	Content string

	// Images are sent alongside Content. Only user messages carry them.
	Images []Image
}

// Image is inline binary image data attached to a message.
type Image struct {
	Data     []byte
	MIMEType string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies the schema, e.g. "homework-content".
	Name string

	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	// Content is the validated JSON object when a Schema was requested,
	// otherwise the raw text the model produced.
	Content json.RawMessage

	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason is one of the Stop* constants.
	StopReason string
}

// Normalised stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// finish turns a provider's raw output into a Response. Truncated
// structured output is an error; anything else is unfenced and checked
// against req.Schema.
func finish(req Request, content json.RawMessage, stop, model string, usage Usage) (*Response, error) {
	if req.Schema != nil {
		if stop == StopMaxTokens {
			return nil, &ErrMaxTokensExceeded{Content: content}
		}
		content = unfence(content)
	}
	if err := validateResponse(req.Schema, content); err != nil {
		return nil, err
	}
	return &Response{Content: content, Usage: usage, Model: model, StopReason: stop}, nil
}

// Text returns the response content as trimmed plain text.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(string(r.Content))
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
