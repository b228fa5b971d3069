package oracle

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts the generative oracle. Output is untrusted: callers must
// validate every object against their own schema before use.
type Client interface {
	GenerateObject(ctx context.Context, req ObjectRequest) (json.RawMessage, error)
	GenerateStream(ctx context.Context, req StreamRequest) (<-chan Chunk, error)
}

// ObjectRequest asks the oracle for a single JSON object.
type ObjectRequest struct {
	System string
	Prompt string
}

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamRequest asks the oracle for streamed assistant text.
type StreamRequest struct {
	System   string
	Messages []Message
}

// Chunk is one piece of streamed oracle output. A chunk with Err set is
// terminal; the channel is closed after it.
type Chunk struct {
	Text string
	Err  error
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("oracle not configured")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// GenerateObject returns ErrNotConfigured.
func (PlaceholderClient) GenerateObject(ctx context.Context, req ObjectRequest) (json.RawMessage, error) {
	_ = ctx
	_ = req
	return nil, ErrNotConfigured
}

// GenerateStream returns ErrNotConfigured.
func (PlaceholderClient) GenerateStream(ctx context.Context, req StreamRequest) (<-chan Chunk, error) {
	_ = ctx
	_ = req
	return nil, ErrNotConfigured
}
