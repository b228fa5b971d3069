package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"visapath-backend/internal/oracle"
)

type streamDelta struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// GenerateStream streams assistant text chunks over the returned channel.
// The channel is closed when the stream ends or the context is canceled.
func (c *Client) GenerateStream(ctx context.Context, req oracle.StreamRequest) (<-chan oracle.Chunk, error) {
	messages := make([]chatMessage, 0, len(req.Messages)+1)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	if len(messages) == 0 {
		return nil, oracle.NewError(oracle.KindSchema, fmt.Errorf("stream request has no messages"))
	}

	reqBody := chatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, oracle.NewError(oracle.KindTransport, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, oracle.NewError(oracle.KindTransport, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, oracle.NewError(oracle.KindTimeout, err)
		}
		return nil, oracle.NewError(oracle.KindTransport, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, oracle.NewError(oracle.KindTransport, fmt.Errorf("openai stream status %d", resp.StatusCode))
	}

	out := make(chan oracle.Chunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || !strings.HasPrefix(line, "data:") {
				continue
			}
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return
			}

			var delta streamDelta
			if err := json.Unmarshal([]byte(data), &delta); err != nil {
				// Skip malformed keep-alive frames rather than killing the stream.
				continue
			}
			if delta.Error != nil {
				sendChunk(ctx, out, oracle.Chunk{Err: oracle.NewError(oracle.KindTransport, fmt.Errorf("openai error: %s (%s)", delta.Error.Message, delta.Error.Type))})
				return
			}
			for _, choice := range delta.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				if !sendChunk(ctx, out, oracle.Chunk{Text: choice.Delta.Content}) {
					return
				}
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			sendChunk(ctx, out, oracle.Chunk{Err: oracle.NewError(oracle.KindTransport, err)})
		}
	}()

	return out, nil
}

func sendChunk(ctx context.Context, out chan<- oracle.Chunk, chunk oracle.Chunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}
