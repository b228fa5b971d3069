package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"visapath-backend/internal/oracle"
	"visapath-backend/internal/shared/metrics"
	"visapath-backend/internal/shared/telemetry"
)

const apiURL = "https://api.openai.com/v1/chat/completions"

// Client implements oracle.Client using OpenAI Chat Completions.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("ORACLE_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("ORACLE_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// GenerateObject asks for a single JSON object and repairs invalid JSON once.
func (c *Client) GenerateObject(ctx context.Context, req oracle.ObjectRequest) (json.RawMessage, error) {
	messages := buildMessages(req.System, req.Prompt)

	raw, err := c.generateOnce(ctx, messages)
	if err != nil {
		return nil, err
	}

	if json.Valid(raw) {
		return raw, nil
	}

	fixMessages := buildFixMessages(req.System, raw)
	raw, err = c.generateOnce(ctx, fixMessages)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, oracle.NewError(oracle.KindSchema, fmt.Errorf("invalid JSON from OpenAI"))
	}
	return raw, nil
}

func (c *Client) generateOnce(ctx context.Context, messages []chatMessage) (json.RawMessage, error) {
	temp := float32(0)
	reqBody := chatRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    &temp,
		ResponseFormat: &responseFormat{Type: "json_object"},
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

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	metrics.ObserveOracleDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, oracle.NewError(oracle.KindTimeout, err)
		}
		return nil, oracle.NewError(oracle.KindTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, oracle.NewError(oracle.KindTransport, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, oracle.NewError(oracle.KindTransport, fmt.Errorf("openai response parse: %w", err))
	}
	if parsed.Error != nil {
		return nil, oracle.NewError(oracle.KindTransport, fmt.Errorf("openai error: %s (%s)", parsed.Error.Message, parsed.Error.Type))
	}
	if len(parsed.Choices) == 0 {
		return nil, oracle.NewError(oracle.KindSchema, fmt.Errorf("openai response missing choices"))
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return nil, oracle.NewError(oracle.KindSchema, fmt.Errorf("openai response empty content"))
	}
	logUsage(c.model, parsed.Usage)
	return json.RawMessage(content), nil
}

func buildMessages(system, prompt string) []chatMessage {
	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(system) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})
	return messages
}

func buildFixMessages(system string, raw []byte) []chatMessage {
	fixPrompt := "The previous response was not valid JSON. Return the same content as a single valid JSON object with no surrounding text.\n\nPrevious response:\n" + string(raw)
	return buildMessages(system, fixPrompt)
}

func logUsage(model string, usage *struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}) {
	fields := map[string]any{"model": model}
	if usage != nil {
		fields["prompt_tokens"] = usage.PromptTokens
		fields["completion_tokens"] = usage.CompletionTokens
		fields["total_tokens"] = usage.TotalTokens
	}
	telemetry.Info("oracle.response", fields)
}

var _ oracle.Client = (*Client)(nil)
