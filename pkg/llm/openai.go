package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// OpenAIProvider talks to any OpenAI-compatible chat completions API
// (OpenAI itself, Ollama's /v1 endpoint, gateways, ...).
type OpenAIProvider struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// OpenAIConfig holds configuration for the OpenAI-compatible provider.
type OpenAIConfig struct {
	BaseURL string        // e.g., "https://api.openai.com/v1" or "http://localhost:11434/v1"
	APIKey  string        // sent as a bearer token when set
	Model   string        // e.g., "gpt-4"
	Timeout time.Duration // zero means no client-side timeout
}

// DefaultOpenAIURL is used when OpenAIConfig.BaseURL is empty.
const DefaultOpenAIURL = "https://api.openai.com/v1"

// NewOpenAIProvider creates a new OpenAI-compatible provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenAIURL
	}
	// Remove trailing slash
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &OpenAIProvider{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// WithModel returns a copy of the provider bound to model.
func (p *OpenAIProvider) WithModel(model string) Provider {
	cp := *p
	cp.model = model
	return &cp
}

// chatRequest represents the OpenAI chat completion request format.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse represents the OpenAI chat completion response format.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// streamChunk represents a streaming response chunk.
// Delta.Content is a pointer because providers send null for role-only
// and final chunks.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content *string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete generates a non-streaming response.
func (p *OpenAIProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	slog.Debug("openai complete request", "model", p.model, "message_count", len(messages))

	resp, err := p.post(ctx, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("provider error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Stream generates a streaming response.
func (p *OpenAIProvider) Stream(ctx context.Context, messages []Message) (<-chan StreamEvent, error) {
	slog.Debug("openai stream request", "model", p.model, "message_count", len(messages))

	resp, err := p.post(ctx, messages, true)
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamEvent)

	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()

			// Skip empty lines and SSE comments
			if line == "" || strings.HasPrefix(line, ":") {
				continue
			}

			// SSE format: "data: {...}"
			data, ok := strings.CutPrefix(line, "data:")
			if !ok {
				continue
			}
			data = strings.TrimSpace(data)

			// Check for end of stream
			if data == "[DONE]" {
				send(ctx, ch, StreamEvent{Done: true})
				return
			}

			var chunk streamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				send(ctx, ch, StreamEvent{Error: fmt.Errorf("decode chunk: %w", err), Done: true})
				return
			}

			if chunk.Error != nil {
				send(ctx, ch, StreamEvent{Error: fmt.Errorf("provider error: %s", chunk.Error.Message), Done: true})
				return
			}

			if len(chunk.Choices) == 0 {
				continue
			}

			choice := chunk.Choices[0]
			if choice.Delta.Content != nil && *choice.Delta.Content != "" {
				if !send(ctx, ch, StreamEvent{Content: *choice.Delta.Content}) {
					return
				}
			}

			if choice.FinishReason != nil && *choice.FinishReason == "stop" {
				send(ctx, ch, StreamEvent{Done: true})
				return
			}
		}

		if err := scanner.Err(); err != nil {
			send(ctx, ch, StreamEvent{Error: fmt.Errorf("read stream: %w", err), Done: true})
			return
		}

		// Stream ended without explicit done signal
		send(ctx, ch, StreamEvent{Done: true})
	}()

	return ch, nil
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// post sends a chat completion request and returns the response when the
// status is 200. The caller must close the body.
func (p *OpenAIProvider) post(ctx context.Context, messages []Message, stream bool) (*http.Response, error) {
	reqBody := chatRequest{
		Model:    p.model,
		Messages: convertMessages(messages),
		Stream:   stream,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Error("openai request failed", "err", err)
		return nil, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		slog.Error("openai API error", "status", resp.StatusCode, "body", string(respBody))
		return nil, &StatusError{Provider: p.Name(), StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	return resp, nil
}

// StatusError is returned when a provider answers with a non-200 status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s error (status %d)", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// convertMessages converts llm.Message to the chat API format.
func convertMessages(messages []Message) []chatMessage {
	result := make([]chatMessage, len(messages))
	for i, m := range messages {
		result[i] = chatMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}
	return result
}

var (
	_ Provider      = (*OpenAIProvider)(nil)
	_ ModelSelector = (*OpenAIProvider)(nil)
)
