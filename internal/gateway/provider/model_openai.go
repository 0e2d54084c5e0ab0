package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"swapsignal/internal/logger"
)

const defaultBaseURL = "https://api.asi1.ai/v1"

// OpenAIChatClient talks to an OpenAI-compatible /chat/completions endpoint (ASI:One, OpenAI, DeepSeek...).
type OpenAIChatClient struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	// MaxRetries applies to 429/5xx only. Zero means a single attempt.
	MaxRetries   int
	ExtraHeaders map[string]string
	HTTPClient   *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
	Strict bool            `json:"strict,omitempty"`
}

type responseFormat struct {
	Type       string            `json:"type"`
	JSONSchema *jsonSchemaFormat `json:"json_schema,omitempty"`
}

type chatRequest struct {
	Model               string          `json:"model"`
	Messages            []chatMessage   `json:"messages"`
	Temperature         *float64        `json:"temperature,omitempty"`
	ResponseFormat      *responseFormat `json:"response_format,omitempty"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *OpenAIChatClient) endpoint() string {
	url := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if url == "" {
		url = defaultBaseURL
	}
	url = strings.TrimSuffix(url, "/chat/completions")
	return url + "/chat/completions"
}

func (c *OpenAIChatClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func (c *OpenAIChatClient) buildRequest(payload ChatPayload) chatRequest {
	req := chatRequest{Model: c.Model, MaxCompletionTokens: payload.MaxTokens}
	if strings.TrimSpace(payload.System) != "" {
		req.Messages = append(req.Messages, chatMessage{Role: "system", Content: payload.System})
	}
	req.Messages = append(req.Messages, chatMessage{Role: "user", Content: payload.User})
	if c.Temperature > 0 {
		t := c.Temperature
		req.Temperature = &t
	}
	if payload.Schema != nil {
		req.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaFormat{
				Name:   payload.Schema.Name,
				Schema: payload.Schema.Schema,
				Strict: payload.Schema.Strict,
			},
		}
	}
	return req
}

// CallWithMessages sends one chat completion and returns the first choice's content.
func (c *OpenAIChatClient) CallWithMessages(ctx context.Context, payload ChatPayload) (string, error) {
	url := c.endpoint()
	body, err := json.Marshal(c.buildRequest(payload))
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}
	logger.Debugf("[AI] POST %s model=%s purpose=%s auth=Bearer %s bytes=%d", url, c.Model, payload.Purpose, logger.MaskSecret(c.APIKey), len(body))
	logger.LogLLMRequest(c.Model, payload.Purpose, payload.System, payload.User, string(body))

	maxRetries := c.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		out, retryAfter, err := c.do(ctx, url, body)
		if err == nil {
			logger.LogLLMResponse(c.Model, payload.Purpose, out)
			return out, nil
		}
		lastErr = err
		var callErr *CallError
		if !errors.As(err, &callErr) || !retryable(callErr.StatusCode) || attempt == maxRetries {
			break
		}
		wait := retryAfter
		if wait == 0 {
			wait = 800 * time.Millisecond << attempt
			if wait > 8*time.Second {
				wait = 8 * time.Second
			}
		}
		logger.Warnf("[AI] %v, retrying in %s", err, wait)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	return "", lastErr
}

func (c *OpenAIChatClient) do(ctx context.Context, url string, body []byte) (string, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	for k, v := range c.ExtraHeaders {
		req.Header.Set(k, v)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("model request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", 0, fmt.Errorf("read model response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		var eresp errorResponse
		_ = json.Unmarshal(raw, &eresp)
		msg := strings.TrimSpace(eresp.Error.Message)
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		if msg == "" {
			msg = resp.Status
		}
		return "", parseRetryAfter(resp.Header.Get("Retry-After")), &CallError{StatusCode: resp.StatusCode, Message: msg}
	}
	var r chatResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return "", 0, fmt.Errorf("decode model response: %w", err)
	}
	if len(r.Choices) == 0 {
		return "", 0, fmt.Errorf("model response has no choices")
	}
	return r.Choices[0].Message.Content, 0, nil
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// OpenAIModelProvider adapts the chat client to ModelProvider.
type OpenAIModelProvider struct {
	id     string
	client *OpenAIChatClient
}

func NewOpenAIModelProvider(id string, client *OpenAIChatClient) *OpenAIModelProvider {
	return &OpenAIModelProvider{id: id, client: client}
}

func (p *OpenAIModelProvider) ID() string { return p.id }

func (p *OpenAIModelProvider) Call(ctx context.Context, payload ChatPayload) (string, error) {
	return p.client.CallWithMessages(ctx, payload)
}
