package provider

import (
	"fmt"
	"strings"
	"time"

	"swapsignal/internal/logger"
)

// ModelCfg is the process-level model configuration.
type ModelCfg struct {
	ID          string
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxRetries  int
	Headers     map[string]string
}

// BuildProvider constructs the single model gateway used by the process.
func BuildProvider(m ModelCfg, timeout time.Duration) (ModelProvider, error) {
	model := strings.TrimSpace(m.Model)
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	id := strings.TrimSpace(m.ID)
	if id == "" {
		id = "openai:" + model
	}
	if strings.TrimSpace(m.APIKey) == "" {
		logger.Warnf("model %s has no API key configured, requests will be sent unauthenticated", id)
	}
	client := &OpenAIChatClient{
		BaseURL:      m.BaseURL,
		APIKey:       m.APIKey,
		Model:        model,
		Temperature:  m.Temperature,
		MaxRetries:   m.MaxRetries,
		ExtraHeaders: m.Headers,
		Timeout:      timeout,
	}
	return NewOpenAIModelProvider(id, client), nil
}
