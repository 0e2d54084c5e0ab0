package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if strings.TrimSpace(c.App.HTTPAddr) == "" {
		return fmt.Errorf("app.http_addr cannot be empty")
	}
	if err := c.AI.validate(); err != nil {
		return err
	}
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.Prompt.validate(); err != nil {
		return err
	}
	return c.Agent.validate()
}

func (a *AIConfig) validate() error {
	if strings.TrimSpace(a.BaseURL) == "" {
		return fmt.Errorf("ai.base_url cannot be empty")
	}
	if strings.TrimSpace(a.Model) == "" {
		return fmt.Errorf("ai.model cannot be empty")
	}
	if strings.TrimSpace(a.APIKey) == "" {
		return fmt.Errorf("ai.api_key is required (or set %s)", EnvAIAPIKey)
	}
	if a.TimeoutSeconds <= 0 {
		return fmt.Errorf("ai.timeout_seconds must be > 0")
	}
	if a.MaxCompletionTokens < 0 {
		return fmt.Errorf("ai.max_completion_tokens must be >= 0")
	}
	if a.Temperature < 0 || a.Temperature > 2 {
		return fmt.Errorf("ai.temperature must be within [0,2]")
	}
	if a.MaxRetries < 0 {
		return fmt.Errorf("ai.max_retries must be >= 0")
	}
	return nil
}

func (m *MarketConfig) validate() error {
	if strings.TrimSpace(m.BaseURL) == "" {
		return fmt.Errorf("market.base_url cannot be empty")
	}
	if strings.TrimSpace(m.Network) == "" {
		return fmt.Errorf("market.network cannot be empty")
	}
	if m.BucketMinutes <= 0 {
		return fmt.Errorf("market.bucket_minutes must be > 0")
	}
	if m.Limit <= 0 {
		return fmt.Errorf("market.limit must be > 0")
	}
	if m.WindowHours < 0 {
		return fmt.Errorf("market.window_hours must be >= 0")
	}
	if m.TimeoutSeconds <= 0 {
		return fmt.Errorf("market.timeout_seconds must be > 0")
	}
	return nil
}

func (p *PromptConfig) validate() error {
	if p.MaxTokens <= 0 {
		return fmt.Errorf("prompt.max_tokens must be > 0")
	}
	if p.Indicators && (p.EMAFast <= 0 || p.EMASlow <= 0 || p.RSIPeriod <= 0) {
		return fmt.Errorf("prompt.ema_fast, prompt.ema_slow and prompt.rsi_period must be > 0 when indicators are enabled")
	}
	return nil
}

func (a *AgentConfig) validate() error {
	switch a.OnGatewayError {
	case "error", "no_trade":
		return nil
	default:
		return fmt.Errorf("agent.on_gateway_error must be \"error\" or \"no_trade\", got %q", a.OnGatewayError)
	}
}
