package config

import "strings"

// Config is the swapsignal process configuration.
type Config struct {
	App    AppConfig    `toml:"app"`
	AI     AIConfig     `toml:"ai"`
	Market MarketConfig `toml:"market"`
	Prompt PromptConfig `toml:"prompt"`
	Agent  AgentConfig  `toml:"agent"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
	LLMLog   string `toml:"llm_log_path"`
	LLMDump  bool   `toml:"llm_dump_payload"`
}

// AIConfig points at an OpenAI-compatible chat completions endpoint.
type AIConfig struct {
	BaseURL             string            `toml:"base_url"`
	APIKey              string            `toml:"api_key"`
	Model               string            `toml:"model"`
	TimeoutSeconds      int               `toml:"timeout_seconds"`
	MaxCompletionTokens int               `toml:"max_completion_tokens"`
	Temperature         float64           `toml:"temperature"`
	MaxRetries          int               `toml:"max_retries"`
	Headers             map[string]string `toml:"headers"`
}

// MarketConfig describes the swap history query.
type MarketConfig struct {
	BaseURL        string `toml:"base_url"`
	Token          string `toml:"token"`
	DefaultPool    string `toml:"default_pool"`
	Network        string `toml:"network"`
	WindowHours    int    `toml:"window_hours"`
	BucketMinutes  int    `toml:"bucket_minutes"`
	Limit          int    `toml:"limit"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type PromptConfig struct {
	// Dir holds *.yaml overrides of the embedded instruction templates; empty disables overrides.
	Dir        string `toml:"dir"`
	MaxTokens  int    `toml:"max_tokens"`
	Indicators bool   `toml:"indicators"`
	EMAFast    int    `toml:"ema_fast"`
	EMASlow    int    `toml:"ema_slow"`
	RSIPeriod  int    `toml:"rsi_period"`
}

type AgentConfig struct {
	// OnGatewayError is "error" or "no_trade".
	OnGatewayError string `toml:"on_gateway_error"`
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
