package config

import (
	"strings"
)

const (
	defaultAppEnv           = "dev"
	defaultAppLogLevel      = "info"
	defaultAppHTTPAddr      = ":8000"
	defaultAIBaseURL        = "https://api.asi1.ai/v1"
	defaultAIModel          = "asi1-mini"
	defaultAITimeout        = 120
	defaultAIMaxCompletion  = 64000
	defaultMarketBaseURL    = "https://token-api.thegraph.com"
	defaultMarketPool       = "0x4ccd010148379ea531d6c587cfdd60180196f9b1"
	defaultMarketNetwork    = "matic"
	defaultMarketWindow     = 24
	defaultMarketBucket     = 5
	defaultMarketLimit      = 100
	defaultMarketTimeout    = 30
	defaultPromptMaxTokens  = 32000
	defaultPromptIndicators = true
	defaultPromptEMAFast    = 5
	defaultPromptEMASlow    = 20
	defaultPromptRSIPeriod  = 14
	defaultOnGatewayError   = "error"
)

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.AI.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Prompt.applyDefaults(keys)
	c.Agent.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
	)
}

func (a *AIConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("ai.base_url", &a.BaseURL, defaultAIBaseURL),
		stringFieldDefault("ai.model", &a.Model, defaultAIModel),
		intFieldDefault("ai.timeout_seconds", &a.TimeoutSeconds, defaultAITimeout),
		intFieldDefault("ai.max_completion_tokens", &a.MaxCompletionTokens, defaultAIMaxCompletion),
	)
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("market.base_url", &m.BaseURL, defaultMarketBaseURL),
		stringFieldDefault("market.default_pool", &m.DefaultPool, defaultMarketPool),
		stringFieldDefault("market.network", &m.Network, defaultMarketNetwork),
		intFieldDefault("market.window_hours", &m.WindowHours, defaultMarketWindow),
		intFieldDefault("market.bucket_minutes", &m.BucketMinutes, defaultMarketBucket),
		intFieldDefault("market.limit", &m.Limit, defaultMarketLimit),
		intFieldDefault("market.timeout_seconds", &m.TimeoutSeconds, defaultMarketTimeout),
	)
}

func (p *PromptConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		intFieldDefault("prompt.max_tokens", &p.MaxTokens, defaultPromptMaxTokens),
		boolFieldDefault("prompt.indicators", &p.Indicators, defaultPromptIndicators),
		intFieldDefault("prompt.ema_fast", &p.EMAFast, defaultPromptEMAFast),
		intFieldDefault("prompt.ema_slow", &p.EMASlow, defaultPromptEMASlow),
		intFieldDefault("prompt.rsi_period", &p.RSIPeriod, defaultPromptRSIPeriod),
	)
}

func (a *AgentConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("agent.on_gateway_error", &a.OnGatewayError, defaultOnGatewayError),
	)
	a.OnGatewayError = strings.ToLower(strings.TrimSpace(a.OnGatewayError))
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return strings.TrimSpace(*target) == "" },
		apply: func() { *target = def },
	}
}

// intFieldDefault only fills non-positive values; an explicit 0 in the file is kept and left to validation.
func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return *target <= 0 },
		apply: func() { *target = def },
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:   key,
		apply: func() { *target = def },
	}
}
