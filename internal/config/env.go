package config

import (
	"strings"
)

// Environment variables that override file values when set and non-empty.
const (
	EnvAIAPIKey     = "ASI_ONE_API_KEY"
	EnvAIBaseURL    = "ASI_ONE_BASE_URL"
	EnvAIModel      = "ASI_ONE_MODEL"
	EnvMarketToken  = "THEGRAPH_JWT_TOKEN"
	EnvHTTPAddr     = "SWAPSIGNAL_HTTP_ADDR"
	EnvLogLevel     = "SWAPSIGNAL_LOG_LEVEL"
	EnvOnGatewayErr = "SWAPSIGNAL_ON_GATEWAY_ERROR"
)

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	overrides := []struct {
		key    string
		target *string
	}{
		{EnvAIAPIKey, &c.AI.APIKey},
		{EnvAIBaseURL, &c.AI.BaseURL},
		{EnvAIModel, &c.AI.Model},
		{EnvMarketToken, &c.Market.Token},
		{EnvHTTPAddr, &c.App.HTTPAddr},
		{EnvLogLevel, &c.App.LogLevel},
		{EnvOnGatewayErr, &c.Agent.OnGatewayError},
	}
	for _, o := range overrides {
		if v, ok := lookup(o.key); ok && strings.TrimSpace(v) != "" {
			*o.target = strings.TrimSpace(v)
		}
	}
	c.Agent.OnGatewayError = strings.ToLower(c.Agent.OnGatewayError)
}
