package app

import (
	"time"

	"swapsignal/internal/agent"
	"swapsignal/internal/config"
	"swapsignal/internal/decision"
	"swapsignal/internal/gateway/provider"
	"swapsignal/internal/gateway/thegraph"
	"swapsignal/internal/metrics"
	"swapsignal/internal/prompt"
	chathttp "swapsignal/internal/transport/http/chat"
)

func provideMetrics() *metrics.Metrics {
	return metrics.New()
}

func providePrompts(cfg *config.Config) (*prompt.Registry, error) {
	return prompt.NewRegistry(cfg.Prompt.Dir)
}

func provideModel(cfg *config.Config) (provider.ModelProvider, error) {
	return provider.BuildProvider(provider.ModelCfg{
		BaseURL:     cfg.AI.BaseURL,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		MaxRetries:  cfg.AI.MaxRetries,
		Headers:     cfg.AI.Headers,
	}, time.Duration(cfg.AI.TimeoutSeconds)*time.Second)
}

func provideSwapClient(cfg *config.Config, m *metrics.Metrics) *thegraph.Client {
	c := thegraph.NewClient(cfg.Market.BaseURL, cfg.Market.Token, time.Duration(cfg.Market.TimeoutSeconds)*time.Second)
	c.Observer = m
	return c
}

func provideExtractor(model provider.ModelProvider, prompts *prompt.Registry, m *metrics.Metrics) *decision.Extractor {
	return &decision.Extractor{Model: model, Prompts: prompts, Observer: m}
}

func provideRecommender(cfg *config.Config, model provider.ModelProvider, prompts *prompt.Registry, m *metrics.Metrics) *decision.Recommender {
	r := &decision.Recommender{
		Model:               model,
		Prompts:             prompts,
		Budget:              prompt.Budgeter{MaxTokens: cfg.Prompt.MaxTokens},
		MaxCompletionTokens: cfg.AI.MaxCompletionTokens,
		Observer:            m,
	}
	if cfg.Prompt.Indicators {
		r.Indicators = &decision.IndicatorSettings{
			EMAFast:   cfg.Prompt.EMAFast,
			EMASlow:   cfg.Prompt.EMASlow,
			RSIPeriod: cfg.Prompt.RSIPeriod,
		}
	}
	return r
}

func provideSession(cfg *config.Config, ex *decision.Extractor, swaps *thegraph.Client, rec *decision.Recommender, m *metrics.Metrics) *agent.Session {
	return &agent.Session{
		Extractor:   ex,
		Swaps:       swaps,
		Recommender: rec,
		Config: agent.SessionConfig{
			Network:        cfg.Market.Network,
			DefaultPool:    cfg.Market.DefaultPool,
			WindowHours:    cfg.Market.WindowHours,
			BucketMinutes:  cfg.Market.BucketMinutes,
			Limit:          cfg.Market.Limit,
			OnGatewayError: cfg.Agent.OnGatewayError,
		},
		Observer: m,
	}
}

func provideServer(cfg *config.Config, session *agent.Session, m *metrics.Metrics) (*chathttp.Server, error) {
	return chathttp.NewServer(chathttp.ServerConfig{
		Addr:     cfg.App.HTTPAddr,
		Handler:  session,
		Metrics:  m.Handler(),
		Observer: m,
	})
}

func provideSummary(cfg *config.Config, model provider.ModelProvider, prompts *prompt.Registry) *StartupSummary {
	return newStartupSummary(cfg, model.ID(), prompts)
}
