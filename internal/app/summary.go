package app

import (
	"fmt"
	"strings"

	"swapsignal/internal/config"
	"swapsignal/internal/logger"
	"swapsignal/internal/prompt"
)

// StartupSummary is printed once before serving.
type StartupSummary struct {
	Model     string
	ModelURL  string
	APIKey    string
	Market    MarketSummary
	Budget    int
	OnFailure string
	Templates []TemplateSummary
	HTTPAddr  string
}

type MarketSummary struct {
	BaseURL     string
	Network     string
	DefaultPool string
	WindowHours int
	Bucket      int
	Limit       int
	Token       string
}

type TemplateSummary struct {
	ID          string
	Description string
	SystemHead  string
}

func newStartupSummary(cfg *config.Config, modelID string, prompts *prompt.Registry) *StartupSummary {
	s := &StartupSummary{
		Model:    modelID,
		ModelURL: cfg.AI.BaseURL,
		APIKey:   logger.MaskSecret(cfg.AI.APIKey),
		Market: MarketSummary{
			BaseURL:     cfg.Market.BaseURL,
			Network:     cfg.Market.Network,
			DefaultPool: cfg.Market.DefaultPool,
			WindowHours: cfg.Market.WindowHours,
			Bucket:      cfg.Market.BucketMinutes,
			Limit:       cfg.Market.Limit,
			Token:       logger.MaskSecret(cfg.Market.Token),
		},
		Budget:    cfg.Prompt.MaxTokens,
		OnFailure: cfg.Agent.OnGatewayError,
		HTTPAddr:  cfg.App.HTTPAddr,
	}
	if prompts != nil {
		for _, id := range []string{prompt.IntentTemplate, prompt.RecommendTemplate} {
			tpl, ok := prompts.Get(id)
			if !ok {
				continue
			}
			s.Templates = append(s.Templates, TemplateSummary{
				ID:          tpl.ID,
				Description: tpl.Description,
				SystemHead:  firstLine(tpl.System),
			})
		}
	}
	return s
}

// String renders the summary as a fixed-width block.
func (s *StartupSummary) String() string {
	var b strings.Builder
	rule := strings.Repeat("=", 80)
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "STARTUP SUMMARY")
	fmt.Fprintln(&b, rule)

	fmt.Fprintln(&b, "[MODEL]")
	fmt.Fprintf(&b, "  provider: %s\n", s.Model)
	fmt.Fprintf(&b, "  endpoint: %s\n", s.ModelURL)
	fmt.Fprintf(&b, "  api key:  %s\n", orDash(s.APIKey))
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "[MARKET DATA]")
	fmt.Fprintf(&b, "  endpoint: %s\n", s.Market.BaseURL)
	fmt.Fprintf(&b, "  network:  %s\n", s.Market.Network)
	fmt.Fprintf(&b, "  pool:     %s\n", orDash(s.Market.DefaultPool))
	fmt.Fprintf(&b, "  window:   %dh, %dm buckets, limit %d\n", s.Market.WindowHours, s.Market.Bucket, s.Market.Limit)
	fmt.Fprintf(&b, "  token:    %s\n", orDash(s.Market.Token))
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "[PROMPTS]")
	fmt.Fprintf(&b, "  token budget: %d\n", s.Budget)
	for _, t := range s.Templates {
		fmt.Fprintf(&b, "  > %s: %s\n", t.ID, orDash(t.Description))
		fmt.Fprintf(&b, "    %s\n", t.SystemHead)
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "[AGENT]")
	fmt.Fprintf(&b, "  on gateway error: %s\n", s.OnFailure)
	fmt.Fprintf(&b, "  listening on:     %s\n", s.HTTPAddr)
	fmt.Fprint(&b, rule)
	return b.String()
}

// Print writes the summary to the process log.
func (s *StartupSummary) Print() {
	logger.InfoBlock(s.String())
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return text
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
