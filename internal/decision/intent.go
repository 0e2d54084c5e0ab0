package decision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"swapsignal/internal/gateway/provider"
	"swapsignal/internal/logger"
	"swapsignal/internal/prompt"
)

// PurposeIntent tags extraction calls in logs and metrics.
const PurposeIntent = "intent"

// Extractor turns free text into a TradeIntent with a single model call.
type Extractor struct {
	Model    provider.ModelProvider
	Prompts  *prompt.Registry
	Observer Observer
}

// Extract asks the model to restate userText as a TradeIntent. It never retries; a bad reply
// is an *IntentParseError and no partial intent is returned.
func (e *Extractor) Extract(ctx context.Context, userText string) (TradeIntent, error) {
	if e.Model == nil || e.Prompts == nil {
		return TradeIntent{}, fmt.Errorf("intent extractor not configured")
	}
	obs := observerOr(e.Observer)
	tpl := e.Prompts.MustGet(prompt.IntentTemplate)
	user, err := tpl.Render(struct{ Text string }{Text: strings.TrimSpace(userText)})
	if err != nil {
		return TradeIntent{}, err
	}
	start := time.Now()
	raw, err := e.Model.Call(ctx, provider.ChatPayload{
		Purpose: PurposeIntent,
		System:  tpl.System,
		User:    user,
		Schema:  IntentResponseSchema(),
	})
	if err != nil {
		obs.ObserveModelCall(PurposeIntent, OutcomeCallError, time.Since(start))
		return TradeIntent{}, fmt.Errorf("intent model call: %w", err)
	}
	intent, err := ParseIntent(raw)
	if err != nil {
		obs.ObserveModelCall(PurposeIntent, OutcomeParseError, time.Since(start))
		logger.Warnf("intent reply rejected by %s: %v", e.Model.ID(), err)
		return TradeIntent{}, err
	}
	obs.ObserveModelCall(PurposeIntent, OutcomeOK, time.Since(start))
	logger.Infof("intent: %s -> %s max=%v expiry<=%vh pool=%q", intent.MakerToken, intent.TakerToken, intent.MakerMaxAmount, intent.MaxExpiry, intent.PoolAddress)
	return intent, nil
}
