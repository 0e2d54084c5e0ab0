package decision

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"swapsignal/internal/gateway/provider"
	"swapsignal/internal/logger"
	"swapsignal/internal/market"
	"swapsignal/internal/pkg/jsonutil"
	"swapsignal/internal/prompt"
)

// PurposeRecommend tags recommendation calls in logs and metrics.
const PurposeRecommend = "recommend"

// Recommender asks the model for a limit order given an intent and recent swap history.
type Recommender struct {
	Model   provider.ModelProvider
	Prompts *prompt.Registry
	Budget  prompt.Budgeter
	// MaxCompletionTokens is forwarded as max_completion_tokens when > 0.
	MaxCompletionTokens int
	// Indicators enables the go-talib snapshot in the prompt; nil disables it.
	Indicators *IndicatorSettings
	Observer   Observer
}

type recommendPromptData struct {
	SwapData       string
	Indicators     string
	MakerToken     string
	TakerToken     string
	MakerMaxAmount string
	MaxExpiry      string
}

// Recommend returns the model's order for intent with expiry capped at floor(intent.MaxExpiry).
// An intent with nothing to offer returns NoTrade without calling the model.
func (r *Recommender) Recommend(ctx context.Context, intent TradeIntent, marketData []market.NormalizedSwapEvent) (OrderRecommendation, error) {
	obs := observerOr(r.Observer)
	if intent.IsNoop() {
		obs.ObserveModelCall(PurposeRecommend, OutcomeSkippedNoop, 0)
		return NoTrade(intent), nil
	}
	if r.Model == nil || r.Prompts == nil {
		return OrderRecommendation{}, fmt.Errorf("recommender not configured")
	}
	tpl := r.Prompts.MustGet(prompt.RecommendTemplate)
	user, err := r.renderPrompt(tpl, intent, marketData)
	if err != nil {
		return OrderRecommendation{}, err
	}
	budgeted := r.Budget.Fit(user)
	if len(budgeted) < len(user) {
		logger.Infof("recommend prompt trimmed from ~%d to ~%d tokens", prompt.EstimateTokens(user), prompt.EstimateTokens(budgeted))
	}

	start := time.Now()
	raw, err := r.Model.Call(ctx, provider.ChatPayload{
		Purpose:   PurposeRecommend,
		System:    tpl.System,
		User:      budgeted,
		Schema:    RecommendationResponseSchema(),
		MaxTokens: r.MaxCompletionTokens,
	})
	if err != nil {
		obs.ObserveModelCall(PurposeRecommend, OutcomeCallError, time.Since(start))
		return OrderRecommendation{}, fmt.Errorf("recommend model call: %w", err)
	}
	rec, err := ParseRecommendation(raw)
	if err != nil {
		obs.ObserveModelCall(PurposeRecommend, OutcomeParseError, time.Since(start))
		logger.Warnf("recommendation reply rejected by %s: %v", r.Model.ID(), err)
		return OrderRecommendation{}, err
	}
	obs.ObserveModelCall(PurposeRecommend, OutcomeOK, time.Since(start))
	if rec.Maker == "" {
		rec.Maker = intent.MakerToken
	}
	if rec.Taker == "" {
		rec.Taker = intent.TakerToken
	}
	if clamped, changed := ClampExpiry(rec, intent.MaxExpiry); changed {
		logger.Warnf("recommended expiry %dh exceeds max %vh, clamped to %dh", rec.Expiry, intent.MaxExpiry, clamped.Expiry)
		obs.ObserveClamp()
		rec = clamped
	}
	logger.Infof("recommendation: %s -> %s amount=%v expiry=%dh", rec.Maker, rec.Taker, rec.MakerAmount, rec.Expiry)
	return rec, nil
}

func (r *Recommender) renderPrompt(tpl prompt.Template, intent TradeIntent, events []market.NormalizedSwapEvent) (string, error) {
	if events == nil {
		events = []market.NormalizedSwapEvent{}
	}
	swapData, err := jsonutil.Compact(events)
	if err != nil {
		return "", fmt.Errorf("encode swap data: %w", err)
	}
	data := recommendPromptData{
		SwapData:       swapData,
		MakerToken:     intent.MakerToken,
		TakerToken:     intent.TakerToken,
		MakerMaxAmount: strconv.FormatFloat(intent.MakerMaxAmount, 'f', -1, 64),
		MaxExpiry:      strconv.FormatFloat(intent.MaxExpiry, 'f', -1, 64),
	}
	if r.Indicators != nil {
		data.Indicators = BuildIndicatorSnapshot(events, *r.Indicators)
	}
	return tpl.Render(data)
}
