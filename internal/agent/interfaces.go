package agent

import (
	"context"
	"time"

	"swapsignal/internal/decision"
	"swapsignal/internal/gateway/thegraph"
	"swapsignal/internal/market"
)

// IntentExtractor turns free text into a TradeIntent.
type IntentExtractor interface {
	Extract(ctx context.Context, userText string) (decision.TradeIntent, error)
}

// SwapSource returns normalized swap history for a pool.
type SwapSource interface {
	FetchSwaps(ctx context.Context, q thegraph.SwapQuery) ([]market.NormalizedSwapEvent, error)
}

// OrderRecommender proposes a limit order for an intent.
type OrderRecommender interface {
	Recommend(ctx context.Context, intent decision.TradeIntent, marketData []market.NormalizedSwapEvent) (decision.OrderRecommendation, error)
}

// Outbox delivers protocol messages back to the sender of a request.
type Outbox interface {
	SendAcknowledgement(ctx context.Context, recipient string, ack ChatAcknowledgement) error
	SendMessage(ctx context.Context, recipient string, msg ChatMessage) error
}

// Observer receives one call per handled message.
type Observer interface {
	ObserveSession(outcome string, took time.Duration)
}
