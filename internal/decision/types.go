package decision

import (
	"fmt"
	"strings"
)

// TradeIntent is the structured form of a user's swap request.
type TradeIntent struct {
	MakerToken     string  `json:"makerToken"`
	TakerToken     string  `json:"takerToken"`
	MakerMaxAmount float64 `json:"makerMaxAmount"`
	// MaxExpiry is in hours.
	MaxExpiry   float64 `json:"maxExpiry"`
	PoolAddress string  `json:"poolAddress,omitempty"`
}

// IsNoop reports whether the user offered nothing, in which case no market query or model call is made.
func (t TradeIntent) IsNoop() bool {
	return t.MakerMaxAmount <= 0
}

// Validate checks the invariants every intent must hold regardless of where it came from.
func (t TradeIntent) Validate() error {
	switch {
	case strings.TrimSpace(t.MakerToken) == "":
		return fmt.Errorf("makerToken is empty")
	case strings.TrimSpace(t.TakerToken) == "":
		return fmt.Errorf("takerToken is empty")
	case t.MakerMaxAmount < 0:
		return fmt.Errorf("makerMaxAmount must be >= 0, got %v", t.MakerMaxAmount)
	case t.MaxExpiry <= 0:
		return fmt.Errorf("maxExpiry must be > 0, got %v", t.MaxExpiry)
	}
	return nil
}

// OrderRecommendation is the limit order the model proposes. MakerAmount 0 with Expiry 0 means do not trade.
type OrderRecommendation struct {
	Maker       string  `json:"maker"`
	Taker       string  `json:"taker"`
	MakerAmount float64 `json:"maker_amount"`
	// Expiry is in whole hours.
	Expiry int `json:"expiry"`
}

// NoTrade is the zero-amount, zero-expiry recommendation for intent's pair.
func NoTrade(intent TradeIntent) OrderRecommendation {
	return OrderRecommendation{Maker: intent.MakerToken, Taker: intent.TakerToken}
}

// IsNoTrade reports whether r tells the caller not to trade.
func (r OrderRecommendation) IsNoTrade() bool {
	return r.MakerAmount == 0
}
