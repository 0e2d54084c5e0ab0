package market

import "time"

// Token identifies one side of a pool.
type Token struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
}

// RawSwapEvent is a swap as the provider reports it. Amounts are integer base units kept as text,
// signed by trade direction.
type RawSwapEvent struct {
	Timestamp int64   `json:"timestamp"`
	Datetime  string  `json:"datetime,omitempty"`
	Token0    Token   `json:"token0"`
	Token1    Token   `json:"token1"`
	Amount0   string  `json:"amount0"`
	Amount1   string  `json:"amount1"`
	Price0    float64 `json:"price0"`
	Price1    float64 `json:"price1"`
}

// NormalizedSwapEvent is one bucket representative with amounts in human units.
type NormalizedSwapEvent struct {
	Timestamp int64   `json:"timestamp"`
	Datetime  string  `json:"datetime"`
	Token0    Token   `json:"token0"`
	Token1    Token   `json:"token1"`
	Amount0   float64 `json:"amount0"`
	Amount1   float64 `json:"amount1"`
	Price0    float64 `json:"price0"`
	Price1    float64 `json:"price1"`
}

// Time returns the event time in UTC.
func (e NormalizedSwapEvent) Time() time.Time {
	return time.Unix(e.Timestamp, 0).UTC()
}

// NormalizeResult carries the kept events and every record that had to be skipped.
type NormalizeResult struct {
	Events   []NormalizedSwapEvent
	Warnings []NormalizationWarning
}

func formatDatetime(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}
