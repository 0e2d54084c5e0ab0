package decision

import (
	"math"

	"swapsignal/internal/market"
	"swapsignal/internal/pkg/jsonutil"

	talib "github.com/markcheno/go-talib"
)

const indicatorSnapshotVersion = "swap_indicator_snapshot_v1"

// IndicatorSettings sets the periods used for the snapshot, in samples (one sample per bucket).
type IndicatorSettings struct {
	EMAFast   int
	EMASlow   int
	RSIPeriod int
}

// DefaultIndicatorSettings suits the default 5 minute buckets and 100 record window.
func DefaultIndicatorSettings() IndicatorSettings {
	return IndicatorSettings{EMAFast: 5, EMASlow: 20, RSIPeriod: 14}
}

func (s IndicatorSettings) minSamples() int {
	n := s.EMASlow
	if s.RSIPeriod+1 > n {
		n = s.RSIPeriod + 1
	}
	if s.EMAFast > n {
		n = s.EMAFast
	}
	return n
}

type indicatorSnapshot struct {
	Meta  snapshotMeta  `json:"_meta"`
	Pair  snapshotPair  `json:"pair"`
	Data  snapshotData  `json:"data"`
	Flows snapshotFlows `json:"net_flow"`
}

type snapshotMeta struct {
	SeriesOrder string `json:"series_order"`
	Samples     int    `json:"samples"`
	Version     string `json:"version"`
}

type snapshotPair struct {
	Base           string  `json:"base"`
	Quote          string  `json:"quote"`
	LastPrice      float64 `json:"last_price"`
	PriceTimestamp string  `json:"price_timestamp"`
}

type snapshotData struct {
	EMAFast *emaSnapshot `json:"ema_fast,omitempty"`
	EMASlow *emaSnapshot `json:"ema_slow,omitempty"`
	RSI     *rsiSnapshot `json:"rsi,omitempty"`
}

type emaSnapshot struct {
	Period   int     `json:"period"`
	Latest   float64 `json:"latest"`
	DeltaPct float64 `json:"delta_pct"`
}

type rsiSnapshot struct {
	Period  int     `json:"period"`
	Current float64 `json:"current"`
	State   string  `json:"state"`
}

// snapshotFlows sums the signed scaled amounts per token over the window.
type snapshotFlows map[string]float64

// BuildIndicatorSnapshot summarizes the price of token1 in token0 units across events.
// It returns "" when there are too few samples or the prices are unusable.
func BuildIndicatorSnapshot(events []market.NormalizedSwapEvent, cfg IndicatorSettings) string {
	if cfg.EMAFast <= 0 || cfg.EMASlow <= 0 || cfg.RSIPeriod <= 0 {
		return ""
	}
	if len(events) < cfg.minSamples() {
		return ""
	}
	prices := make([]float64, 0, len(events))
	flows := make(snapshotFlows)
	for _, ev := range events {
		if ev.Price1 <= 0 || math.IsNaN(ev.Price1) || math.IsInf(ev.Price1, 0) {
			return ""
		}
		prices = append(prices, ev.Price1)
		flows[ev.Token0.Symbol] += ev.Amount0
		flows[ev.Token1.Symbol] += ev.Amount1
	}
	last := events[len(events)-1]
	price := prices[len(prices)-1]
	snap := indicatorSnapshot{
		Meta: snapshotMeta{SeriesOrder: "oldest_to_latest", Samples: len(prices), Version: indicatorSnapshotVersion},
		Pair: snapshotPair{
			Base:           last.Token1.Symbol,
			Quote:          last.Token0.Symbol,
			LastPrice:      price,
			PriceTimestamp: last.Datetime,
		},
		Data: snapshotData{
			EMAFast: buildEMA(prices, cfg.EMAFast, price),
			EMASlow: buildEMA(prices, cfg.EMASlow, price),
			RSI:     buildRSI(prices, cfg.RSIPeriod),
		},
		Flows: flows,
	}
	out, err := jsonutil.Compact(snap)
	if err != nil {
		return ""
	}
	return out
}

func buildEMA(prices []float64, period int, price float64) *emaSnapshot {
	series := talib.Ema(prices, period)
	if len(series) == 0 {
		return nil
	}
	latest := series[len(series)-1]
	if latest == 0 || math.IsNaN(latest) {
		return nil
	}
	return &emaSnapshot{
		Period:   period,
		Latest:   round(latest, 6),
		DeltaPct: round((price-latest)/latest*100, 4),
	}
}

func buildRSI(prices []float64, period int) *rsiSnapshot {
	series := talib.Rsi(prices, period)
	if len(series) == 0 {
		return nil
	}
	cur := series[len(series)-1]
	if math.IsNaN(cur) {
		return nil
	}
	state := "neutral"
	switch {
	case cur >= 70:
		state = "overbought"
	case cur <= 30:
		state = "oversold"
	}
	return &rsiSnapshot{Period: period, Current: round(cur, 2), State: state}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
