package market

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"swapsignal/internal/logger"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Normalize keeps one swap per bucketMinutes-wide bucket (the one closest to the bucket start,
// first seen on ties), scales amounts by token decimals and orders the result by timestamp.
func Normalize(events []RawSwapEvent, bucketMinutes int) (NormalizeResult, error) {
	if err := validateBucket(bucketMinutes); err != nil {
		return NormalizeResult{}, err
	}
	return normalize(events, nil, bucketMinutes), nil
}

// NormalizePayload reads the provider response body ({"data": [...]}) and normalizes it.
// A body that is not an object, or has no data array, yields an empty result.
func NormalizePayload(payload []byte, bucketMinutes int) (NormalizeResult, error) {
	if err := validateBucket(bucketMinutes); err != nil {
		return NormalizeResult{}, err
	}
	if !gjson.ValidBytes(payload) {
		logger.Warnf("swap payload is not valid JSON (%d bytes), treating as empty", len(payload))
		return NormalizeResult{}, nil
	}
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		logger.Warnf("swap payload root is not an object, treating as empty")
		return NormalizeResult{}, nil
	}
	data := root.Get("data")
	if !data.IsArray() {
		logger.Warnf("swap payload has no data array, treating as empty")
		return NormalizeResult{}, nil
	}
	var (
		events  []RawSwapEvent
		indexes []int
		skipped []NormalizationWarning
	)
	idx := 0
	data.ForEach(func(_, rec gjson.Result) bool {
		ev, err := parseRawRecord(rec)
		if err != nil {
			w := NormalizationWarning{Index: idx, Reason: err.Error()}
			skipped = append(skipped, w)
			logger.Warnf("%v", w)
		} else {
			events = append(events, ev)
			indexes = append(indexes, idx)
		}
		idx++
		return true
	})
	res := normalize(events, indexes, bucketMinutes)
	res.Warnings = append(skipped, res.Warnings...)
	sort.SliceStable(res.Warnings, func(i, j int) bool { return res.Warnings[i].Index < res.Warnings[j].Index })
	return res, nil
}

func validateBucket(bucketMinutes int) error {
	if bucketMinutes <= 0 {
		return &InvalidConfigurationError{Field: "bucket_minutes", Value: bucketMinutes, Reason: "must be > 0"}
	}
	return nil
}

type bucketPick struct {
	event    NormalizedSwapEvent
	distance int64
}

// normalize assumes bucketMinutes was validated. indexes maps events back to their payload
// positions for warnings; nil means positional.
func normalize(events []RawSwapEvent, indexes []int, bucketMinutes int) NormalizeResult {
	var res NormalizeResult
	if len(events) == 0 {
		return res
	}
	width := int64(bucketMinutes) * 60
	picks := make(map[int64]bucketPick)
	for i, raw := range events {
		pos := i
		if indexes != nil {
			pos = indexes[i]
		}
		ev, err := scaleEvent(raw)
		if err != nil {
			w := NormalizationWarning{Index: pos, Reason: err.Error()}
			res.Warnings = append(res.Warnings, w)
			logger.Warnf("%v", w)
			continue
		}
		start := bucketStart(raw.Timestamp, width)
		dist := raw.Timestamp - start
		if cur, ok := picks[start]; ok && cur.distance <= dist {
			continue
		}
		picks[start] = bucketPick{event: ev, distance: dist}
	}
	res.Events = make([]NormalizedSwapEvent, 0, len(picks))
	for _, p := range picks {
		res.Events = append(res.Events, p.event)
	}
	sort.Slice(res.Events, func(i, j int) bool { return res.Events[i].Timestamp < res.Events[j].Timestamp })
	if len(res.Warnings) > 0 {
		logger.Infof("normalized %d swaps into %d buckets of %dm, skipped %d", len(events), len(res.Events), bucketMinutes, len(res.Warnings))
	}
	return res
}

// bucketStart floors ts to a multiple of width seconds, also for negative timestamps.
func bucketStart(ts, width int64) int64 {
	mod := ts % width
	if mod < 0 {
		mod += width
	}
	return ts - mod
}

func scaleEvent(raw RawSwapEvent) (NormalizedSwapEvent, error) {
	a0, err := scaleAmount(raw.Amount0, raw.Token0.Decimals)
	if err != nil {
		return NormalizedSwapEvent{}, fmt.Errorf("amount0: %w", err)
	}
	a1, err := scaleAmount(raw.Amount1, raw.Token1.Decimals)
	if err != nil {
		return NormalizedSwapEvent{}, fmt.Errorf("amount1: %w", err)
	}
	dt := strings.TrimSpace(raw.Datetime)
	if dt == "" {
		dt = formatDatetime(raw.Timestamp)
	}
	return NormalizedSwapEvent{
		Timestamp: raw.Timestamp,
		Datetime:  dt,
		Token0:    raw.Token0,
		Token1:    raw.Token1,
		Amount0:   a0,
		Amount1:   a1,
		Price0:    raw.Price0,
		Price1:    raw.Price1,
	}, nil
}

func scaleAmount(amount string, decimals int) (float64, error) {
	if decimals < 0 {
		return 0, fmt.Errorf("negative decimals %d", decimals)
	}
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, fmt.Errorf("missing amount")
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("non-numeric amount %q", amount)
	}
	f, _ := d.Shift(-int32(decimals)).Float64()
	return f, nil
}

func parseRawRecord(rec gjson.Result) (RawSwapEvent, error) {
	if !rec.IsObject() {
		return RawSwapEvent{}, fmt.Errorf("record is not an object")
	}
	ts, err := requiredInt(rec, "timestamp")
	if err != nil {
		return RawSwapEvent{}, err
	}
	tok0, err := parseToken(rec.Get("token0"), "token0")
	if err != nil {
		return RawSwapEvent{}, err
	}
	tok1, err := parseToken(rec.Get("token1"), "token1")
	if err != nil {
		return RawSwapEvent{}, err
	}
	a0, err := requiredNumericText(rec, "amount0")
	if err != nil {
		return RawSwapEvent{}, err
	}
	a1, err := requiredNumericText(rec, "amount1")
	if err != nil {
		return RawSwapEvent{}, err
	}
	return RawSwapEvent{
		Timestamp: ts,
		Datetime:  rec.Get("datetime").String(),
		Token0:    tok0,
		Token1:    tok1,
		Amount0:   a0,
		Amount1:   a1,
		Price0:    rec.Get("price0").Float(),
		Price1:    rec.Get("price1").Float(),
	}, nil
}

func parseToken(tok gjson.Result, name string) (Token, error) {
	if !tok.IsObject() {
		return Token{}, fmt.Errorf("missing %s", name)
	}
	dec, err := requiredInt(tok, "decimals")
	if err != nil {
		return Token{}, fmt.Errorf("%s: %w", name, err)
	}
	if dec < 0 {
		return Token{}, fmt.Errorf("%s.decimals must be >= 0", name)
	}
	return Token{
		Symbol:   tok.Get("symbol").String(),
		Address:  tok.Get("address").String(),
		Decimals: int(dec),
	}, nil
}

func requiredInt(rec gjson.Result, key string) (int64, error) {
	v := rec.Get(key)
	switch v.Type {
	case gjson.Number:
		if v.Num != float64(int64(v.Num)) {
			return 0, fmt.Errorf("%s is not an integer", key)
		}
		return v.Int(), nil
	case gjson.String:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s is not an integer", key)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("missing %s", key)
	}
}

func requiredNumericText(rec gjson.Result, key string) (string, error) {
	v := rec.Get(key)
	switch v.Type {
	case gjson.Number:
		return v.Raw, nil
	case gjson.String:
		return v.Str, nil
	default:
		return "", fmt.Errorf("missing %s", key)
	}
}
