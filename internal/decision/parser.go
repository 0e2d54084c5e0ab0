package decision

import (
	"encoding/json"
	"fmt"
	"strings"

	"swapsignal/internal/pkg/convert"
	"swapsignal/internal/pkg/jsonutil"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

// ParseIntent turns an extraction reply into a TradeIntent. Any failure is an *IntentParseError.
func ParseIntent(raw string) (TradeIntent, error) {
	intentSchema, _, err := compiledSchemas()
	if err != nil {
		return TradeIntent{}, &IntentParseError{Raw: raw, Reason: err}
	}
	obj, err := decodeReply(raw, intentSchema)
	if err != nil {
		return TradeIntent{}, &IntentParseError{Raw: raw, Reason: err}
	}
	intent := TradeIntent{
		MakerToken:  strings.TrimSpace(stringField(obj, "makerToken")),
		TakerToken:  strings.TrimSpace(stringField(obj, "takerToken")),
		PoolAddress: strings.TrimSpace(stringField(obj, "poolAddress")),
	}
	var ok bool
	if intent.MakerMaxAmount, ok = convert.Float64(obj["makerMaxAmount"]); !ok {
		return TradeIntent{}, &IntentParseError{Raw: raw, Reason: fmt.Errorf("makerMaxAmount is not numeric")}
	}
	if intent.MaxExpiry, ok = convert.Float64(obj["maxExpiry"]); !ok {
		return TradeIntent{}, &IntentParseError{Raw: raw, Reason: fmt.Errorf("maxExpiry is not numeric")}
	}
	if err := intent.Validate(); err != nil {
		return TradeIntent{}, &IntentParseError{Raw: raw, Reason: err}
	}
	return intent, nil
}

// ParseRecommendation turns a recommendation reply into an OrderRecommendation.
// Both maker_amount and makerAmount are accepted. Any failure is a *RecommendationParseError.
func ParseRecommendation(raw string) (OrderRecommendation, error) {
	_, recommendSchema, err := compiledSchemas()
	if err != nil {
		return OrderRecommendation{}, &RecommendationParseError{Raw: raw, Reason: err}
	}
	obj, err := decodeReply(raw, recommendSchema)
	if err != nil {
		return OrderRecommendation{}, &RecommendationParseError{Raw: raw, Reason: err}
	}
	rec := OrderRecommendation{
		Maker: strings.TrimSpace(stringField(obj, "maker")),
		Taker: strings.TrimSpace(stringField(obj, "taker")),
	}
	amountRaw, ok := obj["maker_amount"]
	if !ok {
		amountRaw = obj["makerAmount"]
	}
	if rec.MakerAmount, ok = convert.Float64(amountRaw); !ok {
		return OrderRecommendation{}, &RecommendationParseError{Raw: raw, Reason: fmt.Errorf("maker_amount is not numeric")}
	}
	if rec.MakerAmount < 0 {
		return OrderRecommendation{}, &RecommendationParseError{Raw: raw, Reason: fmt.Errorf("maker_amount must be >= 0, got %v", rec.MakerAmount)}
	}
	if rec.Expiry, err = convert.Int(obj["expiry"]); err != nil {
		return OrderRecommendation{}, &RecommendationParseError{Raw: raw, Reason: fmt.Errorf("expiry: %w", err)}
	}
	if rec.Expiry < 0 {
		return OrderRecommendation{}, &RecommendationParseError{Raw: raw, Reason: fmt.Errorf("expiry must be >= 0, got %d", rec.Expiry)}
	}
	return rec, nil
}

// decodeReply requires the reply to be exactly one JSON object, optionally fenced, and validates it against schema.
// Fields outside the schema are ignored.
func decodeReply(raw string, schema *jsonschema.Schema) (map[string]any, error) {
	block, ok := jsonutil.ExtractObject(raw)
	if !ok {
		return nil, fmt.Errorf("reply is not a single JSON object")
	}
	if !gjson.Valid(block) {
		return nil, fmt.Errorf("reply is not valid JSON")
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(block), &obj); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if err := schema.Validate(obj); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return obj, nil
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
