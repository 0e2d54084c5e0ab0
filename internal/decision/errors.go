package decision

import "fmt"

// IntentParseError means the extraction reply was not a valid TradeIntent. The request is abandoned.
type IntentParseError struct {
	Raw    string
	Reason error
}

func (e *IntentParseError) Error() string {
	return fmt.Sprintf("intent reply rejected: %v", e.Reason)
}

func (e *IntentParseError) Unwrap() error { return e.Reason }

// RecommendationParseError means the recommendation reply was not a valid OrderRecommendation.
type RecommendationParseError struct {
	Raw    string
	Reason error
}

func (e *RecommendationParseError) Error() string {
	return fmt.Sprintf("recommendation reply rejected: %v", e.Reason)
}

func (e *RecommendationParseError) Unwrap() error { return e.Reason }
