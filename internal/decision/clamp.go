package decision

import "math"

// ClampExpiry caps rec.Expiry at floor(maxExpiry). It reports whether the value changed.
func ClampExpiry(rec OrderRecommendation, maxExpiry float64) (OrderRecommendation, bool) {
	if float64(rec.Expiry) <= maxExpiry {
		return rec, false
	}
	rec.Expiry = int(math.Floor(maxExpiry))
	return rec, true
}
