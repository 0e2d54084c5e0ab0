package prompt

import "unicode/utf8"

// charsPerToken is the fixed estimation ratio; the model side tolerates approximate budgets.
const charsPerToken = 4

// EstimateTokens approximates the token count as floor(characters/4), counting code points.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / charsPerToken
}

// Fit returns text unchanged when it fits maxTokens, otherwise drops
// (estimate-maxTokens)*4 characters from the front so the newest content survives.
// A negative budget behaves like zero.
func Fit(text string, maxTokens int) string {
	if maxTokens < 0 {
		maxTokens = 0
	}
	tokens := EstimateTokens(text)
	if tokens <= maxTokens {
		return text
	}
	drop := (tokens - maxTokens) * charsPerToken
	if drop >= len(text) {
		// byte length bounds rune count, so this is also past the last character
		return ""
	}
	return dropRunes(text, drop)
}

func dropRunes(text string, n int) string {
	for i := range text {
		if n == 0 {
			return text[i:]
		}
		n--
	}
	return ""
}

// Budgeter applies a fixed token budget to rendered prompts.
type Budgeter struct {
	MaxTokens int
}

func (b Budgeter) Fit(text string) string {
	return Fit(text, b.MaxTokens)
}
