package jsonutil

import (
	"bytes"
	"encoding/json"
)

// Compact marshals v without insignificant whitespace and without HTML escaping,
// which keeps token symbols and arrows readable in prompts.
func Compact(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
