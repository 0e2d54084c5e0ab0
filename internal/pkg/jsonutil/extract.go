package jsonutil

import (
	"strings"
)

const codeFence = "```"

// ExtractObject returns the JSON object a model reply consists of. The trimmed reply must be
// the object itself, or a single fenced block (with or without a language tag) holding only
// the object. Any other text around it rejects the reply.
func ExtractObject(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if strings.HasPrefix(raw, codeFence) {
		block, ok := fencedBlock(raw)
		if !ok {
			return "", false
		}
		raw = block
	}
	return wholeObject(raw)
}

// fencedBlock unwraps a reply that starts and ends with a code fence.
func fencedBlock(raw string) (string, bool) {
	if len(raw) < 2*len(codeFence) || !strings.HasSuffix(raw, codeFence) {
		return "", false
	}
	inner := raw[len(codeFence) : len(raw)-len(codeFence)]
	if strings.Contains(inner, codeFence) {
		return "", false
	}
	inner = strings.TrimLeft(inner, " \t")
	if idx := strings.Index(inner, "\n"); idx != -1 {
		first := strings.TrimSpace(inner[:idx])
		if first != "" && !strings.ContainsAny(first, "{[") {
			inner = inner[idx+1:]
		}
	}
	inner = strings.TrimSpace(inner)
	return inner, inner != ""
}

// wholeObject accepts raw only when a single balanced {...} spans all of it.
func wholeObject(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "{") {
		return "", false
	}
	depth := 0
	inString := false
	escape := false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				if i != len(raw)-1 {
					return "", false
				}
				return raw, true
			}
		}
	}
	return "", false
}
