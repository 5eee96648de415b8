package enrich

import (
	"fmt"
	"strings"
)

// placeholder values the model uses for absent attributes.
var placeholderValues = map[string]struct{}{
	"none visible": {}, "n/a": {}, "none": {}, "unknown": {},
}

// ParseResponse parses the model's line-oriented "Key: value" answer. A
// "Valid Product: No" verdict returns a SkipError carrying the model's
// skip reason.
func ParseResponse(raw string) (Enrichment, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Enrichment{}, fmt.Errorf("empty model response")
	}

	result := Enrichment{Vibe: DefaultVibe}
	valid := true
	skipReason := ""

	for _, line := range strings.Split(raw, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch {
		case strings.Contains(key, "valid product"):
			if strings.Contains(strings.ToLower(value), "no") {
				valid = false
			}
		case strings.Contains(key, "skip reason"):
			skipReason = value
		case strings.Contains(key, "summary"):
			result.Summary = value
		case strings.Contains(key, "vibe"):
			lower := strings.ToLower(value)
			for _, vibe := range Vibes {
				if strings.Contains(lower, vibe) {
					result.Vibe = vibe
					break
				}
			}
		default:
			lower := strings.ToLower(value)
			if lower == "" {
				continue
			}
			if _, placeholder := placeholderValues[lower]; placeholder {
				continue
			}
			switch {
			case strings.Contains(key, "jewelry type"):
				result.JewelryType = lower
			case strings.Contains(key, "gemstone color"), strings.Contains(key, "stone color"):
				result.GemstoneColor = lower
			case strings.Contains(key, "gemstone"):
				result.Gemstone = lower
			case strings.Contains(key, "metal color"), strings.Contains(key, "metal"):
				result.MetalColor = lower
			}
		}
	}

	if !valid {
		if skipReason == "" {
			skipReason = "generic category name"
		}
		return Enrichment{}, &SkipError{Reason: skipReason}
	}
	return result, nil
}
