package enrich

import "strings"

// gemstoneColors maps well-known gemstones to their typical color.
var gemstoneColors = map[string]string{
	"diamond":  "white",
	"ruby":     "red",
	"sapphire": "blue",
	"emerald":  "green",
	"pearl":    "white",
	"amethyst": "purple",
	"topaz":    "blue",
	"garnet":   "red",
}

// vibeRules are evaluated in order against the product name.
var vibeRules = []struct {
	vibe     string
	keywords []string
}{
	{"festive", []string{"festive", "celebration", "festival"}},
	{"formal", []string{"formal", "gala", "elegant", "luxury"}},
	{"party", []string{"party", "cocktail", "evening"}},
	{"date-night", []string{"romantic", "date"}},
	{"everyday", []string{"everyday", "daily", "simple", "minimalist"}},
}

// Fallback derives enrichment attributes from the extracted metadata alone.
// It is a pure function so the degraded path stays fully deterministic.
func Fallback(req Request) Enrichment {
	result := Enrichment{
		JewelryType: strings.ToLower(req.JewelType),
		Gemstone:    strings.ToLower(req.Gemstone),
		Vibe:        DefaultVibe,
	}

	metal := strings.ToLower(req.Metal)
	switch {
	case strings.Contains(metal, "white"):
		result.MetalColor = "white gold"
	case strings.Contains(metal, "yellow"):
		result.MetalColor = "yellow gold"
	case strings.Contains(metal, "rose"), strings.Contains(metal, "pink"):
		result.MetalColor = "rose gold"
	case strings.Contains(metal, "silver"):
		result.MetalColor = "silver"
	case strings.Contains(metal, "platinum"):
		result.MetalColor = "platinum"
	}

	if color, ok := gemstoneColors[result.Gemstone]; ok {
		result.GemstoneColor = color
	}

	result.Summary = buildSummary(result.JewelryType, req.Metal, req.Gemstone)
	result.Vibe = deriveVibe(req.Name, result.JewelryType, result.Gemstone)
	return result
}

func buildSummary(jewelType, metal, gemstone string) string {
	var b strings.Builder
	if jewelType != "" {
		b.WriteString("A beautiful " + jewelType)
	} else {
		b.WriteString("A beautiful jewelry piece")
	}
	if metal != "" {
		b.WriteString(" crafted in " + metal)
	}
	if gemstone != "" {
		b.WriteString(" featuring " + gemstone)
	}
	b.WriteString(".")
	return b.String()
}

func deriveVibe(name, jewelType, gemstone string) string {
	nameLower := strings.ToLower(name)

	if strings.Contains(nameLower, "wedding") || strings.Contains(nameLower, "bridal") {
		return "wedding"
	}
	if strings.Contains(nameLower, "engagement") {
		return "engagement"
	}
	if jewelType == "ring" && strings.Contains(gemstone, "diamond") {
		return "engagement"
	}
	for _, rule := range vibeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(nameLower, kw) {
				return rule.vibe
			}
		}
	}
	return DefaultVibe
}
