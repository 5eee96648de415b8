// Package normalize maps extracted jewelry attributes onto the canonical
// vocabulary the product store and the filter API expose.
package normalize

import (
	"regexp"
	"strings"
)

var karatPattern = regexp.MustCompile(`(\d+)\s*k`)

// metalMap folds metal phrases onto canonical names. Order matters: longer,
// more specific phrases come first.
var metalMap = []struct{ key, canonical string }{
	{"sterling silver", "sterling silver"},
	{"stainless steel", "stainless steel"},
	{"white gold", "white gold"},
	{"yellow gold", "yellow gold"},
	{"rose gold", "rose gold"},
	{"pink gold", "rose gold"},
	{"platinum", "platinum"},
	{"palladium", "palladium"},
	{"titanium", "titanium"},
	{"silver", "silver"},
	{"gold", "gold"},
}

var gemstoneMap = []struct{ key, canonical string }{
	{"cubic zirconia", "cubic zirconia"},
	{"aquamarine", "aquamarine"},
	{"tanzanite", "tanzanite"},
	{"moissanite", "moissanite"},
	{"turquoise", "turquoise"},
	{"amethyst", "amethyst"},
	{"sapphire", "sapphire"},
	{"emerald", "emerald"},
	{"citrine", "citrine"},
	{"peridot", "peridot"},
	{"diamond", "diamond"},
	{"garnet", "garnet"},
	{"topaz", "topaz"},
	{"pearl", "pearl"},
	{"ruby", "ruby"},
	{"opal", "opal"},
	{"cz", "cubic zirconia"},
}

var jewelTypeMap = []struct{ key, canonical string }{
	{"necklace", "necklace"},
	{"bracelet", "bracelet"},
	{"earring", "earring"},
	{"pendant", "necklace"},
	{"anklet", "anklet"},
	{"bangle", "bracelet"},
	{"brooch", "brooch"},
	{"chain", "necklace"},
	{"watch", "watch"},
	{"stud", "earring"},
	{"hoop", "earring"},
	{"cuff", "bracelet"},
	{"band", "ring"},
	{"ring", "ring"},
	{"pin", "brooch"},
}

var colorMap = []struct{ key, canonical string }{
	{"yellow", "yellow"},
	{"purple", "purple"},
	{"silver", "silver"},
	{"white", "white"},
	{"black", "black"},
	{"green", "green"},
	{"rose", "rose"},
	{"pink", "rose"},
	{"blue", "blue"},
	{"gold", "gold"},
	{"red", "red"},
}

var currencyMap = []struct{ key, canonical string }{
	{"DOLLAR", "USD"},
	{"RUPEE", "INR"},
	{"POUND", "GBP"},
	{"EURO", "EUR"},
	{"YEN", "JPY"},
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"₹", "INR"},
	{"¥", "JPY"},
}

var validCurrencies = map[string]struct{}{
	"USD": {}, "EUR": {}, "GBP": {}, "INR": {}, "JPY": {},
	"AUD": {}, "CAD": {}, "CHF": {},
}

// Metal canonicalizes a metal phrase. Karat notation is rewritten to the
// "18kt white gold" form; unknown values pass through unchanged.
func Metal(metal string) string {
	if metal == "" {
		return ""
	}
	lower := strings.ToLower(metal)

	if strings.Contains(lower, "k") && strings.Contains(lower, "gold") || strings.Contains(lower, "karat") {
		if m := karatPattern.FindStringSubmatch(lower); m != nil {
			karat := m[1]
			switch {
			case strings.Contains(lower, "white"):
				return karat + "kt white gold"
			case strings.Contains(lower, "rose"), strings.Contains(lower, "pink"):
				return karat + "kt rose gold"
			case strings.Contains(lower, "yellow"):
				return karat + "kt yellow gold"
			default:
				return karat + "kt gold"
			}
		}
	}

	for _, e := range metalMap {
		if strings.Contains(lower, e.key) {
			return e.canonical
		}
	}
	return metal
}

// Gemstone canonicalizes a gemstone name.
func Gemstone(gemstone string) string {
	if gemstone == "" {
		return ""
	}
	lower := strings.ToLower(gemstone)
	for _, e := range gemstoneMap {
		if strings.Contains(lower, e.key) {
			return e.canonical
		}
	}
	return gemstone
}

// JewelType canonicalizes a jewelry type.
func JewelType(jewelType string) string {
	if jewelType == "" {
		return ""
	}
	lower := strings.ToLower(jewelType)
	for _, e := range jewelTypeMap {
		if strings.Contains(lower, e.key) {
			return e.canonical
		}
	}
	return jewelType
}

// Color canonicalizes a color name.
func Color(color string) string {
	if color == "" {
		return ""
	}
	lower := strings.ToLower(strings.TrimSpace(color))
	for _, e := range colorMap {
		if strings.Contains(lower, e.key) {
			return e.canonical
		}
	}
	return color
}

// Currency canonicalizes a currency symbol or name to an ISO code.
func Currency(currency string) string {
	if currency == "" {
		return ""
	}
	upper := strings.ToUpper(strings.TrimSpace(currency))
	if _, ok := validCurrencies[upper]; ok {
		return upper
	}
	for _, e := range currencyMap {
		if strings.Contains(upper, e.key) {
			return e.canonical
		}
	}
	return currency
}
