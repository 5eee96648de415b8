package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// currencySymbols maps price-string symbols to ISO codes.
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"₹", "INR"},
	{"¥", "JPY"},
}

var (
	// numberRun grabs the first run of digits with grouping separators.
	numberRun    = regexp.MustCompile(`\d[\d.,\s]*\d|\d`)
	currencyCode = regexp.MustCompile(`(?i)\b(USD|EUR|GBP|INR|JPY|AUD|CAD|CHF)\b`)
)

// ParseAmount extracts the first monetary amount from a price string. It
// handles US grouping (1,234.56), EU grouping (1.234,56), and space-separated
// grouping (1 37 606), which simply collapses.
func ParseAmount(s string) (float64, bool) {
	run := numberRun.FindString(s)
	if run == "" {
		return 0, false
	}
	// Space grouping carries no decimal information; collapse it.
	run = strings.NewReplacer(" ", "", " ", "").Replace(run)

	hasComma := strings.Contains(run, ",")
	hasDot := strings.Contains(run, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(run, ",") > strings.LastIndex(run, ".") {
			// EU format: dots group thousands, comma is the decimal mark.
			run = strings.ReplaceAll(run, ".", "")
			run = strings.Replace(run, ",", ".", 1)
		} else {
			run = strings.ReplaceAll(run, ",", "")
		}
	case hasComma:
		if isDecimalComma(run) {
			run = strings.Replace(run, ",", ".", 1)
		} else {
			run = strings.ReplaceAll(run, ",", "")
		}
	case hasDot:
		if !isDecimalDot(run) {
			run = strings.ReplaceAll(run, ".", "")
		}
	}

	amount, err := strconv.ParseFloat(run, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

// isDecimalComma reports whether a single comma followed by exactly two
// digits ends the run, the EU decimal convention.
func isDecimalComma(run string) bool {
	if strings.Count(run, ",") != 1 {
		return false
	}
	tail := run[strings.Index(run, ",")+1:]
	return len(tail) == 2
}

// isDecimalDot treats a single trailing dot group of one or two digits as a
// decimal mark; three-digit groups are thousands separators.
func isDecimalDot(run string) bool {
	if strings.Count(run, ".") != 1 {
		return false
	}
	tail := run[strings.Index(run, ".")+1:]
	return len(tail) <= 2
}

// DetectCurrency finds a currency symbol or ISO code in a price string.
func DetectCurrency(s string) string {
	for _, c := range currencySymbols {
		if strings.Contains(s, c.symbol) {
			return c.code
		}
	}
	if m := currencyCode.FindString(s); m != "" {
		return strings.ToUpper(m)
	}
	return ""
}
