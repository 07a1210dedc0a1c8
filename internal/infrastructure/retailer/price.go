package retailer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// currencyTokens maps raw currency markers to the glyph reported on listings.
// Longer tokens come first so "Rs." is removed before "$" style checks.
var currencyTokens = []struct {
	token  string
	symbol string
}{
	{"Rs.", "₹"},
	{"INR", "₹"},
	{"₹", "₹"},
	{"USD", "$"},
	{"$", "$"},
	{"€", "€"},
	{"£", "£"},
	{"¥", "¥"},
}

var separatorReplacer = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "\u202f", "")

// ParsePrice normalizes a retailer price string into a number.
// "₹1,299" -> 1299, "1,299." -> 1299, "₹1,299 - ₹1,499" -> 1299.
// Returns nil when the string holds no usable amount; the currency glyph is
// still returned if one was recognised.
func ParsePrice(raw string) (*float64, string) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "N/A") {
		return nil, ""
	}

	currency := ""
	for _, c := range currencyTokens {
		if strings.Contains(s, c.token) {
			if currency == "" {
				currency = c.symbol
			}
			s = strings.ReplaceAll(s, c.token, "")
		}
	}

	s = separatorReplacer.Replace(s)

	// Price ranges keep their lower bound
	if i := strings.IndexAny(s, "-–"); i > 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, ".")

	amount, err := decimal.NewFromString(s)
	if err != nil || amount.IsNegative() {
		return nil, currency
	}

	value, _ := amount.Round(2).Float64()
	return &value, currency
}
