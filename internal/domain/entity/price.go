package entity

import (
	"regexp"
	"strings"
)

// DefaultFreeToken is the literal the catalog shows instead of a price for free items.
const DefaultFreeToken = "Ücretsiz"

// priceRe matches an optional currency glyph, 1-3 leading digits, dot
// separated thousands groups, a comma and two decimals, and an optional
// trailing "+" (e.g. "₺1.299,00", "₺49,90+").
var priceRe = regexp.MustCompile(`^\p{Sc}?\d{1,3}(\.\d{3})*,\d{2}\+?$`)

// IsPrice reports whether value is a well-formed catalog price or the free token.
// An empty freeToken falls back to DefaultFreeToken.
func IsPrice(value, freeToken string) bool {
	if freeToken == "" {
		freeToken = DefaultFreeToken
	}
	value = strings.TrimSpace(value)
	if value == freeToken {
		return true
	}
	return priceRe.MatchString(value)
}
