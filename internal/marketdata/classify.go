package marketdata

import "strings"

// AssetClass selects provider symbol mapping and session rules for a pair.
type AssetClass string

const (
	ClassCrypto AssetClass = "crypto"
	ClassForex  AssetClass = "forex"
	ClassGold   AssetClass = "gold"
	ClassIndex  AssetClass = "index"
	ClassOther  AssetClass = "other"
)

var forexCodes = []string{"USD", "EUR", "GBP", "JPY", "INR"}

// Classify buckets a pair string into an asset class. Matching is loose on
// purpose: user input arrives as "BTC/USDT", "EUR/USD", "GOLD", "NASDAQ".
func Classify(pair string) AssetClass {
	p := strings.ToUpper(pair)
	if strings.Contains(p, "BTC") || strings.Contains(p, "ETH") {
		return ClassCrypto
	}
	if strings.Contains(p, "/") {
		for _, code := range forexCodes {
			if strings.Contains(p, code) {
				return ClassForex
			}
		}
	}
	if strings.Contains(p, "GOLD") || strings.Contains(p, "XAU") {
		return ClassGold
	}
	if strings.Contains(p, "NASDAQ") || strings.Contains(p, "NDQ") {
		return ClassIndex
	}
	return ClassOther
}

// splitPair breaks "BASE/QUOTE" apart, defaulting gold to XAU/USD.
func splitPair(pair string) (base, quote string) {
	p := strings.ToUpper(pair)
	if i := strings.Index(p, "/"); i > 0 {
		return p[:i], p[i+1:]
	}
	if Classify(pair) == ClassGold {
		return "XAU", "USD"
	}
	return p, ""
}
