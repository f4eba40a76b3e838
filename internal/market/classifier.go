// Package market maps exchange-local symbols to their venue and board segment.
package market

import (
	"strings"

	"github.com/wonny/bigorder/internal/contracts"
)

type rule struct {
	prefixes []string
	exchange contracts.Exchange
	board    string
}

// rules are matched in order; the broad 2-digit Beijing prefixes sit after
// the 3-digit ones they would otherwise mask.
var rules = []rule{
	{[]string{"920"}, contracts.ExchangeBJ, contracts.BoardBJ},
	{[]string{"600", "601", "603", "605"}, contracts.ExchangeSH, contracts.BoardSHMain},
	{[]string{"688"}, contracts.ExchangeSH, contracts.BoardSTAR},
	{[]string{"000", "001", "002", "003", "004"}, contracts.ExchangeSZ, contracts.BoardSZMain},
	{[]string{"300", "301"}, contracts.ExchangeSZ, contracts.BoardChiNext},
	{[]string{"20"}, contracts.ExchangeSZ, contracts.BoardSZB},
	{[]string{"900"}, contracts.ExchangeSH, contracts.BoardSHB},
	{[]string{"430", "831", "832", "833", "834", "835", "836", "837", "838", "839"}, contracts.ExchangeBJ, contracts.BoardBJ},
	{[]string{"400", "830"}, contracts.ExchangeBJ, contracts.BoardBJ},
	{[]string{"87"}, contracts.ExchangeBJ, contracts.BoardBJ},
	{[]string{"83"}, contracts.ExchangeBJ, contracts.BoardBJ},
	{[]string{"8"}, contracts.ExchangeBJ, contracts.BoardBJ},
}

// Classify returns the exchange and board segment of a symbol.
// Non-digit input yields (unknown, 非数字代码); codes shorter than 7 characters
// are left-padded with zeros to 6 digits before matching.
func Classify(symbol string) (contracts.Exchange, string) {
	if !IsDigits(symbol) {
		return contracts.ExchangeUnknown, contracts.BoardNonNumeric
	}

	code := Normalize(symbol)
	for _, r := range rules {
		for _, p := range r.prefixes {
			if strings.HasPrefix(code, p) {
				return r.exchange, r.board
			}
		}
	}

	return contracts.ExchangeUnknown, contracts.BoardOther
}

// Normalize zero-pads a short code to 6 digits; longer codes pass through
func Normalize(symbol string) string {
	if len(symbol) < 6 {
		return strings.Repeat("0", 6-len(symbol)) + symbol
	}
	return symbol
}

// Excluded reports whether a symbol is kept out of enrichment:
// Beijing listings, the sci-tech board and the growth enterprise board
func Excluded(symbol string) bool {
	exchange, board := Classify(symbol)
	return exchange == contracts.ExchangeBJ ||
		board == contracts.BoardSTAR ||
		board == contracts.BoardChiNext
}

// SecID returns the provider's market-qualified id, e.g. "1.600519"
func SecID(symbol string) string {
	code := Normalize(symbol)
	if exchange, _ := Classify(code); exchange == contracts.ExchangeSH {
		return "1." + code
	}
	return "0." + code
}

// IsDigits reports whether s is a non-empty run of ASCII digits
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
