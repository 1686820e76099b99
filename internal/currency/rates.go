// Package currency converts extracted salary figures to LKR using a static
// rate table. Backends are unreliable at arithmetic, so callers always
// recompute conversions here instead of trusting backend-supplied values.
package currency

import (
	"math"
	"sort"
	"strings"
)

// Approximate market rates, LKR per unit of foreign currency.
var lkrRates = map[string]float64{
	"usd": 305.50,
	"eur": 331.20,
	"gbp": 387.40,
	"sgd": 226.80,
	"aud": 202.10,
	"cad": 224.50,
	"inr": 3.65,
	"aed": 83.15,
	"qar": 83.90,
	"sar": 81.45,
	"jpy": 1.95,
	"lkr": 1.00,
}

// ConvertToLKR converts amount from the given currency code to whole LKR.
// The code is matched lowercased and trimmed; unrecognized codes fall back
// to the USD rate.
func ConvertToLKR(amount float64, fromCurrency string) int {
	code := strings.ToLower(strings.TrimSpace(fromCurrency))
	rate, ok := lkrRates[code]
	if !ok {
		rate = lkrRates["usd"]
	}
	return int(math.Round(amount * rate))
}

// Codes lists the supported currency codes in uppercase, sorted.
func Codes() []string {
	codes := make([]string, 0, len(lkrRates))
	for c := range lkrRates {
		codes = append(codes, strings.ToUpper(c))
	}
	sort.Strings(codes)
	return codes
}
