package currency

import (
	"log"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// DefaultBase is the canonical currency used when none is configured.
const DefaultBase = "IDR"

// minorUnits maps currency codes to their minor-unit exponent. Codes not
// listed here round to 2 decimal places.
var minorUnits = map[string]int32{
	"IDR": 0,
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"BHD": 3,
	"KWD": 3,
}

// Normalizer converts (amount, currency, exchangeRate) triples into the
// canonical base currency. It never fails: a missing or non-positive
// exchange rate is defaulted to 1 and counted as a data-quality warning so
// the pipeline keeps moving on bad pricing data instead of halting.
type Normalizer struct {
	base     string
	warnings atomic.Int64
}

func NewNormalizer(base string) *Normalizer {
	if base == "" {
		base = DefaultBase
	}
	return &Normalizer{base: base}
}

// Base returns the canonical currency code.
func (n *Normalizer) Base() string {
	return n.base
}

// Normalize returns amount converted into the base currency. For the base
// currency itself the exchange rate is forced to 1. The result is NOT
// rounded; callers round with Round at the point of persistence to avoid
// compounding rounding across intermediate computations.
func (n *Normalizer) Normalize(amount decimal.Decimal, code string, rate decimal.Decimal) decimal.Decimal {
	if code == n.base {
		return amount
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		n.warnings.Add(1)
		log.Printf("currency: missing or invalid exchange rate for %s, defaulting to 1 (amount=%s)", code, amount.String())
		rate = decimal.NewFromInt(1)
	}
	return amount.Mul(rate)
}

// EffectiveRate returns the exchange rate that Normalize would apply for the
// given currency/rate pair, so callers can persist what was actually used.
func (n *Normalizer) EffectiveRate(code string, rate decimal.Decimal) decimal.Decimal {
	if code == n.base || rate.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(1)
	}
	return rate
}

// WarningCount reports how many normalizations fell back to a defaulted
// exchange rate since process start.
func (n *Normalizer) WarningCount() int64 {
	return n.warnings.Load()
}

// Round rounds an amount to the minor-unit precision of the given currency.
func Round(amount decimal.Decimal, code string) decimal.Decimal {
	places, ok := minorUnits[code]
	if !ok {
		places = 2
	}
	return amount.Round(places)
}
