package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalize_BaseCurrencyPassesThrough(t *testing.T) {
	n := NewNormalizer("IDR")

	amount := decimal.NewFromInt(150000)
	got := n.Normalize(amount, "IDR", decimal.Zero)

	assert.True(t, got.Equal(amount))
	assert.Equal(t, int64(0), n.WarningCount(), "base currency must not count a warning")
}

func TestNormalize_ForeignCurrencyAppliesRate(t *testing.T) {
	n := NewNormalizer("IDR")

	got := n.Normalize(decimal.NewFromInt(100), "USD", decimal.NewFromInt(15000))

	assert.True(t, got.Equal(decimal.NewFromInt(1500000)))
	assert.Equal(t, int64(0), n.WarningCount())
}

func TestNormalize_InvalidRateDefaultsToOneAndWarns(t *testing.T) {
	n := NewNormalizer("IDR")

	zero := n.Normalize(decimal.NewFromInt(100), "USD", decimal.Zero)
	negative := n.Normalize(decimal.NewFromInt(100), "USD", decimal.NewFromInt(-3))

	assert.True(t, zero.Equal(decimal.NewFromInt(100)))
	assert.True(t, negative.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, int64(2), n.WarningCount())
}

func TestNewNormalizer_EmptyBaseFallsBackToDefault(t *testing.T) {
	n := NewNormalizer("")
	assert.Equal(t, DefaultBase, n.Base())
}

func TestEffectiveRate(t *testing.T) {
	n := NewNormalizer("IDR")

	one := decimal.NewFromInt(1)
	assert.True(t, n.EffectiveRate("IDR", decimal.NewFromInt(99)).Equal(one), "base currency always rate 1")
	assert.True(t, n.EffectiveRate("USD", decimal.Zero).Equal(one), "invalid rate defaults to 1")
	assert.True(t, n.EffectiveRate("USD", decimal.NewFromInt(15000)).Equal(decimal.NewFromInt(15000)))
}

func TestRound_MinorUnits(t *testing.T) {
	cases := []struct {
		code   string
		in     string
		expect string
	}{
		{"IDR", "1234.567", "1235"},
		{"JPY", "99.5", "100"},
		{"USD", "10.005", "10.01"},
		{"EUR", "10.004", "10"},
		{"KWD", "1.23456", "1.235"},
	}
	for _, tc := range cases {
		in, _ := decimal.NewFromString(tc.in)
		expect, _ := decimal.NewFromString(tc.expect)
		got := Round(in, tc.code)
		assert.True(t, got.Equal(expect), "%s: Round(%s) = %s, want %s", tc.code, tc.in, got, tc.expect)
	}
}
