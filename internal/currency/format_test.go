package currency

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatter_Format(t *testing.T) {
	f := NewFormatter("USD", "en-US")

	tests := []struct {
		name   string
		amount string
		code   string
		locale string
		want   string
	}{
		{"us dollars", "1234.56", "USD", "en-US", "$1,234.56"},
		{"negative", "-1234.5", "USD", "en-US", "-$1,234.50"},
		{"lower case code", "10", "usd", "en-US", "$10.00"},
		{"german euros", "1234.56", "EUR", "de-DE", "1.234,56 €"},
		{"language only locale", "1234.56", "EUR", "de-AT", "1.234,56 €"},
		{"underscore locale", "1234.56", "EUR", "de_de", "1.234,56 €"},
		{"brazil", "99.9", "BRL", "pt-BR", "R$ 99,90"},
		{"zero fraction currency rounds", "1234.56", "JPY", "en-US", "¥1,235"},
		{"unknown currency uses default", "10", "ZZZ", "en-US", "$10.00"},
		{"unknown locale uses default locale", "1234.56", "USD", "xx-YY", "$1,234.56"},
		{"empty locale uses default locale", "0.5", "USD", "", "$0.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Format(decimal.RequireFromString(tt.amount), tt.code, tt.locale)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatter_NoLocaleFallsBackToCurrencyRules(t *testing.T) {
	f := NewFormatter("USD", "")

	assert.Equal(t, "$1,234.56", f.Format(decimal.RequireFromString("1234.56"), "USD", "zz"))
}

func TestFormatter_AmountsBeyondInt64MinorUnits(t *testing.T) {
	f := NewFormatter("USD", "en-US")
	largest := decimal.RequireFromString("9999999999999999.9999")

	assert.Equal(t, ".\u062f.\u0643"+"9,999,999,999,999,999.000", f.Format(decimal.RequireFromString("9999999999999999"), "KWD", "en-US"))
	assert.Equal(t, "-$10,000,000,000,000,000.00", f.Format(largest.Neg(), "USD", "en-US"))
	assert.Equal(t, "10.000.000.000.000.000,00 €", f.Format(largest, "EUR", "de-DE"))

	native := NewFormatter("USD", "")
	assert.Equal(t, "9,999,999,999,999,999.000 .\u062f.\u0643", native.Format(decimal.RequireFromString("9999999999999999"), "KWD", "zz"))
}

func TestFormatter_FormatSigned(t *testing.T) {
	f := NewFormatter("USD", "en-US")

	assert.Equal(t, "+$1.00", f.FormatSigned(decimal.NewFromInt(1), "USD", ""))
	assert.Equal(t, "-$1.00", f.FormatSigned(decimal.NewFromInt(-1), "USD", ""))
	assert.Equal(t, "$0.00", f.FormatSigned(decimal.RequireFromString("0.001"), "USD", ""))
}

func TestFormatter_Defaults(t *testing.T) {
	f := NewFormatter("nope", "EN_us")

	assert.Equal(t, "USD", f.DefaultCurrency())
	assert.Equal(t, "en-US", f.DefaultLocale())

	code, locale := f.Resolve("ZZZ", "fr")
	assert.Equal(t, "USD", code)
	assert.Equal(t, "fr-FR", locale)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("EUR"))
	assert.False(t, Valid("eur"))
	assert.False(t, Valid(""))
	assert.False(t, Valid("ZZZ"))

	assert.True(t, ValidLocale("en"))
	assert.True(t, ValidLocale("pt_br"))
	assert.True(t, ValidLocale("es-419"))
	assert.False(t, ValidLocale("english-language"))
	assert.False(t, ValidLocale("1x"))
	assert.False(t, ValidLocale(""))
}
