// Package currency formats money amounts for display using the user's
// preferred currency and locale, falling back to the configured defaults.
package currency

import (
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// localeStyle overrides the currency's own separators and symbol placement.
// In Template, "1" is the number and "$" the currency symbol.
type localeStyle struct {
	Decimal  string
	Thousand string
	Template string
}

var locales = map[string]localeStyle{
	"en-US": {Decimal: ".", Thousand: ",", Template: "$1"},
	"en-GB": {Decimal: ".", Thousand: ",", Template: "$1"},
	"ja-JP": {Decimal: ".", Thousand: ",", Template: "$1"},
	"de-DE": {Decimal: ",", Thousand: ".", Template: "1 $"},
	"es-ES": {Decimal: ",", Thousand: ".", Template: "1 $"},
	"it-IT": {Decimal: ",", Thousand: ".", Template: "1 $"},
	"fr-FR": {Decimal: ",", Thousand: " ", Template: "1 $"},
	"pt-BR": {Decimal: ",", Thousand: ".", Template: "$ 1"},
}

// languageDefaults maps a bare language to the locale used when only the
// language part of a tag is known.
var languageDefaults = map[string]string{
	"en": "en-US",
	"ja": "ja-JP",
	"de": "de-DE",
	"es": "es-ES",
	"it": "it-IT",
	"fr": "fr-FR",
	"pt": "pt-BR",
}

type Formatter struct {
	defaultCurrency string
	defaultLocale   string
}

func NewFormatter(defaultCurrency string, defaultLocale string) *Formatter {
	code := strings.ToUpper(strings.TrimSpace(defaultCurrency))
	if !Valid(code) {
		code = money.USD
	}
	return &Formatter{defaultCurrency: code, defaultLocale: NormalizeLocale(defaultLocale)}
}

func (f *Formatter) DefaultCurrency() string { return f.defaultCurrency }
func (f *Formatter) DefaultLocale() string   { return f.defaultLocale }

// Format renders amount in currency code for locale. An unknown code falls
// back to the default currency; an unknown locale falls back to the language,
// then the default locale, then the currency's native formatting.
func (f *Formatter) Format(amount decimal.Decimal, code string, locale string) string {
	cur := f.currency(code)
	fm := cur.Formatter()
	if style, ok := f.style(locale); ok {
		fm = money.NewFormatter(cur.Fraction, style.Decimal, style.Thousand, cur.Grapheme, style.Template)
	}

	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	if minor.Abs().LessThan(maxMinor) {
		return fm.Format(minor.IntPart())
	}
	return formatWide(fm, minor)
}

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// formatWide lays out minor units that do not fit an int64 the same way
// money.Formatter does.
func formatWide(fm *money.Formatter, minor decimal.Decimal) string {
	sa := minor.Abs().String()
	if len(sa) <= fm.Fraction {
		sa = strings.Repeat("0", fm.Fraction-len(sa)+1) + sa
	}
	if fm.Thousand != "" {
		for i := len(sa) - fm.Fraction - 3; i > 0; i -= 3 {
			sa = sa[:i] + fm.Thousand + sa[i:]
		}
	}
	if fm.Fraction > 0 {
		sa = sa[:len(sa)-fm.Fraction] + fm.Decimal + sa[len(sa)-fm.Fraction:]
	}

	sa = strings.Replace(fm.Template, "1", sa, 1)
	sa = strings.Replace(sa, "$", fm.Grapheme, 1)
	if minor.IsNegative() {
		sa = "-" + sa
	}
	return sa
}

// FormatSigned is Format with an explicit "+" on positive amounts.
func (f *Formatter) FormatSigned(amount decimal.Decimal, code string, locale string) string {
	formatted := f.Format(amount, code, locale)
	if amount.Round(int32(f.currency(code).Fraction)).IsPositive() {
		return "+" + formatted
	}
	return formatted
}

// Resolve returns the currency code and locale that Format would use.
func (f *Formatter) Resolve(code string, locale string) (string, string) {
	resolvedLocale := ""
	if tag, ok := f.resolveLocale(locale); ok {
		resolvedLocale = tag
	}
	return f.currency(code).Code, resolvedLocale
}

func (f *Formatter) currency(code string) *money.Currency {
	if cur := money.GetCurrency(strings.ToUpper(strings.TrimSpace(code))); cur != nil {
		return cur
	}
	if cur := money.GetCurrency(f.defaultCurrency); cur != nil {
		return cur
	}
	return money.GetCurrency(money.USD)
}

func (f *Formatter) style(locale string) (localeStyle, bool) {
	tag, ok := f.resolveLocale(locale)
	if !ok {
		return localeStyle{}, false
	}
	return locales[tag], true
}

func (f *Formatter) resolveLocale(locale string) (string, bool) {
	for _, candidate := range []string{NormalizeLocale(locale), f.defaultLocale} {
		if candidate == "" {
			continue
		}
		if _, ok := locales[candidate]; ok {
			return candidate, true
		}
		lang, _, _ := strings.Cut(candidate, "-")
		if tag, ok := languageDefaults[strings.ToLower(lang)]; ok {
			return tag, true
		}
	}
	return "", false
}

// Valid reports whether code is an ISO 4217 code known to go-money.
func Valid(code string) bool {
	code = strings.TrimSpace(code)
	return code != "" && code == strings.ToUpper(code) && money.GetCurrency(code) != nil
}

// NormalizeLocale turns "de_de" or "DE-de" into "de-DE".
func NormalizeLocale(locale string) string {
	locale = strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	if locale == "" {
		return ""
	}

	lang, region, found := strings.Cut(locale, "-")
	if !found {
		return strings.ToLower(lang)
	}
	return strings.ToLower(lang) + "-" + strings.ToUpper(region)
}

// ValidLocale accepts a language or language-region tag.
func ValidLocale(locale string) bool {
	locale = NormalizeLocale(locale)
	if locale == "" {
		return false
	}

	lang, region, found := strings.Cut(locale, "-")
	if len(lang) < 2 || len(lang) > 3 || !isLetters(lang) {
		return false
	}
	if !found {
		return true
	}
	return len(region) >= 2 && len(region) <= 3 && isAlnum(region)
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func isAlnum(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
