package common

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticReplacer = strings.NewReplacer("đ", "d", "Đ", "D")

// FoldDiacritics removes combining marks so "Cà phê sữa đá" becomes "Ca phe sua da".
// Used where only Latin-1 fonts are available.
func FoldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return diacriticReplacer.Replace(folded)
}

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders v rounded to a whole number with thousands separators: 1,234,567
func FormatAmount(v float64) string {
	return amountPrinter.Sprintf("%.0f", v)
}
