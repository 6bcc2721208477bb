package utils

import (
	"strings"

	"golang.org/x/text/width"
)

var digitReplacer = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4", "۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4", "٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// NormalizeDigits folds full-width forms to ASCII and converts Persian and
// Arabic-Indic numerals to ASCII digits, so "２０２６-۰۴-١١" reads as
// "2026-04-11".
func NormalizeDigits(input string) string {
	return digitReplacer.Replace(width.Narrow.String(strings.TrimSpace(input)))
}
