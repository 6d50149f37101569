package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var amountRegex = regexp.MustCompile(`^\s*([+-]?\d+(?:\.\d+)?)\s*([A-Za-z]*)\s*$`)

var quotePairs = [][2]string{
	{`"`, `"`},
	{`'`, `'`},
	{"“", "”"},
	{"‘", "’"},
	{"`", "`"},
}

// StripQuotes removes one pair of matching surrounding quotes.
func StripQuotes(input string) string {
	s := strings.TrimSpace(input)
	for _, q := range quotePairs {
		if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			return strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
		}
	}
	return s
}

// ParseAmount parses an amount with an optional unit suffix such as
// "400xp" or "12.5 gold". The unit is returned lower-cased.
func ParseAmount(input string) (decimal.Decimal, string, error) {
	m := amountRegex.FindStringSubmatch(NormalizePersianNumbers(input))
	if m == nil {
		return decimal.Zero, "", fmt.Errorf("invalid amount %q", input)
	}
	amount, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("invalid amount %q: %w", input, err)
	}
	return amount, strings.ToLower(m[2]), nil
}

// NormalizePersianNumbers converts Persian and Arabic numerals to English numerals
func NormalizePersianNumbers(input string) string {
	replacer := strings.NewReplacer(
		"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4", "۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
		"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4", "٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
	)
	return replacer.Replace(input)
}
