package ledger

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest value the amount column holds.
var MaxAmount = decimal.RequireFromString("999999999999.99")

// maxIntDigits is the number of integer digits in MaxAmount.
const maxIntDigits = 12

// Entry is a parsed "<amount> <category>" reply.
type Entry struct {
	Amount   decimal.Decimal
	Category string
}

// ParseEntry parses free text into an Entry. The first whitespace-separated
// token is the amount, the rest joined by single spaces is the category.
// Checks run in a fixed order and the first failure is returned:
// token count, number, positive, category present, category not numeric.
func ParseEntry(text string) (Entry, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return Entry{}, ErrEntryFormat
	}
	amount, err := ParseAmount(fields[0])
	if err != nil {
		return Entry{}, err
	}
	category := strings.TrimSpace(strings.Join(fields[1:], " "))
	if category == "" {
		return Entry{}, ErrCategoryEmpty
	}
	if isDigits(category) {
		return Entry{}, ErrCategoryNumeric
	}
	return Entry{Amount: amount, Category: category}, nil
}

// ParseAmount accepts "500", "12.50" and "12,50". The value is rounded to
// kopecks and must stay positive. Magnitude is checked before rounding so an
// exponent like 1e1000000000 is rejected without being expanded.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrAmountNotNumber
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, ErrAmountNotPositive
	}
	// value < 10^intDigits
	intDigits := int64(len(d.Coefficient().String())) + int64(d.Exponent())
	switch {
	case intDigits > maxIntDigits:
		return decimal.Decimal{}, ErrAmountTooLarge
	case intDigits < -2:
		return decimal.Decimal{}, ErrAmountNotPositive
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Decimal{}, ErrAmountNotPositive
	}
	if d.GreaterThan(MaxAmount) {
		return decimal.Decimal{}, ErrAmountTooLarge
	}
	return d, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
