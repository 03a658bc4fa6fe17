package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TimeLayout formats transaction timestamps in replies.
const TimeLayout = "2006-01-02 15:04:05"

// FormatMoney renders an amount with two decimals and the currency suffix.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2) + " руб."
}

// Summary is a one-line description of t, e.g. "Расход: Продукты, 500.00 руб. (2024-05-01 10:00:00)".
func (t Transaction) Summary(loc *time.Location) string {
	return fmt.Sprintf("%s: %s, %s (%s)", t.Type.Title(), t.Category, FormatMoney(t.Amount), FormatTime(t.CreatedAt, loc))
}

// FormatTime renders a timestamp with TimeLayout in loc; nil keeps t's zone.
func FormatTime(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(TimeLayout)
}
