// Package ledger holds the finance domain: users, transactions, entry
// parsing, reporting periods and the errors shared by storage and handlers.
package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TxType is the direction of a transaction. The values are stored as-is.
type TxType string

const (
	Income  TxType = "Income"
	Expense TxType = "Expense"
)

// Valid reports whether t is Income or Expense.
func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

// Title is the Russian label used in replies.
func (t TxType) Title() string {
	switch t {
	case Income:
		return "Доход"
	case Expense:
		return "Расход"
	}
	return string(t)
}

// Plural labels a group of transactions of this type.
func (t TxType) Plural() string {
	switch t {
	case Income:
		return "Доходы"
	case Expense:
		return "Расходы"
	}
	return string(t)
}

// ParseTxType accepts the stored names case-insensitively.
func ParseTxType(s string) (TxType, bool) {
	switch {
	case equalFold(s, string(Income)):
		return Income, true
	case equalFold(s, string(Expense)):
		return Expense, true
	}
	return "", false
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), b)
}

// User is a registered Telegram user.
type User struct {
	UserID       int64     `db:"user_id"`
	Username     string    `db:"username"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	RegisteredAt time.Time `db:"registered_at"`
}

// Transaction is one recorded income or expense.
type Transaction struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"user_id"`
	Type      TxType          `db:"type" json:"type"`
	Amount    decimal.Decimal `db:"amount" json:"amount"`
	Category  string          `db:"category_name" json:"category"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// Balance holds the per-type sums of a user's transactions.
type Balance struct {
	Income  decimal.Decimal `db:"income"`
	Expense decimal.Decimal `db:"expense"`
}

// Net is income minus expense.
func (b Balance) Net() decimal.Decimal {
	return b.Income.Sub(b.Expense)
}

// CategoryTotal is the sum of one category within a window.
type CategoryTotal struct {
	Type     TxType          `db:"type"`
	Category string          `db:"category_name"`
	Total    decimal.Decimal `db:"total"`
}

// Totals sums totals per type.
func Totals(items []CategoryTotal) Balance {
	b := Balance{Income: decimal.Zero, Expense: decimal.Zero}
	for _, it := range items {
		switch it.Type {
		case Income:
			b.Income = b.Income.Add(it.Total)
		case Expense:
			b.Expense = b.Expense.Add(it.Total)
		}
	}
	return b
}

// OfType keeps the totals of one type, preserving order.
func OfType(items []CategoryTotal, t TxType) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(items))
	for _, it := range items {
		if it.Type == t {
			out = append(out, it)
		}
	}
	return out
}
