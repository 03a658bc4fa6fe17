// Package storage is the PostgreSQL gateway for users and transactions.
//
// Every operation checks out one pooled connection and returns it before
// the method returns. Adding a transaction writes the unified log row and
// its per-type mirror inside one SQL transaction.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/m3rciful/finbot/core/logger"
	"github.com/m3rciful/finbot/internal/ledger"
)

// pq error code for foreign_key_violation.
const fkViolation = "23503"

const txColumns = "id, user_id, type, amount, category_name, created_at"

// Store runs ledger queries on a connection pool.
type Store struct {
	db *sqlx.DB
}

// New wraps an open pool.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// withConn checks out a connection for the duration of fn.
func (s *Store) withConn(ctx context.Context, fn func(*sqlx.Conn) error) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()
	return fn(conn)
}

// RegisterUser inserts u unless the user id already exists. created reports
// whether a row was written.
func (s *Store) RegisterUser(ctx context.Context, u ledger.User) (created bool, err error) {
	err = s.withConn(ctx, func(conn *sqlx.Conn) error {
		res, err := conn.ExecContext(ctx, `
			INSERT INTO users (user_id, username, first_name, last_name)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id) DO NOTHING`,
			u.UserID, u.Username, u.FirstName, u.LastName)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		created = n > 0
		return err
	})
	if err != nil {
		return false, fmt.Errorf("register user: %w", err)
	}
	if created {
		logger.Info(ctx, "service.ledger", "user.registered", slog.Int64("user_id", u.UserID))
	}
	return created, nil
}

// AddIncome records an income.
func (s *Store) AddIncome(ctx context.Context, userID int64, amount decimal.Decimal, category string) (ledger.Transaction, error) {
	return s.add(ctx, ledger.Income, userID, amount, category)
}

// AddExpense records an expense.
func (s *Store) AddExpense(ctx context.Context, userID int64, amount decimal.Decimal, category string) (ledger.Transaction, error) {
	return s.add(ctx, ledger.Expense, userID, amount, category)
}

func mirrorTable(t ledger.TxType) string {
	if t == ledger.Income {
		return "incomes"
	}
	return "expenses"
}

func (s *Store) add(ctx context.Context, typ ledger.TxType, userID int64, amount decimal.Decimal, category string) (ledger.Transaction, error) {
	if !typ.Valid() {
		return ledger.Transaction{}, fmt.Errorf("add transaction: unknown type %q", typ)
	}
	start := time.Now()
	var out ledger.Transaction
	err := s.withConn(ctx, func(conn *sqlx.Conn) error {
		tx, err := conn.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		var registered bool
		if err := tx.GetContext(ctx, &registered,
			`SELECT EXISTS (SELECT 1 FROM users WHERE user_id = $1)`, userID); err != nil {
			return err
		}
		if !registered {
			return ledger.ErrUserNotRegistered
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO categories (user_id, name) VALUES ($1, $2)
			ON CONFLICT (user_id, name) DO NOTHING`, userID, category); err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &out, `
			INSERT INTO transactions (user_id, type, amount, category_name)
			VALUES ($1, $2, $3, $4)
			RETURNING `+txColumns, userID, string(typ), amount, category); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO `+mirrorTable(typ)+` (transaction_id, user_id, amount, category_name, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			out.ID, out.UserID, out.Amount, out.Category, out.CreatedAt); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		err = mapError(err)
		if !errors.Is(err, ledger.ErrUserNotRegistered) {
			err = fmt.Errorf("add %s: %w", typ, err)
		}
		return ledger.Transaction{}, err
	}
	logger.Info(ctx, "service.ledger", "tx.add",
		slog.String("status", "ok"),
		slog.Int64("tx_id", out.ID),
		slog.String("type", string(out.Type)),
		slog.Duration("duration", logger.Took(start)),
	)
	return out, nil
}

// LatestTransaction returns the user's most recent transaction or ledger.ErrNotFound.
func (s *Store) LatestTransaction(ctx context.Context, userID int64) (ledger.Transaction, error) {
	var out ledger.Transaction
	err := s.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &out, `
			SELECT `+txColumns+` FROM transactions
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT 1`, userID)
	})
	if err != nil {
		return ledger.Transaction{}, notFound("latest transaction", err)
	}
	return out, nil
}

// DeleteLatestTransaction deletes whichever transaction is most recent at
// call time and returns it. Mirror rows go with it through the cascade.
func (s *Store) DeleteLatestTransaction(ctx context.Context, userID int64) (ledger.Transaction, error) {
	var out ledger.Transaction
	err := s.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &out, `
			DELETE FROM transactions
			WHERE id = (
				SELECT id FROM transactions
				WHERE user_id = $1
				ORDER BY created_at DESC, id DESC
				LIMIT 1
			)
			RETURNING `+txColumns, userID)
	})
	if err != nil {
		return ledger.Transaction{}, notFound("delete latest transaction", err)
	}
	logger.Info(ctx, "service.ledger", "tx.delete",
		slog.String("status", "ok"),
		slog.Int64("tx_id", out.ID),
	)
	return out, nil
}

// Balance sums the user's income and expense.
func (s *Store) Balance(ctx context.Context, userID int64) (ledger.Balance, error) {
	var out ledger.Balance
	err := s.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &out, `
			SELECT
				COALESCE(SUM(amount) FILTER (WHERE type = 'Income'), 0)  AS income,
				COALESCE(SUM(amount) FILTER (WHERE type = 'Expense'), 0) AS expense
			FROM transactions
			WHERE user_id = $1`, userID)
	})
	if err != nil {
		return ledger.Balance{}, fmt.Errorf("balance: %w", err)
	}
	return out, nil
}

// RecentTransactions returns up to limit transactions, newest first.
func (s *Store) RecentTransactions(ctx context.Context, userID int64, limit int) ([]ledger.Transaction, error) {
	var out []ledger.Transaction
	err := s.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &out, `
			SELECT `+txColumns+` FROM transactions
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`, userID, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("recent transactions: %w", err)
	}
	return out, nil
}

// CategoryTotals groups the user's transactions since the given time by type
// and category, largest first within each type.
func (s *Store) CategoryTotals(ctx context.Context, userID int64, since time.Time) ([]ledger.CategoryTotal, error) {
	var out []ledger.CategoryTotal
	err := s.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &out, `
			SELECT type, category_name, SUM(amount) AS total
			FROM transactions
			WHERE user_id = $1 AND created_at >= $2
			GROUP BY type, category_name
			ORDER BY type, total DESC, category_name`, userID, since)
	})
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	return out, nil
}

// Categories lists the distinct categories the user recorded for typ.
func (s *Store) Categories(ctx context.Context, userID int64, typ ledger.TxType) ([]string, error) {
	var out []string
	err := s.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &out, `
			SELECT DISTINCT category_name
			FROM transactions
			WHERE user_id = $1 AND type = $2
			ORDER BY category_name`, userID, string(typ))
	})
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	return out, nil
}

// CategoryTransactions lists one category's transactions since the given time, newest first.
func (s *Store) CategoryTransactions(ctx context.Context, userID int64, typ ledger.TxType, category string, since time.Time) ([]ledger.Transaction, error) {
	var out []ledger.Transaction
	err := s.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &out, `
			SELECT `+txColumns+` FROM transactions
			WHERE user_id = $1 AND type = $2 AND category_name = $3 AND created_at >= $4
			ORDER BY created_at DESC, id DESC`, userID, string(typ), category, since)
	})
	if err != nil {
		return nil, fmt.Errorf("category transactions: %w", err)
	}
	return out, nil
}

// UsersWithoutTransactionsSince returns registered users with no transaction
// created at or after since.
func (s *Store) UsersWithoutTransactionsSince(ctx context.Context, since time.Time) ([]int64, error) {
	var out []int64
	err := s.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &out, `
			SELECT u.user_id
			FROM users u
			WHERE NOT EXISTS (
				SELECT 1 FROM transactions t
				WHERE t.user_id = u.user_id AND t.created_at >= $1
			)
			ORDER BY u.user_id`, since)
	})
	if err != nil {
		return nil, fmt.Errorf("users without transactions: %w", err)
	}
	return out, nil
}

func notFound(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// mapError turns foreign key violations on user_id into ErrUserNotRegistered.
func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == fkViolation {
		return ledger.ErrUserNotRegistered
	}
	return err
}
