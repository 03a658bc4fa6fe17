// Package bot implements the finance conversations: registration, adding
// transactions, the delete confirmation, balance, history, statistics,
// category reports and charts.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/finbot/core/logger"
	tghelpers "github.com/m3rciful/finbot/core/telegram/helpers"
	"github.com/m3rciful/finbot/core/telegram/state"
	"github.com/m3rciful/finbot/internal/charts"
	"github.com/m3rciful/finbot/internal/ledger"
	"github.com/m3rciful/finbot/internal/reminder"

	tele "gopkg.in/telebot.v4"
)

// DefaultHistoryLimit is the number of transactions the history shows.
const DefaultHistoryLimit = 10

// Store is the persistence the handlers need.
type Store interface {
	RegisterUser(ctx context.Context, u ledger.User) (bool, error)
	AddIncome(ctx context.Context, userID int64, amount decimal.Decimal, category string) (ledger.Transaction, error)
	AddExpense(ctx context.Context, userID int64, amount decimal.Decimal, category string) (ledger.Transaction, error)
	LatestTransaction(ctx context.Context, userID int64) (ledger.Transaction, error)
	DeleteLatestTransaction(ctx context.Context, userID int64) (ledger.Transaction, error)
	Balance(ctx context.Context, userID int64) (ledger.Balance, error)
	RecentTransactions(ctx context.Context, userID int64, limit int) ([]ledger.Transaction, error)
	CategoryTotals(ctx context.Context, userID int64, since time.Time) ([]ledger.CategoryTotal, error)
	Categories(ctx context.Context, userID int64, typ ledger.TxType) ([]string, error)
	CategoryTransactions(ctx context.Context, userID int64, typ ledger.TxType, category string, since time.Time) ([]ledger.Transaction, error)
}

// Reminder runs one reminder batch on demand.
type Reminder interface {
	Run(ctx context.Context) (reminder.Result, error)
}

// ChartFunc renders a pie chart as PNG.
type ChartFunc func(title string, slices []charts.Slice) ([]byte, error)

// Options configure Handlers. Store and Sessions are required.
type Options struct {
	Store    Store
	Sessions Sessions
	Reminder Reminder
	Chart    ChartFunc
	// Location is used for timestamps in replies.
	Location     *time.Location
	HistoryLimit int
	Now          func() time.Time
}

// Handlers hold the dependencies of every conversation handler.
type Handlers struct {
	store    Store
	sessions Sessions
	reminder Reminder
	chart    ChartFunc
	loc      *time.Location
	limit    int
	now      func() time.Time
}

// New validates opts and fills defaults.
func New(opts Options) (*Handlers, error) {
	if opts.Store == nil || opts.Sessions == nil {
		return nil, errors.New("bot: store and sessions are required")
	}
	h := &Handlers{
		store:    opts.Store,
		sessions: opts.Sessions,
		reminder: opts.Reminder,
		chart:    opts.Chart,
		loc:      opts.Location,
		limit:    opts.HistoryLimit,
		now:      opts.Now,
	}
	if h.chart == nil {
		h.chart = charts.Pie
	}
	if h.loc == nil {
		h.loc = time.Local
	}
	if h.limit <= 0 {
		h.limit = DefaultHistoryLimit
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h, nil
}

func senderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}

func reply(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return tghelpers.SendText(c, text, markup...)
}

// begin moves the sender into st with data.
func (h *Handlers) begin(ctx context.Context, c tele.Context, st state.State, data Pending) error {
	return h.sessions.Set(ctx, senderID(c), state.Session[Pending]{State: st, Data: data})
}

// finish returns the sender to idle. A failure is logged; the reply already
// sent stays valid.
func (h *Handlers) finish(ctx context.Context, c tele.Context) {
	if err := h.sessions.Clear(ctx, senderID(c)); err != nil {
		logger.Warn(ctx, "service.sessions", "session.clear.fail", slog.String("err", err.Error()))
	}
}

// fail replies with the generic error text and hands err to the summary log.
func fail(c tele.Context, err error) error {
	_ = reply(c, textInternalError, mainMenu())
	return err
}
