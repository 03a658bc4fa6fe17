package bot

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/finbot/internal/ledger"
	"github.com/m3rciful/finbot/internal/reminder"

	tele "gopkg.in/telebot.v4"
)

type outgoing struct {
	text   string
	photo  *tele.Photo
	markup *tele.ReplyMarkup
}

// fakeContext implements the part of tele.Context the handlers use.
type fakeContext struct {
	tele.Context
	user    *tele.User
	text    string
	cb      *tele.Callback
	store   map[string]any
	sent    []outgoing
	answers []string
}

func (f *fakeContext) Sender() *tele.User       { return f.user }
func (f *fakeContext) Chat() *tele.Chat         { return &tele.Chat{ID: f.user.ID, Type: tele.ChatPrivate} }
func (f *fakeContext) Text() string             { return f.text }
func (f *fakeContext) Callback() *tele.Callback { return f.cb }
func (f *fakeContext) Update() tele.Update      { return tele.Update{ID: 1, Callback: f.cb} }
func (f *fakeContext) Get(key string) any       { return f.store[key] }
func (f *fakeContext) Set(key string, v any)    { f.store[key] = v }

func (f *fakeContext) Send(what any, opts ...any) error {
	out := outgoing{}
	switch v := what.(type) {
	case string:
		out.text = v
	case *tele.Photo:
		out.photo = v
		out.text = v.Caption
	}
	for _, o := range opts {
		if rm, ok := o.(*tele.ReplyMarkup); ok {
			out.markup = rm
		}
	}
	f.sent = append(f.sent, out)
	return nil
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	text := ""
	if len(resp) > 0 && resp[0] != nil {
		text = resp[0].Text
	}
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeContext) last() outgoing {
	if len(f.sent) == 0 {
		return outgoing{}
	}
	return f.sent[len(f.sent)-1]
}

// memStore is an in-memory Store with the same ordering rules as the SQL gateway.
type memStore struct {
	mu     sync.Mutex
	users  map[int64]ledger.User
	txs    []ledger.Transaction
	nextID int64
	clock  time.Time

	deletes int
}

func newMemStore(start time.Time) *memStore {
	return &memStore{users: map[int64]ledger.User{}, clock: start}
}

func (s *memStore) RegisterUser(_ context.Context, u ledger.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.UserID]; ok {
		return false, nil
	}
	u.RegisteredAt = s.clock
	s.users[u.UserID] = u
	return true, nil
}

func (s *memStore) AddIncome(ctx context.Context, userID int64, amount decimal.Decimal, category string) (ledger.Transaction, error) {
	return s.add(ledger.Income, userID, amount, category)
}

func (s *memStore) AddExpense(ctx context.Context, userID int64, amount decimal.Decimal, category string) (ledger.Transaction, error) {
	return s.add(ledger.Expense, userID, amount, category)
}

func (s *memStore) add(typ ledger.TxType, userID int64, amount decimal.Decimal, category string) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return ledger.Transaction{}, ledger.ErrUserNotRegistered
	}
	s.nextID++
	s.clock = s.clock.Add(time.Minute)
	tx := ledger.Transaction{ID: s.nextID, UserID: userID, Type: typ, Amount: amount, Category: category, CreatedAt: s.clock}
	s.txs = append(s.txs, tx)
	return tx, nil
}

// byUser returns the user's transactions newest first.
func (s *memStore) byUser(userID int64) []ledger.Transaction {
	var out []ledger.Transaction
	for _, tx := range s.txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (s *memStore) LatestTransaction(_ context.Context, userID int64) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txs := s.byUser(userID)
	if len(txs) == 0 {
		return ledger.Transaction{}, ledger.ErrNotFound
	}
	return txs[0], nil
}

func (s *memStore) DeleteLatestTransaction(_ context.Context, userID int64) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txs := s.byUser(userID)
	if len(txs) == 0 {
		return ledger.Transaction{}, ledger.ErrNotFound
	}
	victim := txs[0]
	for i, tx := range s.txs {
		if tx.ID == victim.ID {
			s.txs = append(s.txs[:i], s.txs[i+1:]...)
			break
		}
	}
	s.deletes++
	return victim, nil
}

func (s *memStore) Balance(_ context.Context, userID int64) (ledger.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := ledger.Balance{Income: decimal.Zero, Expense: decimal.Zero}
	for _, tx := range s.byUser(userID) {
		if tx.Type == ledger.Income {
			b.Income = b.Income.Add(tx.Amount)
		} else {
			b.Expense = b.Expense.Add(tx.Amount)
		}
	}
	return b, nil
}

func (s *memStore) RecentTransactions(_ context.Context, userID int64, limit int) ([]ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txs := s.byUser(userID)
	if len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func (s *memStore) CategoryTotals(_ context.Context, userID int64, since time.Time) ([]ledger.CategoryTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ledger.CategoryTotal
	index := map[string]int{}
	for _, tx := range s.byUser(userID) {
		if tx.CreatedAt.Before(since) {
			continue
		}
		key := string(tx.Type) + "/" + tx.Category
		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, ledger.CategoryTotal{Type: tx.Type, Category: tx.Category, Total: decimal.Zero})
			i = len(out) - 1
		}
		out[i].Total = out[i].Total.Add(tx.Amount)
	}
	return out, nil
}

func (s *memStore) Categories(_ context.Context, userID int64, typ ledger.TxType) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, tx := range s.byUser(userID) {
		if tx.Type == typ && !seen[tx.Category] {
			seen[tx.Category] = true
			out = append(out, tx.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *memStore) CategoryTransactions(_ context.Context, userID int64, typ ledger.TxType, category string, since time.Time) ([]ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ledger.Transaction
	for _, tx := range s.byUser(userID) {
		if tx.Type == typ && tx.Category == category && !tx.CreatedAt.Before(since) {
			out = append(out, tx)
		}
	}
	return out, nil
}

type fakeReminder struct {
	calls int
}

func (f *fakeReminder) Run(context.Context) (reminder.Result, error) {
	f.calls++
	return reminder.Result{RunID: "r1", Users: 3, Sent: 2, Failed: 1}, nil
}
