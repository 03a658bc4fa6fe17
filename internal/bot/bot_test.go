package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/finbot/core/telegram/middleware"
	"github.com/m3rciful/finbot/core/telegram/router"
	"github.com/m3rciful/finbot/core/telegram/state"
	"github.com/m3rciful/finbot/internal/charts"
	"github.com/m3rciful/finbot/internal/ledger"

	tele "gopkg.in/telebot.v4"
)

const (
	alice   int64 = 1001
	adminID int64 = 1
)

type harness struct {
	t        *testing.T
	store    *memStore
	sessions Sessions
	reminder *fakeReminder
	text     tele.HandlerFunc
	callback tele.HandlerFunc
	charted  []charts.Slice
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	hs := &harness{
		t:        t,
		store:    newMemStore(start),
		sessions: state.NewMemoryManager[Pending](),
		reminder: &fakeReminder{},
	}
	h, err := New(Options{
		Store:    hs.store,
		Sessions: hs.sessions,
		Reminder: hs.reminder,
		Location: time.UTC,
		Now:      func() time.Time { return start.Add(24 * time.Hour) },
		Chart: func(title string, slices []charts.Slice) ([]byte, error) {
			hs.charted = slices
			if len(slices) == 0 {
				return nil, charts.ErrNoData
			}
			return []byte("\x89PNG"), nil
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	table := router.NewTable(router.Options{Admin: middleware.AdminOptions{AdminID: adminID}})
	h.Register(table)
	routes := table.Routes(hs.sessions)
	hs.text, hs.callback = routes[0].Handler, routes[1].Handler
	return hs
}

func (hs *harness) send(userID int64, text string) *fakeContext {
	hs.t.Helper()
	c := &fakeContext{user: &tele.User{ID: userID, FirstName: "Алиса"}, text: text, store: map[string]any{}}
	if err := hs.text(c); err != nil {
		hs.t.Fatalf("text %q: %v", text, err)
	}
	return c
}

func (hs *harness) press(userID int64, data string) *fakeContext {
	hs.t.Helper()
	c := &fakeContext{user: &tele.User{ID: userID}, cb: &tele.Callback{Data: data}, store: map[string]any{}}
	if err := hs.callback(c); err != nil {
		hs.t.Fatalf("callback %q: %v", data, err)
	}
	return c
}

func (hs *harness) state(userID int64) state.State {
	hs.t.Helper()
	st, err := hs.sessions.Current(context.Background(), userID)
	if err != nil {
		hs.t.Fatalf("Current: %v", err)
	}
	return st
}

func (hs *harness) expectState(userID int64, want state.State) {
	hs.t.Helper()
	if got := hs.state(userID); got != want {
		hs.t.Fatalf("state = %q, want %q", got, want)
	}
}

func expectReply(t *testing.T, c *fakeContext, want string) {
	t.Helper()
	if got := c.last().text; !strings.Contains(got, want) {
		t.Fatalf("reply %q does not contain %q", got, want)
	}
}

func TestAddThenDeleteScenario(t *testing.T) {
	hs := newHarness(t)

	c := hs.send(alice, "/start")
	expectReply(t, c, "Привет, Алиса!")
	if _, ok := hs.store.users[alice]; !ok {
		t.Fatal("user not registered")
	}

	c = hs.send(alice, LabelAddExpense)
	expectReply(t, c, textPromptExpense)
	hs.expectState(alice, StateAwaitingEntry)
	sess, _ := hs.sessions.Get(context.Background(), alice)
	if sess.Data.TxType != ledger.Expense {
		t.Fatalf("pending type = %q", sess.Data.TxType)
	}

	c = hs.send(alice, "500 Продукты")
	expectReply(t, c, "Расход добавлен: 500.00 руб., категория «Продукты»")
	hs.expectState(alice, state.StateIdle)
	if len(hs.store.txs) != 1 || !hs.store.txs[0].Amount.Equal(decimal.NewFromInt(500)) || hs.store.txs[0].Category != "Продукты" {
		t.Fatalf("unexpected ledger %+v", hs.store.txs)
	}

	c = hs.send(alice, LabelDeleteLast)
	expectReply(t, c, "Расход: Продукты, 500.00 руб.")
	hs.expectState(alice, StateAwaitingConfirmation)
	if c.last().markup == nil || c.last().markup.ReplyKeyboard[0][0].Text != LabelYes {
		t.Fatal("confirmation keyboard missing")
	}

	c = hs.send(alice, LabelYes)
	expectReply(t, c, "Транзакция удалена: Расход: Продукты, 500.00 руб.")
	hs.expectState(alice, state.StateIdle)
	if len(hs.store.txs) != 0 {
		t.Fatalf("transaction not removed: %+v", hs.store.txs)
	}

	c = hs.send(alice, LabelBalance)
	expectReply(t, c, "Расходы: 0.00 руб.")
}

func TestBalanceReflectsAdds(t *testing.T) {
	hs := newHarness(t)
	hs.send(alice, "/start")
	hs.send(alice, LabelAddIncome)
	hs.send(alice, "1000 Зарплата")
	hs.send(alice, LabelAddExpense)
	hs.send(alice, "250,5 Такси")

	c := hs.send(alice, LabelBalance)
	expectReply(t, c, "Доходы: 1000.00 руб.\nРасходы: 250.50 руб.\nИтого: 749.50 руб.")
}

func TestDeleteWithoutTransactions(t *testing.T) {
	hs := newHarness(t)
	hs.send(alice, "/start")
	for i := 0; i < 2; i++ {
		c := hs.send(alice, LabelDeleteLast)
		expectReply(t, c, textNothingToDelete)
		hs.expectState(alice, state.StateIdle)
	}
}

func TestConfirmationRepromptIsIdempotent(t *testing.T) {
	hs := newHarness(t)
	hs.send(alice, "/start")
	hs.send(alice, LabelAddExpense)
	hs.send(alice, "500 Продукты")
	hs.send(alice, LabelDeleteLast)
	before, _ := hs.sessions.Get(context.Background(), alice)

	for _, text := range []string{"да", "Да", "yes", " " + LabelYes, LabelNo + " ", LabelBalance, "/start", LabelBack} {
		c := hs.send(alice, text)
		expectReply(t, c, textAnswerYesNo)
		hs.expectState(alice, StateAwaitingConfirmation)
	}
	after, _ := hs.sessions.Get(context.Background(), alice)
	if after.Data.Snapshot == nil || after.Data.Snapshot.ID != before.Data.Snapshot.ID {
		t.Fatal("snapshot changed by a re-prompt")
	}
	if hs.store.deletes != 0 || len(hs.store.txs) != 1 {
		t.Fatal("re-prompt must not delete")
	}

	c := hs.send(alice, LabelNo)
	expectReply(t, c, textDeleteCancelled)
	hs.expectState(alice, state.StateIdle)
	if len(hs.store.txs) != 1 {
		t.Fatal("cancel must not delete")
	}
}

func TestConfirmDeletesCurrentMostRecent(t *testing.T) {
	hs := newHarness(t)
	hs.send(alice, "/start")
	hs.send(alice, LabelAddExpense)
	hs.send(alice, "500 Продукты")
	hs.send(alice, LabelDeleteLast)

	// a transaction recorded between prompt and confirmation
	if _, err := hs.store.AddIncome(context.Background(), alice, decimal.NewFromInt(70), "Кэшбэк"); err != nil {
		t.Fatalf("AddIncome: %v", err)
	}

	c := hs.send(alice, LabelYes)
	expectReply(t, c, "Транзакция удалена: Доход: Кэшбэк, 70.00 руб.")
	hs.expectState(alice, state.StateIdle)
	if hs.store.deletes != 1 || len(hs.store.txs) != 1 || hs.store.txs[0].Category != "Продукты" {
		t.Fatalf("unexpected ledger after delete %+v", hs.store.txs)
	}
}

func TestConfirmWhenAlreadyDeleted(t *testing.T) {
	hs := newHarness(t)
	hs.send(alice, "/start")
	hs.send(alice, LabelAddExpense)
	hs.send(alice, "500 Продукты")
	hs.send(alice, LabelDeleteLast)
	hs.store.txs = nil

	c := hs.send(alice, LabelYes)
	expectReply(t, c, textAlreadyDeleted)
	hs.expectState(alice, state.StateIdle)
}

func TestConfirmWithoutSnapshot(t *testing.T) {
	hs := newHarness(t)
	err := hs.sessions.Set(context.Background(), alice, state.Session[Pending]{State: StateAwaitingConfirmation})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	c := hs.send(alice, LabelYes)
	expectReply(t, c, textNoSnapshot)
	hs.expectState(alice, state.StateIdle)
	if hs.store.deletes != 0 {
		t.Fatal("delete must not run without a snapshot")
	}
}

func TestEntryValidation(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"500", validationText(ledger.ErrEntryFormat)},
		{"пятьсот Еда", validationText(ledger.ErrAmountNotNumber)},
		{"-1 Еда", validationText(ledger.ErrAmountNotPositive)},
		{"500 500", validationText(ledger.ErrCategoryNumeric)},
		{"500    ", validationText(ledger.ErrEntryFormat)},
	}
	for _, label := range []string{LabelAddExpense, LabelAddIncome} {
		hs := newHarness(t)
		hs.send(alice, "/start")
		hs.send(alice, label)
		for _, tc := range cases {
			c := hs.send(alice, tc.input)
			expectReply(t, c, tc.want)
			hs.expectState(alice, StateAwaitingEntry)
		}
		if len(hs.store.txs) != 0 {
			t.Fatalf("%s: invalid input was recorded", label)
		}
	}
}

func TestBackCancelsEntry(t *testing.T) {
	for _, back := range []string{LabelBack, "Назад", "назад"} {
		hs := newHarness(t)
		hs.send(alice, "/start")
		hs.send(alice, LabelAddIncome)
		c := hs.send(alice, back)
		expectReply(t, c, textAddCancelled)
		hs.expectState(alice, state.StateIdle)
		if len(hs.store.txs) != 0 {
			t.Fatal("back must not record anything")
		}
	}
}

func TestEntryForUnregisteredUser(t *testing.T) {
	hs := newHarness(t)
	hs.send(alice, LabelAddExpense)
	c := hs.send(alice, "500 Продукты")
	expectReply(t, c, textNotRegistered)
	hs.expectState(alice, state.StateIdle)
}

func TestAddCommand(t *testing.T) {
	hs := newHarness(t)
	hs.send(alice, "/start")

	c := hs.send(alice, "/add_expense")
	expectReply(t, c, "Использование: /add_expense <сумма> <категория>")

	c = hs.send(alice, "/add_income@finbot 50000 Зарплата")
	expectReply(t, c, "Доход добавлен: 50000.00 руб., категория «Зарплата»")

	c = hs.send(alice, "/add_expense 100 200")
	expectReply(t, c, validationText(ledger.ErrCategoryNumeric))
	if len(hs.store.txs) != 1 {
		t.Fatalf("unexpected ledger %+v", hs.store.txs)
	}
	hs.expectState(alice, state.StateIdle)
}

func TestHistory(t *testing.T) {
	hs := newHarness(t)
	hs.send(alice, "/start")
	expectReply(t, hs.send(alice, LabelHistory), textHistoryEmpty)

	hs.send(alice, "/add_expense 10 Кофе")
	hs.send(alice, "/add_expense 20 Чай")
	c := hs.send(alice, LabelHistory)
	got := c.last().text
	if !strings.HasPrefix(got, textHistoryHead) || strings.Index(got, "Чай") > strings.Index(got, "Кофе") {
		t.Fatalf("history not newest first: %q", got)
	}
}

func TestStats(t *testing.T) {
	hs := newHarness(t)
	hs.send(alice, "/start")
	if c := hs.send(alice, LabelStats); c.last().markup == nil || c.last().markup.InlineKeyboard[0][0].Data != CallbackStatsWeek {
		t.Fatal("stats keyboard missing")
	}
	c := hs.press(alice, CallbackStatsWeek)
	expectReply(t, c, "Нет транзакций за неделю.")
	if len(c.answers) != 1 {
		t.Fatal("callback not answered")
	}

	hs.send(alice, "/add_expense 300 Еда")
	hs.send(alice, "/add_income 1000 Зарплата")
	c = hs.press(alice, CallbackStatsMonth)
	expectReply(t, c, "Доходы:\n  Зарплата: 1000.00 руб.\n\nРасходы:\n  Еда: 300.00 руб.\n\nИтого: 700.00 руб.")
}

func TestReportFlow(t *testing.T) {
	hs := newHarness(t)
	hs.send(alice, "/start")
	c := hs.press(alice, string(ledger.Expense))
	expectReply(t, c, "Нет данных для отчета")
	hs.expectState(alice, state.StateIdle)

	hs.send(alice, "/add_expense 300 Еда")
	hs.send(alice, "/add_expense 200 Еда")
	hs.send(alice, "/add_expense 50 Такси")

	c = hs.press(alice, string(ledger.Expense))
	hs.expectState(alice, StateAwaitingCategory)
	rows := c.last().markup.InlineKeyboard
	if len(rows) != 1 || rows[0][0].Data != "Expense_Еда" || rows[0][1].Data != "Expense_Такси" {
		t.Fatalf("unexpected category keyboard %+v", rows)
	}

	c = hs.press(alice, "Expense_Еда")
	expectReply(t, c, "Выберите период для категории «Еда»")
	hs.expectState(alice, StateAwaitingPeriod)

	c = hs.press(alice, string(ledger.Week))
	expectReply(t, c, "Итого: 500.00 руб.")
	hs.expectState(alice, state.StateIdle)
}

func TestReportFlowAbandonedByOtherButton(t *testing.T) {
	hs := newHarness(t)
	hs.send(alice, "/start")
	hs.send(alice, "/add_expense 300 Еда")
	hs.press(alice, string(ledger.Expense))
	hs.expectState(alice, StateAwaitingCategory)

	c := hs.press(alice, CallbackStatsWeek)
	expectReply(t, c, "Статистика за неделю")
	hs.expectState(alice, state.StateIdle)

	c = hs.press(alice, "Expense_Еда")
	hs.expectState(alice, StateAwaitingPeriod)
	c = hs.press(alice, "bogus")
	hs.expectState(alice, state.StateIdle)
	if len(c.answers) == 0 || c.answers[len(c.answers)-1] != textUnknownCallback {
		t.Fatalf("unexpected answers %v", c.answers)
	}
}

func TestChart(t *testing.T) {
	hs := newHarness(t)
	hs.send(alice, "/start")
	c := hs.press(alice, CallbackChartIncome)
	expectReply(t, c, textChartEmpty)

	hs.send(alice, "/add_expense 300 Еда")
	hs.send(alice, "/add_expense 100 Такси")
	hs.send(alice, "/add_income 1000 Зарплата")
	c = hs.press(alice, CallbackChartExpense)
	if c.last().photo == nil || c.last().text != "Расходы за месяц" {
		t.Fatalf("expected a photo, got %+v", c.last())
	}
	if len(hs.charted) != 2 {
		t.Fatalf("chart got %+v", hs.charted)
	}
}

func TestRemindIsAdminOnly(t *testing.T) {
	hs := newHarness(t)
	c := hs.send(alice, "/remind")
	if len(c.sent) != 0 || hs.reminder.calls != 0 {
		t.Fatal("non-admin reached /remind")
	}
	c = hs.send(adminID, "/remind")
	expectReply(t, c, "Напоминания отправлены: 2 из 3.")
}

func TestUnknownInput(t *testing.T) {
	hs := newHarness(t)
	expectReply(t, hs.send(alice, "привет"), textUnknown)
	c := hs.press(alice, "nonsense")
	if len(c.answers) != 1 || c.answers[0] != textUnknownCallback {
		t.Fatalf("unexpected answers %v", c.answers)
	}
}

func TestRateLimitedReplies(t *testing.T) {
	msg := &fakeContext{user: &tele.User{ID: alice}, text: "500 Еда", store: map[string]any{}}
	if err := RateLimited(msg); err != nil {
		t.Fatalf("RateLimited: %v", err)
	}
	expectReply(t, msg, textSlowDown)

	cb := &fakeContext{user: &tele.User{ID: alice}, cb: &tele.Callback{Data: "report_week"}, store: map[string]any{}}
	if err := RateLimited(cb); err != nil {
		t.Fatalf("RateLimited: %v", err)
	}
	if len(cb.answers) != 1 || cb.answers[0] != textSlowDown || len(cb.sent) != 0 {
		t.Fatalf("callback answers %v, sent %v", cb.answers, cb.sent)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error without store and sessions")
	}
}
