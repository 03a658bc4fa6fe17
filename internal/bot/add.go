package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m3rciful/finbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/finbot/core/telegram/helpers"
	"github.com/m3rciful/finbot/internal/ledger"

	tele "gopkg.in/telebot.v4"
)

// StartAdd returns the menu handler that begins entering a transaction of typ.
func (h *Handlers) StartAdd(typ ledger.TxType) tele.HandlerFunc {
	prompt := textPromptExpense
	if typ == ledger.Income {
		prompt = textPromptIncome
	}
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		if err := h.begin(ctx, c, StateAwaitingEntry, Pending{TxType: typ}); err != nil {
			return fail(c, err)
		}
		return reply(c, prompt, backKeyboard())
	}
}

func isBack(text string) bool {
	return text == LabelBack || strings.EqualFold(text, "назад")
}

// OnEntry handles the "<amount> <category>" reply. Invalid input is
// re-prompted without touching the session; every other outcome ends it.
func (h *Handlers) OnEntry(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	text := strings.TrimSpace(c.Text())
	if isBack(text) {
		h.finish(ctx, c)
		return reply(c, textAddCancelled, mainMenu())
	}

	sess, err := h.sessions.Get(ctx, senderID(c))
	if err != nil || !sess.Data.TxType.Valid() {
		h.finish(ctx, c)
		if err == nil {
			err = errors.New("bot: session without transaction type")
		}
		return fail(c, err)
	}

	entry, err := ledger.ParseEntry(text)
	if err != nil {
		return reply(c, validationText(err), backKeyboard())
	}

	tx, err := h.add(ctx, sess.Data.TxType, senderID(c), entry)
	h.finish(ctx, c)
	return h.replyAdded(c, tx, err)
}

// AddCommand returns the one-shot "/add_expense 500 Продукты" handler.
func (h *Handlers) AddCommand(typ ledger.TxType) tele.HandlerFunc {
	return func(c tele.Context) error {
		args := commands.Args(c.Text())
		if args == "" {
			return reply(c, fmt.Sprintf(textUsageCommand, commands.Normalize(c.Text())), mainMenu())
		}
		entry, err := ledger.ParseEntry(args)
		if err != nil {
			return reply(c, validationText(err), mainMenu())
		}
		tx, err := h.add(tghelpers.BuildContext(c), typ, senderID(c), entry)
		return h.replyAdded(c, tx, err)
	}
}

func (h *Handlers) add(ctx context.Context, typ ledger.TxType, userID int64, e ledger.Entry) (ledger.Transaction, error) {
	if typ == ledger.Income {
		return h.store.AddIncome(ctx, userID, e.Amount, e.Category)
	}
	return h.store.AddExpense(ctx, userID, e.Amount, e.Category)
}

func (h *Handlers) replyAdded(c tele.Context, tx ledger.Transaction, err error) error {
	switch {
	case errors.Is(err, ledger.ErrUserNotRegistered):
		return reply(c, textNotRegistered, mainMenu())
	case err != nil:
		return fail(c, err)
	}
	return reply(c, fmt.Sprintf(textAdded, tx.Type.Title(), ledger.FormatMoney(tx.Amount), tx.Category), mainMenu())
}
