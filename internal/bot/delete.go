package bot

import (
	"errors"
	"fmt"

	tghelpers "github.com/m3rciful/finbot/core/telegram/helpers"
	"github.com/m3rciful/finbot/internal/ledger"

	tele "gopkg.in/telebot.v4"
)

// StartDelete shows the latest transaction and asks for confirmation.
// Without transactions the session is left alone.
func (h *Handlers) StartDelete(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	tx, err := h.store.LatestTransaction(ctx, senderID(c))
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return reply(c, textNothingToDelete, mainMenu())
	case err != nil:
		return fail(c, err)
	}
	if err := h.begin(ctx, c, StateAwaitingConfirmation, Pending{Snapshot: &tx}); err != nil {
		return fail(c, err)
	}
	return reply(c, fmt.Sprintf(textConfirmDelete, tx.Summary(h.loc)), confirmKeyboard())
}

// OnConfirm receives every text while a deletion awaits confirmation.
func (h *Handlers) OnConfirm(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	switch c.Text() {
	case LabelYes:
		sess, err := h.sessions.Get(ctx, senderID(c))
		if err != nil || sess.Data.Snapshot == nil {
			h.finish(ctx, c)
			return reply(c, textNoSnapshot, mainMenu())
		}
		deleted, err := h.store.DeleteLatestTransaction(ctx, senderID(c))
		h.finish(ctx, c)
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			return reply(c, textAlreadyDeleted, mainMenu())
		case err != nil:
			return fail(c, err)
		}
		return reply(c, fmt.Sprintf(textDeleted, deleted.Summary(h.loc)), mainMenu())
	case LabelNo:
		h.finish(ctx, c)
		return reply(c, textDeleteCancelled, mainMenu())
	default:
		return reply(c, textAnswerYesNo, confirmKeyboard())
	}
}
