package bot

import (
	"errors"
	"fmt"

	tghelpers "github.com/m3rciful/finbot/core/telegram/helpers"
	"github.com/m3rciful/finbot/internal/reminder"

	tele "gopkg.in/telebot.v4"
)

// Remind runs a reminder batch now. Registered as an admin-only command.
func (h *Handlers) Remind(c tele.Context) error {
	if h.reminder == nil {
		return reply(c, textRemindOff)
	}
	res, err := h.reminder.Run(tghelpers.BuildContext(c))
	switch {
	case errors.Is(err, reminder.ErrRunning):
		return reply(c, textRemindBusy)
	case err != nil:
		return fail(c, err)
	}
	return reply(c, fmt.Sprintf(textRemindDone, res.Sent, res.Users))
}
