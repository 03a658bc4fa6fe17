package bot

import (
	"fmt"
	"strings"

	tghelpers "github.com/m3rciful/finbot/core/telegram/helpers"
	"github.com/m3rciful/finbot/internal/ledger"

	tele "gopkg.in/telebot.v4"
)

// Start registers the sender and shows the main menu.
func (h *Handlers) Start(c tele.Context) error {
	u := c.Sender()
	if u == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	if _, err := h.store.RegisterUser(ctx, ledger.User{
		UserID:    u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}); err != nil {
		return fail(c, err)
	}
	h.finish(ctx, c)
	return reply(c, fmt.Sprintf(textWelcome, displayName(u)), mainMenu())
}

func displayName(u *tele.User) string {
	if name := strings.TrimSpace(u.FirstName); name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return "друг"
}

// Help lists the features.
func (h *Handlers) Help(c tele.Context) error {
	return reply(c, textHelp, mainMenu())
}

// UnknownText answers text that no route claimed.
func (h *Handlers) UnknownText(c tele.Context) error {
	return reply(c, textUnknown, mainMenu())
}

// UnknownCallback answers a stale or foreign inline button.
func (h *Handlers) UnknownCallback(c tele.Context) error {
	return c.Respond(&tele.CallbackResponse{Text: textUnknownCallback})
}

// RateLimited answers an update dropped by the rate limiter.
func RateLimited(c tele.Context) error {
	if c.Callback() == nil {
		return reply(c, textSlowDown)
	}
	return c.Respond(&tele.CallbackResponse{Text: textSlowDown})
}
