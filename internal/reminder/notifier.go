package reminder

import (
	"context"

	tele "gopkg.in/telebot.v4"
)

// BotNotifier sends reminders as private messages.
type BotNotifier struct {
	Bot *tele.Bot
}

// Notify sends text to the user's private chat.
func (n BotNotifier) Notify(_ context.Context, userID int64, text string) error {
	_, err := n.Bot.Send(tele.ChatID(userID), text)
	return err
}
