package helpers

import (
	"bytes"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/finbot/core/logger"
	"github.com/m3rciful/finbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

const (
	keyMessages = "messages"
	keyKeyboard = "kb"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher routes helper sends through d; nil sends synchronously.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// ResetCounters zeroes the per-update reply counters.
func ResetCounters(c tele.Context) {
	c.Set(keyMessages, 0)
	c.Set(keyKeyboard, false)
}

// Counters returns the replies sent for this update and whether any carried a keyboard.
func Counters(c tele.Context) (int, bool) {
	n, _ := c.Get(keyMessages).(int)
	kb, _ := c.Get(keyKeyboard).(bool)
	return n, kb
}

func countReply(c tele.Context, withKeyboard bool) {
	n, _ := c.Get(keyMessages).(int)
	c.Set(keyMessages, n+1)
	if withKeyboard {
		c.Set(keyKeyboard, true)
	}
}

func recipientID(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if user := c.Sender(); user != nil {
		return user.ID
	}
	return 0
}

// deliver runs send through the dispatcher when one is set, falling back to a
// synchronous call when the queue rejects the job.
func deliver(c tele.Context, action string, withKeyboard bool, send func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		if err := send(); err != nil {
			return err
		}
		countReply(c, withKeyboard)
		return nil
	}

	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, recipientID(c), action, send)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		err = send()
	}
	if err != nil {
		return err
	}
	countReply(c, withKeyboard)
	return nil
}

func firstMarkup(markup []*tele.ReplyMarkup) *tele.ReplyMarkup {
	if len(markup) > 0 {
		return markup[0]
	}
	return nil
}

// SendText sends plain text with an optional keyboard.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	rm := firstMarkup(markup)
	return deliver(c, "send.text", rm != nil, func() error {
		if rm != nil {
			return c.Send(text, rm)
		}
		return c.Send(text)
	})
}

// SendPhoto sends a PNG image with a caption and an optional keyboard.
func SendPhoto(c tele.Context, png []byte, caption string, markup ...*tele.ReplyMarkup) error {
	rm := firstMarkup(markup)
	return deliver(c, "send.photo", rm != nil, func() error {
		photo := &tele.Photo{File: tele.FromReader(bytes.NewReader(png)), Caption: caption}
		if rm != nil {
			return c.Send(photo, rm)
		}
		return c.Send(photo)
	})
}
