package middleware

import (
	tghelpers "github.com/m3rciful/finbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// MessageMetricsMiddleware resets the reply counters maintained by the helpers send functions.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		tghelpers.ResetCounters(c)
		return next(c)
	}
}

// GetCounters returns the number of replies sent and whether any carried a keyboard.
func GetCounters(c tele.Context) (int, bool) {
	return tghelpers.Counters(c)
}
