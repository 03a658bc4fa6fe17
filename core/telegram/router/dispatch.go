package router

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/m3rciful/finbot/core/logger"
	tg "github.com/m3rciful/finbot/core/telegram"
	"github.com/m3rciful/finbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/finbot/core/telegram/helpers"
	"github.com/m3rciful/finbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// ErrPass is returned by a handler that declines an event. A declined
// state-gated event is resolved again as if the sender were idle; any other
// declined event goes to the fallback.
var ErrPass = errors.New("router: pass")

// FSM reads the sender's current session state. Any state.Manager satisfies it.
type FSM interface {
	Current(ctx context.Context, userID int64) (state.State, error)
}

// Routes binds the table to telebot's text and callback endpoints. The
// sender's state is read once per update, before resolution.
func (t *Table) Routes(fsm FSM) []tg.Route {
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: t.dispatch(Text, fsm)},
		{Endpoint: tele.OnCallback, Handler: t.dispatch(Callback, fsm)},
	}
}

func eventKey(kind Kind, c tele.Context) string {
	if kind == Callback {
		return callbacks.Data(c)
	}
	return c.Text()
}

func (t *Table) dispatch(kind Kind, fsm FSM) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		ctx := tghelpers.BuildContext(c)
		key := eventKey(kind, c)

		current := state.StateIdle
		if user := c.Sender(); fsm != nil && user != nil {
			st, err := fsm.Current(ctx, user.ID)
			switch {
			case err != nil:
				// an unreadable session is treated as idle so menu commands keep working
				logger.Warn(ctx, "service.sessions", "session.read.fail",
					slog.String("err", err.Error()),
				)
			case st != "":
				current = st
			}
		}

		m, ok := t.Resolve(kind, current, key)
		extras := []slog.Attr{slog.String("state", string(current))}
		if kind == Callback {
			extras = append(extras, slog.String("cb_key", logger.SanitizeLimit(key, 64)))
		}
		if !ok {
			if kind == Callback {
				_ = c.Respond()
			}
			logHandlerSummary(c, "unrouted", start, "skip", "ok", nil, extras...)
			return nil
		}
		// fallbacks answer the callback themselves, usually with an alert text
		if kind == Callback && m.Via != ViaFallback {
			_ = c.Respond()
		}
		err := t.run(c, m, start, extras)
		if !errors.Is(err, ErrPass) {
			return err
		}
		if next, ok := t.pass(kind, m, key); ok {
			_ = t.run(c, next, time.Now(), extras)
		}
		return nil
	}
}

// run executes m and logs its summary. Errors are reported there, so only
// ErrPass is handed back to dispatch.
func (t *Table) run(c tele.Context, m Match, start time.Time, extras []slog.Attr) error {
	attrs := append(append([]slog.Attr(nil), extras...), slog.String("route", string(m.Via)))
	err := handleWithSummary(c, m.Name, start, func() error { return m.Handler(c) }, attrs...)
	if errors.Is(err, ErrPass) {
		return err
	}
	return nil
}

func (t *Table) pass(kind Kind, declined Match, key string) (Match, bool) {
	if declined.Via == ViaState {
		return t.Resolve(kind, state.StateIdle, key)
	}
	if declined.Via == ViaFallback {
		return Match{}, false
	}
	r, ok := t.fallback[kind]
	return Match{Route: r, Via: ViaFallback}, ok
}
