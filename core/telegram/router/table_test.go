package router

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/m3rciful/finbot/core/telegram/commands"
	"github.com/m3rciful/finbot/core/telegram/middleware"
	"github.com/m3rciful/finbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

const (
	awaitingConfirm state.State = "awaiting_delete_confirmation"
	awaitingPeriod  state.State = "awaiting_report_period"
)

// fakeContext implements the subset of tele.Context the router touches.
type fakeContext struct {
	tele.Context
	user     *tele.User
	text     string
	cb       *tele.Callback
	store    map[string]any
	sent     []any
	answered int
}

func newText(userID int64, text string) *fakeContext {
	return &fakeContext{user: &tele.User{ID: userID}, text: text, store: map[string]any{}}
}

func newCallback(userID int64, data string) *fakeContext {
	return &fakeContext{user: &tele.User{ID: userID}, cb: &tele.Callback{Data: data}, store: map[string]any{}}
}

func (f *fakeContext) Sender() *tele.User        { return f.user }
func (f *fakeContext) Chat() *tele.Chat          { return &tele.Chat{ID: f.user.ID, Type: tele.ChatPrivate} }
func (f *fakeContext) Text() string              { return f.text }
func (f *fakeContext) Callback() *tele.Callback  { return f.cb }
func (f *fakeContext) Update() tele.Update       { return tele.Update{ID: 1, Callback: f.cb} }
func (f *fakeContext) Get(key string) any        { return f.store[key] }
func (f *fakeContext) Set(key string, v any)     { f.store[key] = v }
func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what)
	return nil
}
func (f *fakeContext) Respond(...*tele.CallbackResponse) error {
	f.answered++
	return nil
}

type fixedFSM map[int64]state.State

func (f fixedFSM) Current(_ context.Context, userID int64) (state.State, error) {
	if st, ok := f[userID]; ok {
		return st, nil
	}
	return state.StateIdle, nil
}

type brokenFSM struct{}

func (brokenFSM) Current(context.Context, int64) (state.State, error) {
	return "", errors.New("redis: connection refused")
}

func recorder(name string, hits *[]string) tele.HandlerFunc {
	return func(tele.Context) error {
		*hits = append(*hits, name)
		return nil
	}
}

func buildTable(hits *[]string) *Table {
	t := NewTable(Options{Admin: middleware.AdminOptions{AdminID: 99}})
	t.Command("/start", commands.Command{Handler: recorder("start", hits), Description: "Начать"})
	t.Command("/remind", commands.Command{Handler: recorder("remind", hits), Description: "Напоминания", AdminOnly: true})
	t.Command("/help", commands.Command{Handler: recorder("help", hits), Description: "Справка", Aliases: []string{"info"}})
	t.Exact(Text, "⚖️ Баланс", "balance", recorder("balance", hits))
	t.OnState(Text, awaitingConfirm, "delete.confirm", recorder("confirm", hits))
	t.OnState(Callback, awaitingPeriod, "report.period", recorder("period", hits))
	t.Exact(Callback, "report_week", "stats.week", recorder("stats.week", hits))
	t.Prefix("Income_", "report.category", recorder("category", hits))
	t.Prefix("Inc", "short", recorder("short", hits))
	t.Fallback(Text, "unknown_text", recorder("unknown_text", hits))
	t.Fallback(Callback, "unknown_callback", recorder("unknown_callback", hits))
	return t
}

func TestResolve(t *testing.T) {
	var hits []string
	table := buildTable(&hits)
	cases := []struct {
		kind    Kind
		state   state.State
		key     string
		name    string
		via     Via
	}{
		{Text, state.StateIdle, "/start", "cmd.start", ViaExact},
		{Text, state.StateIdle, "/start@finbot_bot hello", "cmd.start", ViaExact},
		{Text, state.StateIdle, "/info", "cmd.help", ViaExact},
		{Text, state.StateIdle, "⚖️ Баланс", "balance", ViaExact},
		{Text, state.StateIdle, "Да✅", "unknown_text", ViaFallback},
		{Text, awaitingConfirm, "⚖️ Баланс", "delete.confirm", ViaState},
		{Text, awaitingConfirm, "/start", "delete.confirm", ViaState},
		{Text, awaitingPeriod, "⚖️ Баланс", "balance", ViaExact},
		{Callback, awaitingConfirm, "report_week", "stats.week", ViaExact},
		{Callback, awaitingPeriod, "report_week", "report.period", ViaState},
		{Callback, state.StateIdle, "Income_Зарплата", "report.category", ViaPrefix},
		{Callback, state.StateIdle, "Incxyz", "short", ViaPrefix},
		{Callback, state.StateIdle, "nonsense", "unknown_callback", ViaFallback},
		{Callback, "", "week", "unknown_callback", ViaFallback},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s/%s/%s", tc.kind, tc.state, tc.key), func(t *testing.T) {
			m, ok := table.Resolve(tc.kind, tc.state, tc.key)
			if !ok {
				t.Fatal("no match")
			}
			if m.Name != tc.name || m.Via != tc.via {
				t.Fatalf("got %s via %s, want %s via %s", m.Name, m.Via, tc.name, tc.via)
			}
		})
	}
}

func TestResolveWithoutFallback(t *testing.T) {
	table := NewTable(Options{})
	if _, ok := table.Resolve(Text, state.StateIdle, "hello"); ok {
		t.Fatal("expected no match")
	}
}

func TestBotCommandsHideAdminOnly(t *testing.T) {
	var hits []string
	cmds := buildTable(&hits).BotCommands()
	if len(cmds) != 2 || cmds[0].Text != "help" || cmds[1].Text != "start" {
		t.Fatalf("unexpected menu %+v", cmds)
	}
}

func TestDispatchUsesSessionState(t *testing.T) {
	var hits []string
	table := buildTable(&hits)
	routes := table.Routes(fixedFSM{7: awaitingConfirm})
	text := routes[0].Handler

	if err := text(newText(7, "/start")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if err := text(newText(8, "/start")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(hits) != 2 || hits[0] != "confirm" || hits[1] != "start" {
		t.Fatalf("unexpected dispatch order %v", hits)
	}
}

func TestDispatchTreatsBrokenSessionAsIdle(t *testing.T) {
	var hits []string
	text := buildTable(&hits).Routes(brokenFSM{})[0].Handler
	if err := text(newText(7, "⚖️ Баланс")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(hits) != 1 || hits[0] != "balance" {
		t.Fatalf("unexpected hits %v", hits)
	}
}

func TestDispatchAnswersCallbacks(t *testing.T) {
	var hits []string
	cb := buildTable(&hits).Routes(fixedFSM{})[1].Handler

	known := newCallback(7, "report_week")
	if err := cb(known); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if known.answered != 1 {
		t.Fatalf("routed callback answered %d times", known.answered)
	}

	unknown := newCallback(7, "nonsense")
	if err := cb(unknown); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if unknown.answered != 0 {
		t.Fatal("fallback must answer the callback itself")
	}
	if hits[len(hits)-1] != "unknown_callback" {
		t.Fatalf("unexpected hits %v", hits)
	}
}

func TestAdminOnlyCommand(t *testing.T) {
	var hits []string
	text := buildTable(&hits).Routes(fixedFSM{})[0].Handler
	_ = text(newText(7, "/remind"))
	_ = text(newText(99, "/remind"))
	if len(hits) != 1 || hits[0] != "remind" {
		t.Fatalf("admin gate failed: %v", hits)
	}
}

func TestDeriveErrorCode(t *testing.T) {
	if got := deriveErrorCode(fmt.Errorf("add: %w", errors.New("boom"))); got != "ERRORSTRING" {
		t.Fatalf("wrapped code = %q", got)
	}
	if got := deriveErrorCode(codeErr("user not registered")); got != "USER_NOT_REGISTERED" {
		t.Fatalf("coder code = %q", got)
	}
}

type codeErr string

func (e codeErr) Error() string { return string(e) }
func (e codeErr) Code() string  { return string(e) }

func TestDispatchPassFromStateResolvesAsIdle(t *testing.T) {
	var hits []string
	table := NewTable(Options{})
	table.OnState(Callback, awaitingPeriod, "report.period", func(tele.Context) error {
		hits = append(hits, "period")
		return ErrPass
	})
	table.Exact(Callback, "Income", "report.type", recorder("type", &hits))
	table.Fallback(Callback, "unknown_callback", recorder("unknown_callback", &hits))
	cb := table.Routes(fixedFSM{7: awaitingPeriod})[1].Handler

	if err := cb(newCallback(7, "Income")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if err := cb(newCallback(7, "stale")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	want := []string{"period", "type", "period", "unknown_callback"}
	if fmt.Sprint(hits) != fmt.Sprint(want) {
		t.Fatalf("hits = %v, want %v", hits, want)
	}
}

func TestDispatchPassFromPrefixGoesToFallback(t *testing.T) {
	var hits []string
	table := NewTable(Options{})
	table.Prefix("Income_", "report.category", func(tele.Context) error {
		hits = append(hits, "category")
		return ErrPass
	})
	table.Fallback(Callback, "unknown_callback", recorder("unknown_callback", &hits))
	cb := table.Routes(nil)[1].Handler

	if err := cb(newCallback(7, "Income_")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if fmt.Sprint(hits) != "[category unknown_callback]" {
		t.Fatalf("hits = %v", hits)
	}
}

func TestDispatchSwallowsHandlerErrors(t *testing.T) {
	table := NewTable(Options{})
	table.Fallback(Text, "broken", func(tele.Context) error { return errors.New("boom") })
	if err := table.Routes(nil)[0].Handler(newText(7, "hi")); err != nil {
		t.Fatalf("expected the error to stay in the summary log, got %v", err)
	}
}
