// Package router maps an inbound event to exactly one handler.
//
// A Table is consulted with the event kind, the sender's session state and a
// key (normalized text or callback data). Resolution order:
//
//  1. a state-gated route for (kind, state) when the state is not idle;
//  2. an exact route for (kind, key), including command aliases;
//  3. for callbacks, the longest registered prefix of key;
//  4. the fallback for kind.
package router

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/m3rciful/finbot/core/logger"
	"github.com/m3rciful/finbot/core/telegram/commands"
	"github.com/m3rciful/finbot/core/telegram/middleware"
	"github.com/m3rciful/finbot/core/telegram/state"

	tele "gopkg.in/telebot.v4"
)

// Kind is the class of inbound event.
type Kind int

const (
	// Text covers commands, button labels and free text.
	Text Kind = iota
	// Callback covers inline button presses.
	Callback
)

func (k Kind) String() string {
	if k == Callback {
		return "callback"
	}
	return "text"
}

// Via tells which rule produced a Match.
type Via string

const (
	ViaState    Via = "state"
	ViaExact    Via = "exact"
	ViaPrefix   Via = "prefix"
	ViaFallback Via = "fallback"
)

// Route is a named handler.
type Route struct {
	Name    string
	Handler tele.HandlerFunc
}

// Match is the result of Resolve.
type Match struct {
	Route
	Via Via
}

type gateKey struct {
	kind  Kind
	state state.State
}

type exactKey struct {
	kind Kind
	key  string
}

type prefixRoute struct {
	prefix string
	route  Route
}

// Options configure a Table.
type Options struct {
	Admin middleware.AdminOptions
}

// Table is the routing table. Register routes before calling Routes; the
// table is read-only afterwards and safe for concurrent Resolve calls.
type Table struct {
	opts     Options
	gated    map[gateKey]Route
	exact    map[exactKey]Route
	prefixes []prefixRoute
	fallback map[Kind]Route
	menu     []tele.Command
}

// NewTable returns an empty table.
func NewTable(opts Options) *Table {
	return &Table{
		opts:     opts,
		gated:    make(map[gateKey]Route),
		exact:    make(map[exactKey]Route),
		fallback: make(map[Kind]Route),
	}
}

// OnState routes every event of kind to h while the sender is in st.
func (t *Table) OnState(kind Kind, st state.State, name string, h tele.HandlerFunc) {
	if st == state.StateIdle || h == nil {
		warnSkip("state", string(st))
		return
	}
	t.gated[gateKey{kind, st}] = Route{Name: name, Handler: h}
}

// Exact routes events of kind whose key equals key.
func (t *Table) Exact(kind Kind, key, name string, h tele.HandlerFunc) {
	if key == "" || h == nil {
		warnSkip("exact", key)
		return
	}
	if _, dup := t.exact[exactKey{kind, key}]; dup {
		warnSkip("exact.duplicate", key)
		return
	}
	t.exact[exactKey{kind, key}] = Route{Name: name, Handler: h}
}

// Prefix routes callbacks whose data starts with prefix.
func (t *Table) Prefix(prefix, name string, h tele.HandlerFunc) {
	if prefix == "" || h == nil {
		warnSkip("prefix", prefix)
		return
	}
	t.prefixes = append(t.prefixes, prefixRoute{prefix: prefix, route: Route{Name: name, Handler: h}})
	sort.SliceStable(t.prefixes, func(i, j int) bool {
		return len(t.prefixes[i].prefix) > len(t.prefixes[j].prefix)
	})
}

// Fallback handles events of kind that nothing else matched.
func (t *Table) Fallback(kind Kind, name string, h tele.HandlerFunc) {
	if h != nil {
		t.fallback[kind] = Route{Name: name, Handler: h}
	}
}

// Command registers a slash command and its aliases as exact text routes.
// Admin-only commands are wrapped with the admin check.
func (t *Table) Command(name string, cmd commands.Command) {
	name = commands.Normalize(name)
	if !strings.HasPrefix(name, "/") || cmd.Handler == nil {
		warnSkip("command", name)
		return
	}
	h := cmd.Handler
	if cmd.AdminOnly {
		h = middleware.AdminOnlyMiddleware(t.opts.Admin)(h)
	}
	route := "cmd." + strings.TrimPrefix(name, "/")
	t.Exact(Text, name, route, h)
	for _, alias := range cmd.Aliases {
		if !strings.HasPrefix(alias, "/") {
			alias = "/" + alias
		}
		t.Exact(Text, commands.Normalize(alias), route, h)
	}
	if cmd.Visible() {
		t.menu = append(t.menu, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: cmd.Description})
	}
}

// BotCommands lists visible commands for the Telegram command menu.
func (t *Table) BotCommands() []tele.Command {
	out := append([]tele.Command(nil), t.menu...)
	sort.Slice(out, func(i, j int) bool { return out[i].Text < out[j].Text })
	return out
}

// Resolve picks the handler for an event. It has no side effects.
func (t *Table) Resolve(kind Kind, current state.State, key string) (Match, bool) {
	if current != "" && current != state.StateIdle {
		if r, ok := t.gated[gateKey{kind, current}]; ok {
			return Match{Route: r, Via: ViaState}, true
		}
	}
	if kind == Text {
		key = commands.Normalize(key)
	}
	if r, ok := t.exact[exactKey{kind, key}]; ok {
		return Match{Route: r, Via: ViaExact}, true
	}
	if kind == Callback {
		for _, p := range t.prefixes {
			if strings.HasPrefix(key, p.prefix) {
				return Match{Route: p.route, Via: ViaPrefix}, true
			}
		}
	}
	if r, ok := t.fallback[kind]; ok {
		return Match{Route: r, Via: ViaFallback}, true
	}
	return Match{}, false
}

func warnSkip(kind, key string) {
	logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.skip",
		slog.String("event", "register.skip"),
		slog.String("route", kind),
		slog.String("cb_key", key),
	)
}
