package middleware

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	update tele.Update
	store  map[string]any
}

func newContext(userID int64, callback bool) *fakeContext {
	user := &tele.User{ID: userID}
	upd := tele.Update{ID: 1}
	if callback {
		upd.Callback = &tele.Callback{Sender: user, Data: "x"}
	} else {
		upd.Message = &tele.Message{Sender: user, Chat: &tele.Chat{ID: userID}, Text: "hi"}
	}
	return &fakeContext{update: upd, store: map[string]any{}}
}

func (f *fakeContext) Update() tele.Update { return f.update }

func (f *fakeContext) Sender() *tele.User {
	if f.update.Callback != nil {
		return f.update.Callback.Sender
	}
	return f.update.Message.Sender
}

func (f *fakeContext) Chat() *tele.Chat {
	if f.update.Message != nil {
		return f.update.Message.Chat
	}
	return nil
}

func (f *fakeContext) Get(key string) any        { return f.store[key] }
func (f *fakeContext) Set(key string, value any) { f.store[key] = value }

func TestUpdateKind(t *testing.T) {
	if got := UpdateKind(newContext(1, true)); got != updateCallback {
		t.Fatalf("callback kind = %q", got)
	}
	if got := UpdateKind(newContext(1, false)); got != updateMessage {
		t.Fatalf("message kind = %q", got)
	}
	if got := UpdateKind(&fakeContext{}); got != updateOther {
		t.Fatalf("other kind = %q", got)
	}
}

func TestRateLimitDropsBurst(t *testing.T) {
	now := time.Unix(1000, 0)
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Now:       func() time.Time { return now },
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	_ = h(newContext(5, false))
	_ = h(newContext(5, false))
	_ = h(newContext(6, false))
	now = now.Add(2 * time.Second)
	_ = h(newContext(5, false))

	if calls != 3 || limited != 1 {
		t.Fatalf("calls=%d limited=%d", calls, limited)
	}
}

func TestRateLimitExclude(t *testing.T) {
	now := time.Unix(1000, 0)
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Minute,
		Exclude:  map[string]struct{}{updateCallback: {}},
		Now:      func() time.Time { return now },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })
	for i := 0; i < 3; i++ {
		_ = h(newContext(5, true))
	}
	if calls != 3 {
		t.Fatalf("calls=%d", calls)
	}
}

func TestAdminOnly(t *testing.T) {
	rejected := 0
	mw := AdminOnlyMiddleware(AdminOptions{
		AdminID:  42,
		OnReject: func(tele.Context) error { rejected++; return nil },
	})
	calls := 0
	h := mw(func(tele.Context) error { calls++; return nil })

	_ = h(newContext(42, false))
	_ = h(newContext(7, false))
	if calls != 1 || rejected != 1 {
		t.Fatalf("calls=%d rejected=%d", calls, rejected)
	}

	open := AdminOnlyMiddleware(AdminOptions{})(func(tele.Context) error { calls++; return nil })
	_ = open(newContext(42, false))
	if calls != 1 {
		t.Fatalf("unconfigured admin let a caller through")
	}
}
