package state

import (
	"context"
	"errors"
)

// State identifies a conversation step.
type State string

// StateIdle means no conversation is in progress.
const StateIdle State = "idle"

// ErrNoUser is returned for operations keyed by a zero user id.
var ErrNoUser = errors.New("state: zero user id")

// Session is the stored conversation of one user.
type Session[T any] struct {
	State State `json:"state"`
	Data  T     `json:"data"`
}

// Idle reports whether no conversation is in progress.
func (s Session[T]) Idle() bool {
	return s.State == "" || s.State == StateIdle
}

// Manager stores sessions keyed by Telegram user id. Implementations are safe
// for concurrent use; a missing session reads as idle with a zero payload.
type Manager[T any] interface {
	Get(ctx context.Context, userID int64) (Session[T], error)
	Set(ctx context.Context, userID int64, s Session[T]) error
	Clear(ctx context.Context, userID int64) error
	Current(ctx context.Context, userID int64) (State, error)
}

func idle[T any]() Session[T] {
	return Session[T]{State: StateIdle}
}
