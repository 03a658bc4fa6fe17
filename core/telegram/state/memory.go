package state

import (
	"context"
	"sync"
)

type memoryManager[T any] struct {
	mu       sync.RWMutex
	sessions map[int64]Session[T]
}

// NewMemoryManager returns a process-local Manager. Sessions are lost on restart.
func NewMemoryManager[T any]() Manager[T] {
	return &memoryManager[T]{sessions: make(map[int64]Session[T])}
}

func (m *memoryManager[T]) Get(_ context.Context, userID int64) (Session[T], error) {
	if userID == 0 {
		return idle[T](), ErrNoUser
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[userID]; ok {
		return s, nil
	}
	return idle[T](), nil
}

func (m *memoryManager[T]) Set(ctx context.Context, userID int64, s Session[T]) error {
	if userID == 0 {
		return ErrNoUser
	}
	if s.Idle() {
		return m.Clear(ctx, userID)
	}
	m.mu.Lock()
	m.sessions[userID] = s
	m.mu.Unlock()
	return nil
}

func (m *memoryManager[T]) Clear(_ context.Context, userID int64) error {
	if userID == 0 {
		return ErrNoUser
	}
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
	return nil
}

func (m *memoryManager[T]) Current(ctx context.Context, userID int64) (State, error) {
	s, err := m.Get(ctx, userID)
	return s.State, err
}
