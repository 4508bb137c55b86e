// Package observer provides a small generic publish/subscribe primitive.
package observer

import (
	"context"
	"sync"
)

// Observer defines the callback contract for receiving published events of type T.
type Observer[T any] interface {
	Notify(context.Context, T) error
}

// ObserverFunc adapts a standalone function into an Observer.
//
//revive:disable-next-line:exported
type ObserverFunc[T any] func(context.Context, T) error

// Notify executes the wrapped function.
func (f ObserverFunc[T]) Notify(ctx context.Context, evt T) error {
	if f == nil {
		return nil
	}
	return f(ctx, evt)
}

// Publisher publishes events to downstream observers.
type Publisher[T any] interface {
	Publish(context.Context, T)
}

type entry[T any] struct {
	obs Observer[T]
	id  uint64
}

// Subject keeps observers in registration order and fans events out to them.
type Subject[T any] struct {
	onError   func(error)
	observers []entry[T]
	nextID    uint64
	mu        sync.RWMutex
}

// NewSubject constructs a Subject with optional initial observers.
func NewSubject[T any](observers ...Observer[T]) *Subject[T] {
	s := &Subject[T]{}
	for _, o := range observers {
		s.Attach(o)
	}
	return s
}

// Publish invokes every observer with the provided event, synchronously and in
// registration order.
func (s *Subject[T]) Publish(ctx context.Context, evt T) {
	if s == nil {
		return
	}

	s.mu.RLock()
	observers := append([]entry[T](nil), s.observers...)
	errHandler := s.onError
	s.mu.RUnlock()

	for _, e := range observers {
		if err := e.obs.Notify(ctx, evt); err != nil && errHandler != nil {
			errHandler(err)
		}
	}
}

// Attach registers an observer and returns a function removing it again.
// Calling the returned function more than once is a no-op.
func (s *Subject[T]) Attach(o Observer[T]) (detach func()) {
	if s == nil || o == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, entry[T]{id: id, obs: o})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.detach(id) })
	}
}

func (s *Subject[T]) detach(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.observers {
		if e.id == id {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return
		}
	}
}

// SetErrorHandler configures a callback for observer failures.
func (s *Subject[T]) SetErrorHandler(fn func(error)) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.onError = fn
	s.mu.Unlock()
}
