// Package signalbus provides the named, synchronous publish/subscribe
// primitive used internally by registries, connections, and the
// extension manager to react to each other without direct coupling.
//
// Unlike a typical event bus, Send dispatches to every subscriber
// synchronously and in subscription order on the calling goroutine.
// Callers that mutate shared state (a registry inserting an entry,
// say) rely on this: a subscriber added before Send is guaranteed to
// observe the new state by the time Send returns to the next
// subscriber, and by the time Send itself returns to its caller.
package signalbus

import (
	"log/slog"
	"sync"
)

// Disposer removes a subscription when called. Calling it more than
// once is a no-op.
type Disposer func()

type subscription[T any] struct {
	id     uint64
	sender any // nil means "any sender"
	fn     func(sender any, payload T)
}

// Signal is a single named dispatch point carrying payloads of type T.
// The zero value is ready to use.
type Signal[T any] struct {
	mu   sync.Mutex
	subs []subscription[T]
	next uint64
}

// Connect registers fn to be called on every Send regardless of sender.
// The returned Disposer removes the subscription.
func (s *Signal[T]) Connect(fn func(sender any, payload T)) Disposer {
	return s.connect(nil, fn)
}

// ConnectTo registers fn to be called only when Send is invoked with a
// sender identity equal to the given sender (compared with ==).
func (s *Signal[T]) ConnectTo(sender any, fn func(sender any, payload T)) Disposer {
	return s.connect(sender, fn)
}

// ConnectScoped is Connect, returning a Disposer meant to be deferred
// for the lifetime of a scope ("while we are in this context, listen").
func (s *Signal[T]) ConnectScoped(fn func(sender any, payload T)) Disposer {
	return s.Connect(fn)
}

func (s *Signal[T]) connect(sender any, fn func(sender any, payload T)) Disposer {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs = append(s.subs, subscription[T]{id: id, sender: sender, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Send invokes each matching subscriber in subscription order on the
// calling goroutine. A panic in one subscriber is logged and does not
// prevent the remaining subscribers from running.
func (s *Signal[T]) Send(sender any, payload T) {
	s.mu.Lock()
	subs := make([]subscription[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.sender != nil && sub.sender != sender {
			continue
		}
		invokeSafely(sub.fn, sender, payload)
	}
}

func invokeSafely[T any](fn func(sender any, payload T), sender any, payload T) {
	defer func() {
		if r := recover(); r != nil {
			slog.Default().Error("signalbus subscriber panicked", "recovered", r)
		}
	}()
	fn(sender, payload)
}

// SubscriberCount returns the number of active subscriptions.
func (s *Signal[T]) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
