// Package ratelimit implements the hub's batched call-coalescing
// utilities (spec.md §4.5): if nothing has fired in the last timeout
// window, the next call fires immediately; any further calls inside
// that window are merged and fire once, at the window's end, carrying
// the merged argument. Grounded on internal/router.Router's
// mutex-guarded, time.Now()-stamped accumulator shape, adapted from an
// audit log to a debounce/batch timer built on time.AfterFunc.
package ratelimit

import (
	"sync"
	"time"
)

// MergeFunc combines a pending argument with a newly arrived one.
type MergeFunc[T any] func(pending, next T) T

// FireFunc is invoked with the (possibly merged) argument when the
// limiter fires.
type FireFunc[T any] func(arg T)

// Limiter is a generic batched rate limiter over argument type T.
type Limiter[T any] struct {
	mu      sync.Mutex
	timeout time.Duration
	merge   MergeFunc[T]
	fire    FireFunc[T]

	lastFire   time.Time
	fired      bool
	timer      *time.Timer
	pending    T
	hasPending bool
}

// New constructs a Limiter. merge combines a pending call's argument
// with a newly arrived one when both land in the same window; fire is
// invoked with the resulting argument, immediately for the first call
// after an idle period, or once at the end of a busy window.
func New[T any](timeout time.Duration, merge MergeFunc[T], fire FireFunc[T]) *Limiter[T] {
	return &Limiter[T]{timeout: timeout, merge: merge, fire: fire}
}

// Call registers one call with argument arg. If the limiter has been
// idle for at least timeout, fire runs synchronously before Call
// returns. Otherwise arg is merged into whatever is already pending
// and a timer (if not already running) is armed for the remainder of
// the window.
func (l *Limiter[T]) Call(arg T) {
	l.mu.Lock()
	now := time.Now()
	if !l.fired || now.Sub(l.lastFire) >= l.timeout {
		l.fired = true
		l.lastFire = now
		l.mu.Unlock()
		l.fire(arg)
		return
	}

	if l.hasPending {
		arg = l.merge(l.pending, arg)
	}
	l.pending = arg
	l.hasPending = true

	if l.timer == nil {
		remaining := l.timeout - now.Sub(l.lastFire)
		if remaining < 0 {
			remaining = 0
		}
		l.timer = time.AfterFunc(remaining, l.fireWindowEnd)
	}
	l.mu.Unlock()
}

func (l *Limiter[T]) fireWindowEnd() {
	l.mu.Lock()
	arg := l.pending
	var zero T
	l.pending = zero
	l.hasPending = false
	l.timer = nil
	l.lastFire = time.Now()
	l.mu.Unlock()
	l.fire(arg)
}

// Stop cancels any pending timer without firing it. Further calls
// behave as if the limiter were freshly idle.
func (l *Limiter[T]) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.hasPending = false
	l.fired = false
}

// Batched is the plain rate limiter: the most recently supplied
// argument wins when calls are merged.
func Batched[T any](timeout time.Duration, fire FireFunc[T]) *Limiter[T] {
	return New(timeout, func(_, next T) T { return next }, fire)
}

// UAVBatched is the UAV-specialised rate limiter: arguments are lists
// of UAV ids, merged by union rather than overwritten, so a burst of
// UAV-INF-triggering events for different UAVs within one window
// still yields one consolidated call naming every affected UAV.
func UAVBatched(timeout time.Duration, fire FireFunc[[]string]) *Limiter[[]string] {
	return New(timeout, mergeUAVIDs, fire)
}

func mergeUAVIDs(pending, next []string) []string {
	seen := make(map[string]struct{}, len(pending)+len(next))
	out := make([]string, 0, len(pending)+len(next))
	for _, id := range pending {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range next {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
