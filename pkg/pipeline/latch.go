package pipeline

import "sync"

// Latch is a single-slot handoff point between one producer and one
// consumer. A new value overwrites the pending one, so staleness is
// bounded by exactly one item and the pending depth never exceeds 1.
// This is the only buffering construct of the whole frame path.
type Latch[T any] struct {
	mu      sync.Mutex
	v       T
	full    bool
	dropped uint64
	notify  chan struct{}
}

func NewLatch[T any]() *Latch[T] {
	return &Latch[T]{notify: make(chan struct{}, 1)}
}

// Set stores the newest value, discarding a still-pending older one.
// Returns true when an undelivered value was dropped.
func (l *Latch[T]) Set(v T) (dropped bool) {
	l.mu.Lock()
	dropped = l.full
	if dropped {
		l.dropped++
	}
	l.v = v
	l.full = true
	l.mu.Unlock()
	select {
	case l.notify <- struct{}{}:
	default:
	}
	return dropped
}

// Take blocks until a value is pending or cancel is closed.
func (l *Latch[T]) Take(cancel <-chan struct{}) (v T, ok bool) {
	for {
		if v, ok = l.TryTake(); ok {
			return v, true
		}
		select {
		case <-l.notify:
		case <-cancel:
			return v, false
		}
	}
}

// TryTake removes and returns the pending value, if any.
func (l *Latch[T]) TryTake() (v T, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.full {
		return v, false
	}
	v = l.v
	var zero T
	l.v = zero
	l.full = false
	return v, true
}

// Pending reports the current queue depth, which is 0 or 1 by construction.
func (l *Latch[T]) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.full {
		return 1
	}
	return 0
}

// Dropped counts values that were overwritten before delivery.
func (l *Latch[T]) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}
