// Package bus is a synchronous, in-process publish/subscribe channel.
package bus

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
)

// Subscription identifies a registered callback so it can be removed later.
type Subscription uint64

type subscriber[T any] struct {
	id Subscription
	fn func(T)
}

// Bus delivers each published value to every subscriber, in subscription
// order, on the caller's goroutine. A panicking subscriber is logged and
// skipped; the remaining subscribers still run. Bus is not safe for
// concurrent use.
type Bus[T any] struct {
	logger *slog.Logger
	subs   []subscriber[T]
	nextID Subscription
}

func New[T any](logger *slog.Logger) *Bus[T] {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bus[T]{logger: logger}
}

// Subscribe registers fn and returns its handle. A nil fn is ignored and
// yields the zero Subscription.
func (b *Bus[T]) Subscribe(fn func(T)) Subscription {
	if fn == nil {
		return 0
	}
	b.nextID++
	b.subs = append(b.subs, subscriber[T]{id: b.nextID, fn: fn})
	return b.nextID
}

// Unsubscribe removes the callback registered under id. It reports whether a
// subscriber was removed.
func (b *Bus[T]) Unsubscribe(id Subscription) bool {
	idx := slices.IndexFunc(b.subs, func(s subscriber[T]) bool { return s.id == id })
	if idx < 0 {
		return false
	}
	b.subs = slices.Delete(b.subs, idx, idx+1)
	return true
}

func (b *Bus[T]) Len() int { return len(b.subs) }

// Publish delivers v to a snapshot of the current subscribers, so callbacks
// may subscribe or unsubscribe while being notified.
func (b *Bus[T]) Publish(v T) {
	for _, s := range slices.Clone(b.subs) {
		b.deliver(s, v)
	}
}

func (b *Bus[T]) deliver(s subscriber[T], v T) {
	defer func() {
		if p := recover(); p != nil {
			b.logger.Error("subscriber panicked",
				"subscription", uint64(s.id),
				"event", fmt.Sprintf("%T", v),
				"panic", fmt.Sprint(p),
			)
		}
	}()
	s.fn(v)
}
