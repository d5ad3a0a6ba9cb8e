// Package event provides typed fan-out streams used to turn engine callbacks
// into explicit subscriptions.
package event

import "sync"

// DefaultBuffer is the queue size used when Subscribe is given a non-positive buffer.
const DefaultBuffer = 16

// Feed delivers every published value to all of its subscriptions.
type Feed[T any] struct {
	mu     sync.RWMutex
	subs   []*Subscription[T]
	closed bool
}

// NewFeed creates an empty Feed.
func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{
		subs: make([]*Subscription[T], 0),
	}
}

// Subscribe adds a new Subscription to the feed. Subscribing to a closed feed
// returns an already closed Subscription.
func (f *Feed[T]) Subscribe(buffer int) *Subscription[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	sub := newSubscription[T](buffer)
	sub.unsubscribe = func() { f.remove(sub) }

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		sub.close()
		return sub
	}
	f.subs = append(f.subs, sub)
	return sub
}

// Publish sends the value to every subscription in subscription order. It
// blocks while a subscriber's queue is full, until that subscriber drains it
// or closes.
func (f *Feed[T]) Publish(v T) {
	f.mu.RLock()
	subs := make([]*Subscription[T], len(f.subs))
	copy(subs, f.subs)
	f.mu.RUnlock()

	for _, sub := range subs {
		sub.send(v)
	}
}

// Len returns the number of live subscriptions.
func (f *Feed[T]) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// Close closes every subscription. Later subscriptions are closed on creation.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	subs := f.subs
	f.subs = nil
	f.closed = true
	f.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}

func (f *Feed[T]) remove(sub *Subscription[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, s := range f.subs {
		if s == sub {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return
		}
	}
}
