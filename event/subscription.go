package event

import "sync"

// Subscription is one consumer's queue on a Feed.
type Subscription[T any] struct {
	queue       chan T
	done        chan struct{}
	once        sync.Once
	unsubscribe func()
}

func newSubscription[T any](buffer int) *Subscription[T] {
	return &Subscription[T]{
		queue: make(chan T, buffer),
		done:  make(chan struct{}),
	}
}

// Receive returns the channel values are delivered on. It is never closed;
// select on Done to observe the end of the subscription.
func (s *Subscription[T]) Receive() <-chan T {
	return s.queue
}

// Done is closed once the subscription or its feed is closed.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Close detaches the subscription from its feed. It is safe to call more than once.
func (s *Subscription[T]) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.close()
}

func (s *Subscription[T]) send(v T) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.queue <- v:
	case <-s.done:
	}
}

func (s *Subscription[T]) close() {
	s.once.Do(func() {
		close(s.done)
	})
}
