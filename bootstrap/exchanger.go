// Package bootstrap carries the first offer and answer between two peers
// before their signaling channel exists.
package bootstrap

import (
	"context"
	"errors"

	"peerlink/signaling"
)

// ErrClosed is returned by a closed Exchanger.
var ErrClosed = errors.New("exchanger closed")

// Exchanger moves signaling envelopes over an out-of-band path.
type Exchanger interface {
	Send(ctx context.Context, env signaling.Envelope) error
	Receive(ctx context.Context) (signaling.Envelope, error)
	Close() error
}

type received struct {
	env signaling.Envelope
	err error
}

// inbox queues envelopes read by a background reader. The terminal error is
// delivered once all queued envelopes are consumed.
type inbox struct {
	items chan received
	done  chan struct{}
}

func newInbox() *inbox {
	return &inbox{
		items: make(chan received, 16),
		done:  make(chan struct{}),
	}
}

func (b *inbox) push(r received) bool {
	select {
	case b.items <- r:
		return true
	case <-b.done:
		return false
	}
}

func (b *inbox) receive(ctx context.Context) (signaling.Envelope, error) {
	select {
	case r := <-b.items:
		return r.env, r.err
	case <-b.done:
		return signaling.Envelope{}, ErrClosed
	case <-ctx.Done():
		return signaling.Envelope{}, ctx.Err()
	}
}
