// Package datachannel wraps an engine data channel into a text/binary
// dispatching channel.
package datachannel

import (
	"context"
	"errors"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"
	"peerlink/transport"
)

var (
	// ErrHandlerBound is returned when a second handler pair is bound.
	ErrHandlerBound = errors.New("message handler already bound")

	// ErrChannelClosed is returned when waiting on a channel that closed.
	ErrChannelClosed = errors.New("data channel closed")
)

// Handler receives the messages of one channel.
type Handler interface {
	OnText(text string)
	OnBinary(data []byte)
}

// HandlerFuncs adapts plain functions to Handler. Nil functions drop messages.
type HandlerFuncs struct {
	Text   func(text string)
	Binary func(data []byte)
}

// OnText implements Handler.
func (h HandlerFuncs) OnText(text string) {
	if h.Text != nil {
		h.Text(text)
	}
}

// OnBinary implements Handler.
func (h HandlerFuncs) OnBinary(data []byte) {
	if h.Binary != nil {
		h.Binary(data)
	}
}

// Channel is one wrapped data channel.
type Channel struct {
	dc     transport.DataChannel
	logger *zap.Logger

	mu      sync.RWMutex
	handler Handler

	opened    chan struct{}
	closed    chan struct{}
	openOnce  sync.Once
	closeOnce sync.Once
}

// New wraps dc and takes over its message, open and close handlers.
func New(dc transport.DataChannel, logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Channel{
		dc:     dc,
		logger: logger.With(zap.String("component", "datachannel"), zap.String("label", dc.Label())),
		opened: make(chan struct{}),
		closed: make(chan struct{}),
	}
	dc.OnMessage(c.dispatch)
	dc.OnOpen(c.markOpen)
	dc.OnClose(c.markClosed)
	if dc.ReadyState() == transport.DataChannelStateOpen {
		c.markOpen()
	}
	return c
}

// Bind installs the handler pair. Only the first call succeeds.
func (c *Channel) Bind(h Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handler != nil {
		return ErrHandlerBound
	}
	c.handler = h
	return nil
}

// Label returns the channel label.
func (c *Channel) Label() string {
	return c.dc.Label()
}

// ID returns the channel id once it is assigned.
func (c *Channel) ID() *uint16 {
	return c.dc.ID()
}

// IsOpen reports whether the channel is open. Connecting, closing and closed
// all count as not open.
func (c *Channel) IsOpen() bool {
	return c.dc.ReadyState() == transport.DataChannelStateOpen
}

// SendText sends a text frame. The channel state is not checked here.
func (c *Channel) SendText(text string) error {
	return c.dc.SendText(text)
}

// SendBinary sends a binary frame. The channel state is not checked here.
func (c *Channel) SendBinary(data []byte) error {
	return c.dc.Send(data)
}

// WaitOpen blocks until the channel opens, closes, or ctx is done.
func (c *Channel) WaitOpen(ctx context.Context) error {
	if c.IsOpen() {
		return nil
	}
	select {
	case <-c.opened:
		return nil
	case <-c.closed:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the underlying channel.
func (c *Channel) Close() error {
	err := c.dc.Close()
	c.markClosed()
	return err
}

func (c *Channel) dispatch(msg transport.Message) {
	c.mu.RLock()
	h := c.handler
	c.mu.RUnlock()

	switch {
	case msg.IsString && utf8.Valid(msg.Data):
		if h == nil {
			c.logger.Debug("text message dropped, no handler bound")
			return
		}
		h.OnText(string(msg.Data))
	case !msg.IsString:
		if h == nil {
			c.logger.Debug("binary message dropped, no handler bound")
			return
		}
		h.OnBinary(msg.Data)
	default:
		c.logger.Error("unrecognized message format received", zap.Int("size", len(msg.Data)))
	}
}

func (c *Channel) markOpen() {
	c.openOnce.Do(func() {
		close(c.opened)
	})
}

func (c *Channel) markClosed() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}
