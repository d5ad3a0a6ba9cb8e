package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"peerlink/pkg/socket"
	"peerlink/signaling"
)

// WebSocket exchanges envelopes over a WebSocket, one JSON message each.
type WebSocket struct {
	sock   socket.Socket
	logger *zap.Logger

	inbox     *inbox
	closeOnce sync.Once
	closeErr  error
}

// DialWebSocket connects to the peer or rendezvous service at url.
func DialWebSocket(ctx context.Context, url string, logger *zap.Logger) (*WebSocket, error) {
	sock, err := socket.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	return NewWebSocket(sock, logger), nil
}

// NewWebSocket exchanges envelopes over sock and starts reading from it.
func NewWebSocket(sock socket.Socket, logger *zap.Logger) *WebSocket {
	if logger == nil {
		logger = zap.NewNop()
	}
	ws := &WebSocket{
		sock:   sock,
		logger: logger.With(zap.String("component", "bootstrap"), zap.String("exchanger", "websocket")),
		inbox:  newInbox(),
	}
	go ws.read()
	return ws
}

// Send writes env as one message.
func (ws *WebSocket) Send(ctx context.Context, env signaling.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ws.sock.WriteJSON(env); err != nil {
		return fmt.Errorf("failed to send %s: %w", env.Role, err)
	}
	return nil
}

// Receive returns the next envelope. Malformed messages are skipped.
func (ws *WebSocket) Receive(ctx context.Context) (signaling.Envelope, error) {
	return ws.inbox.receive(ctx)
}

// Close closes the socket.
func (ws *WebSocket) Close() error {
	ws.closeOnce.Do(func() {
		close(ws.inbox.done)
		ws.closeErr = ws.sock.Close()
	})
	return ws.closeErr
}

func (ws *WebSocket) read() {
	for {
		var raw json.RawMessage
		if err := ws.sock.ReadJSON(&raw); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				ws.logger.Warn("malformed message skipped", zap.Error(err))
				continue
			}
			ws.inbox.push(received{err: fmt.Errorf("failed to read envelope: %w", err)})
			return
		}
		env, err := signaling.Parse(raw)
		if err != nil {
			ws.logger.Warn("malformed envelope skipped", zap.Error(err))
			continue
		}
		if !ws.inbox.push(received{env: env}) {
			return
		}
	}
}
