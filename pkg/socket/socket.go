// Package socket provides a JSON message socket over WebSocket.
package socket

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// WebSocket wraps the gorilla/websocket connection. Writes are serialized.
type WebSocket struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Upgrade creates a new WebSocket connection by upgrading the HTTP request.
func Upgrade(w http.ResponseWriter, r *http.Request) (*WebSocket, error) {
	ug := websocket.Upgrader{
		CheckOrigin: func(_ *http.Request) bool {
			return true
		},
	}

	conn, err := ug.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}
	return &WebSocket{conn: conn}, nil
}

// Dial opens a WebSocket connection to url.
func Dial(ctx context.Context, url string) (*WebSocket, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return &WebSocket{conn: conn}, nil
}

// Close closes the WebSocket connection.
func (s *WebSocket) Close() error {
	return s.conn.Close()
}

// WriteJSON sends data as a JSON text message.
func (s *WebSocket) WriteJSON(data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(data)
}

// ReadJSON reads a JSON message from the WebSocket connection and unmarshals it into v.
func (s *WebSocket) ReadJSON(v any) error {
	return s.conn.ReadJSON(v)
}
