// Package socket provides a JSON message socket over WebSocket.
package socket

// Socket is a bidirectional JSON message connection.
//
//go:generate mockgen -destination=mock_socket.go -package=socket . Socket
type Socket interface {
	Close() error
	WriteJSON(data any) error
	ReadJSON(v any) error
}
