package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"peerlink/pkg/socket"
)

// ErrAlreadyAccepted is returned to a second peer dialing a Listener.
var ErrAlreadyAccepted = errors.New("peer already accepted")

// Listener accepts the WebSocket connection of exactly one peer, for a
// direct exchange without any intermediary.
type Listener struct {
	server *http.Server
	conf   ListenConfig
	logger *zap.Logger

	taken    atomic.Bool
	accepted chan *WebSocket
}

// NewListener creates a Listener on config.Port.
func NewListener(config ListenConfig, logger *zap.Logger) *Listener {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Listener{
		conf:     config,
		logger:   logger.With(zap.String("component", "bootstrap"), zap.String("exchanger", "listener")),
		accepted: make(chan *WebSocket, 1),
	}
	l.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		ReadHeaderTimeout: 2 * time.Second,
		Handler:           l.Handler(),
	}
	return l
}

// Handler upgrades the first request to a WebSocket exchanger.
func (l *Listener) Handler() http.Handler {
	return Set(http.HandlerFunc(l.accept), NewLogger(l.logger))
}

// Start serves until Shutdown.
func (l *Listener) Start() error {
	var err error
	if l.conf.CertFile == "" || l.conf.KeyFile == "" {
		l.logger.Info("listening without TLS", zap.Int("port", l.conf.Port))
		err = l.server.ListenAndServe()
	} else {
		l.logger.Info("listening with TLS", zap.Int("port", l.conf.Port))
		err = l.server.ListenAndServeTLS(l.conf.CertFile, l.conf.KeyFile)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start listener: %w", err)
	}
	return nil
}

// Accept waits for the peer to connect.
func (l *Listener) Accept(ctx context.Context) (*WebSocket, error) {
	select {
	case ws := <-l.accepted:
		return ws, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown stops accepting. An accepted exchanger stays open.
func (l *Listener) Shutdown(ctx context.Context) error {
	return l.server.Shutdown(ctx)
}

func (l *Listener) accept(w http.ResponseWriter, r *http.Request) {
	if !l.taken.CompareAndSwap(false, true) {
		http.Error(w, ErrAlreadyAccepted.Error(), http.StatusConflict)
		return
	}
	s, err := socket.Upgrade(w, r)
	if err != nil {
		l.logger.Warn("failed to create websocket", zap.Error(err))
		l.taken.Store(false)
		return
	}
	l.logger.Info("peer connected", zap.String("remote", r.RemoteAddr))
	l.accepted <- NewWebSocket(s, l.logger)
}
