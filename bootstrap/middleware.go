package bootstrap

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Interceptor is a middleware interface.
type Interceptor interface {
	Intercept(next http.Handler) http.Handler
}

// Set applies multiple middleware to a handler. The last one passed is the
// outermost.
func Set(h http.Handler, m ...Interceptor) http.Handler {
	for _, i := range m {
		h = i.Intercept(h)
	}
	return h
}

// Logger logs requests and their status.
type Logger struct {
	logger *zap.Logger
}

// NewLogger creates a new Logger middleware.
func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger}
}

type logWriter struct {
	http.ResponseWriter
	statusCode int
}

func (l *logWriter) WriteHeader(code int) {
	l.statusCode = code
	l.ResponseWriter.WriteHeader(code)
}

// Hijack hijacks the connection. This is necessary for using websockets.
func (l *logWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := l.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	l.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Unwrap returns the wrapped writer.
func (l *logWriter) Unwrap() http.ResponseWriter {
	return l.ResponseWriter
}

// Intercept logs the request and response.
func (l *Logger) Intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := logWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(&rw, r)
		fields := []zap.Field{
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.statusCode),
			zap.Duration("elapsed", time.Since(start)),
		}
		if rw.statusCode >= 400 {
			l.logger.Warn("request failed", fields...)
			return
		}
		l.logger.Debug("request served", fields...)
	})
}
