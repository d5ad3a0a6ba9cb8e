package bootstrap

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
	"peerlink/signaling"
)

const maxLineSize = 1 << 20

// Console exchanges envelopes as JSON lines, for copy and paste between two
// terminals.
type Console struct {
	w      io.Writer
	mu     sync.Mutex
	logger *zap.Logger

	inbox     *inbox
	closeOnce sync.Once
}

// NewConsole reads envelopes from r and writes them to w.
func NewConsole(r io.Reader, w io.Writer, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Console{
		w:      w,
		logger: logger.With(zap.String("component", "bootstrap"), zap.String("exchanger", "console")),
		inbox:  newInbox(),
	}
	go c.read(r)
	return c
}

// Send writes env as one line.
func (c *Console) Send(ctx context.Context, env signaling.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := signaling.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", env.Role, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.w, "%s\n", payload); err != nil {
		return fmt.Errorf("failed to write %s: %w", env.Role, err)
	}
	return nil
}

// Receive returns the next envelope read. Malformed lines are skipped. After
// the reader ends it returns io.EOF.
func (c *Console) Receive(ctx context.Context) (signaling.Envelope, error) {
	return c.inbox.receive(ctx)
}

// Close stops delivering envelopes. It does not close the reader.
func (c *Console) Close() error {
	c.closeOnce.Do(func() {
		close(c.inbox.done)
	})
	return nil
}

func (c *Console) read(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		env, err := signaling.Parse([]byte(line))
		if err != nil {
			c.logger.Warn("malformed envelope skipped", zap.Error(err))
			continue
		}
		if !c.inbox.push(received{env: env}) {
			return
		}
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	c.inbox.push(received{err: err})
}
