package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"peerlink/bootstrap"
	"peerlink/datachannel"
	"peerlink/event"
	"peerlink/metric"
	"peerlink/rtc"
	"peerlink/session"
	"peerlink/signaling"
	"peerlink/transport"
)

var (
	// ErrNoDescription is returned when the session produced no SDP.
	ErrNoDescription = errors.New("no local description")

	// ErrUnexpectedRole is returned when the bootstrap peer sends the wrong
	// kind of description.
	ErrUnexpectedRole = errors.New("unexpected description role")

	// ErrConnectionLost is returned when the connection fails or closes.
	ErrConnectionLost = errors.New("connection lost")
)

func runPeer(ctx context.Context, config Config, logger *zap.Logger, metrics *metric.Metrics, in io.Reader, out io.Writer) error {
	ts, err := rtc.New(config.RTC, logger)
	if err != nil {
		return err
	}
	opts := []session.Option{session.WithLogger(logger)}
	if metrics != nil {
		opts = append(opts, session.WithRecorder(metrics))
	}
	s, err := session.New(ts, config.Session, opts...)
	if err != nil {
		_ = ts.Close()
		return err
	}
	defer func() {
		if err := s.CloseConnection(); err != nil {
			logger.Warn("failed to close session", zap.Error(err))
		}
	}()

	events := s.Subscribe(16)
	defer events.Close()
	if err := s.ApplicationChannel().Bind(datachannel.HandlerFuncs{
		Text: func(text string) {
			fmt.Fprintf(out, "peer> %s\n", text)
		},
	}); err != nil {
		return fmt.Errorf("failed to bind application channel: %w", err)
	}

	chat := make(chan string)
	var ex bootstrap.Exchanger
	var boot *io.PipeWriter
	switch config.Bootstrap {
	case BootstrapWebSocket:
		if ex, err = bootstrap.DialWebSocket(ctx, config.PeerURL, logger); err != nil {
			return err
		}
	case BootstrapListen:
		if ex, err = listen(ctx, config.Listen, logger); err != nil {
			return err
		}
	default:
		pr, pw := io.Pipe()
		boot = pw
		ex = bootstrap.NewConsole(pr, out, logger)
		fmt.Fprintln(out, "paste the other peer's description line here")
	}
	go pumpLines(ctx, in, boot, chat)

	err = handshake(ctx, s, ex, config.Role)
	_ = ex.Close()
	if boot != nil {
		_ = boot.Close()
	}
	if err != nil {
		return err
	}

	if err := s.ApplicationChannel().WaitOpen(ctx); err != nil {
		return fmt.Errorf("failed to open application channel: %w", err)
	}
	logger.Info("connected", zap.String("session", s.ID()), zap.String("role", config.Role))
	fmt.Fprintln(out, "connected, type to chat")
	return chatLoop(ctx, s, events, chat, logger)
}

// listen waits for the other peer to dial in and stops listening once it has.
func listen(ctx context.Context, config bootstrap.ListenConfig, logger *zap.Logger) (bootstrap.Exchanger, error) {
	l := bootstrap.NewListener(config, logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- l.Start()
	}()
	defer func() {
		if err := l.Shutdown(context.Background()); err != nil {
			logger.Warn("failed to stop listener", zap.Error(err))
		}
	}()

	acceptCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := <-errCh; err != nil {
			logger.Error("listener stopped", zap.Error(err))
			cancel()
		}
	}()
	ws, err := l.Accept(acceptCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to accept peer: %w", err)
	}
	return ws, nil
}

// handshake exchanges the first offer and answer over ex.
func handshake(ctx context.Context, s *session.Session, ex bootstrap.Exchanger, role string) error {
	if role == RoleOffer {
		offer, err := s.ConnectAsOffer(ctx)
		if err != nil {
			return err
		}
		if offer == "" {
			return fmt.Errorf("%w: offer", ErrNoDescription)
		}
		if err := ex.Send(ctx, signaling.Envelope{Role: signaling.RoleOffer, SDP: offer}); err != nil {
			return err
		}
		env, err := receiveRole(ctx, ex, signaling.RoleAnswer)
		if err != nil {
			return err
		}
		return s.SetRemoteAnswer(ctx, env.SDP)
	}

	env, err := receiveRole(ctx, ex, signaling.RoleOffer)
	if err != nil {
		return err
	}
	answer, err := s.ConnectAsAnswer(ctx, env.SDP)
	if err != nil {
		return err
	}
	if answer == "" {
		return fmt.Errorf("%w: answer", ErrNoDescription)
	}
	return ex.Send(ctx, signaling.Envelope{Role: signaling.RoleAnswer, SDP: answer})
}

func receiveRole(ctx context.Context, ex bootstrap.Exchanger, want signaling.Role) (signaling.Envelope, error) {
	env, err := ex.Receive(ctx)
	if err != nil {
		return env, fmt.Errorf("failed to receive %s: %w", want, err)
	}
	if env.Role != want {
		return env, fmt.Errorf("%w: got %s, want %s", ErrUnexpectedRole, env.Role, want)
	}
	return env, nil
}

// pumpLines feeds lines of in to boot until boot is closed, then to chat.
func pumpLines(ctx context.Context, in io.Reader, boot *io.PipeWriter, chat chan<- string) {
	defer close(chat)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if boot != nil {
			if _, err := io.WriteString(boot, line+"\n"); err == nil {
				continue
			}
			boot = nil
		}
		select {
		case chat <- line:
		case <-ctx.Done():
			return
		}
	}
	if boot != nil {
		_ = boot.Close()
	}
}

func chatLoop(ctx context.Context, s *session.Session, events *event.Subscription[session.Event], chat <-chan string, logger *zap.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-chat:
			if !ok {
				return nil
			}
			if err := s.SendApplicationText(line); err != nil {
				logger.Warn("failed to send chat message", zap.Error(err))
			}
		case ev := <-events.Receive():
			if ev.Type != session.EventStateChanged {
				continue
			}
			logger.Info("connection state changed", zap.Stringer("state", ev.State))
			if ev.State == transport.ConnectionStateFailed || ev.State == transport.ConnectionStateClosed {
				return fmt.Errorf("%w: %s", ErrConnectionLost, ev.State)
			}
		case <-events.Done():
			return nil
		}
	}
}
