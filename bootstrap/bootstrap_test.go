package bootstrap_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"peerlink/bootstrap"
	"peerlink/pkg/socket"
	"peerlink/signaling"
)

var (
	_ bootstrap.Exchanger = (*bootstrap.Console)(nil)
	_ bootstrap.Exchanger = (*bootstrap.WebSocket)(nil)
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestConsoleSend(t *testing.T) {
	var out strings.Builder
	c := bootstrap.NewConsole(strings.NewReader(""), &out, nil)
	defer func() { _ = c.Close() }()

	require.NoError(t, c.Send(testContext(t), signaling.Envelope{Role: signaling.RoleOffer, SDP: "v=0"}))
	require.NoError(t, c.Send(testContext(t), signaling.Envelope{Role: signaling.RoleAnswer, SDP: "v=1"}))

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"offerOrAnswer":0,"sdp":"v=0"}`, lines[0])
	assert.JSONEq(t, `{"offerOrAnswer":1,"sdp":"v=1"}`, lines[1])
}

func TestConsoleReceive(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	input := strings.Join([]string{
		`{"offerOrAnswer":0,"sdp":"v=0"}`,
		``,
		`not json`,
		`{"offerOrAnswer":7,"sdp":"v=0"}`,
		`{"offerOrAnswer":1,"sdp":"v=1"}`,
	}, "\n")
	c := bootstrap.NewConsole(strings.NewReader(input), io.Discard, zap.New(core))
	defer func() { _ = c.Close() }()
	ctx := testContext(t)

	env, err := c.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, signaling.Envelope{Role: signaling.RoleOffer, SDP: "v=0"}, env)

	env, err = c.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, signaling.Envelope{Role: signaling.RoleAnswer, SDP: "v=1"}, env)

	_, err = c.Receive(ctx)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, logs.FilterMessage("malformed envelope skipped").Len())
}

func TestConsoleReceiveHonoursContext(t *testing.T) {
	r, w := io.Pipe()
	defer func() { _ = w.Close() }()
	c := bootstrap.NewConsole(r, io.Discard, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, c.Close())
	_, err = c.Receive(context.Background())
	assert.ErrorIs(t, err, bootstrap.ErrClosed)
}

func TestWebSocketThroughListener(t *testing.T) {
	l := bootstrap.NewListener(bootstrap.ListenConfig{Port: bootstrap.DefaultPort}, nil)
	srv := httptest.NewServer(l.Handler())
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	ctx := testContext(t)

	offerer, err := bootstrap.DialWebSocket(ctx, url, nil)
	require.NoError(t, err)
	defer func() { _ = offerer.Close() }()

	offer := signaling.Envelope{Role: signaling.RoleOffer, SDP: "v=0\r\no=- 1 1 IN IP4 0.0.0.0\r\n"}
	require.NoError(t, offerer.Send(ctx, offer))

	answerer, err := l.Accept(ctx)
	require.NoError(t, err)
	defer func() { _ = answerer.Close() }()

	got, err := answerer.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, offer, got)

	answer := signaling.Envelope{Role: signaling.RoleAnswer, SDP: "v=0"}
	require.NoError(t, answerer.Send(ctx, answer))
	got, err = offerer.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, answer, got)

	_, err = bootstrap.DialWebSocket(ctx, url, nil)
	assert.Error(t, err, "second peer must be rejected")

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestListenConfigValidate(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certFile, []byte("cert"), 0o600))
	require.NoError(t, os.WriteFile(keyFile, []byte("key"), 0o600))

	tests := []struct {
		name    string
		config  bootstrap.ListenConfig
		wantErr error
	}{
		{
			name:   "given default port without tls when validated then it passes",
			config: bootstrap.ListenConfig{Port: bootstrap.DefaultPort},
		},
		{
			name:   "given existing cert and key when validated then it passes",
			config: bootstrap.ListenConfig{Port: 8080, CertFile: certFile, KeyFile: keyFile},
		},
		{
			name:    "given zero port when validated then port is rejected",
			config:  bootstrap.ListenConfig{Port: 0},
			wantErr: bootstrap.ErrInvalidPort,
		},
		{
			name:    "given missing cert when validated then cert is rejected",
			config:  bootstrap.ListenConfig{Port: 8080, CertFile: "/non/existent/cert.pem", KeyFile: keyFile},
			wantErr: bootstrap.ErrInvalidCertFile,
		},
		{
			name:    "given cert without key when validated then key is rejected",
			config:  bootstrap.ListenConfig{Port: 8080, CertFile: certFile},
			wantErr: bootstrap.ErrInvalidKeyFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestWebSocketSkipsMalformedEnvelope(t *testing.T) {
	ctrl := gomock.NewController(t)
	sock := socket.NewMockSocket(ctrl)
	core, logs := observer.New(zapcore.WarnLevel)

	readErr := errors.New("connection reset")
	gomock.InOrder(
		sock.EXPECT().ReadJSON(gomock.Any()).DoAndReturn(func(v any) error {
			*v.(*json.RawMessage) = json.RawMessage(`{"sdp":"v=0"}`)
			return nil
		}),
		sock.EXPECT().ReadJSON(gomock.Any()).DoAndReturn(func(v any) error {
			*v.(*json.RawMessage) = json.RawMessage(`{"offerOrAnswer":1,"sdp":"v=1"}`)
			return nil
		}),
		sock.EXPECT().ReadJSON(gomock.Any()).Return(readErr),
	)
	sock.EXPECT().Close().Return(nil)

	ws := bootstrap.NewWebSocket(sock, zap.New(core))
	ctx := testContext(t)

	env, err := ws.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, signaling.Envelope{Role: signaling.RoleAnswer, SDP: "v=1"}, env)

	_, err = ws.Receive(ctx)
	assert.ErrorIs(t, err, readErr)
	assert.Equal(t, 1, logs.FilterMessage("malformed envelope skipped").Len())

	require.NoError(t, ws.Close())
	require.NoError(t, ws.Close())
}

func TestWebSocketSendFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	sock := socket.NewMockSocket(ctrl)
	block := make(chan struct{})
	sock.EXPECT().ReadJSON(gomock.Any()).DoAndReturn(func(any) error {
		<-block
		return io.EOF
	}).AnyTimes()
	sock.EXPECT().WriteJSON(gomock.Any()).Return(errors.New("broken pipe"))
	sock.EXPECT().Close().DoAndReturn(func() error {
		close(block)
		return nil
	})

	ws := bootstrap.NewWebSocket(sock, nil)
	err := ws.Send(testContext(t), signaling.Envelope{Role: signaling.RoleOffer, SDP: "v=0"})
	assert.ErrorContains(t, err, "failed to send offer")
	require.NoError(t, ws.Close())
}
