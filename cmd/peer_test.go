package cmd

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"peerlink/bootstrap"
	"peerlink/session"
	"peerlink/signaling"
	"peerlink/transport/transporttest"
)

func newFakeSession(t *testing.T) (*session.Session, *transporttest.Session) {
	t.Helper()
	ts := transporttest.NewSession()
	s, err := session.New(ts, session.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.CloseConnection() })
	return s, ts
}

func TestHandshakeOverConsole(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	offerer, offerTS := newFakeSession(t)
	answerer, answerTS := newFakeSession(t)

	// Each console writes into the pipe the other one reads.
	toAnswerer, fromOfferer := io.Pipe()
	toOfferer, fromAnswerer := io.Pipe()
	offerEx := bootstrap.NewConsole(toOfferer, fromOfferer, nil)
	answerEx := bootstrap.NewConsole(toAnswerer, fromAnswerer, nil)
	defer func() {
		_ = offerEx.Close()
		_ = answerEx.Close()
		_ = fromOfferer.Close()
		_ = fromAnswerer.Close()
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- handshake(ctx, answerer, answerEx, RoleAnswer)
	}()
	require.NoError(t, handshake(ctx, offerer, offerEx, RoleOffer))
	require.NoError(t, <-errCh)

	remotes := answerTS.RemoteDescriptions()
	require.Len(t, remotes, 1)
	assert.Contains(t, remotes[0].SDP, "s=offer-1")

	remotes = offerTS.RemoteDescriptions()
	require.Len(t, remotes, 1)
	assert.Contains(t, remotes[0].SDP, "s=answer-1")
	assert.Equal(t, signaling.StateNegotiated, offerer.Negotiator().State())
	assert.Equal(t, signaling.StateNegotiated, answerer.Negotiator().State())
}

func TestHandshakeRejectsUnexpectedRole(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	answerer, _ := newFakeSession(t)
	ex := bootstrap.NewConsole(strings.NewReader(`{"offerOrAnswer":1,"sdp":"v=0"}`+"\n"), io.Discard, nil)
	defer func() { _ = ex.Close() }()

	err := handshake(ctx, answerer, ex, RoleAnswer)
	assert.ErrorIs(t, err, ErrUnexpectedRole)
}

func TestHandshakeFailsOnClosedInput(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	offerer, _ := newFakeSession(t)
	ex := bootstrap.NewConsole(strings.NewReader(""), io.Discard, nil)
	defer func() { _ = ex.Close() }()

	err := handshake(ctx, offerer, ex, RoleOffer)
	assert.ErrorIs(t, err, io.EOF)
}

func TestPumpLines(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	in, feed := io.Pipe()
	pr, pw := io.Pipe()
	chat := make(chan string)
	go pumpLines(ctx, in, pw, chat)

	lines := make(chan string, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := pr.Read(buf)
		lines <- string(buf[:n])
	}()

	_, err := io.WriteString(feed, "bootstrap line\n")
	require.NoError(t, err)
	assert.Equal(t, "bootstrap line\n", <-lines)

	require.NoError(t, pw.Close())
	go func() {
		_, _ = io.WriteString(feed, "hello\n")
		_ = feed.Close()
	}()
	assert.Equal(t, "hello", <-chat)

	_, ok := <-chat
	assert.False(t, ok, "chat closes at end of input")
}
