package signaling_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"peerlink/datachannel"
	"peerlink/event"
	"peerlink/signaling"
	"peerlink/transport"
	"peerlink/transport/transporttest"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

type peer struct {
	session    *transporttest.Session
	channel    *transporttest.DataChannel
	negotiator *signaling.Negotiator
	logs       *observer.ObservedLogs
}

func newPeer(t *testing.T, mode signaling.ICEMode, opts ...signaling.Option) *peer {
	t.Helper()
	return newPeerOn(t, transporttest.NewSession(), mode, opts...)
}

func newPeerOn(t *testing.T, session *transporttest.Session, mode signaling.ICEMode, opts ...signaling.Option) *peer {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	dc := transporttest.NewDataChannel("signaling")

	n, err := signaling.New(session, datachannel.New(dc, logger), mode, append([]signaling.Option{signaling.WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(n.Close)
	return &peer{session: session, channel: dc, negotiator: n, logs: logs}
}

type result struct {
	sdp string
	err error
}

func TestCreateOfferEagerWaitsForGathering(t *testing.T) {
	gate := make(chan struct{})
	session := transporttest.NewSession()
	session.Candidates = []string{"c1"}
	session.Gate = gate
	p := newPeerOn(t, session, signaling.ICEModeEager)

	done := make(chan result, 1)
	go func() {
		sdp, err := p.negotiator.CreateOffer(context.Background())
		done <- result{sdp, err}
	}()

	assert.Never(t, func() bool { return len(done) > 0 }, 100*time.Millisecond, tick,
		"offer must not return before gathering completes")

	close(gate)

	var r result
	require.Eventually(t, func() bool {
		select {
		case r = <-done:
			return true
		default:
			return false
		}
	}, waitFor, tick)
	require.NoError(t, r.err)
	assert.Contains(t, r.sdp, "a=candidate:c1", "sdp must be read after the end of gathering")
	assert.Equal(t, signaling.StateOfferCreated, p.negotiator.State())
}

func TestCreateOfferEagerResolvesImmediately(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, p *peer)
	}{
		{
			name: "given connected transport when offer is created then it returns without waiting",
			setup: func(t *testing.T, p *peer) {
				p.session.SetConnectionState(transport.ConnectionStateConnected)
			},
		},
		{
			name: "given completed gathering when offer is created again then it returns without waiting",
			setup: func(t *testing.T, p *peer) {
				_, err := p.negotiator.CreateOffer(context.Background())
				require.NoError(t, err)
				require.Equal(t, transport.GatheringStateComplete, p.session.ICEGatheringState())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPeer(t, signaling.ICEModeEager)
			tt.setup(t, p)

			// Hold any new gathering run; a wait would now block until the context ends.
			gate := make(chan struct{})
			t.Cleanup(func() { close(gate) })
			p.session.Gate = gate

			ctx, cancel := context.WithTimeout(context.Background(), waitFor)
			defer cancel()
			sdp, err := p.negotiator.CreateOffer(ctx)
			require.NoError(t, err)
			assert.NotEmpty(t, sdp)
		})
	}
}

func TestCreateOfferIncrementalDoesNotWait(t *testing.T) {
	gate := make(chan struct{})
	t.Cleanup(func() { close(gate) })
	session := transporttest.NewSession()
	session.Candidates = []string{"c1"}
	session.Gate = gate
	p := newPeerOn(t, session, signaling.ICEModeIncremental)

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	sdp, err := p.negotiator.CreateOffer(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v=0\r\ns=offer-1\r\n", sdp)
	assert.NotContains(t, sdp, "a=candidate")
}

func TestCreateOfferEmptySentinel(t *testing.T) {
	session := transporttest.NewSession()
	session.DropLocalDescription = true
	p := newPeerOn(t, session, signaling.ICEModeIncremental)

	sdp, err := p.negotiator.CreateOffer(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sdp)
	assert.Equal(t, 1, p.logs.FilterMessage("local description unavailable after set").Len())
	assert.Equal(t, signaling.StateIdle, p.negotiator.State())
}

func TestEngineFailuresPropagate(t *testing.T) {
	errEngine := errors.New("engine failure")

	tests := []struct {
		name   string
		expect func(m *transport.MockSession)
		call   func(n *signaling.Negotiator) error
	}{
		{
			name: "given failing offer creation when offer is created then error propagates",
			expect: func(m *transport.MockSession) {
				m.EXPECT().CreateOffer().Return(transport.Description{}, errEngine)
			},
			call: func(n *signaling.Negotiator) error {
				_, err := n.CreateOffer(context.Background())
				return err
			},
		},
		{
			name: "given failing local set when answer is created then error propagates",
			expect: func(m *transport.MockSession) {
				desc := transport.Description{Type: transport.SDPTypeAnswer, SDP: "v=0"}
				m.EXPECT().CreateAnswer().Return(desc, nil)
				m.EXPECT().SetLocalDescription(desc).Return(errEngine)
			},
			call: func(n *signaling.Negotiator) error {
				_, err := n.CreateAnswer(context.Background())
				return err
			},
		},
		{
			name: "given rejected remote offer when installed then error propagates",
			expect: func(m *transport.MockSession) {
				m.EXPECT().SetRemoteDescription(transport.Description{Type: transport.SDPTypeOffer, SDP: "bad"}).Return(errEngine)
			},
			call: func(n *signaling.Negotiator) error {
				return n.SetRemoteOffer(context.Background(), "bad")
			},
		},
		{
			name: "given rejected remote answer when installed then error propagates",
			expect: func(m *transport.MockSession) {
				m.EXPECT().SetRemoteDescription(transport.Description{Type: transport.SDPTypeAnswer, SDP: "bad"}).Return(errEngine)
			},
			call: func(n *signaling.Negotiator) error {
				return n.SetRemoteAnswer(context.Background(), "bad")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			m := transport.NewMockSession(ctrl)
			tt.expect(m)

			n, err := signaling.New(m, datachannel.New(transporttest.NewDataChannel("signaling"), nil), signaling.ICEModeIncremental)
			require.NoError(t, err)
			defer n.Close()

			assert.ErrorIs(t, tt.call(n), errEngine)
		})
	}
}

func TestEagerEngineFailureReleasesCandidates(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := transport.NewMockSession(ctrl)
	feed := event.NewFeed[*transport.Candidate]()
	m.EXPECT().SubscribeCandidates().Return(feed.Subscribe(1))
	m.EXPECT().CreateOffer().Return(transport.Description{}, errors.New("no media"))

	n, err := signaling.New(m, datachannel.New(transporttest.NewDataChannel("signaling"), nil), signaling.ICEModeEager)
	require.NoError(t, err)
	defer n.Close()

	_, err = n.CreateOffer(context.Background())
	assert.Error(t, err)
	assert.Zero(t, feed.Len())
}

func TestSignalingRoundTrip(t *testing.T) {
	a := newPeer(t, signaling.ICEModeIncremental)
	b := newPeer(t, signaling.ICEModeIncremental)
	a.channel.Open()

	require.NoError(t, a.negotiator.ExecuteSignalingAsOffer(context.Background()))

	sent := a.channel.SentTexts()
	require.Len(t, sent, 1)
	b.channel.DeliverText(sent[0])

	remotes := b.session.RemoteDescriptions()
	require.Len(t, remotes, 1)
	assert.Equal(t, transport.SDPTypeOffer, remotes[0].Type)
	assert.Equal(t, a.session.LocalDescription().SDP, remotes[0].SDP)
	assert.Equal(t, signaling.StateRemoteOfferSet, b.negotiator.State())
	assert.Empty(t, b.channel.SentTexts(), "offer must not be answered without auto answer")
}

func TestAutoAnswer(t *testing.T) {
	a := newPeer(t, signaling.ICEModeEager)
	b := newPeer(t, signaling.ICEModeEager, signaling.WithAutoAnswer(true))
	a.channel.Open()
	b.channel.Open()

	require.NoError(t, a.negotiator.ExecuteSignalingAsOffer(context.Background()))
	b.channel.DeliverText(a.channel.SentTexts()[0])

	answers := b.channel.SentTexts()
	require.Len(t, answers, 1)
	env, err := signaling.Parse([]byte(answers[0]))
	require.NoError(t, err)
	assert.Equal(t, signaling.RoleAnswer, env.Role)
	assert.Equal(t, signaling.StateNegotiated, b.negotiator.State())

	a.channel.DeliverText(answers[0])
	assert.Equal(t, signaling.StateNegotiated, a.negotiator.State())
	remotes := a.session.RemoteDescriptions()
	require.Len(t, remotes, 1)
	assert.Equal(t, env.SDP, remotes[0].SDP)
}

func TestHandleSignalingMessageMalformed(t *testing.T) {
	p := newPeer(t, signaling.ICEModeIncremental)

	err := p.negotiator.HandleSignalingMessage(context.Background(), `{"offerOrAnswer":5,"sdp":"x"}`)
	assert.ErrorIs(t, err, signaling.ErrUnknownRole)

	p.channel.DeliverText("not json")
	assert.Equal(t, 1, p.logs.FilterMessage("failed to handle signaling message").Len())
	assert.Empty(t, p.session.RemoteDescriptions())
}

func TestHandleNegotiationNeeded(t *testing.T) {
	tests := []struct {
		name       string
		arm        bool
		wantOffers int
		wantSent   int
	}{
		{
			name:       "given unarmed negotiator when negotiation is needed then no offer is made",
			wantOffers: 0,
			wantSent:   0,
		},
		{
			name:       "given armed negotiator when negotiation is needed then one offer is sent",
			arm:        true,
			wantOffers: 1,
			wantSent:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPeer(t, signaling.ICEModeIncremental)
			p.channel.Open()
			if tt.arm {
				p.negotiator.EnableAutoReSignaling()
				p.negotiator.EnableAutoReSignaling()
			}

			require.NoError(t, p.negotiator.HandleNegotiationNeeded(context.Background()))
			assert.Equal(t, tt.arm, p.negotiator.AutoReSignaling())
			assert.Equal(t, tt.wantOffers, p.session.OfferCount())
			assert.Len(t, p.channel.SentTexts(), tt.wantSent)
		})
	}
}

func TestExecuteSignalingAsOfferChannelClosed(t *testing.T) {
	p := newPeer(t, signaling.ICEModeIncremental)

	require.NoError(t, p.negotiator.ExecuteSignalingAsOffer(context.Background()))
	assert.Equal(t, 1, p.session.OfferCount())
	assert.Empty(t, p.channel.SentTexts())
	assert.Equal(t, 1, p.logs.FilterMessage("signaling channel not open, description dropped").Len())
}

func TestExecuteSignalingAsOfferSendFailure(t *testing.T) {
	p := newPeer(t, signaling.ICEModeIncremental)
	p.channel.Open()
	p.channel.SendErr = errors.New("sctp closed")

	err := p.negotiator.ExecuteSignalingAsOffer(context.Background())
	assert.ErrorIs(t, err, p.channel.SendErr)
}

func TestNegotiationsAreSerialized(t *testing.T) {
	gate := make(chan struct{})
	session := transporttest.NewSession()
	session.Gate = gate
	p := newPeerOn(t, session, signaling.ICEModeEager)

	var wg sync.WaitGroup
	wg.Add(1)
	var first result
	go func() {
		defer wg.Done()
		first.sdp, first.err = p.negotiator.CreateOffer(context.Background())
	}()
	require.Eventually(t, func() bool { return session.OfferCount() == 1 }, waitFor, tick)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := p.negotiator.CreateOffer(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, session.OfferCount(), "second call must wait for the slot")

	close(gate)
	wg.Wait()
	require.NoError(t, first.err)
	assert.NotEmpty(t, first.sdp)

	_, err = p.negotiator.CreateOffer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, session.OfferCount())
}

func TestClose(t *testing.T) {
	gate := make(chan struct{})
	t.Cleanup(func() { close(gate) })
	session := transporttest.NewSession()
	session.Gate = gate
	p := newPeerOn(t, session, signaling.ICEModeEager)

	done := make(chan error, 1)
	go func() {
		_, err := p.negotiator.CreateOffer(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return session.OfferCount() == 1 }, waitFor, tick)

	p.negotiator.Close()
	p.negotiator.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, signaling.ErrClosed)
	case <-time.After(waitFor):
		t.Fatal("waiting offer was not aborted")
	}

	_, err := p.negotiator.CreateAnswer(context.Background())
	assert.ErrorIs(t, err, signaling.ErrClosed)
	assert.ErrorIs(t, p.negotiator.SetRemoteOffer(context.Background(), "v=0"), signaling.ErrClosed)
	assert.Equal(t, signaling.StateClosed, p.negotiator.State())
}

func TestStateTransitions(t *testing.T) {
	offerer := newPeer(t, signaling.ICEModeIncremental)
	answerer := newPeer(t, signaling.ICEModeIncremental)
	offerStates := offerer.negotiator.SubscribeState(8)
	answerStates := answerer.negotiator.SubscribeState(8)

	ctx := context.Background()
	offer, err := offerer.negotiator.CreateOffer(ctx)
	require.NoError(t, err)
	require.NoError(t, answerer.negotiator.SetRemoteOffer(ctx, offer))
	answer, err := answerer.negotiator.CreateAnswer(ctx)
	require.NoError(t, err)
	require.NoError(t, offerer.negotiator.SetRemoteAnswer(ctx, answer))

	assert.Equal(t, []signaling.State{signaling.StateOfferCreated, signaling.StateNegotiated}, drain(offerStates))
	assert.Equal(t, []signaling.State{signaling.StateRemoteOfferSet, signaling.StateAnswerCreated, signaling.StateNegotiated}, drain(answerStates))
}

func TestCreateAnswerWithoutOffer(t *testing.T) {
	p := newPeer(t, signaling.ICEModeIncremental)

	_, err := p.negotiator.CreateAnswer(context.Background())
	assert.ErrorIs(t, err, transporttest.ErrNoRemoteOffer)
}

type countingRecorder struct {
	mu       sync.Mutex
	counters map[string]int
}

func (r *countingRecorder) add(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counters == nil {
		r.counters = make(map[string]int)
	}
	r.counters[key]++
}

func (r *countingRecorder) IncrementNegotiations(kind, result string) {
	r.add("negotiation/" + kind + "/" + result)
}

func (r *countingRecorder) IncrementSignalingMessages(direction, role string) {
	r.add("message/" + direction + "/" + role)
}

func TestRecorder(t *testing.T) {
	rec := &countingRecorder{}
	p := newPeer(t, signaling.ICEModeIncremental, signaling.WithRecorder(rec))
	p.channel.Open()

	require.NoError(t, p.negotiator.ExecuteSignalingAsOffer(context.Background()))
	p.channel.DeliverText(`{"offerOrAnswer":1,"sdp":"v=0"}`)

	assert.Equal(t, map[string]int{
		"negotiation/offer/ok":   1,
		"message/outbound/offer": 1,
		"message/inbound/answer": 1,
	}, rec.counters)
}

func TestNewRejectsBoundChannel(t *testing.T) {
	ch := datachannel.New(transporttest.NewDataChannel("signaling"), nil)
	require.NoError(t, ch.Bind(datachannel.HandlerFuncs{}))

	_, err := signaling.New(transporttest.NewSession(), ch, signaling.ICEModeEager)
	assert.ErrorIs(t, err, datachannel.ErrHandlerBound)

	_, err = signaling.New(transporttest.NewSession(), datachannel.New(transporttest.NewDataChannel("s"), nil), signaling.ICEMode(9))
	assert.ErrorIs(t, err, signaling.ErrInvalidICEMode)
}

func drain(sub *event.Subscription[signaling.State]) []signaling.State {
	var out []signaling.State
	for {
		select {
		case s := <-sub.Receive():
			out = append(out, s)
		default:
			return out
		}
	}
}
