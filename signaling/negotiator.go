// Package signaling drives the offer/answer exchange of one transport session
// and carries renegotiation over the in-band signaling channel once the
// session is connected.
package signaling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"peerlink/datachannel"
	"peerlink/event"
	"peerlink/transport"
)

// ErrClosed is returned by negotiation calls on a closed Negotiator.
var ErrClosed = errors.New("negotiator closed")

const (
	resultOK    = "ok"
	resultEmpty = "empty"
	resultError = "error"

	directionInbound  = "inbound"
	directionOutbound = "outbound"
)

// Negotiator runs offer/answer rounds against one transport session. Only one
// round is in flight at a time; concurrent callers wait for their turn.
type Negotiator struct {
	transport transport.Session
	channel   *datachannel.Channel
	mode      ICEMode

	logger     *zap.Logger
	recorder   Recorder
	autoAnswer bool

	slot  chan struct{}
	armed atomic.Bool

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu     sync.RWMutex
	state  State
	states *event.Feed[State]
}

// New creates a Negotiator on ts and binds the text handler of the
// signaling channel.
func New(ts transport.Session, channel *datachannel.Channel, mode ICEMode, opts ...Option) (*Negotiator, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidICEMode, int(mode))
	}

	ctx, cancel := context.WithCancel(context.Background())
	n := &Negotiator{
		transport: ts,
		channel:   channel,
		mode:      mode,
		logger:    zap.NewNop(),
		recorder:  nopRecorder{},
		slot:      make(chan struct{}, 1),
		ctx:       ctx,
		cancel:    cancel,
		states:    event.NewFeed[State](),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With(zap.String("component", "signaling"), zap.Stringer("ice_mode", mode))

	if err := channel.Bind(datachannel.HandlerFuncs{Text: n.onSignalingText}); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to bind signaling channel: %w", err)
	}
	return n, nil
}

// Mode returns the ICE mode fixed at construction.
func (n *Negotiator) Mode() ICEMode {
	return n.mode
}

// CreateOffer creates and installs a local offer and returns its SDP. An
// empty string with a nil error means no usable local description was
// available afterwards.
func (n *Negotiator) CreateOffer(ctx context.Context) (string, error) {
	if err := n.acquire(ctx); err != nil {
		return "", err
	}
	defer n.release()
	return n.createLocal(ctx, transport.SDPTypeOffer)
}

// CreateAnswer creates and installs a local answer to the installed remote
// offer and returns its SDP, with the same empty result convention as
// CreateOffer.
func (n *Negotiator) CreateAnswer(ctx context.Context) (string, error) {
	if err := n.acquire(ctx); err != nil {
		return "", err
	}
	defer n.release()
	return n.createLocal(ctx, transport.SDPTypeAnswer)
}

// SetRemoteOffer installs sdp as the remote offer.
func (n *Negotiator) SetRemoteOffer(ctx context.Context, sdp string) error {
	if err := n.acquire(ctx); err != nil {
		return err
	}
	defer n.release()
	return n.setRemote(transport.SDPTypeOffer, sdp)
}

// SetRemoteAnswer installs sdp as the remote answer.
func (n *Negotiator) SetRemoteAnswer(ctx context.Context, sdp string) error {
	if err := n.acquire(ctx); err != nil {
		return err
	}
	defer n.release()
	return n.setRemote(transport.SDPTypeAnswer, sdp)
}

// EnableAutoReSignaling arms in-band renegotiation. It cannot be disarmed.
func (n *Negotiator) EnableAutoReSignaling() {
	if n.armed.CompareAndSwap(false, true) {
		n.logger.Info("auto re-signaling enabled")
	}
}

// AutoReSignaling reports whether in-band renegotiation is armed.
func (n *Negotiator) AutoReSignaling() bool {
	return n.armed.Load()
}

// HandleNegotiationNeeded reacts to a negotiation-needed event of the
// transport. It does nothing until auto re-signaling is armed.
func (n *Negotiator) HandleNegotiationNeeded(ctx context.Context) error {
	if !n.armed.Load() {
		n.logger.Debug("negotiation needed ignored, auto re-signaling not armed")
		return nil
	}
	return n.ExecuteSignalingAsOffer(ctx)
}

// ExecuteSignalingAsOffer creates an offer and sends it over the signaling
// channel. The offer is dropped when the channel is not open.
func (n *Negotiator) ExecuteSignalingAsOffer(ctx context.Context) error {
	sdp, err := n.CreateOffer(ctx)
	if err != nil {
		return err
	}
	if sdp == "" {
		return nil
	}
	return n.send(Envelope{Role: RoleOffer, SDP: sdp})
}

// HandleSignalingMessage applies one envelope received over the signaling
// channel. With auto answer enabled an offer is answered over the same
// channel while the round is still held.
func (n *Negotiator) HandleSignalingMessage(ctx context.Context, text string) error {
	env, err := Parse([]byte(text))
	if err != nil {
		return fmt.Errorf("failed to parse signaling message: %w", err)
	}
	n.recorder.IncrementSignalingMessages(directionInbound, env.Role.String())

	if err := n.acquire(ctx); err != nil {
		return err
	}
	defer n.release()

	switch env.Role {
	case RoleOffer:
		if err := n.setRemote(transport.SDPTypeOffer, env.SDP); err != nil {
			return err
		}
		if !n.autoAnswer {
			return nil
		}
		answer, err := n.createLocal(ctx, transport.SDPTypeAnswer)
		if err != nil || answer == "" {
			return err
		}
		return n.send(Envelope{Role: RoleAnswer, SDP: answer})
	case RoleAnswer:
		return n.setRemote(transport.SDPTypeAnswer, env.SDP)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownRole, int(env.Role))
	}
}

// State returns the current negotiation state.
func (n *Negotiator) State() State {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state
}

// SubscribeState streams every state change.
func (n *Negotiator) SubscribeState(buffer int) *event.Subscription[State] {
	return n.states.Subscribe(buffer)
}

// Close moves the Negotiator to closed and aborts waiting calls. It does not
// close the transport, which the owner closes.
func (n *Negotiator) Close() {
	n.closeOnce.Do(func() {
		n.cancel()
		n.setState(StateClosed)
		n.states.Close()
	})
}

func (n *Negotiator) acquire(ctx context.Context) error {
	if n.ctx.Err() != nil {
		return ErrClosed
	}
	select {
	case n.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	case <-n.ctx.Done():
		return ErrClosed
	}
	if n.ctx.Err() != nil {
		n.release()
		return ErrClosed
	}
	return nil
}

func (n *Negotiator) release() {
	<-n.slot
}

func (n *Negotiator) createLocal(ctx context.Context, typ transport.SDPType) (sdp string, err error) {
	defer func() {
		n.recordNegotiation(typ, sdp, err)
	}()

	var candidates *event.Subscription[*transport.Candidate]
	if n.mode == ICEModeEager {
		// Subscribe before the local description is set so the end of
		// gathering cannot be missed.
		candidates = n.transport.SubscribeCandidates()
		defer candidates.Close()
	}

	var desc transport.Description
	if typ == transport.SDPTypeOffer {
		desc, err = n.transport.CreateOffer()
	} else {
		desc, err = n.transport.CreateAnswer()
	}
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", typ, err)
	}
	if err := n.transport.SetLocalDescription(desc); err != nil {
		return "", fmt.Errorf("failed to set local %s: %w", typ, err)
	}

	if candidates != nil {
		if err := n.waitGathering(ctx, candidates); err != nil {
			return "", err
		}
	}

	local := n.transport.LocalDescription()
	if local == nil || local.SDP == "" {
		n.logger.Error("local description unavailable after set", zap.Stringer("type", typ))
		return "", nil
	}

	if typ == transport.SDPTypeOffer {
		n.setState(StateOfferCreated)
	} else {
		n.setState(StateAnswerCreated)
		n.setState(StateNegotiated)
	}
	return local.SDP, nil
}

func (n *Negotiator) waitGathering(ctx context.Context, candidates *event.Subscription[*transport.Candidate]) error {
	if n.transport.ConnectionState() == transport.ConnectionStateConnected ||
		n.transport.ICEGatheringState() == transport.GatheringStateComplete {
		return nil
	}
	for {
		select {
		case c := <-candidates.Receive():
			if c == nil {
				n.logger.Debug("candidate gathering complete")
				return nil
			}
			n.logger.Debug("candidate gathered", zap.String("candidate", c.Candidate))
		case <-candidates.Done():
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		case <-n.ctx.Done():
			return ErrClosed
		}
	}
}

func (n *Negotiator) setRemote(typ transport.SDPType, sdp string) error {
	if err := n.transport.SetRemoteDescription(transport.Description{Type: typ, SDP: sdp}); err != nil {
		return fmt.Errorf("failed to set remote %s: %w", typ, err)
	}
	if typ == transport.SDPTypeOffer {
		n.setState(StateRemoteOfferSet)
	} else {
		n.setState(StateNegotiated)
	}
	return nil
}

func (n *Negotiator) send(env Envelope) error {
	if !n.channel.IsOpen() {
		n.logger.Warn("signaling channel not open, description dropped", zap.Stringer("role", env.Role))
		return nil
	}
	payload, err := Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", env.Role, err)
	}
	if err := n.channel.SendText(string(payload)); err != nil {
		return fmt.Errorf("failed to send %s: %w", env.Role, err)
	}
	n.recorder.IncrementSignalingMessages(directionOutbound, env.Role.String())
	return nil
}

func (n *Negotiator) onSignalingText(text string) {
	if err := n.HandleSignalingMessage(n.ctx, text); err != nil {
		n.logger.Error("failed to handle signaling message", zap.Error(err))
	}
}

func (n *Negotiator) setState(s State) {
	n.mu.Lock()
	if n.state == StateClosed {
		n.mu.Unlock()
		return
	}
	n.state = s
	n.mu.Unlock()
	n.states.Publish(s)
}

func (n *Negotiator) recordNegotiation(typ transport.SDPType, sdp string, err error) {
	result := resultOK
	switch {
	case err != nil:
		result = resultError
	case sdp == "":
		result = resultEmpty
	}
	n.recorder.IncrementNegotiations(typ.String(), result)
}
