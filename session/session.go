// Package session is the facade over one peer connection: it owns the
// transport session, the reserved application and signaling channels, the
// negotiator and the label-keyed channel registries.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bep/debounce"
	"github.com/lithammer/shortuuid/v4"
	"go.uber.org/zap"
	"peerlink/datachannel"
	"peerlink/event"
	"peerlink/media"
	"peerlink/registry"
	"peerlink/signaling"
	"peerlink/transport"
)

type sendChannel struct {
	endpoint *media.SendEndpoint
	senders  []transport.Sender
}

// Session is one peer connection. Registry calls never fail the caller:
// duplicate inserts and absent removals are logged and ignored.
type Session struct {
	id       string
	config   Config
	logger   *zap.Logger
	recorder Recorder

	mu        sync.RWMutex
	transport transport.Session

	negotiator  *signaling.Negotiator
	application *datachannel.Channel
	signaling   *datachannel.Channel

	sendMedia    registry.Table[*sendChannel]
	receiveMedia registry.Table[*media.ReceiveEndpoint]
	dataChannels registry.Table[*datachannel.Channel]

	events    *event.Feed[Event]
	armOnce   sync.Once
	debounced func(func())

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New takes ownership of ts, creates the reserved channels and starts
// consuming transport events.
func New(ts transport.Session, config Config, opts ...Option) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	reg := registry.New()
	s := &Session{
		id:           shortuuid.New(),
		config:       config,
		logger:       zap.NewNop(),
		recorder:     nopRecorder{},
		transport:    ts,
		sendMedia:    registry.NewTable[*sendChannel](reg, registry.TableSendMedia),
		receiveMedia: registry.NewTable[*media.ReceiveEndpoint](reg, registry.TableReceiveMedia),
		dataChannels: registry.NewTable[*datachannel.Channel](reg, registry.TableDataChannels),
		events:       event.NewFeed[Event](),
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "session"), zap.String("session_id", s.id))
	if config.NegotiationDebounce > 0 {
		s.debounced = debounce.New(config.NegotiationDebounce)
	}

	engine := ts.SubscribeEvents()
	unsubscribe := engine.Close

	var err error
	if s.application, err = s.reservedChannel(ts, ApplicationLabel, ApplicationID); err != nil {
		unsubscribe()
		cancel()
		return nil, err
	}
	if s.signaling, err = s.reservedChannel(ts, SignalingLabel, SignalingID); err != nil {
		unsubscribe()
		cancel()
		return nil, err
	}

	s.negotiator, err = signaling.New(ts, s.signaling, config.ICEMode,
		signaling.WithLogger(s.logger),
		signaling.WithAutoAnswer(config.AutoAnswer),
		signaling.WithRecorder(s.recorder),
	)
	if err != nil {
		unsubscribe()
		cancel()
		return nil, fmt.Errorf("failed to create negotiator: %w", err)
	}

	s.recorder.IncrementSessions()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer unsubscribe()
		s.loop(engine)
	}()

	s.logger.Info("session created", zap.Stringer("ice_mode", config.ICEMode))
	return s, nil
}

func (s *Session) reservedChannel(ts transport.Session, label string, id uint16) (*datachannel.Channel, error) {
	dc, err := ts.CreateDataChannel(label, &transport.DataChannelInit{ID: &id, Negotiated: true})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s channel: %w", label, err)
	}
	return datachannel.New(dc, s.logger), nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Negotiator returns the negotiator bound to the signaling channel.
func (s *Session) Negotiator() *signaling.Negotiator {
	return s.negotiator
}

// ApplicationChannel returns the reserved application channel.
func (s *Session) ApplicationChannel() *datachannel.Channel {
	return s.application
}

// SignalingChannel returns the reserved signaling channel.
func (s *Session) SignalingChannel() *datachannel.Channel {
	return s.signaling
}

// ConnectAsOffer creates the initial offer.
func (s *Session) ConnectAsOffer(ctx context.Context) (string, error) {
	return s.negotiator.CreateOffer(ctx)
}

// SetRemoteAnswer installs the remote answer to the initial offer.
func (s *Session) SetRemoteAnswer(ctx context.Context, sdp string) error {
	return s.negotiator.SetRemoteAnswer(ctx, sdp)
}

// ConnectAsAnswer installs the remote offer and returns the local answer.
func (s *Session) ConnectAsAnswer(ctx context.Context, offer string) (string, error) {
	if err := s.negotiator.SetRemoteOffer(ctx, offer); err != nil {
		return "", err
	}
	return s.negotiator.CreateAnswer(ctx)
}

// State returns the transport connection state.
func (s *Session) State() transport.ConnectionState {
	ts := s.handle()
	if ts == nil {
		return transport.ConnectionStateClosed
	}
	return ts.ConnectionState()
}

// Subscribe streams session events. Subscribers must keep reading.
func (s *Session) Subscribe(buffer int) *event.Subscription[Event] {
	return s.events.Subscribe(buffer)
}

// AddSendMediaChannel registers endpoint under label and attaches its tracks
// with the endpoint's codec priority and target bitrate. A taken label or a
// closed session is ignored. On an engine failure the registration is rolled
// back and the error returned.
func (s *Session) AddSendMediaChannel(ctx context.Context, label string, endpoint *media.SendEndpoint) error {
	ts := s.handle()
	if ts == nil {
		s.logger.Warn("session closed, send media channel ignored", zap.String("label", label))
		return nil
	}

	ch := &sendChannel{endpoint: endpoint}
	if err := s.sendMedia.Insert(label, ch); err != nil {
		s.logger.Error("failed to add send media channel", zap.String("label", label), zap.Error(err))
		return nil
	}

	if err := s.attach(ctx, ts, ch); err != nil {
		s.detach(ts, ch)
		_, _ = s.sendMedia.Delete(label)
		return fmt.Errorf("failed to add send media channel %s: %w", label, err)
	}

	s.recorder.IncrementMediaChannels(DirectionSend)
	s.logger.Info("send media channel added", zap.String("label", label), zap.Int("tracks", len(ch.senders)))
	return nil
}

// GetSendMediaChannel returns the endpoint registered under label.
func (s *Session) GetSendMediaChannel(label string) (*media.SendEndpoint, bool) {
	ch, ok := s.sendMedia.Get(label)
	if !ok {
		return nil, false
	}
	return ch.endpoint, true
}

// RemoveSendMediaChannel unregisters label and detaches its tracks.
func (s *Session) RemoveSendMediaChannel(label string) {
	ts := s.handle()
	if ts == nil {
		s.logger.Warn("session closed, send media channel removal ignored", zap.String("label", label))
		return
	}
	ch, err := s.sendMedia.Delete(label)
	if err != nil {
		s.logger.Error("failed to remove send media channel", zap.String("label", label), zap.Error(err))
		return
	}
	s.detach(ts, ch)
	s.recorder.DecrementMediaChannels(DirectionSend)
}

// SendMediaChannelLabels returns the registered send labels.
func (s *Session) SendMediaChannelLabels() []string {
	return s.sendMedia.Labels()
}

// GetReceiveMediaChannel returns the receive endpoint of a remote stream.
func (s *Session) GetReceiveMediaChannel(label string) (*media.ReceiveEndpoint, bool) {
	return s.receiveMedia.Get(label)
}

// RemoveReceiveMediaChannel unregisters a remote stream.
func (s *Session) RemoveReceiveMediaChannel(label string) {
	if _, err := s.receiveMedia.Delete(label); err != nil {
		s.logger.Error("failed to remove receive media channel", zap.String("label", label), zap.Error(err))
		return
	}
	s.recorder.DecrementMediaChannels(DirectionReceive)
}

// ReceiveMediaChannelLabels returns the registered remote stream labels.
func (s *Session) ReceiveMediaChannelLabels() []string {
	return s.receiveMedia.Labels()
}

// CreateDataChannel opens a channel and registers it under label. A taken
// label or a closed session returns a nil channel and a nil error.
func (s *Session) CreateDataChannel(label string) (*datachannel.Channel, error) {
	ts := s.handle()
	if ts == nil {
		s.logger.Warn("session closed, data channel ignored", zap.String("label", label))
		return nil, nil
	}
	if _, ok := s.dataChannels.Get(label); ok {
		s.logger.Error("failed to create data channel", zap.String("label", label), zap.Error(registry.ErrExists))
		return nil, nil
	}

	dc, err := ts.CreateDataChannel(label, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create data channel %s: %w", label, err)
	}
	ch := datachannel.New(dc, s.logger)
	if err := s.dataChannels.Insert(label, ch); err != nil {
		s.logger.Error("failed to register data channel", zap.String("label", label), zap.Error(err))
		_ = ch.Close()
		return nil, nil
	}
	s.recorder.IncrementDataChannels()
	return ch, nil
}

// GetDataChannel returns the channel registered under label.
func (s *Session) GetDataChannel(label string) (*datachannel.Channel, bool) {
	return s.dataChannels.Get(label)
}

// RemoveDataChannel unregisters and closes the channel under label.
func (s *Session) RemoveDataChannel(label string) {
	ch, err := s.dataChannels.Delete(label)
	if err != nil {
		s.logger.Error("failed to remove data channel", zap.String("label", label), zap.Error(err))
		return
	}
	if err := ch.Close(); err != nil {
		s.logger.Warn("failed to close data channel", zap.String("label", label), zap.Error(err))
	}
	s.recorder.DecrementDataChannels()
}

// DataChannelLabels returns the registered data channel labels.
func (s *Session) DataChannelLabels() []string {
	return s.dataChannels.Labels()
}

// SendApplicationText sends text over the application channel.
func (s *Session) SendApplicationText(text string) error {
	if s.Closed() {
		s.logger.Warn("session closed, application text dropped")
		return nil
	}
	return s.application.SendText(text)
}

// Closed reports whether CloseConnection was called.
func (s *Session) Closed() bool {
	return s.handle() == nil
}

// CloseConnection closes the negotiator, every channel and the transport.
// Calling it again does nothing.
func (s *Session) CloseConnection() error {
	s.mu.Lock()
	ts := s.transport
	s.transport = nil
	s.mu.Unlock()
	if ts == nil {
		return nil
	}

	s.negotiator.Close()
	for _, ch := range s.dataChannels.Clear() {
		_ = ch.Close()
		s.recorder.DecrementDataChannels()
	}
	for range s.sendMedia.Clear() {
		s.recorder.DecrementMediaChannels(DirectionSend)
	}
	for range s.receiveMedia.Clear() {
		s.recorder.DecrementMediaChannels(DirectionReceive)
	}

	s.events.Close()
	s.cancel()
	s.wg.Wait()
	err := ts.Close()
	s.recorder.DecrementSessions()

	if err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	s.logger.Info("session closed")
	return nil
}

func (s *Session) handle() transport.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transport
}

func (s *Session) attach(ctx context.Context, ts transport.Session, ch *sendChannel) error {
	for _, track := range ch.endpoint.Stream().Tracks() {
		if err := ctx.Err(); err != nil {
			return err
		}
		sender, err := ts.AddTrack(track)
		if err != nil {
			return fmt.Errorf("failed to add track %s: %w", track.ID(), err)
		}
		ch.senders = append(ch.senders, sender)
		if err := s.applySendParameters(ts, ch.endpoint, track, sender); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) detach(ts transport.Session, ch *sendChannel) {
	for _, sender := range ch.senders {
		if err := ts.RemoveTrack(sender); err != nil {
			s.logger.Warn("failed to remove track", zap.Error(err))
		}
	}
	ch.senders = nil
}

func (s *Session) applySendParameters(ts transport.Session, endpoint *media.SendEndpoint, track transport.Track, sender transport.Sender) error {
	kind := track.MediaKind()

	if priority := endpoint.CodecPriority(kind); len(priority) > 0 && kind == transport.MediaKindVideo {
		transceiver := findTransceiver(ts, sender)
		if transceiver == nil {
			s.logger.Error("no transceiver for sender", zap.String("track", track.ID()))
		} else {
			codecs := media.OrderCodecs(ts.CodecCapabilities(kind), priority)
			if err := transceiver.SetCodecPreferences(codecs); err != nil {
				return fmt.Errorf("failed to set %s codec preferences: %w", kind, err)
			}
		}
	}

	kbps := endpoint.TargetBitrateKbps(kind)
	if kbps == 0 {
		return nil
	}
	params := sender.GetParameters()
	if len(params.Encodings) == 0 {
		s.logger.Error("sender has no encodings, bitrate not applied", zap.String("track", track.ID()))
		return nil
	}
	params.Encodings[0].MaxBitrate = kbps * 1024
	if err := sender.SetParameters(params); err != nil {
		return fmt.Errorf("failed to set %s bitrate: %w", kind, err)
	}
	return nil
}

func findTransceiver(ts transport.Session, sender transport.Sender) transport.Transceiver {
	for _, tr := range ts.Transceivers() {
		if tr.Sender() == sender {
			return tr
		}
	}
	return nil
}

func (s *Session) loop(events *event.Subscription[transport.Event]) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-events.Done():
			return
		case ev := <-events.Receive():
			switch ev.Kind {
			case transport.EventConnectionState:
				s.onConnectionState(ev.State)
			case transport.EventNegotiationNeeded:
				s.onNegotiationNeeded()
			case transport.EventTrack:
				s.onTrack(ev.Track)
			case transport.EventDataChannel:
				s.onDataChannel(ev.DataChannel)
			}
		}
	}
}

func (s *Session) onConnectionState(state transport.ConnectionState) {
	s.logger.Info("connection state changed", zap.Stringer("state", state))
	if state == transport.ConnectionStateConnected {
		s.armOnce.Do(s.negotiator.EnableAutoReSignaling)
	}
	s.events.Publish(Event{Type: EventStateChanged, State: state})
}

func (s *Session) onNegotiationNeeded() {
	if !s.negotiator.AutoReSignaling() {
		s.logger.Debug("negotiation needed before first connect, ignored")
		return
	}
	run := func() {
		s.spawn(s.renegotiate)
	}
	if s.debounced != nil {
		s.debounced(run)
		return
	}
	run()
}

// spawn runs f on a goroutine that CloseConnection waits for. Nothing is
// started once the session is closed.
func (s *Session) spawn(f func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.transport == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		f()
	}()
}

func (s *Session) renegotiate() {
	err := s.negotiator.HandleNegotiationNeeded(s.ctx)
	switch {
	case err == nil:
	case errors.Is(err, signaling.ErrClosed), errors.Is(err, context.Canceled):
		s.logger.Debug("renegotiation aborted", zap.Error(err))
	default:
		s.logger.Error("failed to renegotiate", zap.Error(err))
	}
}

func (s *Session) onTrack(track transport.RemoteTrack) {
	if s.Closed() {
		return
	}
	label := track.StreamID()
	if label == "" {
		label = track.ID()
	}

	if endpoint, ok := s.receiveMedia.Get(label); ok {
		endpoint.AddTrack(track)
		return
	}

	endpoint := media.NewReceiveEndpoint(label)
	endpoint.AddTrack(track)
	if err := s.receiveMedia.Insert(label, endpoint); err != nil {
		s.logger.Error("failed to add receive media channel", zap.String("label", label), zap.Error(err))
		return
	}
	s.recorder.IncrementMediaChannels(DirectionReceive)
	s.logger.Info("receive media channel added", zap.String("label", label), zap.Stringer("kind", track.MediaKind()))
	s.events.Publish(Event{Type: EventNewReceiveMediaChannel, Label: label, Receive: endpoint})
}

func (s *Session) onDataChannel(dc transport.DataChannel) {
	if s.Closed() {
		return
	}
	label := dc.Label()
	ch := datachannel.New(dc, s.logger)
	if err := s.dataChannels.Insert(label, ch); err != nil {
		s.logger.Error("failed to add remote data channel", zap.String("label", label), zap.Error(err))
		_ = ch.Close()
		return
	}
	s.recorder.IncrementDataChannels()
	s.logger.Info("remote data channel added", zap.String("label", label))
	s.events.Publish(Event{Type: EventNewDataChannel, Label: label, DataChannel: ch})
}
