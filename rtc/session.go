package rtc

import (
	"fmt"
	"sync"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
	"go.uber.org/zap"
	"peerlink/event"
	"peerlink/transport"
)

// Session is a transport.Session backed by a pion PeerConnection.
type Session struct {
	pc     *webrtc.PeerConnection
	logger *zap.Logger

	mu      sync.Mutex
	senders map[*webrtc.RTPSender]*sender

	candidates *event.Feed[*transport.Candidate]
	events     *event.Feed[transport.Event]

	closeOnce sync.Once
}

var _ transport.Session = (*Session)(nil)

// New creates a PeerConnection with the registered codecs and the default
// interceptors.
func New(config Config, logger *zap.Logger) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &webrtc.MediaEngine{}
	if err := registerCodecs(m); err != nil {
		return nil, fmt.Errorf("failed to register codecs: %w", err)
	}
	i := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, i); err != nil {
		return nil, fmt.Errorf("failed to register interceptors: %w", err)
	}

	se := webrtc.SettingEngine{}
	if err := config.SetPortRange(&se); err != nil {
		return nil, err
	}
	se.SetIncludeLoopbackCandidate(config.IncludeLoopback)

	api := webrtc.NewAPI(webrtc.WithMediaEngine(m), webrtc.WithSettingEngine(se), webrtc.WithInterceptorRegistry(i))
	pc, err := api.NewPeerConnection(config.configuration())
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	s := &Session{
		pc:         pc,
		logger:     logger.With(zap.String("component", "rtc")),
		senders:    make(map[*webrtc.RTPSender]*sender),
		candidates: event.NewFeed[*transport.Candidate](),
		events:     event.NewFeed[transport.Event](),
	}
	s.bind()
	return s, nil
}

func (s *Session) bind() {
	s.pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			s.candidates.Publish(nil)
			return
		}
		init := c.ToJSON()
		s.candidates.Publish(&transport.Candidate{
			Candidate:     init.Candidate,
			SDPMid:        init.SDPMid,
			SDPMLineIndex: init.SDPMLineIndex,
		})
	})

	s.pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		s.logger.Debug("peer connection state changed", zap.String("state", state.String()))
		s.events.Publish(transport.Event{Kind: transport.EventConnectionState, State: toConnectionState(state)})
	})

	s.pc.OnNegotiationNeeded(func() {
		s.events.Publish(transport.Event{Kind: transport.EventNegotiationNeeded})
	})

	s.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		s.logger.Debug("remote track received",
			zap.String("track", track.ID()),
			zap.String("stream", track.StreamID()),
			zap.String("codec", track.Codec().MimeType),
		)
		s.events.Publish(transport.Event{Kind: transport.EventTrack, Track: &RemoteTrack{track: track}})
	})

	s.pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		s.events.Publish(transport.Event{Kind: transport.EventDataChannel, DataChannel: &dataChannel{dc: dc}})
	})
}

// CreateOffer implements transport.Session.
func (s *Session) CreateOffer() (transport.Description, error) {
	desc, err := s.pc.CreateOffer(nil)
	if err != nil {
		return transport.Description{}, err
	}
	return fromSessionDescription(desc), nil
}

// CreateAnswer implements transport.Session.
func (s *Session) CreateAnswer() (transport.Description, error) {
	desc, err := s.pc.CreateAnswer(nil)
	if err != nil {
		return transport.Description{}, err
	}
	return fromSessionDescription(desc), nil
}

// SetLocalDescription implements transport.Session.
func (s *Session) SetLocalDescription(desc transport.Description) error {
	return s.pc.SetLocalDescription(toSessionDescription(desc))
}

// SetRemoteDescription implements transport.Session.
func (s *Session) SetRemoteDescription(desc transport.Description) error {
	return s.pc.SetRemoteDescription(toSessionDescription(desc))
}

// LocalDescription implements transport.Session.
func (s *Session) LocalDescription() *transport.Description {
	desc := s.pc.LocalDescription()
	if desc == nil {
		return nil
	}
	d := fromSessionDescription(*desc)
	return &d
}

// AddICECandidate implements transport.Session.
func (s *Session) AddICECandidate(c transport.Candidate) error {
	return s.pc.AddICECandidate(webrtc.ICECandidateInit{
		Candidate:     c.Candidate,
		SDPMid:        c.SDPMid,
		SDPMLineIndex: c.SDPMLineIndex,
	})
}

// ConnectionState implements transport.Session.
func (s *Session) ConnectionState() transport.ConnectionState {
	return toConnectionState(s.pc.ConnectionState())
}

// ICEGatheringState implements transport.Session.
func (s *Session) ICEGatheringState() transport.GatheringState {
	switch s.pc.ICEGatheringState() {
	case webrtc.ICEGatheringStateGathering:
		return transport.GatheringStateGathering
	case webrtc.ICEGatheringStateComplete:
		return transport.GatheringStateComplete
	default:
		return transport.GatheringStateNew
	}
}

// CreateDataChannel implements transport.Session.
func (s *Session) CreateDataChannel(label string, init *transport.DataChannelInit) (transport.DataChannel, error) {
	var options *webrtc.DataChannelInit
	if init != nil {
		negotiated := init.Negotiated
		options = &webrtc.DataChannelInit{
			ID:         init.ID,
			Negotiated: &negotiated,
			Ordered:    init.Ordered,
		}
	}
	dc, err := s.pc.CreateDataChannel(label, options)
	if err != nil {
		return nil, err
	}
	return &dataChannel{dc: dc}, nil
}

// AddTrack implements transport.Session. Only tracks created by NewTrack
// can be attached.
func (s *Session) AddTrack(track transport.Track) (transport.Sender, error) {
	local, ok := track.(webrtc.TrackLocal)
	if !ok {
		return nil, fmt.Errorf("%w: %T", transport.ErrUnsupportedTrack, track)
	}
	rtpSender, err := s.pc.AddTrack(local)
	if err != nil {
		return nil, err
	}

	// Drain RTCP so the interceptors keep running.
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := rtpSender.Read(buf); err != nil {
				return
			}
		}
	}()

	return s.wrapSender(rtpSender, track), nil
}

// RemoveTrack implements transport.Session.
func (s *Session) RemoveTrack(ts transport.Sender) error {
	snd, ok := ts.(*sender)
	if !ok {
		return transport.ErrUnknownSender
	}
	s.mu.Lock()
	_, known := s.senders[snd.rtp]
	delete(s.senders, snd.rtp)
	s.mu.Unlock()
	if !known {
		return transport.ErrUnknownSender
	}
	return s.pc.RemoveTrack(snd.rtp)
}

// Transceivers implements transport.Session.
func (s *Session) Transceivers() []transport.Transceiver {
	trs := s.pc.GetTransceivers()
	out := make([]transport.Transceiver, 0, len(trs))
	for _, tr := range trs {
		t := &transceiver{tr: tr}
		if rtpSender := tr.Sender(); rtpSender != nil {
			t.sender = s.wrapSender(rtpSender, nil)
		}
		out = append(out, t)
	}
	return out
}

// CodecCapabilities implements transport.Session.
func (s *Session) CodecCapabilities(kind transport.MediaKind) []transport.Codec {
	registered := registeredCodecs(kind)
	out := make([]transport.Codec, 0, len(registered))
	for _, c := range registered {
		out = append(out, toCodec(c))
	}
	return out
}

// SubscribeCandidates implements transport.Session.
func (s *Session) SubscribeCandidates() *event.Subscription[*transport.Candidate] {
	return s.candidates.Subscribe(0)
}

// SubscribeEvents implements transport.Session.
func (s *Session) SubscribeEvents() *event.Subscription[transport.Event] {
	return s.events.Subscribe(0)
}

// Close closes the PeerConnection and ends every subscription.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.pc.Close()
		s.candidates.Close()
		s.events.Close()
	})
	return err
}

// wrapSender returns the one wrapper of rtpSender so that senders returned by
// AddTrack compare equal to the ones found on transceivers.
func (s *Session) wrapSender(rtpSender *webrtc.RTPSender, track transport.Track) *sender {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snd, ok := s.senders[rtpSender]; ok {
		if track != nil {
			snd.setTrack(track)
		}
		return snd
	}
	snd := &sender{rtp: rtpSender, track: track}
	s.senders[rtpSender] = snd
	return snd
}

type sender struct {
	rtp *webrtc.RTPSender

	mu         sync.Mutex
	track      transport.Track
	maxBitrate []uint64
}

var _ transport.Sender = (*sender)(nil)

func (s *sender) setTrack(track transport.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track = track
}

func (s *sender) Track() transport.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track
}

func (s *sender) GetParameters() transport.SendParameters {
	params := s.rtp.GetParameters()
	s.mu.Lock()
	defer s.mu.Unlock()

	out := transport.SendParameters{Encodings: make([]transport.Encoding, 0, len(params.Encodings))}
	for i, e := range params.Encodings {
		enc := transport.Encoding{SSRC: uint32(e.SSRC)}
		if i < len(s.maxBitrate) {
			enc.MaxBitrate = s.maxBitrate[i]
		}
		out.Encodings = append(out.Encodings, enc)
	}
	return out
}

// SetParameters commits the target bitrates. The engine only exposes them to
// the track; the encoding layout itself cannot change.
func (s *sender) SetParameters(params transport.SendParameters) error {
	current := s.rtp.GetParameters()
	if len(params.Encodings) != len(current.Encodings) {
		return fmt.Errorf("%w: %d encodings, want %d", transport.ErrInvalidModification, len(params.Encodings), len(current.Encodings))
	}
	bitrates := make([]uint64, len(params.Encodings))
	for i, e := range params.Encodings {
		if e.SSRC != uint32(current.Encodings[i].SSRC) {
			return fmt.Errorf("%w: ssrc of encoding %d changed", transport.ErrInvalidModification, i)
		}
		bitrates[i] = e.MaxBitrate
	}

	s.mu.Lock()
	s.maxBitrate = bitrates
	track := s.track
	s.mu.Unlock()

	if t, ok := track.(*Track); ok && len(bitrates) > 0 {
		t.maxBitrate.Store(bitrates[0])
	}
	return nil
}

type transceiver struct {
	tr     *webrtc.RTPTransceiver
	sender *sender
}

var _ transport.Transceiver = (*transceiver)(nil)

func (t *transceiver) Mid() string {
	return t.tr.Mid()
}

func (t *transceiver) Kind() transport.MediaKind {
	return toMediaKind(t.tr.Kind())
}

func (t *transceiver) Sender() transport.Sender {
	if t.sender == nil {
		return nil
	}
	return t.sender
}

func (t *transceiver) SetCodecPreferences(codecs []transport.Codec) error {
	kind := t.Kind()
	params := make([]webrtc.RTPCodecParameters, 0, len(codecs))
	for _, c := range codecs {
		params = append(params, fromCodec(kind, c))
	}
	if err := t.tr.SetCodecPreferences(params); err != nil {
		return fmt.Errorf("failed to set codec preferences: %w", err)
	}
	return nil
}

func toConnectionState(state webrtc.PeerConnectionState) transport.ConnectionState {
	switch state {
	case webrtc.PeerConnectionStateConnecting:
		return transport.ConnectionStateConnecting
	case webrtc.PeerConnectionStateConnected:
		return transport.ConnectionStateConnected
	case webrtc.PeerConnectionStateDisconnected:
		return transport.ConnectionStateDisconnected
	case webrtc.PeerConnectionStateFailed:
		return transport.ConnectionStateFailed
	case webrtc.PeerConnectionStateClosed:
		return transport.ConnectionStateClosed
	default:
		return transport.ConnectionStateNew
	}
}

func toSessionDescription(desc transport.Description) webrtc.SessionDescription {
	typ := webrtc.SDPTypeOffer
	if desc.Type == transport.SDPTypeAnswer {
		typ = webrtc.SDPTypeAnswer
	}
	return webrtc.SessionDescription{Type: typ, SDP: desc.SDP}
}

func fromSessionDescription(desc webrtc.SessionDescription) transport.Description {
	typ := transport.SDPTypeOffer
	if desc.Type == webrtc.SDPTypeAnswer {
		typ = transport.SDPTypeAnswer
	}
	return transport.Description{Type: typ, SDP: desc.SDP}
}

