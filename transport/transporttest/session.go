// Package transporttest provides an in-memory transport.Session for tests.
package transporttest

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"peerlink/event"
	"peerlink/transport"
)

// ErrNoRemoteOffer is returned by CreateAnswer when no remote offer is installed.
var ErrNoRemoteOffer = errors.New("no remote offer installed")

// ErrMalformedSDP is returned by SetRemoteDescription for an empty SDP.
var ErrMalformedSDP = errors.New("malformed sdp")

// Session is a scriptable transport.Session. Exported error fields make the
// matching operation fail.
type Session struct {
	mu sync.Mutex

	OfferErr       error
	AnswerErr      error
	SetLocalErr    error
	SetRemoteErr   error
	DataChannelErr error
	AddTrackErr    error

	// SetParametersErr is copied to every sender created by AddTrack.
	SetParametersErr error

	// Candidates are emitted after a local description is set while gathering
	// has not completed yet. Gate, when non-nil, holds gathering until closed.
	Candidates []string
	Gate       chan struct{}

	// DropLocalDescription makes LocalDescription return nil.
	DropLocalDescription bool

	offers    int
	answers   int
	local     *transport.Description
	remote    *transport.Description
	remotes   []transport.Description
	state     transport.ConnectionState
	gathering transport.GatheringState
	closed    int

	channels     []*DataChannel
	transceivers []*Transceiver
	capabilities map[transport.MediaKind][]transport.Codec

	candidateFeed *event.Feed[*transport.Candidate]
	eventFeed     *event.Feed[transport.Event]
}

var _ transport.Session = (*Session)(nil)

// DefaultCapabilities is the codec list reported when none is configured.
var DefaultCapabilities = map[transport.MediaKind][]transport.Codec{
	transport.MediaKindVideo: {
		{MimeType: "video/VP8", ClockRate: 90000, PayloadType: 96},
		{MimeType: "video/H264", ClockRate: 90000, PayloadType: 102},
		{MimeType: "video/AV1", ClockRate: 90000, PayloadType: 45},
		{MimeType: "video/VP9", ClockRate: 90000, PayloadType: 98},
	},
	transport.MediaKindAudio: {
		{MimeType: "audio/opus", ClockRate: 48000, Channels: 2, PayloadType: 111},
	},
}

// NewSession creates a fake session in the new state.
func NewSession() *Session {
	return &Session{
		capabilities:  DefaultCapabilities,
		candidateFeed: event.NewFeed[*transport.Candidate](),
		eventFeed:     event.NewFeed[transport.Event](),
	}
}

// SetCapabilities replaces the codec list reported for kind.
func (s *Session) SetCapabilities(kind transport.MediaKind, codecs []transport.Codec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	caps := make(map[transport.MediaKind][]transport.Codec, len(s.capabilities))
	for k, v := range s.capabilities {
		caps[k] = v
	}
	caps[kind] = codecs
	s.capabilities = caps
}

// CreateOffer implements transport.Session.
func (s *Session) CreateOffer() (transport.Description, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offers++
	if s.OfferErr != nil {
		return transport.Description{}, s.OfferErr
	}
	return transport.Description{Type: transport.SDPTypeOffer, SDP: fmt.Sprintf("v=0\r\ns=offer-%d\r\n", s.offers)}, nil
}

// CreateAnswer implements transport.Session.
func (s *Session) CreateAnswer() (transport.Description, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers++
	if s.AnswerErr != nil {
		return transport.Description{}, s.AnswerErr
	}
	if s.remote == nil || s.remote.Type != transport.SDPTypeOffer {
		return transport.Description{}, ErrNoRemoteOffer
	}
	return transport.Description{Type: transport.SDPTypeAnswer, SDP: fmt.Sprintf("v=0\r\ns=answer-%d\r\n", s.answers)}, nil
}

// SetLocalDescription implements transport.Session. The first call starts a
// simulated gathering run; later calls reuse the completed gathering.
func (s *Session) SetLocalDescription(desc transport.Description) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetLocalErr != nil {
		return s.SetLocalErr
	}
	s.local = &desc
	if s.gathering == transport.GatheringStateNew {
		s.gathering = transport.GatheringStateGathering
		go s.gather(s.Gate, s.Candidates)
	}
	return nil
}

func (s *Session) gather(gate chan struct{}, candidates []string) {
	if gate != nil {
		<-gate
	}
	for _, c := range candidates {
		s.mu.Lock()
		if s.local != nil {
			s.local = &transport.Description{Type: s.local.Type, SDP: s.local.SDP + "a=candidate:" + c + "\r\n"}
		}
		s.mu.Unlock()
		s.candidateFeed.Publish(&transport.Candidate{Candidate: c})
	}
	s.mu.Lock()
	s.gathering = transport.GatheringStateComplete
	s.mu.Unlock()
	s.candidateFeed.Publish(nil)
}

// SetRemoteDescription implements transport.Session.
func (s *Session) SetRemoteDescription(desc transport.Description) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetRemoteErr != nil {
		return s.SetRemoteErr
	}
	if strings.TrimSpace(desc.SDP) == "" {
		return ErrMalformedSDP
	}
	s.remote = &desc
	s.remotes = append(s.remotes, desc)
	return nil
}

// LocalDescription implements transport.Session.
func (s *Session) LocalDescription() *transport.Description {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.local == nil || s.DropLocalDescription {
		return nil
	}
	desc := *s.local
	return &desc
}

// AddICECandidate implements transport.Session.
func (s *Session) AddICECandidate(transport.Candidate) error {
	return nil
}

// ConnectionState implements transport.Session.
func (s *Session) ConnectionState() transport.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ICEGatheringState implements transport.Session.
func (s *Session) ICEGatheringState() transport.GatheringState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gathering
}

// CreateDataChannel implements transport.Session.
func (s *Session) CreateDataChannel(label string, init *transport.DataChannelInit) (transport.DataChannel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DataChannelErr != nil {
		return nil, s.DataChannelErr
	}
	dc := NewDataChannel(label)
	if init != nil && init.ID != nil {
		id := *init.ID
		dc.id = &id
	}
	s.channels = append(s.channels, dc)
	return dc, nil
}

// AddTrack implements transport.Session.
func (s *Session) AddTrack(track transport.Track) (transport.Sender, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AddTrackErr != nil {
		return nil, s.AddTrackErr
	}
	ssrc := uint32(1000 + len(s.transceivers))
	sender := &Sender{
		track:  track,
		params: transport.SendParameters{Encodings: []transport.Encoding{{SSRC: ssrc}}},
		SetErr: s.SetParametersErr,
	}
	s.transceivers = append(s.transceivers, &Transceiver{
		mid:    fmt.Sprint(len(s.transceivers)),
		kind:   track.MediaKind(),
		sender: sender,
	})
	return sender, nil
}

// RemoveTrack implements transport.Session.
func (s *Session) RemoveTrack(sender transport.Sender) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tr := range s.transceivers {
		if tr.sender == sender {
			tr.sender.detach()
			return nil
		}
	}
	return transport.ErrUnknownSender
}

// Transceivers implements transport.Session.
func (s *Session) Transceivers() []transport.Transceiver {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]transport.Transceiver, 0, len(s.transceivers))
	for _, tr := range s.transceivers {
		out = append(out, tr)
	}
	return out
}

// CodecCapabilities implements transport.Session.
func (s *Session) CodecCapabilities(kind transport.MediaKind) []transport.Codec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]transport.Codec(nil), s.capabilities[kind]...)
}

// SubscribeCandidates implements transport.Session.
func (s *Session) SubscribeCandidates() *event.Subscription[*transport.Candidate] {
	return s.candidateFeed.Subscribe(0)
}

// SubscribeEvents implements transport.Session.
func (s *Session) SubscribeEvents() *event.Subscription[transport.Event] {
	return s.eventFeed.Subscribe(0)
}

// Close implements transport.Session.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed++
	s.state = transport.ConnectionStateClosed
	channels := append([]*DataChannel(nil), s.channels...)
	s.mu.Unlock()

	for _, dc := range channels {
		_ = dc.Close()
	}
	s.eventFeed.Publish(transport.Event{Kind: transport.EventConnectionState, State: transport.ConnectionStateClosed})
	return nil
}

// SetConnectionState moves the session to state and notifies subscribers.
func (s *Session) SetConnectionState(state transport.ConnectionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.eventFeed.Publish(transport.Event{Kind: transport.EventConnectionState, State: state})
}

// FireNegotiationNeeded raises a negotiation-needed event.
func (s *Session) FireNegotiationNeeded() {
	s.eventFeed.Publish(transport.Event{Kind: transport.EventNegotiationNeeded})
}

// DeliverRemoteTrack announces a track received from the remote peer.
func (s *Session) DeliverRemoteTrack(track transport.RemoteTrack) {
	s.eventFeed.Publish(transport.Event{Kind: transport.EventTrack, Track: track})
}

// DeliverRemoteDataChannel announces a channel opened by the remote peer.
func (s *Session) DeliverRemoteDataChannel(label string) *DataChannel {
	dc := NewDataChannel(label)
	s.mu.Lock()
	s.channels = append(s.channels, dc)
	s.mu.Unlock()
	s.eventFeed.Publish(transport.Event{Kind: transport.EventDataChannel, DataChannel: dc})
	return dc
}

// DataChannel returns the first channel created with label.
func (s *Session) DataChannel(label string) *DataChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dc := range s.channels {
		if dc.Label() == label {
			return dc
		}
	}
	return nil
}

// TransceiverList returns the fake transceivers for inspection.
func (s *Session) TransceiverList() []*Transceiver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Transceiver(nil), s.transceivers...)
}

// OfferCount is the number of CreateOffer calls.
func (s *Session) OfferCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offers
}

// AnswerCount is the number of CreateAnswer calls.
func (s *Session) AnswerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers
}

// RemoteDescriptions returns every installed remote description in order.
func (s *Session) RemoteDescriptions() []transport.Description {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]transport.Description(nil), s.remotes...)
}

// CloseCount is the number of Close calls.
func (s *Session) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
