// Package transport defines the capability surface of the peer-connection
// engine that the negotiation core drives. The pion adapter lives in package
// rtc; tests use transporttest or the gomock MockSession.
package transport

import (
	"errors"

	"peerlink/event"
)

var (
	// ErrUnsupportedTrack is returned when a track cannot be attached to the engine.
	ErrUnsupportedTrack = errors.New("unsupported track")

	// ErrUnknownSender is returned when a sender does not belong to the session.
	ErrUnknownSender = errors.New("unknown sender")

	// ErrInvalidModification is returned when send parameters change the encoding layout.
	ErrInvalidModification = errors.New("invalid parameter modification")
)

// Session is one peer connection of the external engine.
//
//go:generate mockgen -destination=mock_transport.go -package=transport . Session
type Session interface {
	CreateOffer() (Description, error)
	CreateAnswer() (Description, error)
	SetLocalDescription(desc Description) error
	SetRemoteDescription(desc Description) error
	LocalDescription() *Description
	AddICECandidate(candidate Candidate) error

	ConnectionState() ConnectionState
	ICEGatheringState() GatheringState

	CreateDataChannel(label string, init *DataChannelInit) (DataChannel, error)
	AddTrack(track Track) (Sender, error)
	RemoveTrack(sender Sender) error
	Transceivers() []Transceiver
	CodecCapabilities(kind MediaKind) []Codec

	// SubscribeCandidates streams gathered candidates; a nil candidate marks
	// the end of gathering.
	SubscribeCandidates() *event.Subscription[*Candidate]
	// SubscribeEvents streams connection state changes, negotiation-needed
	// notifications, remote tracks and remote data channels on one ordered
	// queue.
	SubscribeEvents() *event.Subscription[Event]

	Close() error
}

// DataChannel is one engine data channel.
type DataChannel interface {
	Label() string
	ID() *uint16
	ReadyState() DataChannelState
	Send(data []byte) error
	SendText(text string) error
	OnMessage(f func(Message))
	OnOpen(f func())
	OnClose(f func())
	Close() error
}

// DataChannelInit configures a new data channel.
type DataChannelInit struct {
	ID         *uint16
	Negotiated bool
	Ordered    *bool
}

// Message is one inbound data channel frame.
type Message struct {
	IsString bool
	Data     []byte
}

// Track is a local media track that can be attached to a session.
type Track interface {
	ID() string
	StreamID() string
	MediaKind() MediaKind
	Enabled() bool
	SetEnabled(enabled bool)
}

// RemoteTrack is a track received from the remote peer.
type RemoteTrack interface {
	ID() string
	StreamID() string
	MediaKind() MediaKind
	Codec() Codec
}

// Sender is the outbound half of a transceiver.
type Sender interface {
	Track() Track
	GetParameters() SendParameters
	SetParameters(params SendParameters) error
}

// Transceiver pairs one sender and one receiver for a media kind.
type Transceiver interface {
	Mid() string
	Kind() MediaKind
	Sender() Sender
	SetCodecPreferences(codecs []Codec) error
}
