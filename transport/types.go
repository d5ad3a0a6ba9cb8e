package transport

import "fmt"

// SDPType is the role of a session description.
type SDPType int

// Session description roles.
const (
	SDPTypeOffer SDPType = iota + 1
	SDPTypeAnswer
)

func (t SDPType) String() string {
	switch t {
	case SDPTypeOffer:
		return "offer"
	case SDPTypeAnswer:
		return "answer"
	default:
		return fmt.Sprintf("sdp-type(%d)", int(t))
	}
}

// Description is a session description.
type Description struct {
	Type SDPType
	SDP  string
}

// Candidate is one gathered ICE candidate.
type Candidate struct {
	Candidate     string
	SDPMid        *string
	SDPMLineIndex *uint16
}

// ConnectionState is the aggregate connection state of a session.
type ConnectionState int

// Connection states.
const (
	ConnectionStateNew ConnectionState = iota
	ConnectionStateConnecting
	ConnectionStateConnected
	ConnectionStateDisconnected
	ConnectionStateFailed
	ConnectionStateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case ConnectionStateNew:
		return "new"
	case ConnectionStateConnecting:
		return "connecting"
	case ConnectionStateConnected:
		return "connected"
	case ConnectionStateDisconnected:
		return "disconnected"
	case ConnectionStateFailed:
		return "failed"
	case ConnectionStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// GatheringState is the ICE candidate gathering state.
type GatheringState int

// Gathering states.
const (
	GatheringStateNew GatheringState = iota
	GatheringStateGathering
	GatheringStateComplete
)

// DataChannelState is the readiness of a data channel.
type DataChannelState int

// Data channel states.
const (
	DataChannelStateConnecting DataChannelState = iota
	DataChannelStateOpen
	DataChannelStateClosing
	DataChannelStateClosed
)

func (s DataChannelState) String() string {
	switch s {
	case DataChannelStateConnecting:
		return "connecting"
	case DataChannelStateOpen:
		return "open"
	case DataChannelStateClosing:
		return "closing"
	case DataChannelStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MediaKind is audio or video.
type MediaKind int

// Media kinds.
const (
	MediaKindAudio MediaKind = iota + 1
	MediaKindVideo
)

func (k MediaKind) String() string {
	switch k {
	case MediaKindAudio:
		return "audio"
	case MediaKindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// Codec is one codec capability reported by the engine.
type Codec struct {
	MimeType    string
	ClockRate   uint32
	Channels    uint16
	SDPFmtpLine string
	PayloadType uint8
}

// SendParameters are the encoding parameters of a sender.
type SendParameters struct {
	Encodings []Encoding
}

// Encoding is one encoding of a sender. MaxBitrate is in bits per second; zero
// means unlimited.
type Encoding struct {
	SSRC       uint32
	MaxBitrate uint64
}

// EventKind tells which field of an Event is set.
type EventKind int

// Engine events.
const (
	EventConnectionState EventKind = iota + 1
	EventNegotiationNeeded
	EventTrack
	EventDataChannel
)

func (k EventKind) String() string {
	switch k {
	case EventConnectionState:
		return "connection-state"
	case EventNegotiationNeeded:
		return "negotiation-needed"
	case EventTrack:
		return "track"
	case EventDataChannel:
		return "data-channel"
	default:
		return "unknown"
	}
}

// Event is one engine notification. Events of a session are delivered in the
// order the engine raised them.
type Event struct {
	Kind EventKind

	State       ConnectionState
	Track       RemoteTrack
	DataChannel DataChannel
}
