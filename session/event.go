package session

import (
	"peerlink/datachannel"
	"peerlink/media"
	"peerlink/transport"
)

// EventType tells which field of an Event is set.
type EventType int

// Session events.
const (
	EventStateChanged EventType = iota + 1
	EventNewReceiveMediaChannel
	EventNewDataChannel
)

func (t EventType) String() string {
	switch t {
	case EventStateChanged:
		return "state-changed"
	case EventNewReceiveMediaChannel:
		return "new-receive-media-channel"
	case EventNewDataChannel:
		return "new-data-channel"
	default:
		return "unknown"
	}
}

// Event is one notification of a Session.
type Event struct {
	Type  EventType
	Label string

	State       transport.ConnectionState
	Receive     *media.ReceiveEndpoint
	DataChannel *datachannel.Channel
}
