package media

import (
	"sync"

	"peerlink/transport"
)

// Stream groups the local tracks sent under one stream id.
type Stream struct {
	id     string
	tracks []transport.Track
}

// NewStream creates a stream of tracks.
func NewStream(id string, tracks ...transport.Track) *Stream {
	return &Stream{
		id:     id,
		tracks: append([]transport.Track(nil), tracks...),
	}
}

// ID returns the stream id.
func (s *Stream) ID() string {
	return s.id
}

// Tracks returns every track of the stream.
func (s *Stream) Tracks() []transport.Track {
	return append([]transport.Track(nil), s.tracks...)
}

// TracksOf returns the tracks of one kind.
func (s *Stream) TracksOf(kind transport.MediaKind) []transport.Track {
	var out []transport.Track
	for _, t := range s.tracks {
		if t.MediaKind() == kind {
			out = append(out, t)
		}
	}
	return out
}

// ReceiveEndpoint collects the remote tracks of one remote stream.
type ReceiveEndpoint struct {
	label string

	mu     sync.RWMutex
	tracks []transport.RemoteTrack
}

// NewReceiveEndpoint creates an empty endpoint for the remote stream label.
func NewReceiveEndpoint(label string) *ReceiveEndpoint {
	return &ReceiveEndpoint{label: label}
}

// Label returns the remote stream label.
func (r *ReceiveEndpoint) Label() string {
	return r.label
}

// AddTrack appends a remote track.
func (r *ReceiveEndpoint) AddTrack(t transport.RemoteTrack) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracks = append(r.tracks, t)
}

// Tracks returns the remote tracks received so far.
func (r *ReceiveEndpoint) Tracks() []transport.RemoteTrack {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]transport.RemoteTrack(nil), r.tracks...)
}

// TracksOf returns the remote tracks of one kind.
func (r *ReceiveEndpoint) TracksOf(kind transport.MediaKind) []transport.RemoteTrack {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []transport.RemoteTrack
	for _, t := range r.tracks {
		if t.MediaKind() == kind {
			out = append(out, t)
		}
	}
	return out
}
