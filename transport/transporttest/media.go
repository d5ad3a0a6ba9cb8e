package transporttest

import (
	"sync"

	"peerlink/transport"
)

// Track is a fake local track.
type Track struct {
	mu       sync.Mutex
	id       string
	streamID string
	kind     transport.MediaKind
	enabled  bool
}

var _ transport.Track = (*Track)(nil)

// NewTrack creates an enabled track.
func NewTrack(id, streamID string, kind transport.MediaKind) *Track {
	return &Track{id: id, streamID: streamID, kind: kind, enabled: true}
}

// ID implements transport.Track.
func (t *Track) ID() string { return t.id }

// StreamID implements transport.Track.
func (t *Track) StreamID() string { return t.streamID }

// MediaKind implements transport.Track.
func (t *Track) MediaKind() transport.MediaKind { return t.kind }

// Enabled implements transport.Track.
func (t *Track) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// SetEnabled implements transport.Track.
func (t *Track) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

// RemoteTrack is a fake remote track.
type RemoteTrack struct {
	TrackID  string
	Stream   string
	Kind     transport.MediaKind
	CodecCap transport.Codec
}

var _ transport.RemoteTrack = (*RemoteTrack)(nil)

// ID implements transport.RemoteTrack.
func (r *RemoteTrack) ID() string { return r.TrackID }

// StreamID implements transport.RemoteTrack.
func (r *RemoteTrack) StreamID() string { return r.Stream }

// MediaKind implements transport.RemoteTrack.
func (r *RemoteTrack) MediaKind() transport.MediaKind { return r.Kind }

// Codec implements transport.RemoteTrack.
func (r *RemoteTrack) Codec() transport.Codec { return r.CodecCap }

// Sender is a fake transport.Sender.
type Sender struct {
	mu     sync.Mutex
	track  transport.Track
	params transport.SendParameters
	sets   int

	// SetErr makes SetParameters fail.
	SetErr error
}

var _ transport.Sender = (*Sender)(nil)

// Track implements transport.Sender.
func (s *Sender) Track() transport.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track
}

// GetParameters implements transport.Sender.
func (s *Sender) GetParameters() transport.SendParameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return transport.SendParameters{Encodings: append([]transport.Encoding(nil), s.params.Encodings...)}
}

// SetParameters implements transport.Sender.
func (s *Sender) SetParameters(params transport.SendParameters) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return s.SetErr
	}
	if len(params.Encodings) != len(s.params.Encodings) {
		return transport.ErrInvalidModification
	}
	s.params = params
	s.sets++
	return nil
}

// SetCount is the number of committed SetParameters calls.
func (s *Sender) SetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

func (s *Sender) detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track = nil
}

// Transceiver is a fake transport.Transceiver.
type Transceiver struct {
	mu          sync.Mutex
	mid         string
	kind        transport.MediaKind
	sender      *Sender
	preferences []transport.Codec
}

var _ transport.Transceiver = (*Transceiver)(nil)

// Mid implements transport.Transceiver.
func (t *Transceiver) Mid() string { return t.mid }

// Kind implements transport.Transceiver.
func (t *Transceiver) Kind() transport.MediaKind { return t.kind }

// Sender implements transport.Transceiver.
func (t *Transceiver) Sender() transport.Sender { return t.sender }

// FakeSender returns the concrete fake sender.
func (t *Transceiver) FakeSender() *Sender { return t.sender }

// SetCodecPreferences implements transport.Transceiver.
func (t *Transceiver) SetCodecPreferences(codecs []transport.Codec) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.preferences = append([]transport.Codec(nil), codecs...)
	return nil
}

// Preferences returns the last installed codec preference list.
func (t *Transceiver) Preferences() []transport.Codec {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]transport.Codec(nil), t.preferences...)
}
