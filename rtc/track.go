package rtc

import (
	"fmt"
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"peerlink/transport"
)

// Track is a local RTP track. Packets written while it is disabled are
// dropped.
type Track struct {
	*webrtc.TrackLocalStaticRTP

	enabled    atomic.Bool
	maxBitrate atomic.Uint64
}

var _ transport.Track = (*Track)(nil)

// NewTrack creates an enabled track for codec.
func NewTrack(codec transport.Codec, kind transport.MediaKind, id, streamID string) (*Track, error) {
	params := fromCodec(kind, codec)
	local, err := webrtc.NewTrackLocalStaticRTP(params.RTPCodecCapability, id, streamID)
	if err != nil {
		return nil, fmt.Errorf("failed to create track %s: %w", id, err)
	}
	t := &Track{TrackLocalStaticRTP: local}
	t.enabled.Store(true)
	return t, nil
}

// MediaKind implements transport.Track.
func (t *Track) MediaKind() transport.MediaKind {
	return toMediaKind(t.Kind())
}

// Enabled implements transport.Track.
func (t *Track) Enabled() bool {
	return t.enabled.Load()
}

// SetEnabled implements transport.Track.
func (t *Track) SetEnabled(enabled bool) {
	t.enabled.Store(enabled)
}

// MaxBitrate is the target bitrate in bps committed through the sender, zero
// if none was set. Encoders feeding the track read it.
func (t *Track) MaxBitrate() uint64 {
	return t.maxBitrate.Load()
}

// WriteRTP writes p to every bound connection.
func (t *Track) WriteRTP(p *rtp.Packet) error {
	if !t.enabled.Load() {
		return nil
	}
	return t.TrackLocalStaticRTP.WriteRTP(p)
}

// Write writes a marshaled RTP packet to every bound connection.
func (t *Track) Write(b []byte) (int, error) {
	if !t.enabled.Load() {
		return len(b), nil
	}
	return t.TrackLocalStaticRTP.Write(b)
}

// RemoteTrack is a track received from the remote peer.
type RemoteTrack struct {
	track *webrtc.TrackRemote
}

var _ transport.RemoteTrack = (*RemoteTrack)(nil)

// ID implements transport.RemoteTrack.
func (r *RemoteTrack) ID() string {
	return r.track.ID()
}

// StreamID implements transport.RemoteTrack.
func (r *RemoteTrack) StreamID() string {
	return r.track.StreamID()
}

// MediaKind implements transport.RemoteTrack.
func (r *RemoteTrack) MediaKind() transport.MediaKind {
	return toMediaKind(r.track.Kind())
}

// Codec implements transport.RemoteTrack.
func (r *RemoteTrack) Codec() transport.Codec {
	return toCodec(r.track.Codec())
}

// ReadRTP reads the next packet of the track.
func (r *RemoteTrack) ReadRTP() (*rtp.Packet, error) {
	p, _, err := r.track.ReadRTP()
	return p, err
}
