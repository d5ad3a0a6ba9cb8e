package media

import (
	"sync"

	"peerlink/transport"
)

// SendConfig configures a SendEndpoint. Bitrates are in kbps; zero leaves the
// engine default in place.
type SendConfig struct {
	VideoEnabled bool
	AudioEnabled bool

	VideoCodecs []CodecID
	AudioCodecs []CodecID

	VideoBitrateKbps uint64
	AudioBitrateKbps uint64
}

// DefaultSendConfig enables both kinds and leaves codecs and bitrate to the engine.
func DefaultSendConfig() SendConfig {
	return SendConfig{
		VideoEnabled: true,
		AudioEnabled: true,
	}
}

// SendEndpoint is one outbound media stream.
type SendEndpoint struct {
	stream *Stream
	config SendConfig

	mu           sync.RWMutex
	videoEnabled bool
	audioEnabled bool
}

// NewSendEndpoint wraps stream. The initial enable flags are applied to the
// stream's tracks right away.
func NewSendEndpoint(stream *Stream, config SendConfig) *SendEndpoint {
	cfg := config
	cfg.VideoCodecs = append([]CodecID(nil), config.VideoCodecs...)
	cfg.AudioCodecs = append([]CodecID(nil), config.AudioCodecs...)

	e := &SendEndpoint{
		stream: stream,
		config: cfg,
	}
	e.SetVideoEnabled(cfg.VideoEnabled)
	e.SetAudioEnabled(cfg.AudioEnabled)
	return e
}

// Stream returns the wrapped stream.
func (e *SendEndpoint) Stream() *Stream {
	return e.stream
}

// VideoEnabled reports the video flag.
func (e *SendEndpoint) VideoEnabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.videoEnabled
}

// AudioEnabled reports the audio flag.
func (e *SendEndpoint) AudioEnabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.audioEnabled
}

// SetVideoEnabled sets the video flag and applies it to every video track.
func (e *SendEndpoint) SetVideoEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.videoEnabled = enabled
	for _, t := range e.stream.TracksOf(transport.MediaKindVideo) {
		t.SetEnabled(enabled)
	}
}

// SetAudioEnabled sets the audio flag and applies it to every audio track.
func (e *SendEndpoint) SetAudioEnabled(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.audioEnabled = enabled
	for _, t := range e.stream.TracksOf(transport.MediaKindAudio) {
		t.SetEnabled(enabled)
	}
}

// CodecPriority returns the configured priority list for kind.
func (e *SendEndpoint) CodecPriority(kind transport.MediaKind) []CodecID {
	switch kind {
	case transport.MediaKindVideo:
		return append([]CodecID(nil), e.config.VideoCodecs...)
	case transport.MediaKindAudio:
		return append([]CodecID(nil), e.config.AudioCodecs...)
	default:
		return nil
	}
}

// TargetBitrateKbps returns the configured bitrate for kind, zero if unset.
func (e *SendEndpoint) TargetBitrateKbps(kind transport.MediaKind) uint64 {
	switch kind {
	case transport.MediaKindVideo:
		return e.config.VideoBitrateKbps
	case transport.MediaKindAudio:
		return e.config.AudioBitrateKbps
	default:
		return 0
	}
}
