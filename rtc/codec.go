package rtc

import (
	"github.com/pion/webrtc/v4"
	"peerlink/transport"
)

var videoRTCPFeedback = []webrtc.RTCPFeedback{
	{Type: "goog-remb"},
	{Type: "ccm", Parameter: "fir"},
	{Type: "nack"},
	{Type: "nack", Parameter: "pli"},
	{Type: "transport-cc"},
}

// Codecs registered on every session, in default preference order.
var (
	videoCodecs = []webrtc.RTPCodecParameters{
		{
			RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000, RTCPFeedback: videoRTCPFeedback},
			PayloadType:        96,
		},
		{
			RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP9, ClockRate: 90000, SDPFmtpLine: "profile-id=0", RTCPFeedback: videoRTCPFeedback},
			PayloadType:        98,
		},
		{
			RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264, ClockRate: 90000, SDPFmtpLine: "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42001f", RTCPFeedback: videoRTCPFeedback},
			PayloadType:        102,
		},
		{
			RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264, ClockRate: 90000, SDPFmtpLine: "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42e01f", RTCPFeedback: videoRTCPFeedback},
			PayloadType:        125,
		},
		{
			RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeAV1, ClockRate: 90000, RTCPFeedback: videoRTCPFeedback},
			PayloadType:        45,
		},
	}

	audioCodecs = []webrtc.RTPCodecParameters{
		{
			RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2, SDPFmtpLine: "minptime=10;useinbandfec=1"},
			PayloadType:        111,
		},
		{
			RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypePCMU, ClockRate: 8000},
			PayloadType:        0,
		},
		{
			RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypePCMA, ClockRate: 8000},
			PayloadType:        8,
		},
	}
)

func registerCodecs(m *webrtc.MediaEngine) error {
	for _, codec := range videoCodecs {
		if err := m.RegisterCodec(codec, webrtc.RTPCodecTypeVideo); err != nil {
			return err
		}
	}
	for _, codec := range audioCodecs {
		if err := m.RegisterCodec(codec, webrtc.RTPCodecTypeAudio); err != nil {
			return err
		}
	}
	return nil
}

func registeredCodecs(kind transport.MediaKind) []webrtc.RTPCodecParameters {
	switch kind {
	case transport.MediaKindVideo:
		return videoCodecs
	case transport.MediaKindAudio:
		return audioCodecs
	default:
		return nil
	}
}

func toCodec(c webrtc.RTPCodecParameters) transport.Codec {
	return transport.Codec{
		MimeType:    c.MimeType,
		ClockRate:   c.ClockRate,
		Channels:    c.Channels,
		SDPFmtpLine: c.SDPFmtpLine,
		PayloadType: uint8(c.PayloadType),
	}
}

// fromCodec restores the registered parameters of c, including its
// feedback, or builds them from c when it is not a registered codec.
func fromCodec(kind transport.MediaKind, c transport.Codec) webrtc.RTPCodecParameters {
	for _, registered := range registeredCodecs(kind) {
		if uint8(registered.PayloadType) == c.PayloadType && registered.MimeType == c.MimeType {
			return registered
		}
	}
	return webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{
			MimeType:    c.MimeType,
			ClockRate:   c.ClockRate,
			Channels:    c.Channels,
			SDPFmtpLine: c.SDPFmtpLine,
		},
		PayloadType: webrtc.PayloadType(c.PayloadType),
	}
}

func toMediaKind(t webrtc.RTPCodecType) transport.MediaKind {
	if t == webrtc.RTPCodecTypeAudio {
		return transport.MediaKindAudio
	}
	return transport.MediaKindVideo
}
