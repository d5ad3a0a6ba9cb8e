// Package media contains the send and receive endpoints layered on a peer
// session, and the codec ordering used when tracks are attached.
package media

import (
	"strings"

	"peerlink/transport"
)

// CodecID identifies a codec by a substring of its mime type.
type CodecID string

// Video codec identifiers.
const (
	CodecH264 CodecID = "H264"
	CodecH265 CodecID = "H265"
	CodecVP8  CodecID = "VP8"
	CodecVP9  CodecID = "VP9"
	CodecAV1  CodecID = "AV1"
)

// Audio codec identifiers.
const (
	CodecOpus CodecID = "opus"
)

// Matches reports whether the mime type carries this codec id.
func (c CodecID) Matches(mimeType string) bool {
	return strings.Contains(strings.ToLower(mimeType), strings.ToLower(string(c)))
}

// OrderCodecs builds a preference list by walking priority in order and
// appending every capability that matches each entry. Capabilities matching
// no entry are left out. A capability matching several entries appears once
// per match.
func OrderCodecs(capabilities []transport.Codec, priority []CodecID) []transport.Codec {
	ordered := make([]transport.Codec, 0, len(capabilities))
	for _, id := range priority {
		for _, c := range capabilities {
			if id.Matches(c.MimeType) {
				ordered = append(ordered, c)
			}
		}
	}
	return ordered
}
