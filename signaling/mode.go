package signaling

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidICEMode is returned for an unknown ICE mode.
var ErrInvalidICEMode = errors.New("invalid ice mode")

// ICEMode selects how local descriptions relate to candidate gathering.
type ICEMode int

const (
	// ICEModeEager waits for gathering to complete so the returned SDP
	// carries every candidate.
	ICEModeEager ICEMode = iota
	// ICEModeIncremental returns the SDP right away; candidates trickle
	// through a side channel.
	ICEModeIncremental
)

// ParseICEMode parses "eager" or "incremental".
func ParseICEMode(s string) (ICEMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "eager", "vanilla":
		return ICEModeEager, nil
	case "incremental", "trickle":
		return ICEModeIncremental, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidICEMode, s)
	}
}

// Valid reports whether m is a known mode.
func (m ICEMode) Valid() bool {
	return m == ICEModeEager || m == ICEModeIncremental
}

func (m ICEMode) String() string {
	switch m {
	case ICEModeEager:
		return "eager"
	case ICEModeIncremental:
		return "incremental"
	default:
		return fmt.Sprintf("ice-mode(%d)", int(m))
	}
}
