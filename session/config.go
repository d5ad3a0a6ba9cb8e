package session

import (
	"errors"
	"fmt"
	"time"

	"peerlink/signaling"
)

// Reserved pre-negotiated channels. Both peers create them with the same id.
const (
	ApplicationLabel        = "application"
	ApplicationID    uint16 = 0
	SignalingLabel          = "signaling"
	SignalingID      uint16 = 1
)

// ErrInvalidDebounce is returned for a negative negotiation debounce.
var ErrInvalidDebounce = errors.New("invalid negotiation debounce")

// Config configures a Session.
type Config struct {
	// ICEMode is fixed for the lifetime of the session.
	ICEMode signaling.ICEMode
	// AutoAnswer answers offers received over the signaling channel.
	AutoAnswer bool
	// NegotiationDebounce coalesces bursts of negotiation-needed events.
	// Zero handles every event.
	NegotiationDebounce time.Duration
}

// DefaultConfig returns an eager, non answering configuration.
func DefaultConfig() Config {
	return Config{
		ICEMode: signaling.ICEModeEager,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !c.ICEMode.Valid() {
		return fmt.Errorf("%w: %d", signaling.ErrInvalidICEMode, int(c.ICEMode))
	}
	if c.NegotiationDebounce < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDebounce, c.NegotiationDebounce)
	}
	return nil
}
