// Package rtc implements transport.Session on a pion PeerConnection.
package rtc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pion/webrtc/v4"
)

// DefaultSTUNServer is used when no ICE server is configured.
const DefaultSTUNServer = "stun:stun.l.google.com:19302"

var (
	// ErrInvalidPortRange is returned for a half-set or inverted UDP port range.
	ErrInvalidPortRange = errors.New("invalid udp port range")

	// ErrInvalidICEServer is returned for an ICE server url without a known scheme.
	ErrInvalidICEServer = errors.New("invalid ice server")
)

// Config configures the engine of one session.
type Config struct {
	// ICEServers are stun: or turn: urls.
	ICEServers []string
	// MinUDPPort and MaxUDPPort bound the ephemeral ports used for ICE. Both
	// zero leaves the range to the OS.
	MinUDPPort uint16
	MaxUDPPort uint16
	// IncludeLoopback gathers loopback candidates, for same-host peers.
	IncludeLoopback bool
}

// DefaultConfig returns a config with the default STUN server.
func DefaultConfig() Config {
	return Config{
		ICEServers: []string{DefaultSTUNServer},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if (c.MinUDPPort == 0) != (c.MaxUDPPort == 0) {
		return fmt.Errorf("%w: both bounds must be set, got %d-%d", ErrInvalidPortRange, c.MinUDPPort, c.MaxUDPPort)
	}
	if c.MinUDPPort > c.MaxUDPPort {
		return fmt.Errorf("%w: min %d > max %d", ErrInvalidPortRange, c.MinUDPPort, c.MaxUDPPort)
	}
	for _, url := range c.ICEServers {
		if !strings.HasPrefix(url, "stun:") && !strings.HasPrefix(url, "turn:") && !strings.HasPrefix(url, "turns:") {
			return fmt.Errorf("%w: %q", ErrInvalidICEServer, url)
		}
	}
	return nil
}

// SetPortRange applies the UDP port range to the setting engine.
func (c Config) SetPortRange(s *webrtc.SettingEngine) error {
	if c.MinUDPPort == 0 && c.MaxUDPPort == 0 {
		return nil
	}
	if err := s.SetEphemeralUDPPortRange(c.MinUDPPort, c.MaxUDPPort); err != nil {
		return fmt.Errorf("failed to set ephemeral UDP port range: %w", err)
	}
	return nil
}

func (c Config) configuration() webrtc.Configuration {
	if len(c.ICEServers) == 0 {
		return webrtc.Configuration{}
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: append([]string(nil), c.ICEServers...),
			},
		},
	}
}
