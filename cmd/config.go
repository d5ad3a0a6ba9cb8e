package cmd

import (
	"errors"
	"fmt"
	"strings"

	"peerlink/bootstrap"
	"peerlink/logging"
	"peerlink/metric"
	"peerlink/rtc"
	"peerlink/session"
)

// Peer roles.
const (
	RoleOffer  = "offer"
	RoleAnswer = "answer"
)

// Bootstrap exchangers.
const (
	BootstrapConsole   = "console"
	BootstrapWebSocket = "ws"
	BootstrapListen    = "ws-listen"
)

// Below is the Error message for the command line configuration.
var (
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidBootstrap = errors.New("invalid bootstrap")
	ErrMissingPeerURL   = errors.New("peer url required for ws bootstrap")
)

// Config is the configuration of one process.
type Config struct {
	Role      string
	Bootstrap string
	PeerURL   string

	RTC     rtc.Config
	Session session.Config
	Log     logging.Config
	Listen  bootstrap.ListenConfig

	MetricsEnabled bool
	Metrics        metric.Config
}

// DefaultConfig returns the configuration used when no flag is given.
func DefaultConfig() Config {
	return Config{
		Role:      RoleOffer,
		Bootstrap: BootstrapConsole,
		RTC:       rtc.DefaultConfig(),
		Session:   defaultSessionConfig(),
		Log:       logging.DefaultConfig(),
		Listen:    bootstrap.ListenConfig{Port: bootstrap.DefaultPort},
		Metrics:   metric.DefaultConfig(),
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("failed to validate log config: %w", err)
	}
	if c.MetricsEnabled {
		if err := c.Metrics.Validate(); err != nil {
			return fmt.Errorf("failed to validate metrics config: %w", err)
		}
	}

	switch c.Role {
	case RoleOffer, RoleAnswer:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRole, c.Role)
	}
	switch c.Bootstrap {
	case BootstrapConsole:
	case BootstrapWebSocket:
		if c.PeerURL == "" {
			return ErrMissingPeerURL
		}
	case BootstrapListen:
		if err := c.Listen.Validate(); err != nil {
			return fmt.Errorf("failed to validate listen config: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBootstrap, c.Bootstrap)
	}
	if err := c.RTC.Validate(); err != nil {
		return fmt.Errorf("failed to validate rtc config: %w", err)
	}
	if err := c.Session.Validate(); err != nil {
		return fmt.Errorf("failed to validate session config: %w", err)
	}
	return nil
}

func defaultSessionConfig() session.Config {
	c := session.DefaultConfig()
	c.AutoAnswer = true
	return c
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
