package metric

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Default values for metrics configuration.
const (
	DefaultMetricsPort    = 9090
	DefaultMetricsPath    = "/metrics"
	DefaultSampleInterval = 5 * time.Second
)

var (
	// ErrInvalidPort is returned for a port outside 1-65535.
	ErrInvalidPort = errors.New("invalid metrics port")

	// ErrInvalidPath is returned for a path that does not start with a slash.
	ErrInvalidPath = errors.New("invalid metrics path")

	// ErrInvalidInterval is returned for a non-positive sample interval.
	ErrInvalidInterval = errors.New("invalid sample interval")
)

// Config defines the configuration for the metrics server.
type Config struct {
	Port           int           // Port for metrics server
	Path           string        // Path for metrics endpoint
	SampleInterval time.Duration // Interval of system usage sampling
}

// DefaultConfig returns the default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Port:           DefaultMetricsPort,
		Path:           DefaultMetricsPath,
		SampleInterval: DefaultSampleInterval,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, c.Path)
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, c.SampleInterval)
	}
	return nil
}
