// Package cmd parse args to configure application.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"
	"peerlink/bootstrap"
	"peerlink/logging"
	"peerlink/metric"
	"peerlink/signaling"
)

// Run starts the application.
func Run() {
	config, err := SetupConfig(os.Stderr, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	logger, err := logging.New(config.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config, logger, os.Stdin, os.Stdout); err != nil {
		logger.Error("peerlink stopped", zap.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, config Config, logger *zap.Logger, in io.Reader, out io.Writer) error {
	var metrics *metric.Metrics
	if config.MetricsEnabled {
		metrics = metric.New(config.Metrics, logger)
		if err := metrics.Start(); err != nil {
			return err
		}
		defer func() {
			if err := metrics.Stop(); err != nil {
				logger.Warn("failed to stop metrics server", zap.Error(err))
			}
		}()
	}

	return runPeer(ctx, config, logger, metrics, in, out)
}

// SetupConfig sets up and returns the configuration.
func SetupConfig(w io.Writer, args []string) (Config, error) {
	config, err := Parse(w, args)
	if err != nil {
		return config, err
	}
	if err = config.Validate(); err != nil {
		fmt.Fprintln(w, err)
		return config, err
	}
	return config, nil
}

// Parse parses the command line arguments.
func Parse(w io.Writer, args []string) (Config, error) {
	con := DefaultConfig()

	fs := flag.NewFlagSet("peerlink", flag.ContinueOnError)
	fs.SetOutput(w)
	fs.StringVar(&con.Role, "role", RoleOffer, "offer or answer")
	fs.StringVar(&con.Bootstrap, "bootstrap", BootstrapConsole, "first offer/answer exchange: console, ws or ws-listen")
	fs.StringVar(&con.PeerURL, "url", "", "websocket url to dial for ws bootstrap, e.g. ws://host:7070/")
	fs.Func("ice", "ice mode: eager or incremental (default eager)", func(s string) error {
		mode, err := signaling.ParseICEMode(s)
		con.Session.ICEMode = mode
		return err
	})
	fs.BoolVar(&con.Session.AutoAnswer, "auto-answer", con.Session.AutoAnswer, "answer offers received over the signaling channel")
	fs.DurationVar(&con.Session.NegotiationDebounce, "debounce", 0, "coalesce negotiation-needed bursts")
	fs.Func("stun", "comma separated ice server urls (default "+con.RTC.ICEServers[0]+")", func(s string) error {
		con.RTC.ICEServers = splitList(s)
		return nil
	})
	fs.Func("udp-min", "lowest udp port for ice", portFlag(&con.RTC.MinUDPPort))
	fs.Func("udp-max", "highest udp port for ice", portFlag(&con.RTC.MaxUDPPort))
	fs.BoolVar(&con.RTC.IncludeLoopback, "loopback", false, "gather loopback candidates")

	// ws-listen
	fs.IntVar(&con.Listen.Port, "port", bootstrap.DefaultPort, "listening port for ws-listen bootstrap")
	fs.StringVar(&con.Listen.KeyFile, "key", "", "key file path")
	fs.StringVar(&con.Listen.CertFile, "cert", "", "cert file path")

	// metrics
	fs.BoolVar(&con.MetricsEnabled, "metrics", false, "serve prometheus metrics")
	fs.IntVar(&con.Metrics.Port, "metrics-port", metric.DefaultMetricsPort, "metrics port")
	fs.StringVar(&con.Metrics.Path, "metrics-path", metric.DefaultMetricsPath, "metrics path")

	// logging
	fs.StringVar(&con.Log.Level, "log-level", con.Log.Level, "debug, info, warn or error")
	fs.StringVar(&con.Log.Format, "log-format", con.Log.Format, "console or json")
	fs.Func("log-output", "comma separated outputs: stdout, stderr or file paths (default stderr)", func(s string) error {
		con.Log.Outputs = splitList(s)
		return nil
	})
	fs.BoolVar(&con.Log.Rotation.Enable, "log-rotate", false, "rotate file outputs")

	err := fs.Parse(args)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse args: %w", err)
	}

	if fs.NArg() != 0 {
		return Config{}, errors.New("some args are not parsed")
	}

	return con, nil
}

func portFlag(dst *uint16) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", s, err)
		}
		*dst = uint16(v)
		return nil
	}
}
