package cmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"peerlink/cmd"
	"peerlink/logging"
	"peerlink/metric"
	"peerlink/bootstrap"
	"peerlink/rtc"
	"peerlink/signaling"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		modify  func(c *cmd.Config)
		wantErr bool
	}{
		{
			name:   "given no args when parsed then return default config",
			args:   []string{},
			modify: func(*cmd.Config) {},
		},
		{
			name: "given answer role over ws when parsed then return config",
			args: []string{"-role=answer", "-bootstrap=ws", "-url=ws://localhost:7070/"},
			modify: func(c *cmd.Config) {
				c.Role = cmd.RoleAnswer
				c.Bootstrap = cmd.BootstrapWebSocket
				c.PeerURL = "ws://localhost:7070/"
			},
		},
		{
			name: "given trickle ice when parsed then mode is incremental",
			args: []string{"-ice=trickle"},
			modify: func(c *cmd.Config) {
				c.Session.ICEMode = signaling.ICEModeIncremental
			},
		},
		{
			name: "given stun list and port range when parsed then rtc config is set",
			args: []string{"-stun=stun:a.example.com:3478, turn:b.example.com", "-udp-min=50000", "-udp-max=50100", "-loopback"},
			modify: func(c *cmd.Config) {
				c.RTC.ICEServers = []string{"stun:a.example.com:3478", "turn:b.example.com"}
				c.RTC.MinUDPPort = 50000
				c.RTC.MaxUDPPort = 50100
				c.RTC.IncludeLoopback = true
			},
		},
		{
			name: "given debounce and no auto answer when parsed then session config is set",
			args: []string{"-debounce=50ms", "-auto-answer=false"},
			modify: func(c *cmd.Config) {
				c.Session.NegotiationDebounce = 50 * time.Millisecond
				c.Session.AutoAnswer = false
			},
		},
		{
			name: "given ws-listen bootstrap when parsed then return listen config",
			args: []string{"-bootstrap=ws-listen", "-port=8080"},
			modify: func(c *cmd.Config) {
				c.Bootstrap = cmd.BootstrapListen
				c.Listen.Port = 8080
			},
		},
		{
			name: "given metrics and log flags when parsed then return config",
			args: []string{"-metrics", "-metrics-port=9191", "-log-level=debug", "-log-format=json", "-log-output=stdout,/tmp/peerlink.log"},
			modify: func(c *cmd.Config) {
				c.MetricsEnabled = true
				c.Metrics.Port = 9191
				c.Log.Level = "debug"
				c.Log.Format = "json"
				c.Log.Outputs = []string{"stdout", "/tmp/peerlink.log"}
			},
		},
		{
			name:    "given unknown ice mode when parsed then return error",
			args:    []string{"-ice=fast"},
			wantErr: true,
		},
		{
			name:    "given udp port above range when parsed then return error",
			args:    []string{"-udp-min=70000"},
			wantErr: true,
		},
		{
			name:    "given extra args when parsed then return error",
			args:    []string{"-role=offer", "extra"},
			wantErr: true,
		},
		{
			name:    "given invalid flag format when parsed then return error",
			args:    []string{"-extra"},
			wantErr: true,
		},
		{
			name:    "given port flag without value when parsed then return error",
			args:    []string{"-port"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			got, err := cmd.Parse(&output, tt.args)
			if tt.wantErr {
				assert.Errorf(t, err, "parse() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			want := cmd.DefaultConfig()
			tt.modify(&want)
			assert.Equal(t, want, got)
		})
	}
}

func TestSetupConfig(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "cert.pem")
	keyFile := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certFile, []byte("cert"), 0o600))
	require.NoError(t, os.WriteFile(keyFile, []byte("key"), 0o600))

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{
			name: "given no args when setup config then return valid peer config",
			args: []string{},
		},
		{
			name: "given ws-listen with tls files when setup config then return valid config",
			args: []string{"-bootstrap=ws-listen", "-port=8080", "-key=" + keyFile, "-cert=" + certFile},
		},
		{
			name:    "given ws-listen with non-existent cert when setup config then return error",
			args:    []string{"-bootstrap=ws-listen", "-key=" + keyFile, "-cert=/non/existent/cert.pem"},
			wantErr: bootstrap.ErrInvalidCertFile,
		},
		{
			name:    "given ws-listen with invalid port when setup config then return error",
			args:    []string{"-bootstrap=ws-listen", "-port=0"},
			wantErr: bootstrap.ErrInvalidPort,
		},
		{
			name: "given invalid port without ws-listen when setup config then port is ignored",
			args: []string{"-port=0"},
		},
		{
			name:    "given unknown role when setup config then return error",
			args:    []string{"-role=observer"},
			wantErr: cmd.ErrInvalidRole,
		},
		{
			name:    "given unknown bootstrap when setup config then return error",
			args:    []string{"-bootstrap=carrier-pigeon"},
			wantErr: cmd.ErrInvalidBootstrap,
		},
		{
			name:    "given ws bootstrap without url when setup config then return error",
			args:    []string{"-bootstrap=ws"},
			wantErr: cmd.ErrMissingPeerURL,
		},
		{
			name:    "given half port range when setup config then return error",
			args:    []string{"-udp-min=50000"},
			wantErr: rtc.ErrInvalidPortRange,
		},
		{
			name:    "given enabled metrics with bad path when setup config then return error",
			args:    []string{"-metrics", "-metrics-path=metrics"},
			wantErr: metric.ErrInvalidPath,
		},
		{
			name:    "given unknown log level when setup config then return error",
			args:    []string{"-log-level=loud"},
			wantErr: logging.ErrInvalidLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			_, err := cmd.SetupConfig(&output, tt.args)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
