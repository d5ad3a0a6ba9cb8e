// Package metric provides Prometheus metrics collection and monitoring.
package metric

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"go.uber.org/zap"
)

const namespace = "peerlink"

// Metrics contains the Prometheus metrics server and registered custom metrics.
type Metrics struct {
	config   Config
	logger   *zap.Logger
	registry *prometheus.Registry

	httpServer *http.Server
	stop       chan struct{}
	stopOnce   sync.Once
	stopErr    error

	sessions          prometheus.Gauge
	dataChannels      prometheus.Gauge
	mediaChannels     *prometheus.GaugeVec
	negotiations      *prometheus.CounterVec
	signalingMessages *prometheus.CounterVec
	cpuUsage          prometheus.Gauge
	memoryUsage       prometheus.Gauge
}

// New creates a new Metrics instance with its own registry.
func New(config Config, logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Metrics{
		config:   config,
		logger:   logger.With(zap.String("component", "metric")),
		registry: prometheus.NewRegistry(),
		stop:     make(chan struct{}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Current number of peer sessions.",
		}),
		dataChannels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "data_channels",
			Help:      "Current number of registered data channels.",
		}),
		mediaChannels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "media_channels",
			Help:      "Current number of registered media channels.",
		}, []string{"direction"}), // Direction: "send" or "receive"
		negotiations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "negotiations_total",
			Help:      "Local descriptions created, by kind and result.",
		}, []string{"kind", "result"}),
		signalingMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signaling_messages_total",
			Help:      "Envelopes carried over the signaling channel.",
		}, []string{"direction", "role"}),
		cpuUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cpu_usage_percentage",
			Help:      "CPU usage percentage.",
		}),
		memoryUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_usage_bytes",
			Help:      "Current memory usage in bytes.",
		}),
	}
	m.registry.MustRegister(
		m.sessions,
		m.dataChannels,
		m.mediaChannels,
		m.negotiations,
		m.signalingMessages,
		m.cpuUsage,
		m.memoryUsage,
	)
	return m
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Start starts the metrics HTTP server and system usage sampling.
func (m *Metrics) Start() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", m.config.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on metrics port: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())
	m.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		m.logger.Info("starting metrics server", zap.Int("port", m.config.Port), zap.String("path", m.config.Path))
		if err := m.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	go m.updateSystemMetrics()
	return nil
}

// Stop shuts down the metrics server. Later calls return the first result.
func (m *Metrics) Stop() error {
	m.stopOnce.Do(func() {
		close(m.stop)
		if m.httpServer != nil {
			m.logger.Info("stopping metrics server", zap.Int("port", m.config.Port))
			m.stopErr = m.httpServer.Close()
		}
	})
	return m.stopErr
}

func (m *Metrics) updateSystemMetrics() {
	ticker := time.NewTicker(m.config.SampleInterval)
	defer ticker.Stop()
	for {
		if err := m.SampleSystemMetrics(); err != nil {
			m.logger.Warn("failed to sample system metrics", zap.Error(err))
		}
		select {
		case <-m.stop:
			return
		case <-ticker.C:
		}
	}
}

// SampleSystemMetrics reads system CPU and memory usage once.
func (m *Metrics) SampleSystemMetrics() error {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return fmt.Errorf("failed to read memory usage: %w", err)
	}
	m.memoryUsage.Set(float64(vm.Used))

	percent, err := cpu.Percent(0, false)
	if err != nil {
		return fmt.Errorf("failed to read cpu usage: %w", err)
	}
	if len(percent) > 0 {
		m.cpuUsage.Set(percent[0])
	}
	return nil
}

// IncrementSessions increments the session count.
func (m *Metrics) IncrementSessions() {
	m.sessions.Inc()
}

// DecrementSessions decrements the session count.
func (m *Metrics) DecrementSessions() {
	m.sessions.Dec()
}

// IncrementDataChannels increments the data channel count.
func (m *Metrics) IncrementDataChannels() {
	m.dataChannels.Inc()
}

// DecrementDataChannels decrements the data channel count.
func (m *Metrics) DecrementDataChannels() {
	m.dataChannels.Dec()
}

// IncrementMediaChannels increments the media channel count of direction.
func (m *Metrics) IncrementMediaChannels(direction string) {
	m.mediaChannels.WithLabelValues(direction).Inc()
}

// DecrementMediaChannels decrements the media channel count of direction.
func (m *Metrics) DecrementMediaChannels(direction string) {
	m.mediaChannels.WithLabelValues(direction).Dec()
}

// IncrementNegotiations counts one local description attempt.
func (m *Metrics) IncrementNegotiations(kind, result string) {
	m.negotiations.WithLabelValues(kind, result).Inc()
}

// IncrementSignalingMessages counts one envelope on the signaling channel.
func (m *Metrics) IncrementSignalingMessages(direction, role string) {
	m.signalingMessages.WithLabelValues(direction, role).Inc()
}
