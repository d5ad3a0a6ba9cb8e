package signaling

import "go.uber.org/zap"

// Recorder receives negotiation counters. metric.Metrics implements it.
type Recorder interface {
	IncrementNegotiations(kind, result string)
	IncrementSignalingMessages(direction, role string)
}

type nopRecorder struct{}

func (nopRecorder) IncrementNegotiations(string, string)      {}
func (nopRecorder) IncrementSignalingMessages(string, string) {}

// Option configures a Negotiator.
type Option func(*Negotiator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(n *Negotiator) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithAutoAnswer makes an inbound offer on the signaling channel answered
// over the same channel.
func WithAutoAnswer(enabled bool) Option {
	return func(n *Negotiator) {
		n.autoAnswer = enabled
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(n *Negotiator) {
		if r != nil {
			n.recorder = r
		}
	}
}
