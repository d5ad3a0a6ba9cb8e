package session

import (
	"go.uber.org/zap"
	"peerlink/signaling"
)

// Media channel directions reported to the Recorder.
const (
	DirectionSend    = "send"
	DirectionReceive = "receive"
)

// Recorder receives session counters. metric.Metrics implements it.
type Recorder interface {
	signaling.Recorder
	IncrementSessions()
	DecrementSessions()
	IncrementDataChannels()
	DecrementDataChannels()
	IncrementMediaChannels(direction string)
	DecrementMediaChannels(direction string)
}

type nopRecorder struct{}

func (nopRecorder) IncrementNegotiations(string, string)      {}
func (nopRecorder) IncrementSignalingMessages(string, string) {}
func (nopRecorder) IncrementSessions()                        {}
func (nopRecorder) DecrementSessions()                        {}
func (nopRecorder) IncrementDataChannels()                    {}
func (nopRecorder) DecrementDataChannels()                    {}
func (nopRecorder) IncrementMediaChannels(string)             {}
func (nopRecorder) DecrementMediaChannels(string)             {}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}
