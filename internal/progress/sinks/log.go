// Package sinks provides progress.Sink implementations.
package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/edgefleet/fleetctl/internal/progress"
)

// LogSink emits structured log lines for each progress event. This is the
// per-worker console output of a deploy run.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs the event using structured fields. Deploy errors log at
// warn level so failed workers stand out in an otherwise green run.
func (s *LogSink) Consume(_ context.Context, evt progress.Event) error {
	fields := []zap.Field{
		zap.String("run_id", evt.RunID),
		zap.String("stage", string(evt.Stage)),
		zap.String("worker", evt.Worker),
		zap.Bool("key_generated", evt.KeyGenerated),
		zap.Duration("dur", evt.Dur),
		zap.String("note", evt.Note),
	}
	if evt.Stage == progress.StageDeployError {
		s.logger.Warn("progress event", fields...)
		return nil
	}
	s.logger.Info("progress event", fields...)
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *LogSink) Close(context.Context) error {
	return nil
}
