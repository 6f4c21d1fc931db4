package progress

import (
	"context"

	"go.uber.org/zap"
)

// Sink consumes progress events. Implementations must be safe for repeated
// calls and honor ctx deadlines.
type Sink interface {
	Consume(ctx context.Context, evt Event) error
	Close(ctx context.Context) error
}

// Emitter publishes individual events; Recorder satisfies this interface
// so the deployer can remain agnostic about where events end up.
type Emitter interface {
	Emit(ctx context.Context, evt Event)
}

// Recorder fans events out to its sinks synchronously. Deployment runs are
// strictly sequential, so there is nothing to buffer or batch; a sink
// failure is logged and never interrupts the run.
type Recorder struct {
	sinks  []Sink
	logger *zap.Logger
}

// NewRecorder wires the given sinks behind one Emitter.
func NewRecorder(logger *zap.Logger, sinks ...Sink) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		sinks:  append([]Sink(nil), sinks...),
		logger: logger,
	}
}

// Emit validates the event and hands it to every sink in order.
func (r *Recorder) Emit(ctx context.Context, evt Event) {
	if r == nil {
		return
	}
	if err := evt.Validate(); err != nil {
		r.logger.Debug("discarding invalid progress event", zap.Error(err))
		return
	}
	for _, sink := range r.sinks {
		if sink == nil {
			continue
		}
		if err := sink.Consume(ctx, evt); err != nil {
			r.logger.Warn("progress sink consume failed", zap.Error(err))
		}
	}
}

// Close closes every sink. Sink close failures are logged, not returned,
// since shutdown should not fail a completed run.
func (r *Recorder) Close(ctx context.Context) {
	if r == nil {
		return
	}
	for _, sink := range r.sinks {
		if sink == nil {
			continue
		}
		if err := sink.Close(ctx); err != nil {
			r.logger.Warn("progress sink close failed", zap.Error(err))
		}
	}
}
