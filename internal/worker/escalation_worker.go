package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/emmanuelfore/tarisa-sub001/internal/escalation"
)

// Sweeper runs one escalation pass.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (escalation.SweepReport, error)
}

// SweepRecorder receives sweep outcomes.
type SweepRecorder interface {
	RecordSweep(report escalation.SweepReport)
	RecordSweepFailure()
}

// EscalationWorker drives sweeps on a fixed interval.
type EscalationWorker struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *zap.Logger
	recorder SweepRecorder
	now      func() time.Time
}

// NewEscalationWorker builds the worker. recorder may be nil.
func NewEscalationWorker(sweeper Sweeper, interval time.Duration, logger *zap.Logger, recorder SweepRecorder) *EscalationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EscalationWorker{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
		recorder: recorder,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps every interval until ctx is cancelled. The first sweep starts
// one interval after Run is called.
func (w *EscalationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("escalation worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("escalation worker stopped")
			return
		case <-ticker.C:
			_, _ = w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and records its outcome. An overlapping
// sweep is not counted as a failure.
func (w *EscalationWorker) RunOnce(ctx context.Context) (escalation.SweepReport, error) {
	report, err := w.sweeper.Sweep(ctx, w.now())
	switch {
	case err == nil:
		// The engine logs the report itself.
		if w.recorder != nil {
			w.recorder.RecordSweep(report)
		}
	case errors.Is(err, escalation.ErrSweepInProgress):
		w.logger.Debug("escalation sweep skipped; previous sweep still running")
	default:
		if w.recorder != nil {
			w.recorder.RecordSweepFailure()
		}
		w.logger.Error("escalation sweep failed", zap.Error(err))
	}
	return report, err
}
