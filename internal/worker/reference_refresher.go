package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/emmanuelfore/tarisa-sub001/internal/refdata"
)

// Refresher reloads reference data.
type Refresher interface {
	Refresh(ctx context.Context) (*refdata.Snapshot, error)
}

// RefreshRecorder counts failed reloads.
type RefreshRecorder interface {
	RecordRefreshFailure()
}

// ReferenceRefresher reloads the reference snapshot periodically. Failures
// leave the previous snapshot in place; the manager logs the staleness.
type ReferenceRefresher struct {
	refresher Refresher
	interval  time.Duration
	logger    *zap.Logger
	recorder  RefreshRecorder
}

// NewReferenceRefresher builds the worker. recorder may be nil.
func NewReferenceRefresher(refresher Refresher, interval time.Duration, logger *zap.Logger, recorder RefreshRecorder) *ReferenceRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceRefresher{refresher: refresher, interval: interval, logger: logger, recorder: recorder}
}

// Run reloads every interval until ctx is cancelled.
func (r *ReferenceRefresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.RunOnce(ctx)
		}
	}
}

// RunOnce performs one reload.
func (r *ReferenceRefresher) RunOnce(ctx context.Context) error {
	snap, err := r.refresher.Refresh(ctx)
	if err != nil {
		if r.recorder != nil {
			r.recorder.RecordRefreshFailure()
		}
		return err
	}
	jurisdictions, departments := snap.Counts()
	r.logger.Debug("reference data refreshed",
		zap.Int("jurisdictions", jurisdictions),
		zap.Int("departments", departments))
	return nil
}
