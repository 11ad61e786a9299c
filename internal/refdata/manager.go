package refdata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/emmanuelfore/tarisa-sub001/internal/routing"
)

// ErrUnavailable reports that fresh reference data could not be loaded.
var ErrUnavailable = errors.New("reference data unavailable")

// Manager owns the current snapshot. Readers call Current and keep the
// pointer for the duration of one operation.
type Manager struct {
	source Source
	cache  Cache
	rules  *routing.RuleSet
	logger *zap.Logger
	now    func() time.Time

	current  atomic.Pointer[Snapshot]
	refresh  sync.Mutex
	failures atomic.Int64
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithCache enables the cold start fallback.
func WithCache(c Cache) ManagerOption {
	return func(m *Manager) { m.cache = c }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager with no snapshot loaded.
func NewManager(source Source, rules *routing.RuleSet, logger *zap.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{source: source, rules: rules, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns the active snapshot, or nil before the first load.
func (m *Manager) Current() *Snapshot {
	return m.current.Load()
}

// Rules returns the assignment rule table shared by all snapshots.
func (m *Manager) Rules() *routing.RuleSet {
	return m.rules
}

// Failures counts refreshes that ended in ErrUnavailable.
func (m *Manager) Failures() int64 {
	return m.failures.Load()
}

// Refresh loads and swaps in a new snapshot. On failure the previous snapshot
// stays active and the returned error wraps ErrUnavailable. With no previous
// snapshot the cache is consulted before giving up.
func (m *Manager) Refresh(ctx context.Context) (*Snapshot, error) {
	m.refresh.Lock()
	defer m.refresh.Unlock()

	now := m.now()
	snap, err := m.load(ctx, now)
	if err == nil {
		m.current.Store(snap)
		jurisdictions, departments := snap.Counts()
		m.logger.Info("reference data loaded",
			zap.Int("jurisdictions", jurisdictions),
			zap.Int("departments", departments))
		if m.cache != nil {
			if cerr := m.cache.Store(ctx, snap.Data()); cerr != nil {
				m.logger.Warn("cache reference data failed", zap.Error(cerr))
			}
		}
		return snap, nil
	}

	m.failures.Add(1)
	if prev := m.Current(); prev != nil {
		m.logger.Warn("reference data unavailable, serving last good snapshot",
			zap.Duration("stale_for", now.Sub(prev.LoadedAt)),
			zap.Error(err))
		return prev, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if cached, ok := m.fromCache(ctx, now); ok {
		m.current.Store(cached)
		m.logger.Warn("reference data unavailable, serving cached snapshot", zap.Error(err))
		return cached, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	m.logger.Error("reference data unavailable and no snapshot loaded", zap.Error(err))
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func (m *Manager) load(ctx context.Context, now time.Time) (*Snapshot, error) {
	data, err := m.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Build(data, m.rules, now)
}

func (m *Manager) fromCache(ctx context.Context, now time.Time) (*Snapshot, bool) {
	if m.cache == nil {
		return nil, false
	}
	data, ok, err := m.cache.Load(ctx)
	if err != nil {
		m.logger.Warn("read reference cache failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	snap, err := Build(data, m.rules, now)
	if err != nil {
		m.logger.Warn("cached reference data invalid", zap.Error(err))
		return nil, false
	}
	return snap, true
}
