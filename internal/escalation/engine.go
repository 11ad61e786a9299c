package escalation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
	"github.com/emmanuelfore/tarisa-sub001/internal/events"
	"github.com/emmanuelfore/tarisa-sub001/internal/refdata"
	"github.com/emmanuelfore/tarisa-sub001/internal/repository"
)

var (
	// ErrSweepInProgress is returned when a sweep is already running in this process.
	ErrSweepInProgress = errors.New("escalation sweep already in progress")
	// ErrNoReferenceData is returned when no reference snapshot has been loaded.
	ErrNoReferenceData = fmt.Errorf("escalation: %w", refdata.ErrUnavailable)
	// ErrTerminal is returned when forcing escalation of a closed issue.
	ErrTerminal = errors.New("issue is in a terminal status")
	// ErrMaxLevel is returned when forcing escalation beyond L4.
	ErrMaxLevel = errors.New("issue is already at the maximum escalation level")
)

// Snapshots provides the current reference snapshot.
type Snapshots interface {
	Current() *refdata.Snapshot
}

// Config tunes sweep concurrency.
type Config struct {
	Policy       Policy
	Workers      int
	IssueTimeout time.Duration
}

// Dependencies bundles collaborators.
type Dependencies struct {
	Issues     repository.IssueRepository
	History    repository.IssueHistoryRepository
	Snapshots  Snapshots
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Scanned      int           `json:"scanned"`
	Escalated    int           `json:"escalated"`
	MaxEscalated int           `json:"max_escalated"`
	NotDue       int           `json:"not_due"`
	Conflicts    int           `json:"conflicts"`
	Skipped      int           `json:"skipped"`
	TimedOut     int           `json:"timed_out"`
	Errors       int           `json:"errors"`
	Cancelled    bool          `json:"cancelled"`
}

type counters struct {
	escalated, maxEscalated, notDue, conflicts, skipped, timedOut, errors atomic.Int64
}

func (c *counters) into(r *SweepReport) {
	r.Escalated = int(c.escalated.Load())
	r.MaxEscalated = int(c.maxEscalated.Load())
	r.NotDue = int(c.notDue.Load())
	r.Conflicts = int(c.conflicts.Load())
	r.Skipped = int(c.skipped.Load())
	r.TimedOut = int(c.timedOut.Load())
	r.Errors = int(c.errors.Load())
}

// Engine runs escalation sweeps. It keeps no per-issue state; every decision
// is made on a fresh read and applied with a compare-and-set.
type Engine struct {
	issues     repository.IssueRepository
	history    repository.IssueHistoryRepository
	snapshots  Snapshots
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        Config
	running    sync.Mutex
}

// NewEngine validates cfg and builds an engine.
func NewEngine(deps Dependencies, cfg Config) (*Engine, error) {
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.IssueTimeout <= 0 {
		cfg.IssueTimeout = 10 * time.Second
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		issues:     deps.Issues,
		history:    deps.History,
		snapshots:  deps.Snapshots,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		cfg:        cfg,
	}, nil
}

// ScheduleFor returns the level deadlines that apply to issue.
func (e *Engine) ScheduleFor(snap *refdata.Snapshot, issue *domain.Issue) Schedule {
	var (
		s        Schedule
		adjusted bool
	)
	dept, ok := domain.Department{}, false
	if issue.AssignedDepartmentID != nil {
		dept, ok = snap.Department(*issue.AssignedDepartmentID)
	}
	if ok {
		s, adjusted = e.cfg.Policy.ForDepartment(dept)
	} else {
		s, adjusted = e.cfg.Policy.ForUnassigned(snap.Rule(issue.Category).SLA())
	}
	if adjusted {
		e.logger.Warn("escalation schedule normalized",
			zap.String("issue_id", issue.ID),
			zap.Stringp("department_id", issue.AssignedDepartmentID),
			zap.Durations("schedule", s[:]))
	}
	return s
}

// Sweep checks every open issue once and advances the overdue ones by exactly
// one level. Lost compare-and-set races are counted as conflicts, not errors.
// Only a failure to list open issues aborts the sweep.
func (e *Engine) Sweep(ctx context.Context, now time.Time) (SweepReport, error) {
	report := SweepReport{StartedAt: now}
	if !e.running.TryLock() {
		return report, ErrSweepInProgress
	}
	defer e.running.Unlock()

	start := time.Now()
	snap := e.snapshots.Current()
	if snap == nil {
		return report, ErrNoReferenceData
	}
	open, err := e.issues.ListOpen(ctx)
	if err != nil {
		return report, fmt.Errorf("list open issues: %w", err)
	}
	report.Scanned = len(open)

	var c counters
	// The group only bounds concurrency. check records its outcome in the
	// counters and never returns an error.
	g := new(errgroup.Group)
	g.SetLimit(e.cfg.Workers)
	for i := range open {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		id := open[i].ID
		g.Go(func() error {
			e.check(ctx, snap, id, now, &c)
			return nil
		})
	}
	_ = g.Wait()

	c.into(&report)
	report.Duration = time.Since(start)
	e.logger.Info("escalation sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("escalated", report.Escalated),
		zap.Int("max_escalated", report.MaxEscalated),
		zap.Int("not_due", report.NotDue),
		zap.Int("conflicts", report.Conflicts),
		zap.Int("timed_out", report.TimedOut),
		zap.Int("errors", report.Errors),
		zap.Bool("cancelled", report.Cancelled),
		zap.Duration("duration", report.Duration))
	if report.Cancelled {
		return report, ctx.Err()
	}
	return report, nil
}

func (e *Engine) check(ctx context.Context, snap *refdata.Snapshot, id string, now time.Time, c *counters) {
	ictx, cancel := context.WithTimeout(ctx, e.cfg.IssueTimeout)
	defer cancel()

	issue, err := e.issues.GetByID(ictx, id)
	if err != nil {
		e.countFailure(c, id, err)
		return
	}
	if issue.Status.Terminal() {
		c.skipped.Add(1)
		return
	}
	if !issue.EscalationLevel.Valid() {
		c.errors.Add(1)
		e.logger.Error("issue has invalid escalation level",
			zap.String("issue_id", id), zap.Int("level", int(issue.EscalationLevel)))
		return
	}

	schedule := e.ScheduleFor(snap, issue)
	deadline := issue.CreatedAt.Add(schedule.DeadlineFor(issue.EscalationLevel))

	next, ok := issue.EscalationLevel.Next()
	if !ok {
		c.maxEscalated.Add(1)
		overdue := now.Sub(deadline)
		if overdue < 0 {
			overdue = 0
		}
		events.Emit(ctx, e.dispatcher, e.logger, events.New(events.EventIssueMaxEscalated, issue.ID, events.SystemActor, now,
			events.IssueMaxEscalatedPayload{Level: issue.EscalationLevel, DepartmentID: issue.AssignedDepartmentID, OverdueBy: overdue}))
		return
	}
	if !now.After(deadline) {
		c.notDue.Add(1)
		return
	}

	if err := e.issues.AdvanceEscalation(ictx, issue.ID, issue.EscalationLevel, next, now); err != nil {
		e.countFailure(c, id, err)
		return
	}
	c.escalated.Add(1)
	e.afterAdvance(ctx, issue, next, now, nil)
}

func (e *Engine) countFailure(c *counters, id string, err error) {
	switch {
	case errors.Is(err, repository.ErrConflict):
		c.conflicts.Add(1)
		e.logger.Debug("escalation lost compare-and-set", zap.String("issue_id", id))
	case errors.Is(err, repository.ErrNotFound):
		c.skipped.Add(1)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		c.timedOut.Add(1)
		e.logger.Warn("escalation check timed out", zap.String("issue_id", id), zap.Error(err))
	default:
		c.errors.Add(1)
		e.logger.Error("escalation check failed", zap.String("issue_id", id), zap.Error(err))
	}
}

// afterAdvance records history and publishes the transition. Both are best
// effort once the level change is committed.
func (e *Engine) afterAdvance(ctx context.Context, issue *domain.Issue, to domain.EscalationLevel, now time.Time, operatorID *string) {
	from := issue.EscalationLevel
	actorType, actor := domain.ActorSystem, events.SystemActor
	if operatorID != nil {
		actorType = domain.ActorOperator
		actor = events.Actor{Type: domain.ActorOperator, ID: operatorID}
	}
	if e.history != nil {
		if err := e.history.Create(ctx, &domain.IssueHistory{
			IssueID:       issue.ID,
			ChangedByType: actorType,
			ChangedByID:   operatorID,
			ChangeType:    domain.ChangeTypeEscalation,
			OldValue:      map[string]any{"escalation_level": from.String()},
			NewValue:      map[string]any{"escalation_level": to.String()},
			CreatedAt:     now,
		}); err != nil {
			e.logger.Warn("record escalation history failed", zap.String("issue_id", issue.ID), zap.Error(err))
		}
	}
	events.Emit(ctx, e.dispatcher, e.logger, events.New(events.EventIssueEscalated, issue.ID, actor, now,
		events.IssueEscalatedPayload{OldLevel: from, NewLevel: to, Forced: operatorID != nil, Timestamp: now}))
	e.logger.Info("issue escalated",
		zap.String("issue_id", issue.ID),
		zap.String("tracking_id", issue.TrackingID),
		zap.Stringer("level_from", from),
		zap.Stringer("level_to", to),
		zap.Bool("forced", operatorID != nil))
}

// Escalate forces one level up regardless of deadlines. It still uses the
// compare-and-set, so a concurrent sweep cannot double advance.
func (e *Engine) Escalate(ctx context.Context, issueID string, operatorID *string, now time.Time) (*domain.Issue, error) {
	issue, err := e.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.Status.Terminal() {
		return nil, ErrTerminal
	}
	next, ok := issue.EscalationLevel.Next()
	if !ok {
		return nil, ErrMaxLevel
	}
	if err := e.issues.AdvanceEscalation(ctx, issue.ID, issue.EscalationLevel, next, now); err != nil {
		return nil, err
	}
	e.afterAdvance(ctx, issue, next, now, operatorID)

	issue.EscalationLevel = next
	issue.UpdatedAt = now
	return issue, nil
}
