package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
	"github.com/emmanuelfore/tarisa-sub001/internal/duplicate"
	"github.com/emmanuelfore/tarisa-sub001/internal/escalation"
	"github.com/emmanuelfore/tarisa-sub001/internal/events"
	"github.com/emmanuelfore/tarisa-sub001/internal/repository"
)

var allowedTransitions = map[domain.IssueStatus][]domain.IssueStatus{
	domain.IssueStatusSubmitted:  {domain.IssueStatusVerified, domain.IssueStatusInProgress, domain.IssueStatusResolved, domain.IssueStatusRejected},
	domain.IssueStatusVerified:   {domain.IssueStatusInProgress, domain.IssueStatusResolved, domain.IssueStatusRejected},
	domain.IssueStatusInProgress: {domain.IssueStatusResolved, domain.IssueStatusRejected},
	domain.IssueStatusResolved:   {domain.IssueStatusClosed},
}

func isValidTransition(current, next domain.IssueStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IssueService serves reads and the workflow operations an operator drives
// on an existing issue.
type IssueService struct {
	issues     repository.IssueRepository
	history    repository.IssueHistoryRepository
	detector   *duplicate.Detector
	engine     *escalation.Engine
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	Issues     repository.IssueRepository
	History    repository.IssueHistoryRepository
	Detector   *duplicate.Detector
	Engine     *escalation.Engine
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = systemClock
	}
	return &IssueService{
		issues:     deps.Issues,
		history:    deps.History,
		detector:   deps.Detector,
		engine:     deps.Engine,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clock,
	}
}

// Get returns an issue by id or by its TRS- tracking id.
func (s *IssueService) Get(ctx context.Context, ref string) (*domain.Issue, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(strings.ToUpper(ref), "TRS-") {
		return s.issues.GetByTrackingID(ctx, strings.ToUpper(ref))
	}
	return s.issues.GetByID(ctx, ref)
}

// History lists the audit trail of an issue oldest first.
func (s *IssueService) History(ctx context.Context, ref string) ([]domain.IssueHistory, error) {
	issue, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListByIssue(ctx, issue.ID)
}

// Nearby lists open issues within radius meters, closest first. Radius zero
// uses the configured default.
func (s *IssueService) Nearby(ctx context.Context, ref string, radius float64, sameCategory bool) ([]duplicate.Candidate, error) {
	if radius < 0 {
		return nil, fmt.Errorf("%w: radius must not be negative", ErrInvalidInput)
	}
	issue, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.detector.Search(ctx, issue, radius, sameCategory)
}

// UpdateStatus applies a workflow transition. The store's compare-and-set on
// the current status means a concurrent change yields repository.ErrConflict.
func (s *IssueService) UpdateStatus(ctx context.Context, ref string, next domain.IssueStatus, comment, operatorID string) (*domain.Issue, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, next)
	}
	issue, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(issue.Status, next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, issue.Status, next)
	}

	now := s.now()
	old := issue.Status
	if err := s.issues.TransitionStatus(ctx, issue.ID, old, next, now); err != nil {
		return nil, err
	}

	actorType, actorID, actor := actorFor(operatorID)
	if s.history != nil {
		if err := s.history.Create(ctx, &domain.IssueHistory{
			IssueID:       issue.ID,
			ChangedByType: actorType,
			ChangedByID:   actorID,
			ChangeType:    domain.ChangeTypeStatus,
			OldValue:      map[string]any{"status": string(old)},
			NewValue:      map[string]any{"status": string(next), "comment": comment},
			CreatedAt:     now,
		}); err != nil {
			s.logger.Warn("record status history failed", zap.String("issue_id", issue.ID), zap.Error(err))
		}
	}
	events.Emit(ctx, s.dispatcher, s.logger, events.New(events.EventIssueStatusChanged, issue.ID, actor, now,
		events.IssueStatusChangedPayload{OldStatus: old, NewStatus: next, Comment: comment}))

	s.logger.Info("issue status changed",
		zap.String("issue_id", issue.ID),
		zap.String("tracking_id", issue.TrackingID),
		zap.String("status_from", string(old)),
		zap.String("status_to", string(next)))

	return s.issues.GetByID(ctx, issue.ID)
}

// ConfirmDuplicate records an operator's decision that ref duplicates target.
// Confirming the same target twice is a no-op.
func (s *IssueService) ConfirmDuplicate(ctx context.Context, ref, targetRef, operatorID string) (*domain.Issue, error) {
	issue, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	target, err := s.Get(ctx, targetRef)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: duplicate target %s not found", ErrInvalidInput, targetRef)
		}
		return nil, err
	}
	if target.ID == issue.ID {
		return nil, ErrSelfDuplicate
	}
	if issue.DuplicateOfID != nil && *issue.DuplicateOfID == target.ID {
		return issue, nil
	}

	now := s.now()
	if err := s.issues.SetDuplicateOf(ctx, issue.ID, target.ID, now); err != nil {
		return nil, err
	}
	if s.history != nil {
		actorType, actorID, _ := actorFor(operatorID)
		if err := s.history.Create(ctx, &domain.IssueHistory{
			IssueID:       issue.ID,
			ChangedByType: actorType,
			ChangedByID:   actorID,
			ChangeType:    domain.ChangeTypeDuplicate,
			NewValue:      map[string]any{"duplicate_of_id": target.ID, "duplicate_of_tracking_id": target.TrackingID},
			CreatedAt:     now,
		}); err != nil {
			s.logger.Warn("record duplicate history failed", zap.String("issue_id", issue.ID), zap.Error(err))
		}
	}
	s.logger.Info("duplicate confirmed",
		zap.String("issue_id", issue.ID),
		zap.String("duplicate_of_id", target.ID))

	return s.issues.GetByID(ctx, issue.ID)
}

// Escalate forces one escalation level on behalf of an operator.
func (s *IssueService) Escalate(ctx context.Context, ref, operatorID string) (*domain.Issue, error) {
	issue, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	_, actorID, _ := actorFor(operatorID)
	return s.engine.Escalate(ctx, issue.ID, actorID, s.now())
}

// Sweep runs one escalation sweep now.
func (s *IssueService) Sweep(ctx context.Context) (escalation.SweepReport, error) {
	return s.engine.Sweep(ctx, s.now())
}
