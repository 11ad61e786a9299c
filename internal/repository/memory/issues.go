// Package memory provides in-process stores with the same conditional update
// semantics as the Postgres repositories.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
	"github.com/emmanuelfore/tarisa-sub001/internal/geo"
	"github.com/emmanuelfore/tarisa-sub001/internal/repository"
)

// IssueStore is a mutex guarded issue table.
type IssueStore struct {
	mu         sync.RWMutex
	byID       map[string]*domain.Issue
	byTracking map[string]string
}

var _ repository.IssueRepository = (*IssueStore)(nil)

// NewIssueStore returns an empty store.
func NewIssueStore() *IssueStore {
	return &IssueStore{
		byID:       make(map[string]*domain.Issue),
		byTracking: make(map[string]string),
	}
}

func (s *IssueStore) Create(ctx context.Context, issue *domain.Issue) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[issue.ID]; exists {
		return fmt.Errorf("issue %s: %w", issue.ID, repository.ErrConflict)
	}
	if _, exists := s.byTracking[issue.TrackingID]; exists {
		return fmt.Errorf("tracking id %s: %w", issue.TrackingID, repository.ErrConflict)
	}
	s.byID[issue.ID] = cloneIssue(issue)
	s.byTracking[issue.TrackingID] = issue.ID
	return nil
}

func (s *IssueStore) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	issue, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneIssue(issue), nil
}

func (s *IssueStore) GetByTrackingID(ctx context.Context, trackingID string) (*domain.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	id, ok := s.byTracking[trackingID]
	s.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *IssueStore) ListOpen(ctx context.Context) ([]domain.Issue, error) {
	return s.list(ctx, func(*domain.Issue) bool { return true }, func(a, b *domain.Issue) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func (s *IssueStore) ListOpenWithin(ctx context.Context, box geo.BoundingBox) ([]domain.Issue, error) {
	return s.list(ctx, func(i *domain.Issue) bool {
		return i.Coordinates != nil && box.Contains(*i.Coordinates)
	}, func(a, b *domain.Issue) bool { return a.ID < b.ID })
}

func (s *IssueStore) list(ctx context.Context, keep func(*domain.Issue) bool, less func(a, b *domain.Issue) bool) ([]domain.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	matched := make([]*domain.Issue, 0, len(s.byID))
	for _, issue := range s.byID {
		if issue.Status.Terminal() || !keep(issue) {
			continue
		}
		matched = append(matched, issue)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return less(matched[i], matched[j]) })
	out := make([]domain.Issue, len(matched))
	for i, issue := range matched {
		out[i] = *cloneIssue(issue)
	}
	return out, nil
}

func (s *IssueStore) AdvanceEscalation(ctx context.Context, id string, from, to domain.EscalationLevel, at time.Time) error {
	return s.update(ctx, id, func(issue *domain.Issue) error {
		if issue.EscalationLevel != from || issue.Status.Terminal() {
			return repository.ErrConflict
		}
		issue.EscalationLevel = to
		issue.UpdatedAt = at
		return nil
	})
}

func (s *IssueStore) TransitionStatus(ctx context.Context, id string, from, to domain.IssueStatus, at time.Time) error {
	return s.update(ctx, id, func(issue *domain.Issue) error {
		if issue.Status != from {
			return repository.ErrConflict
		}
		issue.Status = to
		issue.UpdatedAt = at
		if to == domain.IssueStatusResolved && issue.ResolvedAt == nil {
			resolvedAt := at
			issue.ResolvedAt = &resolvedAt
		}
		return nil
	})
}

func (s *IssueStore) UpdateRouting(ctx context.Context, routed *domain.Issue) error {
	return s.update(ctx, routed.ID, func(issue *domain.Issue) error {
		if issue.Status.Terminal() {
			return repository.ErrConflict
		}
		issue.JurisdictionID = cloneString(routed.JurisdictionID)
		issue.JurisdictionApproximate = routed.JurisdictionApproximate
		issue.AssignedDepartmentID = cloneString(routed.AssignedDepartmentID)
		issue.Priority = routed.Priority
		issue.SLADeadline = routed.SLADeadline
		issue.NeedsManualTriage = routed.NeedsManualTriage
		issue.TriageReasons = cloneStrings(routed.TriageReasons)
		issue.UpdatedAt = routed.UpdatedAt
		return nil
	})
}

func (s *IssueStore) SetDuplicateOf(ctx context.Context, id, duplicateOfID string, at time.Time) error {
	return s.update(ctx, id, func(issue *domain.Issue) error {
		if issue.DuplicateOfID != nil && *issue.DuplicateOfID != duplicateOfID {
			return repository.ErrConflict
		}
		issue.DuplicateOfID = &duplicateOfID
		issue.UpdatedAt = at
		return nil
	})
}

// update applies fn to a working copy and commits it only when fn succeeds.
func (s *IssueStore) update(ctx context.Context, id string, fn func(*domain.Issue) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	working := cloneIssue(current)
	if err := fn(working); err != nil {
		return err
	}
	s.byID[id] = working
	return nil
}

// Len reports the number of stored issues.
func (s *IssueStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func cloneIssue(in *domain.Issue) *domain.Issue {
	out := *in
	if in.Coordinates != nil {
		p := *in.Coordinates
		out.Coordinates = &p
	}
	out.JurisdictionID = cloneString(in.JurisdictionID)
	out.AssignedDepartmentID = cloneString(in.AssignedDepartmentID)
	out.DuplicateOfID = cloneString(in.DuplicateOfID)
	if in.ResolvedAt != nil {
		t := *in.ResolvedAt
		out.ResolvedAt = &t
	}
	out.TriageReasons = cloneStrings(in.TriageReasons)
	out.DuplicateCandidates = cloneStrings(in.DuplicateCandidates)
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
