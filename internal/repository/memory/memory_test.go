package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
	"github.com/emmanuelfore/tarisa-sub001/internal/geo"
	"github.com/emmanuelfore/tarisa-sub001/internal/repository"
)

var t0 = time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *IssueStore, id string, p *geo.Point, status domain.IssueStatus) {
	t.Helper()
	require.NoError(t, s.Create(context.Background(), &domain.Issue{
		ID:              id,
		TrackingID:      "TRS-" + id,
		Category:        domain.CategoryRoads,
		Coordinates:     p,
		Status:          status,
		EscalationLevel: domain.EscalationL1,
		CreatedAt:       t0,
		UpdatedAt:       t0,
	}))
}

func TestIssueStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewIssueStore()
	seed(t, s, "a", &geo.Point{Lat: -17.8, Lng: 31.0}, domain.IssueStatusSubmitted)

	got, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	got.Coordinates.Lat = 0
	got.Status = domain.IssueStatusClosed

	again, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, -17.8, again.Coordinates.Lat)
	assert.Equal(t, domain.IssueStatusSubmitted, again.Status)

	byTracking, err := s.GetByTrackingID(ctx, "TRS-a")
	require.NoError(t, err)
	assert.Equal(t, "a", byTracking.ID)

	_, err = s.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.Create(ctx, &domain.Issue{ID: "a", TrackingID: "TRS-z"}), repository.ErrConflict)
}

func TestAdvanceEscalationIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := NewIssueStore()
	seed(t, s, "a", nil, domain.IssueStatusInProgress)

	require.NoError(t, s.AdvanceEscalation(ctx, "a", domain.EscalationL1, domain.EscalationL2, t0.Add(time.Hour)))
	assert.ErrorIs(t, s.AdvanceEscalation(ctx, "a", domain.EscalationL1, domain.EscalationL2, t0), repository.ErrConflict)
	assert.ErrorIs(t, s.AdvanceEscalation(ctx, "nope", domain.EscalationL1, domain.EscalationL2, t0), repository.ErrNotFound)

	got, _ := s.GetByID(ctx, "a")
	assert.Equal(t, domain.EscalationL2, got.EscalationLevel)
	assert.Equal(t, t0.Add(time.Hour), got.UpdatedAt)

	require.NoError(t, s.TransitionStatus(ctx, "a", domain.IssueStatusInProgress, domain.IssueStatusResolved, t0))
	assert.ErrorIs(t, s.AdvanceEscalation(ctx, "a", domain.EscalationL2, domain.EscalationL3, t0), repository.ErrConflict)
}

func TestConcurrentAdvanceHasOneWinner(t *testing.T) {
	ctx := context.Background()
	s := NewIssueStore()
	seed(t, s, "a", nil, domain.IssueStatusSubmitted)

	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch err := s.AdvanceEscalation(ctx, "a", domain.EscalationL1, domain.EscalationL2, t0); err {
			case nil:
				wins.Add(1)
			case repository.ErrConflict:
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, wins.Load())
	assert.EqualValues(t, 15, conflicts.Load())
}

func TestTransitionStatusSetsResolvedAtOnce(t *testing.T) {
	ctx := context.Background()
	s := NewIssueStore()
	seed(t, s, "a", nil, domain.IssueStatusInProgress)

	first := t0.Add(2 * time.Hour)
	require.NoError(t, s.TransitionStatus(ctx, "a", domain.IssueStatusInProgress, domain.IssueStatusResolved, first))
	require.NoError(t, s.TransitionStatus(ctx, "a", domain.IssueStatusResolved, domain.IssueStatusClosed, first.Add(time.Hour)))

	got, _ := s.GetByID(ctx, "a")
	require.NotNil(t, got.ResolvedAt)
	assert.Equal(t, first, *got.ResolvedAt)
	assert.ErrorIs(t, s.TransitionStatus(ctx, "a", domain.IssueStatusResolved, domain.IssueStatusClosed, first), repository.ErrConflict)
}

func TestListOpenWithinSkipsTerminalAndUnlocated(t *testing.T) {
	ctx := context.Background()
	s := NewIssueStore()
	center := geo.Point{Lat: -17.8292, Lng: 31.0522}
	seed(t, s, "near", &geo.Point{Lat: center.Lat + 0.0005, Lng: center.Lng}, domain.IssueStatusSubmitted)
	seed(t, s, "far", &geo.Point{Lat: center.Lat + 0.01, Lng: center.Lng}, domain.IssueStatusSubmitted)
	seed(t, s, "closed", &center, domain.IssueStatusClosed)
	seed(t, s, "nowhere", nil, domain.IssueStatusSubmitted)

	within, err := s.ListOpenWithin(ctx, geo.BoundingBoxAround(center, 100))
	require.NoError(t, err)
	require.Len(t, within, 1)
	assert.Equal(t, "near", within[0].ID)

	open, err := s.ListOpen(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 3)
}

func TestSetDuplicateOf(t *testing.T) {
	ctx := context.Background()
	s := NewIssueStore()
	seed(t, s, "a", nil, domain.IssueStatusSubmitted)

	require.NoError(t, s.SetDuplicateOf(ctx, "a", "b", t0))
	require.NoError(t, s.SetDuplicateOf(ctx, "a", "b", t0), "same target is idempotent")
	assert.ErrorIs(t, s.SetDuplicateOf(ctx, "a", "c", t0), repository.ErrConflict)
}

func TestHistoryStore(t *testing.T) {
	ctx := context.Background()
	h := NewHistoryStore()
	require.NoError(t, h.Create(ctx, &domain.IssueHistory{IssueID: "a", ChangeType: domain.ChangeTypeRouting}))
	require.NoError(t, h.Create(ctx, &domain.IssueHistory{IssueID: "a", ChangeType: domain.ChangeTypeEscalation}))

	entries, err := h.ListByIssue(ctx, "a")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ChangeTypeEscalation, entries[1].ChangeType)
	assert.NotEmpty(t, entries[0].ID)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = h.ListByIssue(cancelled, "a")
	assert.ErrorIs(t, err, context.Canceled)
}
