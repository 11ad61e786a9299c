package duplicate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
	"github.com/emmanuelfore/tarisa-sub001/internal/geo"
	"github.com/emmanuelfore/tarisa-sub001/internal/repository/memory"
)

var (
	t0    = time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	point = geo.Point{Lat: -17.8292, Lng: 31.0522}
)

func issueAt(id string, category domain.CategoryCode, p *geo.Point) *domain.Issue {
	return &domain.Issue{
		ID:              id,
		TrackingID:      "TRS-" + id,
		Category:        category,
		Coordinates:     p,
		Status:          domain.IssueStatusSubmitted,
		EscalationLevel: domain.EscalationL1,
		CreatedAt:       t0,
		UpdatedAt:       t0,
	}
}

func offset(dLat, dLng float64) *geo.Point {
	return &geo.Point{Lat: point.Lat + dLat, Lng: point.Lng + dLng}
}

func TestRoadsScenario(t *testing.T) {
	ctx := context.Background()
	store := memory.NewIssueStore()
	b := issueAt("B", domain.CategoryRoads, offset(0.00072, 0))
	require.NoError(t, store.Create(ctx, b))

	a := issueAt("A", domain.CategoryRoads, &point)
	d := NewDetector(store, 0)
	assert.Equal(t, DefaultRadiusMeters, d.Radius())

	got, err := d.FindSimilar(ctx, a, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, got)

	require.NoError(t, store.TransitionStatus(ctx, "B", domain.IssueStatusSubmitted, domain.IssueStatusResolved, t0.Add(time.Hour)))
	got, err = d.FindSimilar(ctx, a, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFindNearbyOrderingAndFilters(t *testing.T) {
	ctx := context.Background()
	store := memory.NewIssueStore()
	fixtures := []*domain.Issue{
		issueAt("self", domain.CategoryWater, &point),
		issueAt("far", domain.CategoryWater, offset(0.0009, 0.0002)),
		issueAt("mid", domain.CategoryRoads, offset(0.0005, 0)),
		issueAt("near", domain.CategoryWater, offset(0.0001, 0)),
		issueAt("twin-b", domain.CategoryWater, offset(0, 0.0003)),
		issueAt("twin-a", domain.CategoryWater, offset(0, 0.0003)),
		issueAt("unlocated", domain.CategoryWater, nil),
		issueAt("null-island", domain.CategoryWater, &geo.Point{}),
	}
	closed := issueAt("closed", domain.CategoryWater, offset(0.00005, 0))
	closed.Status = domain.IssueStatusClosed
	fixtures = append(fixtures, closed)
	for _, f := range fixtures {
		require.NoError(t, store.Create(ctx, f))
	}

	d := NewDetector(store, 100)
	candidates, err := d.Search(ctx, fixtures[0], 0, false)
	require.NoError(t, err)

	var got []string
	for _, c := range candidates {
		got = append(got, c.IssueID)
		assert.LessOrEqual(t, c.DistanceMeters, 100.0)
	}
	assert.Equal(t, []string{"near", "twin-a", "twin-b", "mid"}, got)

	similar, err := d.FindSimilar(ctx, fixtures[0], 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"near", "twin-a", "twin-b"}, similar)

	wide, err := d.FindNearby(ctx, fixtures[0], 150)
	require.NoError(t, err)
	assert.Contains(t, wide, "far")
}

func TestRadiusBoundaryIsInclusive(t *testing.T) {
	ctx := context.Background()
	store := memory.NewIssueStore()
	other := issueAt("edge", domain.CategoryRoads, offset(0.00072, 0))
	require.NoError(t, store.Create(ctx, other))

	origin := issueAt("origin", domain.CategoryRoads, &point)
	exact := geo.Distance(point, *other.Coordinates)

	got, err := NewDetector(store, exact).FindNearby(ctx, origin, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"edge"}, got)

	got, err = NewDetector(store, exact-0.01).FindNearby(ctx, origin, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchWithoutLocation(t *testing.T) {
	d := NewDetector(memory.NewIssueStore(), 0)
	_, err := d.FindNearby(context.Background(), issueAt("x", domain.CategoryRoads, nil), 0)
	assert.ErrorIs(t, err, ErrNoLocation)

	_, err = d.FindSimilar(context.Background(), issueAt("x", domain.CategoryRoads, &geo.Point{Lat: 95, Lng: 0}), 0)
	assert.ErrorIs(t, err, ErrNoLocation)
}

func TestFindSimilarAcrossAntimeridian(t *testing.T) {
	ctx := context.Background()
	store := memory.NewIssueStore()
	west := issueAt("west", domain.CategoryRoads, &geo.Point{Lat: -16.5, Lng: -179.9997})
	east := issueAt("east", domain.CategoryRoads, &geo.Point{Lat: -16.5, Lng: 179.9997})
	require.NoError(t, store.Create(ctx, west))
	require.NoError(t, store.Create(ctx, east))

	d := NewDetector(store, 100)
	got, err := d.FindSimilar(ctx, east, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"west"}, got)

	got, err = d.FindSimilar(ctx, west, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"east"}, got)
}
