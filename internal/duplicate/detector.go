// Package duplicate suggests open issues that probably describe the same
// physical problem as a given issue.
package duplicate

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
	"github.com/emmanuelfore/tarisa-sub001/internal/geo"
	"github.com/emmanuelfore/tarisa-sub001/internal/repository"
)

// DefaultRadiusMeters is the matching radius when none is configured.
const DefaultRadiusMeters = 100.0

// ErrNoLocation is returned when the query issue has no usable coordinates.
// Callers treat it as non-fatal.
var ErrNoLocation = errors.New("issue has no valid coordinates")

// Candidate is a nearby open issue.
type Candidate struct {
	IssueID        string              `json:"issue_id"`
	TrackingID     string              `json:"tracking_id"`
	Category       domain.CategoryCode `json:"category"`
	Status         domain.IssueStatus  `json:"status"`
	DistanceMeters float64             `json:"distance_meters"`
}

// Detector runs proximity searches against the issue store. It never writes.
type Detector struct {
	issues repository.IssueRepository
	radius float64
}

// NewDetector builds a detector; radius <= 0 selects DefaultRadiusMeters.
func NewDetector(issues repository.IssueRepository, radiusMeters float64) *Detector {
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}
	return &Detector{issues: issues, radius: radiusMeters}
}

// Radius returns the configured default radius.
func (d *Detector) Radius() float64 {
	return d.radius
}

// FindNearby returns ids of open issues within radius meters of issue,
// nearest first. radius <= 0 uses the default.
func (d *Detector) FindNearby(ctx context.Context, issue *domain.Issue, radius float64) ([]string, error) {
	return ids(d.Search(ctx, issue, radius, false))
}

// FindSimilar is FindNearby restricted to the issue's category.
func (d *Detector) FindSimilar(ctx context.Context, issue *domain.Issue, radius float64) ([]string, error) {
	return ids(d.Search(ctx, issue, radius, true))
}

// Search returns candidates ordered by distance, then id. The issue itself,
// terminal issues and issues without valid coordinates are never returned.
func (d *Detector) Search(ctx context.Context, issue *domain.Issue, radius float64, sameCategory bool) ([]Candidate, error) {
	origin, ok := issue.Location()
	if !ok {
		return nil, ErrNoLocation
	}
	if radius <= 0 {
		radius = d.radius
	}

	nearby, err := d.issues.ListOpenWithin(ctx, geo.BoundingBoxAround(origin, radius))
	if err != nil {
		return nil, fmt.Errorf("list issues near %s: %w", issue.ID, err)
	}

	out := make([]Candidate, 0, len(nearby))
	for i := range nearby {
		other := &nearby[i]
		if other.ID == issue.ID || other.Status.Terminal() {
			continue
		}
		if sameCategory && other.Category != issue.Category {
			continue
		}
		p, ok := other.Location()
		if !ok {
			continue
		}
		dist := geo.Distance(origin, p)
		if dist > radius {
			continue
		}
		out = append(out, Candidate{
			IssueID:        other.ID,
			TrackingID:     other.TrackingID,
			Category:       other.Category,
			Status:         other.Status,
			DistanceMeters: dist,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceMeters != out[j].DistanceMeters {
			return out[i].DistanceMeters < out[j].DistanceMeters
		}
		return out[i].IssueID < out[j].IssueID
	})
	return out, nil
}

func ids(candidates []Candidate, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.IssueID
	}
	return out, nil
}
