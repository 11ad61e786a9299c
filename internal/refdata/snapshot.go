// Package refdata loads jurisdictions and departments and publishes them as
// immutable snapshots.
package refdata

import (
	"fmt"
	"time"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
	"github.com/emmanuelfore/tarisa-sub001/internal/jurisdiction"
	"github.com/emmanuelfore/tarisa-sub001/internal/routing"
)

// Data is the raw reference data returned by a Source.
type Data struct {
	Jurisdictions []domain.Jurisdiction `json:"jurisdictions"`
	Departments   []domain.Department   `json:"departments"`
}

// Snapshot is a validated, read-only view of the reference data. A snapshot
// is never mutated after Build returns.
type Snapshot struct {
	Tree     *jurisdiction.Tree
	Resolver *jurisdiction.Resolver
	Router   *routing.Router
	Rules    *routing.RuleSet
	LoadedAt time.Time

	data        Data
	departments map[string]domain.Department
}

// Build validates data and derives the resolver and router.
func Build(data Data, rules *routing.RuleSet, loadedAt time.Time) (*Snapshot, error) {
	if rules == nil {
		return nil, fmt.Errorf("build snapshot: %w", routing.ErrInvalidRule)
	}
	tree, err := jurisdiction.Build(data.Jurisdictions)
	if err != nil {
		return nil, fmt.Errorf("build jurisdiction tree: %w", err)
	}
	if err := routing.ValidateDepartments(tree, data.Departments); err != nil {
		return nil, err
	}
	departments := make(map[string]domain.Department, len(data.Departments))
	for _, d := range data.Departments {
		departments[d.ID] = d
	}
	return &Snapshot{
		Tree:        tree,
		Resolver:    jurisdiction.NewResolver(tree),
		Router:      routing.NewRouter(tree, data.Departments, rules),
		Rules:       rules,
		LoadedAt:    loadedAt,
		data:        data,
		departments: departments,
	}, nil
}

// Department looks up a department by id, including inactive ones.
func (s *Snapshot) Department(id string) (domain.Department, bool) {
	d, ok := s.departments[id]
	return d, ok
}

// Rule returns the assignment rule for a category, falling back to the
// default rule.
func (s *Snapshot) Rule(category domain.CategoryCode) routing.AssignmentRule {
	r, _ := s.Rules.Lookup(category)
	return r
}

// Data returns the raw data the snapshot was built from.
func (s *Snapshot) Data() Data {
	return s.data
}

// Counts summarizes the snapshot for logs and health output.
func (s *Snapshot) Counts() (jurisdictions, departments int) {
	return s.Tree.Len(), len(s.departments)
}
