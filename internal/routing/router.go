// Package routing assigns a responsible department, priority and SLA to an
// issue from its category and resolved jurisdiction.
package routing

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
	"github.com/emmanuelfore/tarisa-sub001/internal/jurisdiction"
)

// ErrInvalidDepartment reports department reference data that breaks its invariants.
var ErrInvalidDepartment = errors.New("invalid department")

// Assignment is the routing outcome for one issue.
type Assignment struct {
	DepartmentID      *string
	Priority          domain.Priority
	SLADeadline       time.Time
	NeedsManualTriage bool
	TriageReasons     []string
	Rule              AssignmentRule
}

// Router resolves departments against an immutable reference snapshot.
type Router struct {
	tree           *jurisdiction.Tree
	rules          *RuleSet
	byJurisdiction map[string][]domain.Department
}

// NewRouter indexes active departments by jurisdiction node.
func NewRouter(tree *jurisdiction.Tree, departments []domain.Department, rules *RuleSet) *Router {
	idx := make(map[string][]domain.Department)
	for _, d := range departments {
		if !d.IsActive || len(d.HandledCategories) == 0 {
			continue
		}
		idx[d.JurisdictionID] = append(idx[d.JurisdictionID], d)
	}
	for id := range idx {
		deps := idx[id]
		sort.Slice(deps, func(i, j int) bool { return deps[i].ID < deps[j].ID })
	}
	return &Router{tree: tree, rules: rules, byJurisdiction: idx}
}

// ValidateDepartments checks department invariants against the tree.
func ValidateDepartments(tree *jurisdiction.Tree, departments []domain.Department) error {
	seen := make(map[string]struct{}, len(departments))
	for _, d := range departments {
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidDepartment, d.ID)
		}
		seen[d.ID] = struct{}{}
		if len(d.HandledCategories) == 0 {
			return fmt.Errorf("%w: %s handles no categories", ErrInvalidDepartment, d.ID)
		}
		if _, ok := tree.Node(d.JurisdictionID); !ok {
			return fmt.Errorf("%w: %s belongs to unknown jurisdiction %s", ErrInvalidDepartment, d.ID, d.JurisdictionID)
		}
		if d.ResponseSLAHours <= 0 || d.ResolutionSLAHours <= 0 {
			return fmt.Errorf("%w: %s has non-positive SLA hours", ErrInvalidDepartment, d.ID)
		}
	}
	return nil
}

// Route picks the closest department at or above jurisdictionID that handles
// the category. Without a match the rule defaults apply and the assignment
// is flagged for manual triage. The result depends only on the inputs.
func (r *Router) Route(category domain.CategoryCode, jurisdictionID *string, createdAt time.Time) Assignment {
	rule, known := r.rules.Lookup(category)
	out := Assignment{
		Priority:    rule.Priority,
		SLADeadline: createdAt.Add(rule.SLA()),
		Rule:        rule,
	}
	if !known {
		out.TriageReasons = append(out.TriageReasons, domain.TriageUnknownCategory)
	}

	if jurisdictionID == nil || *jurisdictionID == "" {
		out.NeedsManualTriage = true
		out.TriageReasons = append(out.TriageReasons, domain.TriageUnresolvedJurisdiction)
		return out
	}

	if dept, ok := r.closestDepartment(*jurisdictionID, category, rule.DepartmentCategory); ok {
		id := dept.ID
		out.DepartmentID = &id
		out.NeedsManualTriage = !known
		return out
	}

	out.NeedsManualTriage = true
	out.TriageReasons = append(out.TriageReasons, domain.TriageNoDepartmentMatch)
	return out
}

func (r *Router) closestDepartment(jurisdictionID string, categories ...domain.CategoryCode) (domain.Department, bool) {
	var match domain.Department
	found := false
	r.tree.WalkAncestors(jurisdictionID, func(n domain.Jurisdiction) bool {
		for _, d := range r.byJurisdiction[n.ID] {
			if d.Handles(categories...) {
				match, found = d, true
				return false
			}
		}
		return true
	})
	return match, found
}

// Rules returns the rule table the router uses.
func (r *Router) Rules() *RuleSet {
	return r.rules
}
