package jurisdiction

import (
	"time"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
	"github.com/emmanuelfore/tarisa-sub001/internal/geo"
)

// Method records how a resolution was reached.
type Method string

const (
	MethodWardBoundary      Method = "ward_boundary"
	MethodSharedAuthority   Method = "shared_authority"
	MethodDeclaredRegion    Method = "declared_region"
	MethodAuthorityBoundary Method = "authority_boundary"
	MethodManual            Method = "manual"
	MethodNone              Method = "unresolved"
)

// Result is the outcome of a resolution. An unresolved result is a valid
// outcome that sends the issue to manual triage.
type Result struct {
	JurisdictionID string
	Level          domain.JurisdictionLevel
	Chain          []domain.Jurisdiction
	Approximate    bool
	Method         Method
	// Suburb is the single active suburb under the resolved ward that also
	// contains the point. The ward stays the jurisdiction of record.
	Suburb *domain.Jurisdiction
}

// Resolved reports whether a jurisdiction was found.
func (r Result) Resolved() bool {
	return r.JurisdictionID != ""
}

// Ref returns the jurisdiction id or nil when unresolved.
func (r Result) Ref() *string {
	if !r.Resolved() {
		return nil
	}
	id := r.JurisdictionID
	return &id
}

// Resolver maps a coordinate onto a tree snapshot. It holds no mutable state.
type Resolver struct {
	tree *Tree
}

// NewResolver creates a resolver over the given tree.
func NewResolver(tree *Tree) *Resolver {
	return &Resolver{tree: tree}
}

// Resolve finds the ward containing point at the given instant. When zero or
// several active wards match, it falls back to the closest unambiguous local
// authority and marks the result approximate.
func (r *Resolver) Resolve(point *geo.Point, declaredRegion string, at time.Time) Result {
	if r == nil || r.tree.Len() == 0 {
		return Result{Method: MethodNone}
	}
	t := r.tree
	activeAt := func(n domain.Jurisdiction) bool { return n.ActiveAt(at) }

	var wards []int
	hasPoint := point != nil && point.Valid()
	if hasPoint {
		wards = t.containing(domain.LevelWard, t.byLevel[domain.LevelWard], *point, activeAt)
	}

	if len(wards) == 1 {
		ward := wards[0]
		res := r.result(ward, false, MethodWardBoundary)
		if suburbs := t.containing(domain.LevelSuburb, t.children[ward], *point, activeAt); len(suburbs) == 1 {
			suburb := t.nodes[suburbs[0]]
			res.Suburb = &suburb
		}
		return res
	}

	if len(wards) > 1 {
		if la, ok := r.sharedAuthority(wards); ok {
			return r.result(la, true, MethodSharedAuthority)
		}
	}

	if la, ok := t.FindByName(domain.LevelLocalAuthority, declaredRegion); ok {
		return r.result(t.index[la.ID], true, MethodDeclaredRegion)
	}

	if hasPoint && len(wards) == 0 {
		authorities := t.containing(domain.LevelLocalAuthority, t.byLevel[domain.LevelLocalAuthority], *point, activeAt)
		if len(authorities) == 1 {
			return r.result(authorities[0], true, MethodAuthorityBoundary)
		}
	}

	return Result{Method: MethodNone}
}

func (r *Resolver) sharedAuthority(wards []int) (int, bool) {
	shared := noParent
	for _, w := range wards {
		p := r.tree.parent[w]
		if p == noParent {
			return 0, false
		}
		if shared == noParent {
			shared = p
			continue
		}
		if p != shared {
			return 0, false
		}
	}
	return shared, shared != noParent
}

func (r *Resolver) result(idx int, approximate bool, method Method) Result {
	n := r.tree.nodes[idx]
	return Result{
		JurisdictionID: n.ID,
		Level:          n.Level,
		Chain:          r.tree.Chain(n.ID),
		Approximate:    approximate,
		Method:         method,
	}
}
