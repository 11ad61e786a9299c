// Package jurisdiction holds the administrative hierarchy snapshot and the
// resolver that maps coordinates onto it.
package jurisdiction

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
	"github.com/emmanuelfore/tarisa-sub001/internal/geo"
)

var (
	ErrDuplicateID   = errors.New("duplicate jurisdiction id")
	ErrUnknownLevel  = errors.New("unknown jurisdiction level")
	ErrUnknownParent = errors.New("unknown parent jurisdiction")
	ErrLevelMismatch = errors.New("jurisdiction level does not follow parent")
	ErrCycle         = errors.New("jurisdiction hierarchy contains a cycle")
)

const noParent = -1

// Tree is an immutable arena of jurisdiction nodes. Nodes live in a flat
// slice and reference each other by index.
type Tree struct {
	nodes    []domain.Jurisdiction
	bounds   []geo.BoundingBox
	parent   []int
	children [][]int
	index    map[string]int
	byLevel  map[domain.JurisdictionLevel][]int
}

// Build validates the nodes and returns the tree. Only provinces may lack a
// parent and every child sits exactly one level below its parent.
func Build(nodes []domain.Jurisdiction) (*Tree, error) {
	t := &Tree{
		nodes:    make([]domain.Jurisdiction, len(nodes)),
		bounds:   make([]geo.BoundingBox, len(nodes)),
		parent:   make([]int, len(nodes)),
		children: make([][]int, len(nodes)),
		index:    make(map[string]int, len(nodes)),
		byLevel:  make(map[domain.JurisdictionLevel][]int),
	}

	sorted := append([]domain.Jurisdiction(nil), nodes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for i, n := range sorted {
		if _, ok := n.Level.Rank(); !ok {
			return nil, fmt.Errorf("%w: %q on %s", ErrUnknownLevel, n.Level, n.ID)
		}
		if _, exists := t.index[n.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
		}
		t.index[n.ID] = i
		t.nodes[i] = n
		t.bounds[i] = n.Boundary.Bounds()
		t.byLevel[n.Level] = append(t.byLevel[n.Level], i)
	}

	for i, n := range t.nodes {
		if n.ParentID == nil {
			if n.Level != domain.LevelProvince {
				return nil, fmt.Errorf("%w: %s (%s) has no parent", ErrUnknownParent, n.ID, n.Level)
			}
			t.parent[i] = noParent
			continue
		}
		p, ok := t.index[*n.ParentID]
		if !ok {
			return nil, fmt.Errorf("%w: %s references %s", ErrUnknownParent, n.ID, *n.ParentID)
		}
		want, _ := t.nodes[p].Level.Child()
		if n.Level != want {
			return nil, fmt.Errorf("%w: %s is %s under %s %s", ErrLevelMismatch, n.ID, n.Level, t.nodes[p].Level, t.nodes[p].ID)
		}
		t.parent[i] = p
		t.children[p] = append(t.children[p], i)
	}

	for i := range t.nodes {
		steps := 0
		for cur := i; t.parent[cur] != noParent; cur = t.parent[cur] {
			steps++
			if steps > len(t.nodes) {
				return nil, fmt.Errorf("%w: at %s", ErrCycle, t.nodes[i].ID)
			}
		}
	}
	return t, nil
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// Node returns the node with the given id.
func (t *Tree) Node(id string) (domain.Jurisdiction, bool) {
	i, ok := t.lookup(id)
	if !ok {
		return domain.Jurisdiction{}, false
	}
	return t.nodes[i], true
}

// Parent returns the parent of id, if any.
func (t *Tree) Parent(id string) (domain.Jurisdiction, bool) {
	i, ok := t.lookup(id)
	if !ok || t.parent[i] == noParent {
		return domain.Jurisdiction{}, false
	}
	return t.nodes[t.parent[i]], true
}

// Children returns the direct children of id ordered by id.
func (t *Tree) Children(id string) []domain.Jurisdiction {
	i, ok := t.lookup(id)
	if !ok {
		return nil
	}
	out := make([]domain.Jurisdiction, 0, len(t.children[i]))
	for _, c := range t.children[i] {
		out = append(out, t.nodes[c])
	}
	return out
}

// WalkAncestors calls fn for id and then each ancestor up to the province,
// stopping early when fn returns false.
func (t *Tree) WalkAncestors(id string, fn func(domain.Jurisdiction) bool) {
	i, ok := t.lookup(id)
	if !ok {
		return
	}
	for cur := i; cur != noParent; cur = t.parent[cur] {
		if !fn(t.nodes[cur]) {
			return
		}
	}
}

// Chain returns the path from the province down to id.
func (t *Tree) Chain(id string) []domain.Jurisdiction {
	var chain []domain.Jurisdiction
	t.WalkAncestors(id, func(n domain.Jurisdiction) bool {
		chain = append(chain, n)
		return true
	})
	for l, r := 0, len(chain)-1; l < r; l, r = l+1, r-1 {
		chain[l], chain[r] = chain[r], chain[l]
	}
	return chain
}

// IsAncestorOrSelf reports whether ancestorID is id or one of its ancestors.
func (t *Tree) IsAncestorOrSelf(ancestorID, id string) bool {
	found := false
	t.WalkAncestors(id, func(n domain.Jurisdiction) bool {
		if n.ID == ancestorID {
			found = true
			return false
		}
		return true
	})
	return found
}

// AncestorAt returns the ancestor of id (or id itself) at the given level.
func (t *Tree) AncestorAt(id string, level domain.JurisdictionLevel) (domain.Jurisdiction, bool) {
	var out domain.Jurisdiction
	found := false
	t.WalkAncestors(id, func(n domain.Jurisdiction) bool {
		if n.Level == level {
			out, found = n, true
			return false
		}
		return true
	})
	return out, found
}

// NodesAt returns every node at the given level ordered by id.
func (t *Tree) NodesAt(level domain.JurisdictionLevel) []domain.Jurisdiction {
	if t == nil {
		return nil
	}
	idx := t.byLevel[level]
	out := make([]domain.Jurisdiction, 0, len(idx))
	for _, i := range idx {
		out = append(out, t.nodes[i])
	}
	return out
}

// FindByName returns the single node at level whose id or name matches
// (case-insensitive).
func (t *Tree) FindByName(level domain.JurisdictionLevel, name string) (domain.Jurisdiction, bool) {
	name = strings.TrimSpace(name)
	if t == nil || name == "" {
		return domain.Jurisdiction{}, false
	}
	if i, ok := t.index[name]; ok && t.nodes[i].Level == level {
		return t.nodes[i], true
	}
	var match domain.Jurisdiction
	count := 0
	for _, i := range t.byLevel[level] {
		if strings.EqualFold(t.nodes[i].Name, name) {
			match = t.nodes[i]
			count++
		}
	}
	return match, count == 1
}

// All returns a copy of every node ordered by id.
func (t *Tree) All() []domain.Jurisdiction {
	if t == nil {
		return nil
	}
	return append([]domain.Jurisdiction(nil), t.nodes...)
}

func (t *Tree) lookup(id string) (int, bool) {
	if t == nil {
		return 0, false
	}
	i, ok := t.index[id]
	return i, ok
}

func (t *Tree) containing(level domain.JurisdictionLevel, candidates []int, p geo.Point, at func(domain.Jurisdiction) bool) []int {
	var out []int
	for _, i := range candidates {
		n := t.nodes[i]
		if n.Level != level || n.Boundary.Empty() || !at(n) {
			continue
		}
		if !t.bounds[i].Contains(p) {
			continue
		}
		if n.Boundary.Contains(p) {
			out = append(out, i)
		}
	}
	return out
}
