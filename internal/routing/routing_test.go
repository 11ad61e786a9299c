package routing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
	"github.com/emmanuelfore/tarisa-sub001/internal/jurisdiction"
)

func ptr[T any](v T) *T { return &v }

var createdAt = time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)

func testTree(t *testing.T) *jurisdiction.Tree {
	t.Helper()
	tree, err := jurisdiction.Build([]domain.Jurisdiction{
		{ID: "prov", Name: "Harare Metropolitan", Level: domain.LevelProvince, IsActive: true},
		{ID: "la", Name: "Harare City Council", Level: domain.LevelLocalAuthority, ParentID: ptr("prov"), IsActive: true},
		{ID: "ward-1", Name: "Ward 1", Level: domain.LevelWard, ParentID: ptr("la"), IsActive: true},
		{ID: "ward-2", Name: "Ward 2", Level: domain.LevelWard, ParentID: ptr("la"), IsActive: true},
		{ID: "sub-1", Name: "Avondale", Level: domain.LevelSuburb, ParentID: ptr("ward-1"), IsActive: true},
	})
	require.NoError(t, err)
	return tree
}

func dept(id, jurisdictionID string, active bool, categories ...domain.CategoryCode) domain.Department {
	return domain.Department{
		ID:                 id,
		Name:               id,
		JurisdictionID:     jurisdictionID,
		HandledCategories:  categories,
		ResponseSLAHours:   24,
		ResolutionSLAHours: 72,
		IsActive:           active,
	}
}

func testDepartments() []domain.Department {
	return []domain.Department{
		dept("dept-water-la", "la", true, domain.CategoryWater),
		dept("dept-water-ward1", "ward-1", true, domain.CategoryWater),
		dept("dept-roads-prov", "prov", true, domain.CategoryRoads),
		dept("dept-elec-b", "la", true, domain.CategoryElectricity),
		dept("dept-elec-a", "la", true, domain.CategoryElectricity),
		dept("dept-roads-ward2-retired", "ward-2", false, domain.CategoryRoads),
	}
}

func testRouter(t *testing.T) *Router {
	t.Helper()
	rules, err := DefaultRules()
	require.NoError(t, err)
	return NewRouter(testTree(t), testDepartments(), rules)
}

func TestRoute(t *testing.T) {
	router := testRouter(t)

	cases := []struct {
		name         string
		category     domain.CategoryCode
		jurisdiction *string
		wantDept     *string
		wantPriority domain.Priority
		wantSLA      time.Duration
		wantReasons  []string
	}{
		{"closest ancestor wins", domain.CategoryWater, ptr("sub-1"), ptr("dept-water-ward1"), domain.PriorityCritical, 24 * time.Hour, nil},
		{"walks up to authority", domain.CategoryWater, ptr("ward-2"), ptr("dept-water-la"), domain.PriorityCritical, 24 * time.Hour, nil},
		{"inactive departments are skipped", domain.CategoryRoads, ptr("ward-2"), ptr("dept-roads-prov"), domain.PriorityHigh, 72 * time.Hour, nil},
		{"same node tie breaks on id", domain.CategoryElectricity, ptr("ward-1"), ptr("dept-elec-a"), domain.PriorityHigh, 48 * time.Hour, nil},
		{"department category match", domain.CategorySewer, ptr("ward-2"), ptr("dept-water-la"), domain.PriorityCritical, 24 * time.Hour, nil},
		{"no department", domain.CategoryRefuse, ptr("ward-1"), nil, domain.PriorityMedium, 72 * time.Hour, []string{domain.TriageNoDepartmentMatch}},
		{"unresolved jurisdiction", domain.CategoryWater, nil, nil, domain.PriorityCritical, 24 * time.Hour, []string{domain.TriageUnresolvedJurisdiction}},
		{"unknown jurisdiction id", domain.CategoryWater, ptr("ward-99"), nil, domain.PriorityCritical, 24 * time.Hour, []string{domain.TriageNoDepartmentMatch}},
		{"unknown category", "graffiti", ptr("ward-1"), nil, domain.PriorityMedium, 168 * time.Hour, []string{domain.TriageUnknownCategory, domain.TriageNoDepartmentMatch}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := router.Route(tc.category, tc.jurisdiction, createdAt)
			assert.Equal(t, tc.wantDept, got.DepartmentID)
			assert.Equal(t, tc.wantPriority, got.Priority)
			assert.Equal(t, createdAt.Add(tc.wantSLA), got.SLADeadline)
			assert.Equal(t, tc.wantReasons, got.TriageReasons)
			assert.Equal(t, tc.wantDept == nil || len(tc.wantReasons) > 0, got.NeedsManualTriage)
		})
	}
}

func TestRouteIsDeterministic(t *testing.T) {
	router := testRouter(t)
	for _, category := range []domain.CategoryCode{domain.CategoryWater, domain.CategoryRoads, domain.CategoryRefuse, "graffiti"} {
		first := router.Route(category, ptr("sub-1"), createdAt)
		second := router.Route(category, ptr("sub-1"), createdAt)
		assert.Equal(t, first, second, category)
	}

	rebuilt := testRouter(t)
	assert.Equal(t, router.Route(domain.CategoryElectricity, ptr("ward-2"), createdAt),
		rebuilt.Route(domain.CategoryElectricity, ptr("ward-2"), createdAt))
}

func TestValidateDepartments(t *testing.T) {
	tree := testTree(t)
	require.NoError(t, ValidateDepartments(tree, testDepartments()))

	empty := dept("d", "la", true)
	assert.ErrorIs(t, ValidateDepartments(tree, []domain.Department{empty}), ErrInvalidDepartment)

	orphan := dept("d", "nowhere", true, domain.CategoryWater)
	assert.ErrorIs(t, ValidateDepartments(tree, []domain.Department{orphan}), ErrInvalidDepartment)

	dup := dept("d", "la", true, domain.CategoryWater)
	assert.ErrorIs(t, ValidateDepartments(tree, []domain.Department{dup, dup}), ErrInvalidDepartment)

	noSLA := dept("d", "la", true, domain.CategoryWater)
	noSLA.ResponseSLAHours = 0
	assert.ErrorIs(t, ValidateDepartments(tree, []domain.Department{noSLA}), ErrInvalidDepartment)
}

func TestLoadRules(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		rules, err := DefaultRules()
		require.NoError(t, err)
		water, ok := rules.Lookup(domain.CategoryWater)
		require.True(t, ok)
		assert.Equal(t, domain.PriorityCritical, water.Priority)
		assert.Equal(t, 24*time.Hour, water.SLA())
		assert.Equal(t, domain.CategoryOther, rules.Fallback().Category)
		assert.Len(t, rules.Rules(), 6)
	})

	t.Run("custom table", func(t *testing.T) {
		rules, err := LoadRules(strings.NewReader(`
rules:
  - category: Potholes
    priority: low
    slaHours: 12
fallback:
  priority: low
  slaHours: 240
`))
		require.NoError(t, err)
		r, ok := rules.Lookup("potholes")
		require.True(t, ok)
		assert.Equal(t, domain.CategoryCode("potholes"), r.DepartmentCategory)
		assert.Equal(t, domain.CategoryOther, rules.Fallback().Category)
	})

	t.Run("rejects bad priority", func(t *testing.T) {
		_, err := LoadRules(strings.NewReader("rules:\n  - category: water\n    priority: urgent\n    slaHours: 1\nfallback:\n  priority: low\n  slaHours: 1\n"))
		assert.ErrorIs(t, err, ErrInvalidRule)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		_, err := NewRuleSet([]AssignmentRule{
			{Category: "water", Priority: domain.PriorityHigh, SLAHours: 1},
			{Category: "WATER", Priority: domain.PriorityHigh, SLAHours: 1},
		}, AssignmentRule{Priority: domain.PriorityLow, SLAHours: 1})
		assert.ErrorIs(t, err, ErrInvalidRule)
	})

	t.Run("rejects missing fallback sla", func(t *testing.T) {
		_, err := NewRuleSet(nil, AssignmentRule{Priority: domain.PriorityLow})
		assert.ErrorIs(t, err, ErrInvalidRule)
	})

	t.Run("rejects malformed yaml", func(t *testing.T) {
		_, err := LoadRules(strings.NewReader("rules: [this is: not valid"))
		assert.Error(t, err)
	})
}
