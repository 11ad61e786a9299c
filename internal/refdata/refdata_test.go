package refdata

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
	"github.com/emmanuelfore/tarisa-sub001/internal/geo"
	"github.com/emmanuelfore/tarisa-sub001/internal/routing"
)

type stubSource struct {
	data Data
	err  error
	hits int
}

func (s *stubSource) Load(context.Context) (Data, error) {
	s.hits++
	return s.data, s.err
}

type stubCache struct {
	data   Data
	stored bool
	err    error
}

func (c *stubCache) Load(context.Context) (Data, bool, error) {
	return c.data, c.stored, c.err
}

func (c *stubCache) Store(_ context.Context, data Data) error {
	c.data, c.stored = data, true
	return nil
}

func rules(t *testing.T) *routing.RuleSet {
	t.Helper()
	r, err := routing.DefaultRules()
	require.NoError(t, err)
	return r
}

func sample(t *testing.T) Data {
	t.Helper()
	data, err := FileSource{}.Load(context.Background())
	require.NoError(t, err)
	return data
}

func TestSampleSeedBuilds(t *testing.T) {
	snap, err := Build(sample(t), rules(t), time.Now())
	require.NoError(t, err)

	jurisdictions, departments := snap.Counts()
	assert.Equal(t, 8, jurisdictions)
	assert.Equal(t, 6, departments)

	res := snap.Resolver.Resolve(&geo.Point{Lat: -17.83, Lng: 31.05}, "", time.Now())
	require.True(t, res.Resolved())
	assert.Equal(t, "ward-hre-1", res.JurisdictionID)

	a := snap.Router.Route(domain.CategoryWater, res.Ref(), time.Now())
	require.NotNil(t, a.DepartmentID)
	assert.Equal(t, "dept-hcc-ward1-water", *a.DepartmentID)

	dept, ok := snap.Department("dept-zesa-harare")
	require.True(t, ok)
	assert.Equal(t, 12.0, dept.ResponseSLAHours)
	assert.Equal(t, domain.PriorityHigh, snap.Rule(domain.CategoryRoads).Priority)
}

func TestParseSeed(t *testing.T) {
	data, err := ParseSeed(strings.NewReader(`
jurisdictions:
  - id: p
    name: P
    level: province
  - id: la
    name: LA
    level: local_authority
    parent: p
    active: false
    effectiveTo: 2024-01-01T00:00:00Z
departments:
  - id: d
    name: D
    jurisdiction: la
    categories: [" Water "]
    responseSlaHours: 4
    resolutionSlaHours: 8
`))
	require.NoError(t, err)
	require.Len(t, data.Jurisdictions, 2)
	assert.Nil(t, data.Jurisdictions[0].ParentID)
	assert.Equal(t, "p", *data.Jurisdictions[1].ParentID)
	assert.False(t, data.Jurisdictions[1].IsActive)
	require.NotNil(t, data.Jurisdictions[1].EffectiveTo)
	assert.Equal(t, 2024, data.Jurisdictions[1].EffectiveTo.Year())
	assert.Equal(t, []domain.CategoryCode{domain.CategoryWater}, data.Departments[0].HandledCategories)
	assert.True(t, data.Departments[0].IsActive)

	_, err = ParseSeed(strings.NewReader("jurisdictions:\n  - id: p\n    colour: red\n"))
	assert.Error(t, err, "unknown fields are rejected")
}

func TestManagerKeepsLastGoodSnapshot(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	source := &stubSource{data: sample(t)}
	cache := &stubCache{}
	m := NewManager(source, rules(t), nil, WithCache(cache), WithClock(func() time.Time { return clock }))
	assert.Nil(t, m.Current())

	first, err := m.Refresh(ctx)
	require.NoError(t, err)
	assert.Same(t, first, m.Current())
	assert.True(t, cache.stored)

	source.err = errors.New("connection refused")
	clock = clock.Add(10 * time.Minute)
	got, err := m.Refresh(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Same(t, first, got)
	assert.Same(t, first, m.Current())
	assert.EqualValues(t, 1, m.Failures())
}

func TestManagerRejectsInvalidData(t *testing.T) {
	ctx := context.Background()
	good := sample(t)
	source := &stubSource{data: good}
	m := NewManager(source, rules(t), nil)
	first, err := m.Refresh(ctx)
	require.NoError(t, err)

	broken := Data{Jurisdictions: append([]domain.Jurisdiction{}, good.Jurisdictions...), Departments: good.Departments}
	broken.Jurisdictions = append(broken.Jurisdictions, domain.Jurisdiction{ID: "orphan", Level: domain.LevelWard})
	source.data = broken

	_, err = m.Refresh(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Same(t, first, m.Current())
}

func TestManagerColdStartUsesCache(t *testing.T) {
	ctx := context.Background()
	cache := &stubCache{data: sample(t), stored: true}
	m := NewManager(&stubSource{err: errors.New("down")}, rules(t), nil, WithCache(cache))

	snap, err := m.Refresh(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	require.NotNil(t, snap)
	assert.Same(t, snap, m.Current())

	empty := NewManager(&stubSource{err: errors.New("down")}, rules(t), nil)
	snap, err = empty.Refresh(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Nil(t, snap)
	assert.Nil(t, empty.Current())
}

func TestCacheEncoding(t *testing.T) {
	data := sample(t)
	raw, err := encodeData(data)
	require.NoError(t, err)
	decoded, err := decodeData(raw)
	require.NoError(t, err)

	_, err = Build(decoded, rules(t), time.Now())
	require.NoError(t, err)
	assert.Equal(t, len(data.Jurisdictions), len(decoded.Jurisdictions))
	assert.Equal(t, data.Jurisdictions[1].Boundary, decoded.Jurisdictions[1].Boundary)
}
