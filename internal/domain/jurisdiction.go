package domain

import (
	"time"

	"github.com/emmanuelfore/tarisa-sub001/internal/geo"
)

// JurisdictionLevel enumerates the administrative tiers.
type JurisdictionLevel string

const (
	LevelProvince       JurisdictionLevel = "province"
	LevelLocalAuthority JurisdictionLevel = "local_authority"
	LevelWard           JurisdictionLevel = "ward"
	LevelSuburb         JurisdictionLevel = "suburb"
)

var levelRank = map[JurisdictionLevel]int{
	LevelProvince:       0,
	LevelLocalAuthority: 1,
	LevelWard:           2,
	LevelSuburb:         3,
}

// Rank returns the depth of the level (province is 0) and false for unknown levels.
func (l JurisdictionLevel) Rank() (int, bool) {
	r, ok := levelRank[l]
	return r, ok
}

// Child returns the level directly below l.
func (l JurisdictionLevel) Child() (JurisdictionLevel, bool) {
	switch l {
	case LevelProvince:
		return LevelLocalAuthority, true
	case LevelLocalAuthority:
		return LevelWard, true
	case LevelWard:
		return LevelSuburb, true
	default:
		return "", false
	}
}

// Jurisdiction is a node of the administrative hierarchy.
type Jurisdiction struct {
	ID            string
	Name          string
	Level         JurisdictionLevel
	ParentID      *string
	Boundary      geo.Polygon
	IsActive      bool
	EffectiveFrom *time.Time
	EffectiveTo   *time.Time
}

// ActiveAt reports whether the node is in force at the given instant.
// EffectiveTo is exclusive.
func (j Jurisdiction) ActiveAt(at time.Time) bool {
	if !j.IsActive {
		return false
	}
	if j.EffectiveFrom != nil && at.Before(*j.EffectiveFrom) {
		return false
	}
	if j.EffectiveTo != nil && !at.Before(*j.EffectiveTo) {
		return false
	}
	return true
}
