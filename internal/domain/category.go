package domain

import "strings"

// CategoryCode identifies the kind of civic problem reported.
type CategoryCode string

const (
	CategoryWater        CategoryCode = "water"
	CategorySewer        CategoryCode = "sewer"
	CategoryRoads        CategoryCode = "roads"
	CategoryElectricity  CategoryCode = "electricity"
	CategoryStreetlights CategoryCode = "streetlights"
	CategoryRefuse       CategoryCode = "refuse"
	CategoryOther        CategoryCode = "other"
)

// NormalizeCategory trims and lower-cases a client supplied category.
func NormalizeCategory(raw string) CategoryCode {
	return CategoryCode(strings.ToLower(strings.TrimSpace(raw)))
}

// Priority enumerates handling urgency.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}
