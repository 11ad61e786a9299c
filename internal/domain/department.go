package domain

import "time"

// Department is an organizational unit responsible for a set of categories
// within one jurisdiction node and, transitively, its descendants.
type Department struct {
	ID                 string
	Name               string
	JurisdictionID     string
	HandledCategories  []CategoryCode
	ResponseSLAHours   float64
	ResolutionSLAHours float64
	IsActive           bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Handles reports whether the department accepts any of the given categories.
func (d Department) Handles(categories ...CategoryCode) bool {
	for _, handled := range d.HandledCategories {
		for _, c := range categories {
			if c != "" && handled == c {
				return true
			}
		}
	}
	return false
}
