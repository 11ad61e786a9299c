package domain

import (
	"fmt"
	"time"

	"github.com/emmanuelfore/tarisa-sub001/internal/geo"
)

// IssueStatus enumerates lifecycle states managed by the external workflow.
type IssueStatus string

const (
	IssueStatusSubmitted  IssueStatus = "submitted"
	IssueStatusVerified   IssueStatus = "verified"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusResolved   IssueStatus = "resolved"
	IssueStatusClosed     IssueStatus = "closed"
	IssueStatusRejected   IssueStatus = "rejected"
)

// TerminalStatuses stop escalation and duplicate matching.
var TerminalStatuses = []IssueStatus{IssueStatusResolved, IssueStatusClosed, IssueStatusRejected}

// Terminal reports whether the status ends escalation.
func (s IssueStatus) Terminal() bool {
	for _, t := range TerminalStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusSubmitted, IssueStatusVerified, IssueStatusInProgress,
		IssueStatusResolved, IssueStatusClosed, IssueStatusRejected:
		return true
	}
	return false
}

// EscalationLevel is the organizational visibility of an overdue issue.
type EscalationLevel int

const (
	EscalationL1 EscalationLevel = iota + 1
	EscalationL2
	EscalationL3
	EscalationL4
)

// MaxEscalationLevel is terminal; the engine alerts instead of advancing.
const MaxEscalationLevel = EscalationL4

func (l EscalationLevel) String() string {
	return fmt.Sprintf("L%d", int(l))
}

// Valid reports whether l is within L1..L4.
func (l EscalationLevel) Valid() bool {
	return l >= EscalationL1 && l <= EscalationL4
}

// Next returns the following level; false at L4.
func (l EscalationLevel) Next() (EscalationLevel, bool) {
	if !l.Valid() || l >= MaxEscalationLevel {
		return l, false
	}
	return l + 1, true
}

// Triage reasons attached to issues that need a human to finish routing.
const (
	TriageUnresolvedJurisdiction = "unresolved_jurisdiction"
	TriageNoDepartmentMatch      = "no_department_match"
	TriageUnknownCategory        = "unknown_category"
	TriageMalformedCoordinates   = "malformed_coordinates"
)

// Issue is a civic problem report.
type Issue struct {
	ID                      string
	TrackingID              string
	ReporterID              string
	Category                CategoryCode
	Description             string
	Coordinates             *geo.Point
	DeclaredRegion          string
	JurisdictionID          *string
	JurisdictionApproximate bool
	AssignedDepartmentID    *string
	Priority                Priority
	SLADeadline             time.Time
	NeedsManualTriage       bool
	TriageReasons           []string
	Status                  IssueStatus
	EscalationLevel         EscalationLevel
	CreatedAt               time.Time
	UpdatedAt               time.Time
	ResolvedAt              *time.Time
	DuplicateOfID           *string
	DuplicateCandidates     []string
}

// Location returns the usable coordinates of the issue, if any.
func (i *Issue) Location() (geo.Point, bool) {
	if i == nil || i.Coordinates == nil || !i.Coordinates.Valid() {
		return geo.Point{}, false
	}
	return *i.Coordinates, true
}

// Open reports whether the issue is still subject to escalation.
func (i *Issue) Open() bool {
	return !i.Status.Terminal()
}
