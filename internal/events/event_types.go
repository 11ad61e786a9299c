package events

import (
	"time"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueSubmitted     EventType = "issue_submitted"
	EventIssueRouted        EventType = "issue_routed"
	EventIssueNeedsTriage   EventType = "issue_needs_triage"
	EventIssueEscalated     EventType = "issue_escalated"
	EventIssueMaxEscalated  EventType = "issue_max_escalated"
	EventDuplicateSuggested EventType = "duplicate_suggested"
	EventIssueStatusChanged EventType = "issue_status_changed"
)

// AllEventTypes lists every type the core publishes.
var AllEventTypes = []EventType{
	EventIssueSubmitted,
	EventIssueRouted,
	EventIssueNeedsTriage,
	EventIssueEscalated,
	EventIssueMaxEscalated,
	EventDuplicateSuggested,
	EventIssueStatusChanged,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type domain.ActorType `json:"type"`
	ID   *string          `json:"id,omitempty"`
}

// SystemActor is used for events raised by the core itself.
var SystemActor = Actor{Type: domain.ActorSystem}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	IssueID   string    `json:"issue_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// IssueSubmittedPayload payload.
type IssueSubmittedPayload struct {
	TrackingID     string              `json:"tracking_id"`
	Category       domain.CategoryCode `json:"category"`
	JurisdictionID *string             `json:"jurisdiction_id,omitempty"`
	Approximate    bool                `json:"jurisdiction_approximate"`
}

// IssueRoutedPayload payload.
type IssueRoutedPayload struct {
	DepartmentID   *string         `json:"department_id,omitempty"`
	JurisdictionID *string         `json:"jurisdiction_id,omitempty"`
	Priority       domain.Priority `json:"priority"`
	SLADeadline    time.Time       `json:"sla_deadline"`
	Reroute        bool            `json:"reroute,omitempty"`
}

// IssueNeedsTriagePayload payload.
type IssueNeedsTriagePayload struct {
	Reasons []string `json:"reasons"`
}

// IssueEscalatedPayload payload.
type IssueEscalatedPayload struct {
	OldLevel  domain.EscalationLevel `json:"old_level"`
	NewLevel  domain.EscalationLevel `json:"new_level"`
	Forced    bool                   `json:"forced,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// IssueMaxEscalatedPayload payload.
type IssueMaxEscalatedPayload struct {
	Level        domain.EscalationLevel `json:"level"`
	DepartmentID *string                `json:"department_id,omitempty"`
	OverdueBy    time.Duration          `json:"overdue_by"`
}

// DuplicateSuggestedPayload payload.
type DuplicateSuggestedPayload struct {
	CandidateIDs []string `json:"candidate_ids"`
	RadiusMeters float64  `json:"radius_meters"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	OldStatus domain.IssueStatus `json:"old_status"`
	NewStatus domain.IssueStatus `json:"new_status"`
	Comment   string             `json:"comment,omitempty"`
}
