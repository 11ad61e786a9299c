package domain

import "time"

// IssueChangeType captures what changed in a history entry.
type IssueChangeType string

const (
	ChangeTypeRouting    IssueChangeType = "ROUTING"
	ChangeTypeEscalation IssueChangeType = "ESCALATION"
	ChangeTypeStatus     IssueChangeType = "STATUS_CHANGE"
	ChangeTypeDuplicate  IssueChangeType = "DUPLICATE_CONFIRMED"
)

// ActorType indicates who made a change.
type ActorType string

const (
	ActorSystem   ActorType = "SYSTEM"
	ActorOperator ActorType = "OPERATOR"
)

// IssueHistory is an immutable audit trail entry.
type IssueHistory struct {
	ID            string
	IssueID       string
	ChangedByType ActorType
	ChangedByID   *string
	ChangeType    IssueChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
