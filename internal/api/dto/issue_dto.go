package dto

import (
	"time"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
	"github.com/emmanuelfore/tarisa-sub001/internal/duplicate"
)

// SubmitIssueRequest payload.
type SubmitIssueRequest struct {
	ReporterID     string   `json:"reporter_id"`
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	DeclaredRegion string   `json:"declared_region"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status  domain.IssueStatus `json:"status"`
	Comment string             `json:"comment"`
}

// ConfirmDuplicateRequest payload.
type ConfirmDuplicateRequest struct {
	DuplicateOfID string `json:"duplicate_of_id"`
}

// RerouteRequest payload. Without a jurisdiction the stored location is
// resolved again.
type RerouteRequest struct {
	JurisdictionID *string `json:"jurisdiction_id"`
}

// Coordinates response.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IssueResponse response.
type IssueResponse struct {
	ID                      string                 `json:"id"`
	TrackingID              string                 `json:"tracking_id"`
	ReporterID              string                 `json:"reporter_id"`
	Category                domain.CategoryCode    `json:"category"`
	Description             string                 `json:"description"`
	Coordinates             *Coordinates           `json:"coordinates,omitempty"`
	DeclaredRegion          string                 `json:"declared_region,omitempty"`
	JurisdictionID          *string                `json:"jurisdiction_id"`
	JurisdictionApproximate bool                   `json:"jurisdiction_approximate"`
	AssignedDepartmentID    *string                `json:"assigned_department_id"`
	Priority                domain.Priority        `json:"priority"`
	SLADeadline             time.Time              `json:"sla_deadline"`
	NeedsManualTriage       bool                   `json:"needs_manual_triage"`
	TriageReasons           []string               `json:"triage_reasons"`
	Status                  domain.IssueStatus     `json:"status"`
	EscalationLevel         domain.EscalationLevel `json:"escalation_level"`
	CreatedAt               time.Time              `json:"created_at"`
	UpdatedAt               time.Time              `json:"updated_at"`
	ResolvedAt              *time.Time             `json:"resolved_at"`
	DuplicateOfID           *string                `json:"duplicate_of_id"`
	DuplicateCandidates     []string               `json:"duplicate_candidates"`
}

// SubmitIssueResponse response.
type SubmitIssueResponse struct {
	Issue      IssueResponse         `json:"issue"`
	Resolution ResolveResponse       `json:"resolution"`
	Candidates []duplicate.Candidate `json:"duplicate_candidates"`
}

// HistoryEntryResponse response.
type HistoryEntryResponse struct {
	ID            string                 `json:"id"`
	ChangedByType domain.ActorType       `json:"changed_by_type"`
	ChangedByID   *string                `json:"changed_by_id,omitempty"`
	ChangeType    domain.IssueChangeType `json:"change_type"`
	OldValue      map[string]any         `json:"old_value,omitempty"`
	NewValue      map[string]any         `json:"new_value,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// JurisdictionRef response.
type JurisdictionRef struct {
	ID    string                   `json:"id"`
	Name  string                   `json:"name"`
	Level domain.JurisdictionLevel `json:"level"`
}

// ResolveResponse response.
type ResolveResponse struct {
	JurisdictionID *string                  `json:"jurisdiction_id"`
	Level          domain.JurisdictionLevel `json:"level,omitempty"`
	Approximate    bool                     `json:"approximate"`
	Method         string                   `json:"method"`
	Chain          []JurisdictionRef        `json:"chain"`
	Suburb         *JurisdictionRef         `json:"suburb,omitempty"`
}

// NewIssueResponse maps a domain issue.
func NewIssueResponse(issue *domain.Issue) IssueResponse {
	resp := IssueResponse{
		ID:                      issue.ID,
		TrackingID:              issue.TrackingID,
		ReporterID:              issue.ReporterID,
		Category:                issue.Category,
		Description:             issue.Description,
		DeclaredRegion:          issue.DeclaredRegion,
		JurisdictionID:          issue.JurisdictionID,
		JurisdictionApproximate: issue.JurisdictionApproximate,
		AssignedDepartmentID:    issue.AssignedDepartmentID,
		Priority:                issue.Priority,
		SLADeadline:             issue.SLADeadline,
		NeedsManualTriage:       issue.NeedsManualTriage,
		TriageReasons:           nonNil(issue.TriageReasons),
		Status:                  issue.Status,
		EscalationLevel:         issue.EscalationLevel,
		CreatedAt:               issue.CreatedAt,
		UpdatedAt:               issue.UpdatedAt,
		ResolvedAt:              issue.ResolvedAt,
		DuplicateOfID:           issue.DuplicateOfID,
		DuplicateCandidates:     nonNil(issue.DuplicateCandidates),
	}
	if p, ok := issue.Location(); ok {
		resp.Coordinates = &Coordinates{Latitude: p.Lat, Longitude: p.Lng}
	}
	return resp
}

// NewHistoryResponse maps audit entries.
func NewHistoryResponse(entries []domain.IssueHistory) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntryResponse{
			ID:            e.ID,
			ChangedByType: e.ChangedByType,
			ChangedByID:   e.ChangedByID,
			ChangeType:    e.ChangeType,
			OldValue:      e.OldValue,
			NewValue:      e.NewValue,
			CreatedAt:     e.CreatedAt,
		})
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
