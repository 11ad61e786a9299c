package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
	"github.com/emmanuelfore/tarisa-sub001/internal/geo"
)

// IssueRepository encapsulates issue persistence. Every mutation is a
// conditional update that returns ErrConflict when its precondition no longer
// holds and ErrNotFound when the issue does not exist.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*domain.Issue, error)
	ListOpen(ctx context.Context) ([]domain.Issue, error)
	ListOpenWithin(ctx context.Context, box geo.BoundingBox) ([]domain.Issue, error)
	AdvanceEscalation(ctx context.Context, id string, from, to domain.EscalationLevel, at time.Time) error
	TransitionStatus(ctx context.Context, id string, from, to domain.IssueStatus, at time.Time) error
	UpdateRouting(ctx context.Context, issue *domain.Issue) error
	SetDuplicateOf(ctx context.Context, id, duplicateOfID string, at time.Time) error
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, tracking_id, reporter_id, category, description, latitude, longitude,
               declared_region, jurisdiction_id, jurisdiction_approximate, assigned_department_id,
               priority, sla_deadline, needs_manual_triage, triage_reasons, status, escalation_level,
               created_at, updated_at, resolved_at, duplicate_of_id, duplicate_candidates`

func terminalStatuses() []string {
	out := make([]string, len(domain.TerminalStatuses))
	for i, s := range domain.TerminalStatuses {
		out[i] = string(s)
	}
	return out
}

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (id, tracking_id, reporter_id, category, description, latitude, longitude,
            declared_region, jurisdiction_id, jurisdiction_approximate, assigned_department_id,
            priority, sla_deadline, needs_manual_triage, triage_reasons, status, escalation_level,
            created_at, updated_at, duplicate_candidates)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`
	var lat, lng *float64
	if issue.Coordinates != nil {
		lat, lng = &issue.Coordinates.Lat, &issue.Coordinates.Lng
	}
	_, err := r.pool.Exec(ctx, query,
		issue.ID,
		issue.TrackingID,
		issue.ReporterID,
		issue.Category,
		issue.Description,
		lat,
		lng,
		issue.DeclaredRegion,
		issue.JurisdictionID,
		issue.JurisdictionApproximate,
		issue.AssignedDepartmentID,
		issue.Priority,
		issue.SLADeadline,
		issue.NeedsManualTriage,
		nonNil(issue.TriageReasons),
		issue.Status,
		issue.EscalationLevel,
		issue.CreatedAt,
		issue.UpdatedAt,
		nonNil(issue.DuplicateCandidates),
	)
	return err
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *issueRepository) GetByTrackingID(ctx context.Context, trackingID string) (*domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE tracking_id=$1`
	return r.fetchSingle(ctx, query, trackingID)
}

func (r *issueRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Issue, error) {
	issue, err := scanIssue(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return issue, nil
}

func (r *issueRepository) ListOpen(ctx context.Context) ([]domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues
             WHERE status <> ALL($1) ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query, terminalStatuses())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

// ListOpenWithin honours boxes that wrap the antimeridian (MinLng > MaxLng).
func (r *issueRepository) ListOpenWithin(ctx context.Context, box geo.BoundingBox) ([]domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues
             WHERE status <> ALL($1)
               AND latitude BETWEEN $2 AND $3
               AND (($4::double precision <= $5::double precision AND longitude BETWEEN $4 AND $5)
                 OR ($4 > $5 AND (longitude >= $4 OR longitude <= $5)))
             ORDER BY id`
	rows, err := r.pool.Query(ctx, query, terminalStatuses(), box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) AdvanceEscalation(ctx context.Context, id string, from, to domain.EscalationLevel, at time.Time) error {
	const query = `
        UPDATE issues SET escalation_level=$3, updated_at=$4
        WHERE id=$1 AND escalation_level=$2 AND status <> ALL($5)`
	cmd, err := r.pool.Exec(ctx, query, id, from, to, at, terminalStatuses())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

func (r *issueRepository) TransitionStatus(ctx context.Context, id string, from, to domain.IssueStatus, at time.Time) error {
	const query = `
        UPDATE issues SET status=$3, updated_at=$4,
            resolved_at = CASE WHEN $3 = 'resolved' THEN COALESCE(resolved_at, $4) ELSE resolved_at END
        WHERE id=$1 AND status=$2`
	cmd, err := r.pool.Exec(ctx, query, id, from, to, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

func (r *issueRepository) UpdateRouting(ctx context.Context, issue *domain.Issue) error {
	const query = `
        UPDATE issues SET jurisdiction_id=$2, jurisdiction_approximate=$3, assigned_department_id=$4,
            priority=$5, sla_deadline=$6, needs_manual_triage=$7, triage_reasons=$8, updated_at=$9
        WHERE id=$1 AND status <> ALL($10)`
	cmd, err := r.pool.Exec(ctx, query,
		issue.ID,
		issue.JurisdictionID,
		issue.JurisdictionApproximate,
		issue.AssignedDepartmentID,
		issue.Priority,
		issue.SLADeadline,
		issue.NeedsManualTriage,
		nonNil(issue.TriageReasons),
		issue.UpdatedAt,
		terminalStatuses(),
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return r.missOrConflict(ctx, issue.ID)
	}
	return nil
}

func (r *issueRepository) SetDuplicateOf(ctx context.Context, id, duplicateOfID string, at time.Time) error {
	const query = `
        UPDATE issues SET duplicate_of_id=$2, updated_at=$3
        WHERE id=$1 AND (duplicate_of_id IS NULL OR duplicate_of_id=$2)`
	cmd, err := r.pool.Exec(ctx, query, id, duplicateOfID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

func (r *issueRepository) missOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM issues WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

func scanIssue(row pgx.Row) (*domain.Issue, error) {
	var (
		issue    domain.Issue
		lat, lng *float64
	)
	if err := row.Scan(
		&issue.ID,
		&issue.TrackingID,
		&issue.ReporterID,
		&issue.Category,
		&issue.Description,
		&lat,
		&lng,
		&issue.DeclaredRegion,
		&issue.JurisdictionID,
		&issue.JurisdictionApproximate,
		&issue.AssignedDepartmentID,
		&issue.Priority,
		&issue.SLADeadline,
		&issue.NeedsManualTriage,
		&issue.TriageReasons,
		&issue.Status,
		&issue.EscalationLevel,
		&issue.CreatedAt,
		&issue.UpdatedAt,
		&issue.ResolvedAt,
		&issue.DuplicateOfID,
		&issue.DuplicateCandidates,
	); err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		issue.Coordinates = &geo.Point{Lat: *lat, Lng: *lng}
	}
	return &issue, nil
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	var result []domain.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *issue)
	}
	return result, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
