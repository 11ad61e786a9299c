package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
)

// DepartmentRepository manages department persistence.
type DepartmentRepository interface {
	Upsert(ctx context.Context, dept *domain.Department) error
	ListAll(ctx context.Context) ([]domain.Department, error)
}

type departmentRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository builds the repository.
func NewDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepository{pool: pool}
}

func (r *departmentRepository) Upsert(ctx context.Context, dept *domain.Department) error {
	const query = `
        INSERT INTO departments (id, name, jurisdiction_id, handled_categories, response_sla_hours, resolution_sla_hours, is_active)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, jurisdiction_id=EXCLUDED.jurisdiction_id,
            handled_categories=EXCLUDED.handled_categories, response_sla_hours=EXCLUDED.response_sla_hours,
            resolution_sla_hours=EXCLUDED.resolution_sla_hours, is_active=EXCLUDED.is_active, updated_at=NOW()
        RETURNING created_at, updated_at`
	categories := make([]string, len(dept.HandledCategories))
	for i, c := range dept.HandledCategories {
		categories[i] = string(c)
	}
	return r.pool.QueryRow(ctx, query,
		dept.ID,
		dept.Name,
		dept.JurisdictionID,
		categories,
		dept.ResponseSLAHours,
		dept.ResolutionSLAHours,
		dept.IsActive,
	).Scan(&dept.CreatedAt, &dept.UpdatedAt)
}

// ListAll returns inactive departments too so the router can skip them
// without losing them from the snapshot.
func (r *departmentRepository) ListAll(ctx context.Context) ([]domain.Department, error) {
	const query = `
        SELECT id, name, jurisdiction_id, handled_categories, response_sla_hours, resolution_sla_hours,
               is_active, created_at, updated_at
        FROM departments ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var (
			dept       domain.Department
			categories []string
		)
		if err := rows.Scan(
			&dept.ID,
			&dept.Name,
			&dept.JurisdictionID,
			&categories,
			&dept.ResponseSLAHours,
			&dept.ResolutionSLAHours,
			&dept.IsActive,
			&dept.CreatedAt,
			&dept.UpdatedAt,
		); err != nil {
			return nil, err
		}
		for _, c := range categories {
			dept.HandledCategories = append(dept.HandledCategories, domain.NormalizeCategory(c))
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}
