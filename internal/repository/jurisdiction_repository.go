package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emmanuelfore/tarisa-sub001/internal/domain"
	"github.com/emmanuelfore/tarisa-sub001/internal/geo"
)

// JurisdictionRepository manages the administrative hierarchy.
type JurisdictionRepository interface {
	Upsert(ctx context.Context, j *domain.Jurisdiction) error
	ListAll(ctx context.Context) ([]domain.Jurisdiction, error)
}

type jurisdictionRepository struct {
	pool *pgxpool.Pool
}

// NewJurisdictionRepository builds the repository.
func NewJurisdictionRepository(pool *pgxpool.Pool) JurisdictionRepository {
	return &jurisdictionRepository{pool: pool}
}

func (r *jurisdictionRepository) Upsert(ctx context.Context, j *domain.Jurisdiction) error {
	const query = `
        INSERT INTO jurisdictions (id, name, level, parent_id, boundary, is_active, effective_from, effective_to)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, level=EXCLUDED.level, parent_id=EXCLUDED.parent_id,
            boundary=EXCLUDED.boundary, is_active=EXCLUDED.is_active,
            effective_from=EXCLUDED.effective_from, effective_to=EXCLUDED.effective_to`
	var boundary []byte
	if len(j.Boundary) > 0 {
		encoded, err := json.Marshal(j.Boundary)
		if err != nil {
			return fmt.Errorf("encode boundary %s: %w", j.ID, err)
		}
		boundary = encoded
	}
	_, err := r.pool.Exec(ctx, query,
		j.ID,
		j.Name,
		j.Level,
		j.ParentID,
		boundary,
		j.IsActive,
		j.EffectiveFrom,
		j.EffectiveTo,
	)
	return err
}

func (r *jurisdictionRepository) ListAll(ctx context.Context) ([]domain.Jurisdiction, error) {
	const query = `
        SELECT id, name, level, parent_id, boundary, is_active, effective_from, effective_to
        FROM jurisdictions ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Jurisdiction
	for rows.Next() {
		var (
			j        domain.Jurisdiction
			boundary []byte
		)
		if err := rows.Scan(
			&j.ID,
			&j.Name,
			&j.Level,
			&j.ParentID,
			&boundary,
			&j.IsActive,
			&j.EffectiveFrom,
			&j.EffectiveTo,
		); err != nil {
			return nil, err
		}
		if len(boundary) > 0 {
			var poly geo.Polygon
			if err := json.Unmarshal(boundary, &poly); err != nil {
				return nil, fmt.Errorf("decode boundary %s: %w", j.ID, err)
			}
			j.Boundary = poly
		}
		result = append(result, j)
	}
	return result, rows.Err()
}
