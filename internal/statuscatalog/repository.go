// Package statuscatalog loads the canonical status catalog and resolves the
// fixed status codes the workflow engine assigns.
package statuscatalog

import (
	"context"

	"tender_portal_backend/platform/apperr"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Status is one row of the catalog.
type Status struct {
	ID       int64
	Name     string
	Category *string
}

// Repository reads the status catalog from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a status catalog repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListAll returns every catalog status.
func (r *Repository) ListAll(ctx context.Context) ([]Status, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, tender_category
		FROM statuses
		ORDER BY id`)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list statuses", err).WithOp("statuscatalog.ListAll")
	}
	defer rows.Close()

	var statuses []Status
	for rows.Next() {
		var s Status
		if err := rows.Scan(&s.ID, &s.Name, &s.Category); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to scan status", err).WithOp("statuscatalog.ListAll")
		}
		statuses = append(statuses, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to read statuses", err).WithOp("statuscatalog.ListAll")
	}

	return statuses, nil
}
