package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
)

type UpdateTenderStatusParams struct {
	TenderID  int64
	NewStatus int64
	ChangedBy int64
	Comment   *string
}

// StatusChange reports a committed canonical-status transition.
type StatusChange struct {
	TenderID   int64
	TenderNo   string
	PrevStatus *int64
	NewStatus  int64
}

// UpdateTenderStatus performs a manual canonical-status transition: the
// status write and its ledger entry commit together or not at all.
// Returns ErrSameStatus when the tender already carries the target status.
func (r *Repository) UpdateTenderStatus(ctx context.Context, p UpdateTenderStatusParams) (*StatusChange, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tender, err := r.lockTenderTx(ctx, tx, p.TenderID)
	if err != nil {
		return nil, err
	}
	if tender.Status != nil && *tender.Status == p.NewStatus {
		return nil, ErrSameStatus
	}

	if err := r.setTenderStatusTx(ctx, tx, p.TenderID, p.NewStatus); err != nil {
		return nil, err
	}
	if err := r.appendStatusHistoryTx(ctx, tx, historyParams{
		TenderID:   p.TenderID,
		PrevStatus: tender.Status,
		NewStatus:  p.NewStatus,
		ChangedBy:  p.ChangedBy,
		Comment:    p.Comment,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &StatusChange{
		TenderID:   tender.ID,
		TenderNo:   tender.TenderNo,
		PrevStatus: tender.Status,
		NewStatus:  p.NewStatus,
	}, nil
}
