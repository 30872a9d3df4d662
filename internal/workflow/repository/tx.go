package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// lockedTender is the slice of the tender row every transition needs.
type lockedTender struct {
	ID       int64
	TenderNo string
	Status   *int64
}

// lockTenderTx takes a row lock on the tender, serializing concurrent
// transitions against the same tender for the life of the transaction.
// Soft-deleted tenders report as not found.
func (r *Repository) lockTenderTx(ctx context.Context, tx pgx.Tx, tenderID int64) (*lockedTender, error) {
	var t lockedTender
	err := tx.QueryRow(ctx, `
		SELECT id, tender_no, status
		FROM tender_infos
		WHERE id = $1 AND delete_status = 0
		FOR UPDATE`, tenderID).Scan(&t.ID, &t.TenderNo, &t.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) setTenderStatusTx(ctx context.Context, tx pgx.Tx, tenderID, status int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE tender_infos
		SET status = $2, updated_at = now()
		WHERE id = $1`, tenderID, status)
	return err
}

type historyParams struct {
	TenderID   int64
	PrevStatus *int64
	NewStatus  int64
	ChangedBy  int64
	Comment    *string
}

// appendStatusHistoryTx writes a ledger entry. It deliberately takes the
// transaction handle of the status mutation it documents; a ledger row
// committed separately from its status change would be a correctness bug.
func (r *Repository) appendStatusHistoryTx(ctx context.Context, tx pgx.Tx, p historyParams) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO tender_status_history (tender_id, prev_status, new_status, changed_by, comment)
		VALUES ($1, $2, $3, $4, $5)`,
		p.TenderID, p.PrevStatus, p.NewStatus, p.ChangedBy, p.Comment)
	return err
}

// upsertResultProjectionTx refreshes the per-tender result projection inside
// the same transaction as the sub-workflow write it derives from.
func (r *Repository) upsertResultProjectionTx(ctx context.Context, tx pgx.Tx, tenderID int64, raID *int64, status string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO tender_results (tender_id, status, reverse_auction_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (tender_id) DO UPDATE
		SET status = EXCLUDED.status,
		    reverse_auction_id = EXCLUDED.reverse_auction_id,
		    updated_at = now()`,
		tenderID, status, raID)
	return err
}
